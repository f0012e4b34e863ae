package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kjk/patients/backup"
	"github.com/kjk/patients/export"
	"github.com/kjk/patients/log"
	"github.com/kjk/patients/menu"
	"github.com/kjk/patients/store"
	"github.com/spf13/cobra"
)

var (
	flgMatch  string
	flgUpload bool
)

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search records by a part of name or contact",
	Long: `Prints records whose name or contact contains <term> (case-sensitive).
Output is the same as option 2 of the interactive menu.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := args[0]
		res, err := store.New(cfg.File).Search(term)
		if err != nil {
			return err
		}
		log.Event("patient_search", "term_len", len(term), "matches", len(res))
		return menu.PrintResults(cmd.OutOrStdout(), term, res, cfg.Format)
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <out.xlsx|out.json|out.csv>",
	Short: "Export records to a spreadsheet, json or csv file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dst := args[0]
		// empty term matches all records
		recs, err := store.New(cfg.File).Search(flgMatch)
		if err != nil {
			return err
		}
		if err = export.Write(dst, recs); err != nil {
			return err
		}
		log.Event("export", "path", dst, "records", len(recs))
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d patient(s) to '%s'.\n", len(recs), dst)
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Save a compressed snapshot of the records file",
	Long: `Writes a compressed (zstd or brotli) copy of the records file to the backup
directory and verifies it. With --upload the snapshot is also copied to the
S3-compatible bucket and/or the sftp server from the config file.`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	exportCmd.Flags().StringVar(&flgMatch, "match", "", "only export records whose name or contact contains this")
	backupCmd.Flags().BoolVar(&flgUpload, "upload", false, "upload snapshot to backup.s3 bucket and backup.sftp server")
}

func uploadS3(ctx context.Context, cmd *cobra.Command, localPath string) (string, error) {
	s3 := &cfg.Backup.S3
	rc := &backup.RemoteConfig{
		Access:   s3.Access,
		Secret:   s3.Secret,
		Bucket:   s3.Bucket,
		Endpoint: s3.Endpoint,
		Region:   s3.Region,
		Insecure: s3.Insecure,
		Prefix:   s3.Prefix,
	}
	if log.Verbose {
		rc.RequestTrace = cmd.ErrOrStderr()
	}
	up, err := backup.NewUploader(ctx, rc)
	if err != nil {
		return "", err
	}
	remotePath, err := up.Upload(ctx, localPath)
	if err != nil {
		return "", err
	}
	return "s3://" + up.Bucket + "/" + remotePath, nil
}

func uploadSFTP(ctx context.Context, localPath string) (string, error) {
	sf := &cfg.Backup.SFTP
	up, err := backup.NewSFTPUploader(&backup.SFTPConfig{
		Host:          sf.Host,
		Port:          sf.Port,
		User:          sf.User,
		KeyPath:       sf.KeyPath,
		Password:      sf.Password,
		Dir:           sf.Dir,
		IgnoreHostKey: sf.IgnoreHostKey,
	})
	if err != nil {
		return "", err
	}
	defer up.Close()
	remotePath, err := up.Upload(ctx, localPath)
	if err != nil {
		return "", err
	}
	return up.Addr + ":" + remotePath, nil
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	bc := &cfg.Backup
	if flgUpload && bc.S3.IsEmpty() && bc.SFTP.IsEmpty() {
		return fmt.Errorf("--upload needs backup.s3 or backup.sftp section in config")
	}

	start := time.Now()
	opts := &backup.Options{
		Dir:         bc.Dir,
		Compression: bc.Compression,
	}
	res, err := backup.Snapshot(cfg.File, opts, start)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Saved snapshot '%s' (%d => %d bytes, sha1: %s).\n", res.Path, res.Size, res.CompressedSize, res.Sha1)

	var remotes []string
	if flgUpload && !bc.S3.IsEmpty() {
		uri, err := uploadS3(ctx, cmd, res.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Uploaded to '%s'.\n", uri)
		remotes = append(remotes, uri)
	}
	if flgUpload && !bc.SFTP.IsEmpty() {
		uri, err := uploadSFTP(ctx, res.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Uploaded to '%s'.\n", uri)
		remotes = append(remotes, uri)
	}
	log.EventWithDuration("backup", time.Since(start), "path", res.Path, "size", res.Size, "remote", strings.Join(remotes, " "))
	return nil
}
