package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kjk/patients/config"
	"github.com/kjk/patients/log"
	"github.com/kjk/patients/menu"
	"github.com/kjk/patients/render"
	"github.com/kjk/patients/store"
	"github.com/spf13/cobra"
)

var (
	flgConfig  string
	flgFile    string
	flgLogDir  string
	flgFormat  string
	flgVerbose bool

	cfg       *config.Config
	timeStart time.Time
)

var rootCmd = &cobra.Command{
	Use:   "patients",
	Short: "Register and search patient records",
	Long: `Interactive patient registration.

Records are appended to a csv file (patients.csv by default) and can be
searched by a part of the name or contact.

Run without arguments to start the interactive menu.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	Args:              cobra.NoArgs,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.EventWithDuration("session_end", time.Since(timeStart))
		log.Close()
	},
	RunE: runInteractive,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&flgConfig, "config", "", "path of yaml config file (default "+config.DefaultPath+" if it exists)")
	f.StringVar(&flgFile, "file", "", "csv file with patient records (default patients.csv)")
	f.StringVar(&flgLogDir, "log-dir", "", "directory for log files, no logging if empty")
	f.StringVar(&flgFormat, "format", "", fmt.Sprintf("display format of search results %v", render.Formats))
	f.BoolVarP(&flgVerbose, "verbose", "v", false, "log more, echo logs to stderr")

	rootCmd.AddCommand(searchCmd, exportCmd, backupCmd)
}

// loads config, applies flags and starts logging
func setup(cmd *cobra.Command, args []string) error {
	timeStart = time.Now()
	var err error
	cfg, err = config.Load(flgConfig, flgConfig != "")
	if err != nil {
		return err
	}
	if flgFile != "" {
		cfg.File = flgFile
	}
	if flgLogDir != "" {
		cfg.LogDir = flgLogDir
	}
	if flgFormat != "" {
		cfg.Format = flgFormat
	}
	if err = cfg.Validate(); err != nil {
		return err
	}

	logConfig := &log.Config{
		Dir: cfg.LogDir,
	}
	log.Verbose = flgVerbose
	if flgVerbose {
		logConfig.Echo = os.Stderr
	}
	log.Init(logConfig)
	log.Verbosef("using '%s', log dir: '%s'\n", cfg.File, cfg.LogDir)
	log.Event("session_start", "command", cmd.Name())
	return nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	m := menu.New(store.New(cfg.File), cmd.InOrStdin(), cmd.OutOrStdout())
	m.Format = cfg.Format
	return m.Run()
}

func main() {
	err := rootCmd.Execute()
	if !log.IfErrf(err) {
		return
	}
	log.Close()
	if store.IsFormatError(err) {
		fmt.Fprintf(os.Stderr, "Error: records file is corrupted: %s\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}
