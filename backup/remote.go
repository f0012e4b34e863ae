package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type RemoteConfig struct {
	Access   string
	Secret   string
	Bucket   string
	Endpoint string
	Region   string
	// use http, e.g. for local minio
	Insecure bool
	// remote files are stored under this prefix
	Prefix       string
	RequestTrace io.Writer
}

// Uploader copies snapshots to an S3-compatible bucket
type Uploader struct {
	Client *minio.Client
	Bucket string
	prefix string
}

// NewUploader connects to the bucket and checks it exists
func NewUploader(ctx context.Context, config *RemoteConfig) (*Uploader, error) {
	if config == nil {
		return nil, errors.New("must provide config")
	}
	c := config
	if c.Access == "" || c.Secret == "" || c.Bucket == "" || c.Endpoint == "" {
		return nil, errors.New("must provide access, secret, bucket and endpoint")
	}

	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: !c.Insecure,
	})
	if err != nil {
		return nil, err
	}
	if c.RequestTrace != nil {
		mc.TraceOn(c.RequestTrace)
	}
	found, err := mc.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}
	return &Uploader{
		Client: mc,
		Bucket: c.Bucket,
		prefix: c.Prefix,
	}, nil
}

// RemotePath returns where a local snapshot is stored in the bucket
func RemotePath(prefix string, localPath string) string {
	name := filepath.Base(localPath)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Upload uploads a snapshot file. Returns remote path.
func (u *Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	remotePath := RemotePath(u.prefix, localPath)
	opts := minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	}
	_, err := u.Client.FPutObject(ctx, u.Bucket, remotePath, localPath, opts)
	if err != nil {
		return "", fmt.Errorf("upload of '%s' as '%s' failed: %w", localPath, remotePath, err)
	}
	return remotePath, nil
}
