package backup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path"
	"path/filepath"
	"strconv"

	"github.com/melbahja/goph"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

type SFTPConfig struct {
	Host string
	// 22 if 0
	Port     uint
	User     string
	KeyPath  string
	Password string
	// remote directory for snapshots
	Dir string
	// don't verify server against ~/.ssh/known_hosts
	IgnoreHostKey bool
}

func (c *SFTPConfig) auth() (goph.Auth, error) {
	if c.KeyPath != "" {
		return goph.Key(c.KeyPath, "")
	}
	if c.Password != "" {
		return goph.Password(c.Password), nil
	}
	return nil, errors.New("must provide key path or password")
}

func (c *SFTPConfig) port() uint {
	if c.Port == 0 {
		return 22
	}
	return c.Port
}

// SFTPUploader copies snapshots to a directory on an ssh server
type SFTPUploader struct {
	Addr string
	dir  string

	client *goph.Client
	sftp   *sftp.Client
}

// NewSFTPUploader connects to the server and creates the remote directory
func NewSFTPUploader(config *SFTPConfig) (*SFTPUploader, error) {
	if config == nil {
		return nil, errors.New("must provide config")
	}
	c := config
	if c.Host == "" || c.User == "" {
		return nil, errors.New("must provide host and user")
	}
	auth, err := c.auth()
	if err != nil {
		return nil, fmt.Errorf("ssh auth: %w", err)
	}

	var callback ssh.HostKeyCallback
	if c.IgnoreHostKey {
		callback = ssh.InsecureIgnoreHostKey()
	} else {
		callback, err = goph.DefaultKnownHosts()
		if err != nil {
			return nil, fmt.Errorf("known_hosts: %w", err)
		}
	}
	client, err := goph.NewConn(&goph.Config{
		User:     c.User,
		Addr:     c.Host,
		Port:     c.port(),
		Auth:     auth,
		Timeout:  goph.DefaultTimeout,
		Callback: callback,
	})
	addr := net.JoinHostPort(c.Host, strconv.Itoa(int(c.port())))
	if err != nil {
		return nil, fmt.Errorf("ssh connect to '%s': %w", addr, err)
	}
	sc, err := client.NewSftp()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("sftp on '%s': %w", addr, err)
	}
	if c.Dir != "" {
		if err = sc.MkdirAll(c.Dir); err != nil {
			sc.Close()
			client.Close()
			return nil, fmt.Errorf("sftp.MkdirAll('%s'): %w", c.Dir, err)
		}
	}
	return &SFTPUploader{
		Addr:   addr,
		dir:    c.Dir,
		client: client,
		sftp:   sc,
	}, nil
}

// Upload uploads a snapshot file. Returns remote path.
// Existing remote files are not over-written.
func (u *SFTPUploader) Upload(ctx context.Context, localPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// unlike RemotePath, dir can be absolute
	remotePath := path.Join(u.dir, filepath.Base(localPath))
	if _, err := u.sftp.Stat(remotePath); err == nil {
		return "", fmt.Errorf("'%s' already exists on '%s'", remotePath, u.Addr)
	}
	if err := u.client.Upload(localPath, remotePath); err != nil {
		return "", fmt.Errorf("upload of '%s' as '%s' failed: %w", localPath, remotePath, err)
	}
	return remotePath, nil
}

func (u *SFTPUploader) Close() error {
	err := u.sftp.Close()
	err2 := u.client.Close()
	return getErr(err, err2)
}
