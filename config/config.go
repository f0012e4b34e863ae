package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/kjk/patients/render"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where we look for a config file if none was given
const DefaultPath = "patients.yaml"

// S3 describes an S3-compatible bucket for off-site backups
type S3 struct {
	Endpoint string `yaml:"endpoint"`
	Access   string `yaml:"access"`
	Secret   string `yaml:"secret"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	// use http instead of https, for local minio
	Insecure bool `yaml:"insecure"`
	// prepended to remote file names
	Prefix string `yaml:"prefix"`
}

// IsEmpty returns true if no S3 settings were provided
func (s *S3) IsEmpty() bool {
	return s.Endpoint == "" && s.Access == "" && s.Secret == "" && s.Bucket == ""
}

// SFTP describes a server reachable over ssh for off-site backups
type SFTP struct {
	Host string `yaml:"host"`
	// 22 if not set
	Port uint   `yaml:"port"`
	User string `yaml:"user"`
	// private key file, used instead of password if set
	KeyPath  string `yaml:"key_path"`
	Password string `yaml:"password"`
	// remote directory, created if needed
	Dir string `yaml:"dir"`
	// skip checking host key against ~/.ssh/known_hosts
	IgnoreHostKey bool `yaml:"ignore_host_key"`
}

// IsEmpty returns true if no SFTP settings were provided
func (s *SFTP) IsEmpty() bool {
	return s.Host == "" && s.User == "" && s.KeyPath == "" && s.Password == ""
}

type Backup struct {
	Dir string `yaml:"dir"`
	// "zstd" or "br"
	Compression string `yaml:"compression"`
	S3          S3     `yaml:"s3"`
	SFTP        SFTP   `yaml:"sftp"`
}

type Config struct {
	// csv file with patient records
	File string `yaml:"file"`
	// if empty, we don't write log files
	LogDir string `yaml:"log_dir"`
	// display format of search results: text, json or debug
	Format string `yaml:"format"`
	Backup Backup `yaml:"backup"`
}

// Default returns configuration used when there's no config file
func Default() *Config {
	return &Config{
		File:   "patients.csv",
		Format: render.FormatText,
		Backup: Backup{
			Dir:         "backups",
			Compression: "zstd",
		},
	}
}

// Parse reads yaml config from d on top of the defaults.
// Unknown keys are an error.
func Parse(d []byte) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(d))
	dec.KnownFields(true)
	err := dec.Decode(c)
	// empty file is fine
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// Load reads config from a file at path.
// If the file doesn't exist and explicit is false, it returns defaults.
// Environment variables override values from the file.
func Load(path string, explicit bool) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	var c *Config
	d, err := os.ReadFile(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config '%s': %w", path, err)
		}
		c = Default()
	} else {
		c, err = Parse(d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	c.applyEnv(os.Getenv)
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("PATIENTS_FILE"); v != "" {
		c.File = v
	}
	if v := getenv("PATIENTS_S3_ACCESS"); v != "" {
		c.Backup.S3.Access = v
	}
	if v := getenv("PATIENTS_S3_SECRET"); v != "" {
		c.Backup.S3.Secret = v
	}
	if v := getenv("PATIENTS_SFTP_PASSWORD"); v != "" {
		c.Backup.SFTP.Password = v
	}
}

// Validate returns an error describing the first invalid setting
func (c *Config) Validate() error {
	if c.File == "" {
		return errors.New("file must not be empty")
	}
	if !render.IsValidFormat(c.Format) {
		return fmt.Errorf("invalid format '%s', must be one of %v", c.Format, render.Formats)
	}
	switch c.Backup.Compression {
	case "zstd", "br":
	default:
		return fmt.Errorf("invalid backup.compression '%s', must be 'zstd' or 'br'", c.Backup.Compression)
	}
	s3 := &c.Backup.S3
	if !s3.IsEmpty() && (s3.Endpoint == "" || s3.Access == "" || s3.Secret == "" || s3.Bucket == "") {
		return errors.New("backup.s3 needs endpoint, access, secret and bucket")
	}
	sf := &c.Backup.SFTP
	if !sf.IsEmpty() && (sf.Host == "" || sf.User == "" || (sf.KeyPath == "" && sf.Password == "")) {
		return errors.New("backup.sftp needs host, user and key_path or password")
	}
	return nil
}
