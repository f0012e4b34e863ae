package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert"
)

func TestDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, "patients.csv", c.File)
	assert.Equal(t, "text", c.Format)
	assert.Equal(t, "", c.LogDir)
	assert.Equal(t, "zstd", c.Backup.Compression)
	assert.True(t, c.Backup.S3.IsEmpty())
	assert.NoError(t, c.Validate())
}

func TestParse(t *testing.T) {
	s := `
file: data/people.csv
log_dir: logs
format: json
backup:
  dir: /tmp/bak
  compression: br
  s3:
    endpoint: s3.example.com
    access: key
    secret: shh
    bucket: backups
    prefix: clinic1
`
	c, err := Parse([]byte(s))
	assert.NoError(t, err)
	assert.Equal(t, "data/people.csv", c.File)
	assert.Equal(t, "logs", c.LogDir)
	assert.Equal(t, "json", c.Format)
	assert.Equal(t, "/tmp/bak", c.Backup.Dir)
	assert.Equal(t, "br", c.Backup.Compression)
	assert.Equal(t, "backups", c.Backup.S3.Bucket)
	assert.Equal(t, "clinic1", c.Backup.S3.Prefix)
	assert.NoError(t, c.Validate())

	// values not in the file keep defaults
	c, err = Parse([]byte("log_dir: x\n"))
	assert.NoError(t, err)
	assert.Equal(t, "patients.csv", c.File)
	assert.Equal(t, "x", c.LogDir)

	c, err = Parse(nil)
	assert.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestParseUnknownKey(t *testing.T) {
	_, err := Parse([]byte("fiel: typo.csv\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.yaml")

	c, err := Load(path, false)
	assert.NoError(t, err)
	assert.Equal(t, "patients.csv", c.File)

	_, err = Load(path, true)
	assert.Error(t, err)

	err = os.WriteFile(path, []byte("format: debug\n"), 0644)
	assert.NoError(t, err)
	c, err = Load(path, true)
	assert.NoError(t, err)
	assert.Equal(t, "debug", c.Format)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PATIENTS_FILE":      "other.csv",
		"PATIENTS_S3_SECRET": "from-env",
	}
	c := Default()
	c.Backup.S3.Secret = "from-file"
	c.applyEnv(func(k string) string { return env[k] })
	assert.Equal(t, "other.csv", c.File)
	assert.Equal(t, "from-env", c.Backup.S3.Secret)
	assert.Equal(t, "", c.Backup.S3.Access)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Format = "xml"
	assert.Error(t, c.Validate())

	c = Default()
	c.Backup.Compression = "gzip"
	assert.Error(t, c.Validate())

	c = Default()
	c.File = ""
	assert.Error(t, c.Validate())

	c = Default()
	c.Backup.S3.Bucket = "only-bucket"
	assert.Error(t, c.Validate())

	c = Default()
	c.Backup.SFTP.Host = "backup.example.com"
	c.Backup.SFTP.User = "clinic"
	assert.Error(t, c.Validate())
	c.Backup.SFTP.KeyPath = "id_ed25519"
	assert.NoError(t, c.Validate())
}

func TestParseSFTP(t *testing.T) {
	conf := `
backup:
  sftp:
    host: backup.example.com
    port: 2222
    user: clinic
    key_path: /home/clinic/.ssh/id_ed25519
    dir: /srv/backups
`
	c, err := Parse([]byte(conf))
	assert.NoError(t, err)
	sf := c.Backup.SFTP
	assert.False(t, sf.IsEmpty())
	assert.Equal(t, uint(2222), sf.Port)
	assert.Equal(t, "/srv/backups", sf.Dir)
	assert.False(t, sf.IgnoreHostKey)
	assert.NoError(t, c.Validate())

	env := map[string]string{"PATIENTS_SFTP_PASSWORD": "pw"}
	c.applyEnv(func(k string) string { return env[k] })
	assert.Equal(t, "pw", c.Backup.SFTP.Password)
}
