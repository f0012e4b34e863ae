package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/kjk/patients/backup"
	"github.com/kjk/patients/store"
)

// runCmd runs the cli with a config file pointing to dir
func runCmd(t *testing.T, dir string, input string, args ...string) (string, error) {
	flgConfig, flgFile, flgLogDir, flgFormat, flgVerbose = "", "", "", "", false
	flgMatch, flgUpload = "", false

	configPath := filepath.Join(dir, "patients.yaml")
	conf := "file: " + filepath.Join(dir, "patients.csv") + "\n" +
		"log_dir: " + filepath.Join(dir, "logs") + "\n" +
		"backup:\n  dir: " + filepath.Join(dir, "backups") + "\n"
	err := os.WriteFile(configPath, []byte(conf), 0644)
	assert.NoError(t, err)

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", configPath))
	err = rootCmd.Execute()
	return out.String(), err
}

func TestInteractiveThenSearch(t *testing.T) {
	dir := t.TempDir()
	input := "1\nSmith, Jr.\n61\ngout\nsmith@example.com\n2024-05-06\n3\n"
	out, err := runCmd(t, dir, input)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(out, "Patient details saved successfully!"), "%s", out)

	out, err = runCmd(t, dir, "", "search", "Smith")
	assert.NoError(t, err)
	exp := "Found 1 patient(s):\n" +
		"Name: Smith, Jr. | Age: 61 | Disease: gout | Contact: smith@example.com | Admission Date: 2024-05-06\n"
	assert.Equal(t, exp, out)

	out, err = runCmd(t, dir, "", "search", "nobody")
	assert.NoError(t, err)
	assert.Equal(t, "No patients found matching 'nobody'.\n", out)

	// session events were logged
	entries, err := os.ReadDir(filepath.Join(dir, "logs", "events"))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(entries))
}

func TestSearchWithoutFileFails(t *testing.T) {
	dir := t.TempDir()
	_, err := runCmd(t, dir, "", "search", "x")
	assert.Error(t, err)
}

func TestFileFlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "other.csv")
	_, err := runCmd(t, dir, "1\nAnn\n3\nflu\n1\n2024-01-01\n3\n", "--file", other)
	assert.NoError(t, err)
	recs, err := store.New(other).ReadAll()
	assert.NoError(t, err)
	assert.Equal(t, 1, len(recs))
	_, err = os.Stat(filepath.Join(dir, "patients.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestInvalidFormatFlag(t *testing.T) {
	dir := t.TempDir()
	_, err := runCmd(t, dir, "3\n", "--format", "xml")
	assert.Error(t, err)
}

func TestExportAndBackup(t *testing.T) {
	dir := t.TempDir()
	input := "1\nJohn Doe\n42\nflu\n555\n2024-01-02\n" +
		"1\nAnn Lee\n7\ncold\n777\n2024-01-03\n3\n"
	_, err := runCmd(t, dir, input)
	assert.NoError(t, err)

	dst := filepath.Join(dir, "ann.csv")
	out, err := runCmd(t, dir, "", "export", dst, "--match", "Ann")
	assert.NoError(t, err)
	assert.Equal(t, "Exported 1 patient(s) to '"+dst+"'.\n", out)
	d, err := os.ReadFile(dst)
	assert.NoError(t, err)
	assert.Equal(t, "Name,Age,Disease,Contact,Admission Date\nAnn Lee,7,cold,777,2024-01-03\n", string(d))

	out, err = runCmd(t, dir, "", "backup")
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Saved snapshot"), "%s", out)
	files, err := filepath.Glob(filepath.Join(dir, "backups", "patients-*.csv.zstd"))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(files))
	snap, err := backup.ReadSnapshot(files[0])
	assert.NoError(t, err)
	orig, err := os.ReadFile(filepath.Join(dir, "patients.csv"))
	assert.NoError(t, err)
	assert.Equal(t, orig, snap)

	// no s3 config
	_, err = runCmd(t, dir, "", "backup", "--upload")
	assert.Error(t, err)
}
