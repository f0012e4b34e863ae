package atomicfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert"
)

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

func TestWrite(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "patients.xlsx")
	f, err := New(dst)
	assert.NoError(t, err)
	assert.True(t, fileExists(f.tmpPath))
	assert.False(t, fileExists(dst))

	d := []byte("Name,Age\n")
	n, err := f.Write(d)
	assert.NoError(t, err)
	assert.Equal(t, len(d), n)
	// destination only appears after Close()
	assert.False(t, fileExists(dst))

	err = f.Close()
	assert.NoError(t, err)
	assert.False(t, fileExists(f.tmpPath))
	got, err := os.ReadFile(dst)
	assert.NoError(t, err)
	assert.Equal(t, d, got)

	// second Close() is a no-op
	assert.NoError(t, f.Close())
}

func TestWriteFileReplaces(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "export.json")
	assert.NoError(t, WriteFile(dst, []byte("old")))
	assert.NoError(t, WriteFile(dst, []byte("new")))
	got, err := os.ReadFile(dst)
	assert.NoError(t, err)
	assert.Equal(t, "new", string(got))
	entries, err := os.ReadDir(filepath.Dir(dst))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(entries))
}

func TestSimulatedError(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.csv")
	f, err := New(dst)
	assert.NoError(t, err)
	_, err = f.Write([]byte("foo"))
	assert.NoError(t, err)

	errSimulated := errors.New("simulated")
	f.err = errSimulated
	err = f.Close()
	assert.True(t, err == errSimulated)
	assert.False(t, fileExists(f.tmpPath))
	assert.False(t, fileExists(dst))
	assert.True(t, f.Close() == errSimulated)
}

func writeAndPanic(f *File) {
	defer f.RemoveIfNotClosed()
	_, _ = f.Write([]byte("foo"))
	panic("simulating a crash")
}

func TestRemoveIfNotClosed(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.csv")
	f, err := New(dst)
	assert.NoError(t, err)
	func() {
		defer func() {
			assert.True(t, recover() != nil)
		}()
		writeAndPanic(f)
	}()
	assert.False(t, fileExists(f.tmpPath))
	assert.False(t, fileExists(dst))

	_, err = f.Write([]byte("more"))
	assert.True(t, err == ErrCancelled)
	assert.True(t, f.Close() == ErrCancelled)
}

func TestMissingDir(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "foo", "bar.txt")
	f, err := New(dst)
	assert.Error(t, err)
	assert.True(t, f == nil)
	assert.Error(t, WriteFile(dst, []byte("x")))
}
