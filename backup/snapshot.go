package backup

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/kjk/patients/atomicfile"
	"github.com/klauspost/compress/zstd"
)

const (
	CompressionZstd   = "zstd"
	CompressionBrotli = "br"
)

type Options struct {
	// directory where snapshots are written, created if needed
	Dir string
	// CompressionZstd (default) or CompressionBrotli
	Compression string
}

type Result struct {
	// path of the snapshot file
	Path string
	// size of the store file
	Size int64
	// size of the snapshot file
	CompressedSize int64
	Sha1           string
}

// SnapshotName returns the file name of a snapshot of src taken at t
func SnapshotName(src string, t time.Time, compression string) string {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s-%s%s.%s", name, t.UTC().Format("20060102-150405"), ext, compression)
}

func zstdNewWriter(dst io.Writer) (*zstd.Encoder, error) {
	// zstd.SpeedBestCompression is slower but store files are small
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
}

func compress(d []byte, compression string) ([]byte, error) {
	var buf bytes.Buffer
	switch compression {
	case CompressionZstd, "":
		w, err := zstdNewWriter(&buf)
		if err != nil {
			return nil, err
		}
		_, err = w.Write(d)
		err2 := w.Close()
		if err = getErr(err, err2); err != nil {
			return nil, err
		}
	case CompressionBrotli:
		w := brotli.NewWriterLevel(&buf, brotli.BestCompression)
		_, err := w.Write(d)
		err2 := w.Close()
		if err = getErr(err, err2); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown compression '%s'", compression)
	}
	return buf.Bytes(), nil
}

func getErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadSnapshot returns decompressed content of a snapshot.
// Compression is determined from file extension, unknown extensions are read as is.
func ReadSnapshot(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case "." + CompressionZstd:
		r, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case "." + CompressionBrotli:
		return io.ReadAll(brotli.NewReader(f))
	}
	return io.ReadAll(f)
}

func sha1Hex(d []byte) string {
	return fmt.Sprintf("%x", sha1.Sum(d))
}

// Snapshot writes a compressed copy of src to opts.Dir and verifies
// that it decompresses to the same content.
// The source file is only read.
func Snapshot(src string, opts *Options, now time.Time) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	compression := opts.Compression
	if compression == "" {
		compression = CompressionZstd
	}

	d, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read '%s': %w", src, err)
	}
	compressed, err := compress(d, compression)
	if err != nil {
		return nil, err
	}
	if err = os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	dst := filepath.Join(dir, SnapshotName(src, now, compression))
	if err = atomicfile.WriteFile(dst, compressed); err != nil {
		return nil, fmt.Errorf("write '%s': %w", dst, err)
	}

	res := &Result{
		Path:           dst,
		Size:           int64(len(d)),
		CompressedSize: int64(len(compressed)),
		Sha1:           sha1Hex(d),
	}
	d2, err := ReadSnapshot(dst)
	if err != nil {
		return nil, fmt.Errorf("verify '%s': %w", dst, err)
	}
	if got := sha1Hex(d2); got != res.Sha1 {
		return nil, fmt.Errorf("verify '%s': sha1 mismatch, expected %s, got %s", dst, res.Sha1, got)
	}
	return res, nil
}
