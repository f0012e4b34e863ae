package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/kjk/patients/patient"
)

// DefaultFileName is used when Store.Path is empty
const DefaultFileName = "patients.csv"

// ErrCarriageReturn is returned by Append for a field with '\r' in it.
// csv reader turns "\r\n" into "\n" even inside quotes so it wouldn't read back the same.
var ErrCarriageReturn = errors.New("field contains carriage return")

// FormatError is returned when a stored row can't be parsed back into a Patient
type FormatError struct {
	Path string
	// 1-based line number of the row, 0 if unknown
	Line int
	Err  error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: malformed record: %s", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: malformed record: %s", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsFormatError returns true if err is (or wraps) a *FormatError
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// Store is an append-only csv file of patient records.
// There is no header line and no index: every read scans the whole file.
// The file is opened for a single operation and closed before returning.
type Store struct {
	Path string
	mu   sync.Mutex
}

// New creates a Store for a file at path. The file is created on first Append.
func New(path string) *Store {
	if path == "" {
		path = DefaultFileName
	}
	return &Store{
		Path: path,
	}
}

func (s *Store) path() string {
	if s.Path == "" {
		return DefaultFileName
	}
	return s.Path
}

// serialize p as a single csv line, with quoting where needed
func marshalLine(p *patient.Patient) ([]byte, error) {
	fields := p.Fields()
	for i, f := range fields {
		if strings.ContainsRune(f, '\r') {
			return nil, fmt.Errorf("%w (field %d)", ErrCarriageReturn, i+1)
		}
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// we write all of data in a single Write() and close the file
func appendToFileRobust(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	_, err = file.Write(data)
	if err != nil {
		file.Close()
		return err
	}
	err = file.Sync()
	if err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Append adds p at the end of the file, creating the file if needed
func (s *Store) Append(p *patient.Patient) error {
	if p == nil {
		return fmt.Errorf("patient is nil")
	}
	path := s.path()
	d, err := marshalLine(p)
	if err != nil {
		return &FormatError{Path: path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err = appendToFileRobust(path, d); err != nil {
		return fmt.Errorf("append to '%s': %w", path, err)
	}
	return nil
}

// scanRecords calls fn for every record in r, in order.
// Stops at the first malformed row.
func scanRecords(r io.Reader, path string, fn func(*patient.Patient) error) error {
	cr := csv.NewReader(r)
	// we validate field count ourselves to report a better error
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return &FormatError{Path: path, Line: pe.StartLine, Err: pe.Err}
			}
			return fmt.Errorf("read '%s': %w", path, err)
		}
		line, _ := cr.FieldPos(0)
		p, err := patient.FromFields(fields)
		if err != nil {
			return &FormatError{Path: path, Line: line, Err: err}
		}
		if err = fn(p); err != nil {
			return err
		}
	}
}

// Scan calls fn for every record in the file, in the order they were appended.
// A missing file is an error.
func (s *Store) Scan(fn func(*patient.Patient) error) error {
	path := s.path()

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open '%s': %w", path, err)
	}
	defer file.Close()
	return scanRecords(file, path, fn)
}

// ReadAll returns all records in the file
func (s *Store) ReadAll() ([]*patient.Patient, error) {
	res := []*patient.Patient{}
	err := s.Scan(func(p *patient.Patient) error {
		res = append(res, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
