package menu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kjk/patients/patient"
)

// ErrInputClosed is returned when input ends before we read what we asked for
var ErrInputClosed = errors.New("input closed")

// Collector reads patient details from a line-oriented input,
// prompting for each field on the output
type Collector struct {
	r *bufio.Reader
	w io.Writer
}

// NewCollector creates a Collector reading from r and writing prompts to w
func NewCollector(r io.Reader, w io.Writer) *Collector {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Collector{
		r: br,
		w: w,
	}
}

// ReadLine writes prompt and reads a single line, without surrounding whitespace.
// The last line doesn't have to end with a newline.
func (c *Collector) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		if _, err := io.WriteString(c.w, prompt); err != nil {
			return "", err
		}
	}
	s, err := c.r.ReadString('\n')
	if err == io.EOF {
		if s == "" {
			return "", ErrInputClosed
		}
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// Collect asks for name, age, disease, contact and admission date, in that order.
// All five lines are always read so that an invalid entry doesn't leave its
// remaining lines in the input. Invalid age returns an error wrapping
// patient.ErrInvalidAge.
func (c *Collector) Collect() (*patient.Patient, error) {
	if _, err := fmt.Fprintln(c.w, "Enter patient details"); err != nil {
		return nil, err
	}
	prompts := []string{
		"Name: ",
		"Age: ",
		"Disease: ",
		"Contact: ",
		"Admission Date (YYYY-MM-DD): ",
	}
	var vals [patient.NumFields]string
	for i, prompt := range prompts {
		s, err := c.ReadLine(prompt)
		if err != nil {
			return nil, err
		}
		vals[i] = s
	}
	return patient.New(vals[0], vals[1], vals[2], vals[3], vals[4])
}
