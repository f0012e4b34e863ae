package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
	"github.com/kjk/patients/patient"
	"github.com/tidwall/pretty"
)

const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatDebug = "debug"
)

// Formats lists valid values for the format argument of Records
var Formats = []string{FormatText, FormatJSON, FormatDebug}

// IsValidFormat returns true if format is one of Formats
func IsValidFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

var spewConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
	// Patient implements Stringer, we want fields
	DisableMethods:          true,
}

// JSON returns recs as indented json array
func JSON(recs []*patient.Patient) ([]byte, error) {
	if recs == nil {
		recs = []*patient.Patient{}
	}
	d, err := json.Marshal(recs)
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(d), nil
}

// Records writes recs to w in a given format:
// text: one line per record
// json: indented json array
// debug: full dump of each record
func Records(w io.Writer, recs []*patient.Patient, format string) error {
	switch format {
	case FormatText, "":
		for _, p := range recs {
			if _, err := fmt.Fprintln(w, p.String()); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		d, err := JSON(recs)
		if err != nil {
			return err
		}
		_, err = w.Write(d)
		return err
	case FormatDebug:
		for _, p := range recs {
			if _, err := io.WriteString(w, spewConfig.Sdump(p)); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format '%s', valid formats: %v", format, Formats)
}
