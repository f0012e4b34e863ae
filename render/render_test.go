package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/kjk/patients/patient"
)

var testRecords = []*patient.Patient{
	{Name: "John Doe", Age: 42, Disease: "flu", Contact: "555-1234", AdmissionDate: "2024-01-02"},
	{Name: "Smith, Jr.", Age: 0, Disease: "", Contact: "s@x.org", AdmissionDate: "2024-03-04"},
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	err := Records(&buf, testRecords, FormatText)
	assert.NoError(t, err)
	exp := "Name: John Doe | Age: 42 | Disease: flu | Contact: 555-1234 | Admission Date: 2024-01-02\n" +
		"Name: Smith, Jr. | Age: 0 | Disease:  | Contact: s@x.org | Admission Date: 2024-03-04\n"
	assert.Equal(t, exp, buf.String())

	// empty format is text
	var buf2 bytes.Buffer
	err = Records(&buf2, testRecords, "")
	assert.NoError(t, err)
	assert.Equal(t, exp, buf2.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	err := Records(&buf, testRecords, FormatJSON)
	assert.NoError(t, err)
	s := buf.String()
	assert.True(t, strings.Contains(s, `"admission_date": "2024-01-02"`), "%s", s)

	var got []*patient.Patient
	err = json.Unmarshal(buf.Bytes(), &got)
	assert.NoError(t, err)
	assert.Equal(t, testRecords, got)

	d, err := JSON(nil)
	assert.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(d)))
}

func TestDebug(t *testing.T) {
	var buf bytes.Buffer
	err := Records(&buf, testRecords[:1], FormatDebug)
	assert.NoError(t, err)
	s := buf.String()
	assert.True(t, strings.Contains(s, `Name: (string) (len=8) "John Doe"`), "%s", s)
	assert.True(t, strings.Contains(s, `Age: (uint32) 42`), "%s", s)
	// no pointer addresses so output is stable
	assert.False(t, strings.Contains(s, "0x"), "%s", s)
	// fields are dumped, not the String() line used by text format
	assert.False(t, strings.Contains(s, testRecords[0].String()), "%s", s)
}

func TestUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Records(&buf, testRecords, "xml")
	assert.Error(t, err)
	assert.Equal(t, 0, buf.Len())
	assert.False(t, IsValidFormat("xml"))
	for _, f := range Formats {
		assert.True(t, IsValidFormat(f))
	}
}
