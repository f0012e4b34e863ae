package patient

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidAge is returned when age is not a whole number that fits in uint32
	ErrInvalidAge = errors.New("invalid age")
	// ErrFieldCount is returned when a stored row doesn't have exactly NumFields fields
	ErrFieldCount = errors.New("wrong number of fields")
)

// NumFields is the number of fields in a serialized Patient
const NumFields = 5

// Patient is a single registration entry.
// Fields are serialized in declaration order.
type Patient struct {
	Name    string `json:"name"`
	Age     uint32 `json:"age"`
	Disease string `json:"disease"`
	// phone or email, also used as a search key
	Contact string `json:"contact"`
	// YYYY-MM-DD, not validated
	AdmissionDate string `json:"admission_date"`
}

// parseUint32 accepts a single leading '+', like "+42"
func parseUint32(s string) (uint32, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, 32)
	return uint32(n), err
}

// ParseAge parses s as age. Surrounding whitespace is ignored.
func ParseAge(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	n, err := parseUint32(s)
	if err != nil {
		return 0, fmt.Errorf("%w '%s': must be a whole number between 0 and %d", ErrInvalidAge, s, uint32(1<<32-1))
	}
	return n, nil
}

// New creates a Patient from raw text input. Every field is trimmed.
func New(name, age, disease, contact, admissionDate string) (*Patient, error) {
	n, err := ParseAge(age)
	if err != nil {
		return nil, err
	}
	return &Patient{
		Name:          strings.TrimSpace(name),
		Age:           n,
		Disease:       strings.TrimSpace(disease),
		Contact:       strings.TrimSpace(contact),
		AdmissionDate: strings.TrimSpace(admissionDate),
	}, nil
}

// Fields returns fields as text, in serialization order
func (p *Patient) Fields() []string {
	return []string{
		p.Name,
		strconv.FormatUint(uint64(p.Age), 10),
		p.Disease,
		p.Contact,
		p.AdmissionDate,
	}
}

// FromFields is the inverse of Fields.
// Unlike New, it doesn't trim: stored values are returned exactly.
func FromFields(fields []string) (*Patient, error) {
	if len(fields) != NumFields {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrFieldCount, len(fields), NumFields)
	}
	age, err := parseUint32(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w '%s'", ErrInvalidAge, fields[1])
	}
	return &Patient{
		Name:          fields[0],
		Age:           age,
		Disease:       fields[2],
		Contact:       fields[3],
		AdmissionDate: fields[4],
	}, nil
}

// Matches returns true if term is a substring of name or contact.
// Case-sensitive. Empty term matches everything.
func (p *Patient) Matches(term string) bool {
	return strings.Contains(p.Name, term) || strings.Contains(p.Contact, term)
}

// String returns a stable, single-line description
func (p *Patient) String() string {
	return fmt.Sprintf("Name: %s | Age: %d | Disease: %s | Contact: %s | Admission Date: %s",
		p.Name, p.Age, p.Disease, p.Contact, p.AdmissionDate)
}
