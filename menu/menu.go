package menu

import (
	"errors"
	"fmt"
	"io"

	"github.com/kjk/patients/log"
	"github.com/kjk/patients/patient"
	"github.com/kjk/patients/render"
	"github.com/kjk/patients/store"
)

// State of the menu loop
type State int

const (
	Idle State = iota
	Registering
	Searching
	Exiting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Registering:
		return "registering"
	case Searching:
		return "searching"
	case Exiting:
		return "exiting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const menuText = `Healthcare Registration System
1. Register New Patient
2. Search Patient
3. Exit
`

// Select maps menu input to the next state.
// Unrecognized input keeps us in Idle.
func Select(option string) State {
	switch option {
	case "1":
		return Registering
	case "2":
		return Searching
	case "3":
		return Exiting
	}
	return Idle
}

// Records is where registered patients go and where we search for them
type Records interface {
	Append(p *patient.Patient) error
	Search(term string) ([]*patient.Patient, error)
}

// Menu is the interactive register / search loop
type Menu struct {
	Store Records
	// display format of search results, see render.Records
	Format string

	c *Collector
	w io.Writer
}

// New creates a menu reading from r and writing to w
func New(store Records, r io.Reader, w io.Writer) *Menu {
	return &Menu{
		Store:  store,
		Format: render.FormatText,
		c:      NewCollector(r, w),
		w:      w,
	}
}

func (m *Menu) printf(format string, args ...any) {
	fmt.Fprintf(m.w, format, args...)
}

// Run shows the menu until user selects exit or input is closed.
// Invalid input (bad menu option, bad age) is reported and the loop continues.
// Errors from the store end the loop and are returned.
func (m *Menu) Run() error {
	for {
		m.printf("%s", menuText)
		option, err := m.c.ReadLine("Select an option: ")
		if err != nil {
			return m.exit(err)
		}
		state := Select(option)
		log.Verbosef("menu: option '%s' => %s\n", option, state)
		switch state {
		case Registering:
			err = m.register()
		case Searching:
			err = m.search()
		case Exiting:
			return m.exit(nil)
		default:
			m.printf("Invalid option. Please try again.\n")
		}
		if errors.Is(err, ErrInputClosed) {
			return m.exit(err)
		}
		if err != nil {
			return err
		}
	}
}

// closed input is a clean exit, like selecting Exit
func (m *Menu) exit(err error) error {
	if err != nil && !errors.Is(err, ErrInputClosed) {
		return err
	}
	if err != nil {
		m.printf("\n")
	}
	m.printf("Exiting system...\n")
	return nil
}

func (m *Menu) register() error {
	p, err := m.c.Collect()
	if errors.Is(err, patient.ErrInvalidAge) {
		m.printf("Error: %s. Registration cancelled.\n", err)
		log.Event("registration_rejected", "reason", "invalid_age")
		return nil
	}
	if err != nil {
		return err
	}
	err = m.Store.Append(p)
	if errors.Is(err, store.ErrCarriageReturn) {
		m.printf("Error: %s. Registration cancelled.\n", store.ErrCarriageReturn)
		log.Event("registration_rejected", "reason", "carriage_return")
		return nil
	}
	if err != nil {
		return err
	}
	m.printf("Patient details saved successfully!\n")
	log.Event("patient_registered", "admission_date", p.AdmissionDate)
	return nil
}

func (m *Menu) search() error {
	term, err := m.c.ReadLine("Enter patient name or contact to search: ")
	if err != nil {
		return err
	}
	res, err := m.Store.Search(term)
	if err != nil {
		return err
	}
	log.Event("patient_search", "term_len", len(term), "matches", len(res))
	return PrintResults(m.w, term, res, m.Format)
}

// PrintResults prints search results the way the menu does
func PrintResults(w io.Writer, term string, res []*patient.Patient, format string) error {
	if len(res) == 0 {
		_, err := fmt.Fprintf(w, "No patients found matching '%s'.\n", term)
		return err
	}
	if _, err := fmt.Fprintf(w, "Found %d patient(s):\n", len(res)); err != nil {
		return err
	}
	return render.Records(w, res, format)
}
