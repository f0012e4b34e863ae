package store

import (
	"github.com/kjk/patients/patient"
)

// Search returns records whose name or contact contains term, in file order.
// Returns an empty slice if nothing matches. One malformed row fails the whole search.
func (s *Store) Search(term string) ([]*patient.Patient, error) {
	res := []*patient.Patient{}
	err := s.Scan(func(p *patient.Patient) error {
		if p.Matches(term) {
			res = append(res, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
