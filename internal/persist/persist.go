package persist

import (
	"path/filepath"

	"github.com/agerun/agerun/internal/agency"
	"github.com/agerun/agerun/internal/methodology"
)

// SaveAll writes both persistence files into dir (spec §6: "a working
// directory containing the two persistence files").
func SaveAll(dir string, reg *methodology.Methodology, ag *agency.Agency) error {
	if err := SaveMethodology(filepath.Join(dir, MethodologyFileName), reg); err != nil {
		return err
	}
	return SaveAgency(filepath.Join(dir, AgencyFileName), ag)
}

// LoadAll loads both persistence files from dir, methodology first so
// agency reload can resolve each agent's method reference against it.
// Either file may be absent (a fresh directory) without error.
func LoadAll(dir string, reg *methodology.Methodology, ag *agency.Agency) error {
	if err := LoadMethodology(filepath.Join(dir, MethodologyFileName), reg, ag); err != nil {
		return err
	}
	return LoadAgency(filepath.Join(dir, AgencyFileName), ag, reg)
}
