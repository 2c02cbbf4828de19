package migrations

import (
	"fmt"
	"os"

	"github.com/Effectys/rmrp-army-bot/models"
	"github.com/Effectys/rmrp-army-bot/pkg/store"
	"gopkg.in/yaml.v3"
)

type divisionSeed struct {
	Divisions []models.Division `yaml:"divisions"`
}

// SeedDivisions loads the division table from a yaml file and upserts it.
// Missing file is not an error; the table keeps its previous contents.
func SeedDivisions(s *store.Store, path string) error {
	if path == "" {
		return nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read divisions file: %w", err)
	}
	var seed divisionSeed
	if err := yaml.Unmarshal(buf, &seed); err != nil {
		return fmt.Errorf("parse divisions file: %w", err)
	}
	for i := range seed.Divisions {
		div := &seed.Divisions[i]
		for j := range div.Positions {
			div.Positions[j].DivisionID = div.ID
		}
	}
	return s.SeedDivisions(seed.Divisions)
}
