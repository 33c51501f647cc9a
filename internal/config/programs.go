package config

import (
	"fmt"
	"os"

	"github.com/Dan9191/mortgage-service/internal/models"
	"gopkg.in/yaml.v3"
)

type programsFile struct {
	Programs []models.Program `yaml:"programs"`
}

// LoadPrograms reads a program catalog from a YAML file:
//
//	programs:
//	  - id: base
//	    title: Base program
//	    rate: 0.10
//	  - id: zero
//	    rate: 0
//	    zero_down: true
func LoadPrograms(path string) ([]models.Program, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read programs file: %w", err)
	}
	var f programsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse programs file: %w", err)
	}
	if len(f.Programs) == 0 {
		return nil, fmt.Errorf("programs file %s defines no programs", path)
	}
	return f.Programs, nil
}
