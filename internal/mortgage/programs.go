package mortgage

import (
	"fmt"

	"github.com/Dan9191/mortgage-service/internal/models"
)

// DefaultProgramID is selected when a model is created
const DefaultProgramID = "base"

// DefaultPrograms returns the built-in program catalog
func DefaultPrograms() []models.Program {
	return []models.Program{
		{ID: "base", Title: "Base program", Rate: 0.10},
		{ID: "it", Title: "IT mortgage", Rate: 0.047},
		{ID: "gov", Title: "Government support", Rate: 0.067},
		{ID: "zero", Title: "Zero down payment", Rate: 0, ZeroDown: true},
	}
}

// Catalog is an immutable set of programs looked up by ID
type Catalog struct {
	programs []models.Program
	byID     map[string]models.Program
}

// NewCatalog validates programs and builds a catalog
func NewCatalog(programs []models.Program) (*Catalog, error) {
	if len(programs) == 0 {
		return nil, fmt.Errorf("program catalog is empty")
	}
	c := &Catalog{byID: make(map[string]models.Program, len(programs))}
	for _, p := range programs {
		if p.ID == "" {
			return nil, fmt.Errorf("program without id")
		}
		if p.Rate < 0 {
			return nil, fmt.Errorf("program %q has negative rate %.4f", p.ID, p.Rate)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate program %q", p.ID)
		}
		c.byID[p.ID] = p
		c.programs = append(c.programs, p)
	}
	return c, nil
}

// MustDefaultCatalog returns a catalog of DefaultPrograms
func MustDefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultPrograms())
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup finds a program by ID
func (c *Catalog) Lookup(id string) (models.Program, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// All returns the programs in catalog order
func (c *Catalog) All() []models.Program {
	out := make([]models.Program, len(c.programs))
	copy(out, c.programs)
	return out
}

// Default returns the base program, or the first one when the catalog has no base
func (c *Catalog) Default() models.Program {
	if p, ok := c.byID[DefaultProgramID]; ok {
		return p
	}
	return c.programs[0]
}

func minRatioFor(p models.Program) float64 {
	if p.ZeroDown {
		return 0
	}
	return MinDownPaymentRatio
}
