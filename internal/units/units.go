// Package units resolves organizational unit ids to department names.
//
// The default table is embedded from units.yaml; an operator can replace it
// with a YAML file of the same shape.
package units

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/attlih/cris-network-tool/internal/domain"
)

//go:embed units.yaml
var embeddedUnits []byte

// Unit is one entry of the lookup table.
type Unit struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type file struct {
	Units []Unit `yaml:"units"`
}

// Lookup maps unit ids to names, keeping the file order for listing.
type Lookup struct {
	units []Unit
	names map[string]string
}

// Default returns the embedded lookup table.
func Default() (*Lookup, error) {
	return Parse(embeddedUnits)
}

// Load returns the table at path, or the embedded one when path is empty.
func Load(path string) (*Lookup, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading units file: %w", err)
	}
	return Parse(data)
}

// Parse builds a lookup from YAML content. Later duplicates of an id win.
func Parse(data []byte) (*Lookup, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing units YAML: %w", err)
	}

	l := &Lookup{names: make(map[string]string, len(f.Units))}
	for i, u := range f.Units {
		u.ID = strings.TrimSpace(u.ID)
		u.Name = strings.TrimSpace(u.Name)
		if u.ID == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("units[%d].id", i), "unit id is required")
		}
		if _, seen := l.names[u.ID]; !seen {
			l.units = append(l.units, u)
		} else {
			for j := range l.units {
				if l.units[j].ID == u.ID {
					l.units[j] = u
				}
			}
		}
		l.names[u.ID] = u.Name
	}
	return l, nil
}

// Name returns the department name for id.
func (l *Lookup) Name(id string) (string, bool) {
	if l == nil {
		return "", false
	}
	name, ok := l.names[strings.TrimSpace(id)]
	return name, ok && name != ""
}

// Resolve returns the department name for id, falling back to the raw id
// when the table has no entry and to domain.UnknownUnit when id is empty.
func (l *Lookup) Resolve(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.UnknownUnit
	}
	if name, ok := l.Name(id); ok {
		return name
	}
	return id
}

// Units returns the table entries in file order.
func (l *Lookup) Units() []Unit {
	if l == nil {
		return nil
	}
	out := make([]Unit, len(l.units))
	copy(out, l.units)
	return out
}

// Len returns the number of units in the table.
func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.units)
}
