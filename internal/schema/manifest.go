package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the seed manifest: one entry per target table, in the
// order the author wants used to break ordering ties.
type Manifest struct {
	Tables []TableSpec `yaml:"tables"`
}

// LoadManifest reads and validates a seed manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks every table spec and cross-table references, and
// stamps each table with its declared priority.
func (m *Manifest) Validate() error {
	if len(m.Tables) == 0 {
		return fmt.Errorf("manifest declares no tables")
	}

	byName := make(map[string]*TableSpec, len(m.Tables))
	for i := range m.Tables {
		t := &m.Tables[i]
		if err := t.validate(); err != nil {
			return err
		}
		if _, dup := byName[t.Name]; dup {
			return fmt.Errorf("manifest declares table %s twice", t.Name)
		}
		t.Priority = i
		byName[t.Name] = t
	}

	for i := range m.Tables {
		t := &m.Tables[i]
		for _, fk := range t.ForeignKeys {
			ref, ok := byName[fk.RefTable]
			if !ok {
				return fmt.Errorf("table %s references unknown table %s", t.Name, fk.RefTable)
			}
			if ref.Column(fk.RefColumn) == nil {
				return fmt.Errorf("table %s references unknown column %s.%s", t.Name, fk.RefTable, fk.RefColumn)
			}
		}
	}
	return nil
}

// Table returns the spec for the named table, or nil.
func (m *Manifest) Table(name string) *TableSpec {
	for i := range m.Tables {
		if m.Tables[i].Name == name {
			return &m.Tables[i]
		}
	}
	return nil
}
