package schema

import (
	"fmt"
	"regexp"
)

// validIdentifier validates SQL identifiers (table/column names) to prevent SQL injection
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ColumnType is the semantic type a CSV cell is coerced to before it
// reaches the database layer.
type ColumnType string

const (
	TypeInt       ColumnType = "int"
	TypeFloat     ColumnType = "float"
	TypeDecimal   ColumnType = "decimal"
	TypeBool      ColumnType = "bool"
	TypeString    ColumnType = "string"
	TypeDate      ColumnType = "date"
	TypeTimestamp ColumnType = "timestamp"
)

type ColumnSpec struct {
	Name     string     `yaml:"name"`
	Type     ColumnType `yaml:"type"`
	Nullable bool       `yaml:"nullable"`
}

type ForeignKey struct {
	Column    string `yaml:"column"`
	RefTable  string `yaml:"ref_table"`
	RefColumn string `yaml:"ref_column"`
}

// TableSpec describes one pre-existing target table. Priority is the
// table's position in the manifest and is the tie-break used when more
// than one insertion order would be valid.
type TableSpec struct {
	Name        string       `yaml:"table"`
	Source      string       `yaml:"source"`
	Columns     []ColumnSpec `yaml:"columns"`
	PrimaryKey  []string     `yaml:"primary_key"`
	ForeignKeys []ForeignKey `yaml:"foreign_keys"`
	Priority    int          `yaml:"-"`
}

// Column returns the spec for the named column, or nil.
func (t *TableSpec) Column(name string) *ColumnSpec {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Dependencies returns the distinct tables this table references,
// excluding self-references (an employee's manager lives in the same
// table and does not constrain table ordering).
func (t *TableSpec) Dependencies() []string {
	seen := make(map[string]bool)
	var deps []string
	for _, fk := range t.ForeignKeys {
		if fk.RefTable == t.Name || seen[fk.RefTable] {
			continue
		}
		seen[fk.RefTable] = true
		deps = append(deps, fk.RefTable)
	}
	return deps
}

func (t *TableSpec) validate() error {
	if !validIdentifier.MatchString(t.Name) {
		return fmt.Errorf("invalid table name: %q", t.Name)
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s declares no columns", t.Name)
	}
	seen := make(map[string]bool)
	for _, col := range t.Columns {
		if !validIdentifier.MatchString(col.Name) {
			return fmt.Errorf("invalid column name in table %s: %q", t.Name, col.Name)
		}
		if seen[col.Name] {
			return fmt.Errorf("table %s declares column %s twice", t.Name, col.Name)
		}
		seen[col.Name] = true
		switch col.Type {
		case TypeInt, TypeFloat, TypeDecimal, TypeBool, TypeString, TypeDate, TypeTimestamp:
		default:
			return fmt.Errorf("table %s column %s has unknown type %q", t.Name, col.Name, col.Type)
		}
	}
	for _, pk := range t.PrimaryKey {
		if !seen[pk] {
			return fmt.Errorf("table %s primary key references unknown column %s", t.Name, pk)
		}
	}
	for _, fk := range t.ForeignKeys {
		if !seen[fk.Column] {
			return fmt.Errorf("table %s foreign key references unknown local column %s", t.Name, fk.Column)
		}
	}
	return nil
}

// RowRecord is one validated row, keyed by column name. Values are
// already coerced to the column's ColumnType (or nil for NULL); it is
// never mutated after the loader produces it.
type RowRecord map[string]interface{}
