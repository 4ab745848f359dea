package planner

import (
	"fmt"
	"strings"

	"github.com/exportdeck/seedkit/internal/schema"
)

// CyclicDependencyError reports tables whose foreign keys form a cycle
// no insertion order can satisfy.
type CyclicDependencyError struct {
	Tables []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic foreign key dependency involving tables: %s", strings.Join(e.Tables, ", "))
}

// Plan computes the insertion order for every table in the manifest.
func Plan(m *schema.Manifest) ([]string, error) {
	graph := NewDependencyGraph()
	for i := range m.Tables {
		graph.AddTable(&m.Tables[i])
	}

	order, err := graph.InsertionOrder()
	if err != nil {
		return nil, fmt.Errorf("failed to build insertion order: %w", err)
	}
	return order, nil
}
