package planner

import (
	"sort"

	"github.com/exportdeck/seedkit/internal/schema"
)

// DependencyGraph models "A references B, so B must be inserted first"
// as a directed edge A→B over table names.
type DependencyGraph struct {
	tables   map[string]*schema.TableSpec
	priority map[string]int
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		tables:   make(map[string]*schema.TableSpec),
		priority: make(map[string]int),
	}
}

func (g *DependencyGraph) AddTable(table *schema.TableSpec) {
	g.tables[table.Name] = table
	g.priority[table.Name] = table.Priority
}

// InsertionOrder runs Kahn's algorithm over the graph. When several
// tables are ready at once, the one declared earliest in the manifest
// wins, so the same manifest always yields the same plan.
func (g *DependencyGraph) InsertionOrder() ([]string, error) {
	inDegree := make(map[string]int, len(g.tables))
	dependents := make(map[string][]string, len(g.tables))

	for name := range g.tables {
		inDegree[name] = 0
	}
	for name, table := range g.tables {
		for _, dep := range table.Dependencies() {
			if _, known := g.tables[dep]; !known {
				continue
			}
			inDegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(g.tables))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool {
			return g.priority[ready[i]] < g.priority[ready[j]]
		})
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dep := range dependents[next] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(g.tables) {
		var cycle []string
		for name, deg := range inDegree {
			if deg > 0 {
				cycle = append(cycle, name)
			}
		}
		sort.Strings(cycle)
		return nil, &CyclicDependencyError{Tables: cycle}
	}

	return order, nil
}
