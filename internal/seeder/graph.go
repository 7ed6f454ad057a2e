package seeder

import (
	"fmt"
	"sort"
)

type DependencyGraph struct {
	deps  map[string][]string
	order []string
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{deps: make(map[string][]string)}
}

func (g *DependencyGraph) Add(name string, deps ...string) {
	g.deps[name] = append(g.deps[name], deps...)
}

// BuildOrder covers roots and their dependencies, or every seeder when roots is empty.
func (g *DependencyGraph) BuildOrder(roots ...string) ([]string, error) {
	visited := make(map[string]bool)
	temp := make(map[string]bool)
	var order []string

	var visit func(string) error
	visit = func(name string) error {
		if temp[name] {
			return fmt.Errorf("circular dependency detected involving seeder: %s", name)
		}
		if visited[name] {
			return nil
		}
		deps, ok := g.deps[name]
		if !ok {
			return fmt.Errorf("unknown seeder: %s", name)
		}

		temp[name] = true
		for _, dep := range deps {
			if dep == name {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		temp[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	if len(roots) == 0 {
		for name := range g.deps {
			roots = append(roots, name)
		}
		sort.Strings(roots)
	}
	for _, name := range roots {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	g.order = order
	return order, nil
}

func (g *DependencyGraph) GetOrder() []string {
	return g.order
}
