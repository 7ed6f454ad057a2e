package seeder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Rana718/quarry/internal/database/common"
	"gopkg.in/yaml.v3"
)

// Fixture is one table's worth of records from a fixture file.
type Fixture struct {
	Table   string
	Records []map[string]any
}

// ParseFixtures reads a YAML mapping of table names to record lists, in order.
func ParseFixtures(data []byte) ([]Fixture, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("fixtures must map table names to records (line %d)", root.Line)
	}

	fixtures := make([]Fixture, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if !common.IsValidIdentifier(key.Value) {
			return nil, fmt.Errorf("invalid table name in fixtures: %q (line %d)", key.Value, key.Line)
		}

		var records []map[string]any
		if err := value.Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode fixtures for %s: %w", key.Value, err)
		}
		fixtures = append(fixtures, Fixture{Table: key.Value, Records: records})
	}
	return fixtures, nil
}

// LoadFixtures reads a fixture file or a directory of them.
func LoadFixtures(path string) ([]Fixture, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read fixtures directory %s: %w", path, err)
		}
		files = files[:0]
		for _, entry := range entries {
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if !entry.IsDir() && (ext == ".yml" || ext == ".yaml") {
				files = append(files, filepath.Join(path, entry.Name()))
			}
		}
		sort.Strings(files)
	}

	var all []Fixture
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read fixtures %s: %w", file, err)
		}
		fixtures, err := ParseFixtures(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		all = append(all, fixtures...)
	}
	return all, nil
}

// Unique maps a table to the fields its duplicates are matched on.
type FixtureSeeder struct {
	ID       string
	Fixtures []Fixture
	Unique   map[string][]string
	Requires []string
}

func (s FixtureSeeder) Name() string {
	if s.ID == "" {
		return "fixtures"
	}
	return s.ID
}

func (s FixtureSeeder) DependsOn() []string { return s.Requires }

func (s FixtureSeeder) Tables() []string {
	tables := make([]string, 0, len(s.Fixtures))
	for _, f := range s.Fixtures {
		tables = append(tables, f.Table)
	}
	return tables
}

func (s FixtureSeeder) Run(ctx context.Context, env *Env) error {
	for _, f := range s.Fixtures {
		res, err := env.Insert(ctx, f.Table, f.Records, s.Unique[f.Table]...)
		if err != nil {
			return fmt.Errorf("failed to seed fixtures for %s: %w", f.Table, err)
		}
		if err := res.Err(); err != nil {
			env.Logger.Warnw("fixture records failed", "table", f.Table, "count", len(res.Errors), "error", err)
		}
	}
	return nil
}
