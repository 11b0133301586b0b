// Package load reads entity descriptions from YAML files and registers them
// as record descriptors.
//
// A file holds one or more YAML documents. Each document is either a single
// entity or a list of entities under the "entities" key:
//
//	entities:
//	  - table: orders
//	    columns:
//	      - {name: id, type: INTEGER, primary_key: true}
//	      - {name: state, type: VARCHAR(16), default: "'NEW'"}
package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/reposql"
	"github.com/syssam/reposql/schema"
)

// Spec is a loaded entity description with the file it came from.
type Spec struct {
	schema.RecordSpec `yaml:",inline"`
	// Pos is the "file:line" position of the entity in its source.
	Pos string `yaml:"-"`
}

type document struct {
	Entities []*Spec `yaml:"entities"`
}

// Parse decodes all entity descriptions in data. name is used in positions
// and error messages.
func Parse(name string, data []byte) ([]*Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var specs []*Spec
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load: %s: %w", name, err)
		}
		if len(node.Content) == 0 {
			continue
		}
		root := node.Content[0]
		if hasKey(root, "entities") {
			var doc document
			if err := root.Decode(&doc); err != nil {
				return nil, fmt.Errorf("load: %s: %w", name, err)
			}
			for i, s := range doc.Entities {
				s.Pos = fmt.Sprintf("%s:%d", name, entityLine(root, i))
			}
			specs = append(specs, doc.Entities...)
			continue
		}
		s := &Spec{Pos: fmt.Sprintf("%s:%d", name, root.Line)}
		if err := root.Decode(s); err != nil {
			return nil, fmt.Errorf("load: %s: %w", name, err)
		}
		specs = append(specs, s)
	}
	for _, s := range specs {
		if err := check(s); err != nil {
			return nil, err
		}
	}
	return specs, nil
}

// File loads the entity descriptions of one file.
func File(path string) ([]*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return Parse(path, data)
}

// Dir loads all .yaml and .yml files of dir in lexical order.
func Dir(dir string) ([]*Spec, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && IsSpecFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	var specs []*Spec
	for _, n := range names {
		s, err := File(filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		specs = append(specs, s...)
	}
	return specs, nil
}

// Path loads a single file or, if path is a directory, all files in it.
func Path(path string) ([]*Spec, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if fi.IsDir() {
		return Dir(path)
	}
	return File(path)
}

// IsSpecFile reports whether name has a YAML extension.
func IsSpecFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// Register adds all specs to r and resolves every association, so that
// references between files are checked once all entities are known.
func Register(r *schema.Registry, specs []*Spec) ([]*schema.Descriptor, error) {
	descs := make([]*schema.Descriptor, 0, len(specs))
	for _, s := range specs {
		d, err := r.Add(s.RecordSpec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Pos, err)
		}
		descs = append(descs, d)
	}
	var errs []error
	for i, d := range descs {
		for _, a := range d.Associations {
			if _, err := a.Target(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", specs[i].Pos, err))
			}
		}
	}
	if len(errs) > 0 {
		return nil, reposql.NewAggregateError(errs...)
	}
	return descs, nil
}

func check(s *Spec) error {
	if s.Table == "" {
		return reposql.NewConfigError(s.Pos, "missing table name")
	}
	if len(s.Columns) == 0 {
		return reposql.NewConfigError(s.Table, "%s: no columns", s.Pos)
	}
	for _, a := range s.Associations {
		if a.Target == "" {
			return reposql.NewConfigError(s.Table, "%s: association %q has no target", s.Pos, a.Name)
		}
	}
	return nil
}

func hasKey(n *yaml.Node, key string) bool {
	if n.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}

func entityLine(root *yaml.Node, i int) int {
	for j := 0; j+1 < len(root.Content); j += 2 {
		if root.Content[j].Value == "entities" {
			list := root.Content[j+1]
			if i < len(list.Content) {
				return list.Content[i].Line
			}
		}
	}
	return root.Line
}
