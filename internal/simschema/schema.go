package simschema

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"radiosim/internal/settings"
)

//go:embed interferometer.toml
var interferometerSchema []byte

// ErrInvalidSchema wraps decode failures and declarations the tree rejects.
var ErrInvalidSchema = errors.New("invalid schema")

// Schema is an ordered list of declarations.
type Schema struct {
	Settings []Setting `toml:"setting"`
}

// Setting declares one tree node. Keys always use "/".
type Setting struct {
	Key         string `toml:"key"`
	Label       string `toml:"label"`
	Description string `toml:"description"`
	Type        string `toml:"type"`
	Default     string `toml:"default"`
	Params      string `toml:"params"`
	Required    bool   `toml:"required"`
	Priority    int    `toml:"priority"`
	Depends     *Group `toml:"depends"`
}

// Group is one AND/OR level of a dependency expression.
type Group struct {
	Logic  string  `toml:"logic"`
	Rules  []Rule  `toml:"rule"`
	Groups []Group `toml:"group"`
}

// Rule compares the setting at Key with Value. An empty Logic means equal.
type Rule struct {
	Key   string `toml:"key"`
	Value string `toml:"value"`
	Logic string `toml:"logic"`
}

// Interferometer returns the built-in interferometer simulation schema.
func Interferometer() (*Schema, error) {
	return Parse(interferometerSchema)
}

// Parse decodes a schema document. Unknown fields are rejected.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return &s, nil
}

// Apply declares the built-in schema on tree.
func Apply(tree *settings.Tree) error {
	s, err := Interferometer()
	if err != nil {
		return err
	}
	return s.Apply(tree)
}

// Apply declares every setting in order and attaches its dependencies. Keys
// are translated to the tree separator and resolved against the current
// group; dependency keys are absolute.
func (s *Schema) Apply(tree *settings.Tree) error {
	sep := string(tree.Separator())
	for _, decl := range s.Settings {
		b, err := tree.AddSetting(settings.Definition{
			Key:         toSeparator(decl.Key, sep),
			Label:       decl.Label,
			Description: decl.Description,
			Type:        decl.Type,
			Default:     decl.Default,
			Params:      decl.Params,
			Required:    decl.Required,
			Priority:    decl.Priority,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
		}
		if decl.Depends == nil {
			continue
		}
		if err := applyGroup(b, *decl.Depends, sep); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
		}
	}
	return nil
}

func applyGroup(b *settings.Builder, g Group, sep string) error {
	if err := b.BeginDependencyGroup(g.Logic); err != nil {
		return err
	}
	defer b.EndDependencyGroup()
	for _, r := range g.Rules {
		if err := b.AddDependency(toSeparator(r.Key, sep), r.Value, r.Logic); err != nil {
			return err
		}
	}
	for _, child := range g.Groups {
		if err := applyGroup(b, child, sep); err != nil {
			return err
		}
	}
	return nil
}

func toSeparator(key, sep string) string {
	if sep == "/" {
		return key
	}
	return strings.ReplaceAll(key, "/", sep)
}
