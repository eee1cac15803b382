package settingsfile

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// section groups the entries sharing a top-level key component.
type section struct {
	name    string
	entries []entry
}

// groupSections keeps the first-seen order of sections and entries.
func groupSections(entries []entry) []section {
	var out []section
	index := make(map[string]int)
	for _, e := range entries {
		i, ok := index[e.section]
		if !ok {
			i = len(out)
			index[e.section] = i
			out = append(out, section{name: e.section})
		}
		out[i].entries = append(out[i].entries, e)
	}
	return out
}

// scalarOnly reports whether the section is a single top-level setting with
// nothing below it, which is written as a plain root key.
func (s section) scalarOnly() bool {
	return len(s.entries) == 1 && s.entries[0].key == ""
}

func encodeTOML(entries []entry) ([]byte, error) {
	doc := make(map[string]any)
	for _, s := range groupSections(entries) {
		if s.scalarOnly() {
			doc[s.name] = s.entries[0].value
			continue
		}
		table := make(map[string]string, len(s.entries))
		for _, e := range s.entries {
			table[e.key] = e.value
		}
		doc[s.name] = table
	}
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeTOML(data []byte, sep rune) ([]entry, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	var out []entry
	for _, k := range sortedKeys(doc) {
		flattenTOML(&out, []string{k}, doc[k], sep)
	}
	return out, nil
}

func flattenTOML(dst *[]entry, path []string, v any, sep rune) {
	if table, ok := v.(map[string]any); ok {
		for _, k := range sortedKeys(table) {
			next := path
			if k != "" {
				next = append(append([]string(nil), path...), k)
			}
			flattenTOML(dst, next, table[k], sep)
		}
		return
	}
	*dst = append(*dst, entry{
		section: path[0],
		key:     strings.Join(path[1:], string(sep)),
		value:   tomlText(v),
	})
}

// tomlText renders a decoded TOML value in the text form settings parse.
func tomlText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05.999999999")
	case []any:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = tomlText(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(x)
	}
}

func encodeYAML(entries []entry) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, s := range groupSections(entries) {
		if s.scalarOnly() {
			root.Content = append(root.Content, yamlString(s.name), yamlString(s.entries[0].value))
			continue
		}
		table := &yaml.Node{Kind: yaml.MappingNode}
		for _, e := range s.entries {
			table.Content = append(table.Content, yamlString(e.key), yamlString(e.value))
		}
		root.Content = append(root.Content, yamlString(s.name), table)
	}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// yamlString builds a scalar the encoder quotes whenever the text would
// otherwise resolve to a non-string type.
func yamlString(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func decodeYAML(data []byte, sep rune) ([]entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}
	var out []entry
	if err := flattenYAML(&out, nil, root, sep); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenYAML(dst *[]entry, path []string, n *yaml.Node, sep rune) error {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: keys must be scalars", key.Line)
			}
			next := path
			if key.Value != "" {
				next = append(append([]string(nil), path...), key.Value)
			}
			if len(next) == 0 {
				return fmt.Errorf("line %d: empty top-level key", key.Line)
			}
			if err := flattenYAML(dst, next, n.Content[i+1], sep); err != nil {
				return err
			}
		}
		return nil
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: list items must be scalars", item.Line)
			}
			parts = append(parts, item.Value)
		}
		*dst = append(*dst, yamlEntry(path, strings.Join(parts, ","), sep))
		return nil
	case yaml.ScalarNode:
		value := n.Value
		if n.Tag == "!!null" {
			value = ""
		}
		*dst = append(*dst, yamlEntry(path, value, sep))
		return nil
	}
	return fmt.Errorf("line %d: unsupported node", n.Line)
}

func yamlEntry(path []string, value string, sep rune) entry {
	return entry{section: path[0], key: strings.Join(path[1:], string(sep)), value: value}
}
