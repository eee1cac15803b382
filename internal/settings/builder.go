package settings

import "fmt"

// Builder attaches dependency rules to the node declared by AddSetting.
// Groups opened with BeginDependencyGroup nest until the matching
// EndDependencyGroup; dependencies land in the innermost open group.
type Builder struct {
	tree       *Tree
	id         NodeID
	generation int
}

// Node returns the declared node, or nil if the tree has been cleared since.
func (b *Builder) Node() *Node {
	if b.generation != b.tree.generation {
		return nil
	}
	return b.tree.nodes[b.id]
}

// BeginDependencyGroup opens a nested AND/OR group.
func (b *Builder) BeginDependencyGroup(logic string) error {
	n := b.Node()
	if n == nil {
		return ErrStaleBuilder
	}
	l, err := ParseGroupLogic(logic)
	if err != nil {
		return fmt.Errorf("%s: %w", n.key, err)
	}
	n.beginDependencyGroup(l)
	return nil
}

// EndDependencyGroup closes the innermost open group.
func (b *Builder) EndDependencyGroup() {
	if n := b.Node(); n != nil {
		n.endDependencyGroup()
	}
}

// AddDependency makes the node depend on the setting at key comparing to
// value under logic. key is absolute; the group prefix does not apply.
func (b *Builder) AddDependency(key, value, logic string) error {
	n := b.Node()
	if n == nil {
		return ErrStaleBuilder
	}
	dep, err := NewDependency(key, value, logic)
	if err != nil {
		return fmt.Errorf("%s: %w", n.key, err)
	}
	n.addDependency(dep)
	return nil
}
