package settings

import (
	"fmt"
	"strings"
)

// Logic is the comparison applied by a Dependency.
type Logic uint8

const (
	LogicUndefined Logic = iota
	LogicEQ
	LogicNE
	LogicGT
	LogicGE
	LogicLT
	LogicLE
)

// String returns the operator name.
func (l Logic) String() string {
	switch l {
	case LogicEQ:
		return "EQ"
	case LogicNE:
		return "NE"
	case LogicGT:
		return "GT"
	case LogicGE:
		return "GE"
	case LogicLT:
		return "LT"
	case LogicLE:
		return "LE"
	default:
		return "UNDEF"
	}
}

// ParseLogic accepts EQ, NE, GT, GE, LT, LE in any case, or the matching
// symbols ==, !=, >, >=, <, <=. An empty string means EQ.
func ParseLogic(s string) (Logic, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "EQ", "==", "=":
		return LogicEQ, nil
	case "NE", "!=", "<>":
		return LogicNE, nil
	case "GT", ">":
		return LogicGT, nil
	case "GE", ">=":
		return LogicGE, nil
	case "LT", "<":
		return LogicLT, nil
	case "LE", "<=":
		return LogicLE, nil
	}
	return LogicUndefined, fmt.Errorf("%w: %q", ErrInvalidLogic, s)
}

// Dependency is a condition on the current value of another setting.
type Dependency struct {
	key   string
	value string
	logic Logic
}

// NewDependency builds a dependency of key on value under the named logic.
func NewDependency(key, value, logic string) (Dependency, error) {
	if strings.TrimSpace(key) == "" {
		return Dependency{}, fmt.Errorf("%w: dependency key is empty", ErrInvalidDefinition)
	}
	l, err := ParseLogic(logic)
	if err != nil {
		return Dependency{}, err
	}
	return Dependency{key: key, value: value, logic: l}, nil
}

// Key returns the absolute key the dependency refers to.
func (d Dependency) Key() string { return d.key }

// Value returns the literal the referenced setting is compared with.
func (d Dependency) Value() string { return d.value }

// Logic returns the comparison operator.
func (d Dependency) Logic() Logic { return d.logic }

func (d Dependency) String() string {
	return fmt.Sprintf("%s %s %q", d.key, d.logic, d.value)
}

// GroupLogic folds the results inside a DependencyGroup.
type GroupLogic uint8

const (
	GroupUndefined GroupLogic = iota
	GroupAnd
	GroupOr
)

// String returns the group logic name.
func (g GroupLogic) String() string {
	switch g {
	case GroupAnd:
		return "AND"
	case GroupOr:
		return "OR"
	default:
		return "UNDEF"
	}
}

// ParseGroupLogic accepts AND and OR in any case, or && and ||. An empty
// string means AND.
func ParseGroupLogic(s string) (GroupLogic, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AND", "&&":
		return GroupAnd, nil
	case "OR", "||":
		return GroupOr, nil
	}
	return GroupUndefined, fmt.Errorf("%w: group %q", ErrInvalidLogic, s)
}

// DependencyGroup is one level of a boolean expression over dependencies.
type DependencyGroup struct {
	logic    GroupLogic
	deps     []Dependency
	children []*DependencyGroup
	parent   *DependencyGroup
}

// NewDependencyGroup returns an empty group.
func NewDependencyGroup(logic GroupLogic) *DependencyGroup {
	return &DependencyGroup{logic: logic}
}

// Logic returns the group logic.
func (g *DependencyGroup) Logic() GroupLogic { return g.logic }

// NumChildren returns the number of nested groups.
func (g *DependencyGroup) NumChildren() int { return len(g.children) }

// Child returns the nested group at i.
func (g *DependencyGroup) Child(i int) *DependencyGroup { return g.children[i] }

// NumDependencies returns the number of direct dependencies.
func (g *DependencyGroup) NumDependencies() int { return len(g.deps) }

// Dependency returns the direct dependency at i.
func (g *DependencyGroup) Dependency(i int) Dependency { return g.deps[i] }

// Parent returns the enclosing group, or nil at the top of the tree.
func (g *DependencyGroup) Parent() *DependencyGroup { return g.parent }

// AddChild appends and returns a nested group.
func (g *DependencyGroup) AddChild(logic GroupLogic) *DependencyGroup {
	child := &DependencyGroup{logic: logic, parent: g}
	g.children = append(g.children, child)
	return child
}

// AddDependency appends a direct dependency.
func (g *DependencyGroup) AddDependency(dep Dependency) {
	g.deps = append(g.deps, dep)
}

// Count returns the number of dependencies in the group and all nested
// groups.
func (g *DependencyGroup) Count() int {
	if g == nil {
		return 0
	}
	n := len(g.deps)
	for _, child := range g.children {
		n += child.Count()
	}
	return n
}

// String renders the group as a nested boolean expression.
func (g *DependencyGroup) String() string {
	if g == nil {
		return ""
	}
	terms := make([]string, 0, len(g.children)+len(g.deps))
	for _, child := range g.children {
		terms = append(terms, "("+child.String()+")")
	}
	for _, dep := range g.deps {
		terms = append(terms, dep.String())
	}
	return strings.Join(terms, " "+g.logic.String()+" ")
}
