package settings

import (
	"fmt"
	"log/slog"
	"strings"

	"radiosim/internal/logging"
)

// FileHandler persists a tree to a backing store. The tree passes itself to
// both calls; the handler owns the on-disk format.
type FileHandler interface {
	SetFileName(name string)
	WriteAll(t *Tree) error
	ReadAll(t *Tree) ([]Invalid, error)
}

// Invalid records a stored value the tree rejected while loading.
type Invalid struct {
	Key    string
	Value  string
	Reason string
}

// Definition declares one node for AddSetting. An empty Type declares a
// LABEL node.
type Definition struct {
	Key         string
	Label       string
	Description string
	Type        string
	Default     string
	Params      string
	Required    bool
	Priority    int
}

// Option configures a Tree.
type Option func(*Tree)

// WithSeparator sets the key separator. The default is '/'.
func WithSeparator(sep rune) Option {
	return func(t *Tree) {
		if sep != 0 {
			t.sep = sep
		}
	}
}

// WithLogger routes lookup and dependency diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tree) {
		t.logger = logging.NewComponentLogger(logger, "settings")
	}
}

// WithFileHandler attaches a persistence backend.
func WithFileHandler(h FileHandler) Option {
	return func(t *Tree) {
		t.handler = h
	}
}

// Tree is a hierarchical, dependency-aware settings store.
type Tree struct {
	nodes       []*Node
	handler     FileHandler
	group       []string
	sep         rune
	numItems    int
	numSettings int
	// modified means "not known to be persisted": it is cleared only by a
	// successful write, load or reset to defaults.
	modified    bool
	generation  int
	depWarnings int
	logger      *slog.Logger
}

// New returns an empty tree.
func New(opts ...Option) *Tree {
	t := &Tree{sep: DefaultSeparator}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logging.NewNop()
	}
	t.Clear()
	return t
}

// Clear discards every node and recreates an empty root. Builders obtained
// before the call become stale.
func (t *Tree) Clear() {
	root := newNode(rootID, InvalidNode, Key{sep: t.sep})
	t.nodes = []*Node{root}
	t.numItems = 0
	t.numSettings = 0
	t.modified = false
	t.generation++
}

// Separator returns the key separator.
func (t *Tree) Separator() rune { return t.sep }

// SetFileHandler attaches h and, when name is non-empty, points it at name.
func (t *Tree) SetFileHandler(h FileHandler, name string) {
	t.handler = h
	t.SetFileName(name)
}

// SetFileName forwards a non-empty name to the file handler.
func (t *Tree) SetFileName(name string) {
	if t.handler != nil && name != "" {
		t.handler.SetFileName(name)
	}
}

// FileHandler returns the attached handler, or nil.
func (t *Tree) FileHandler() FileHandler { return t.handler }

// BeginGroup pushes name onto the group prefix. Every BeginGroup must be
// balanced by an EndGroup.
func (t *Tree) BeginGroup(name string) {
	t.group = append(t.group, name)
}

// EndGroup pops the innermost group. It is a no-op with no open group.
func (t *Tree) EndGroup() {
	if len(t.group) > 0 {
		t.group = t.group[:len(t.group)-1]
	}
}

// ClearGroup empties the group prefix.
func (t *Tree) ClearGroup() {
	t.group = t.group[:0]
}

// GroupPrefix returns the open groups joined and terminated by the
// separator, or "" with no open group.
func (t *Tree) GroupPrefix() string {
	if len(t.group) == 0 {
		return ""
	}
	var b strings.Builder
	for _, g := range t.group {
		b.WriteString(g)
		b.WriteRune(t.sep)
	}
	return b.String()
}

func (t *Tree) resolve(key string) Key {
	return NewKey(t.GroupPrefix()+key, t.sep)
}

// AddSetting declares a node. Intermediate labels are created on demand and
// reused when already present. The returned Builder attaches dependencies to
// the declared node.
//
// Declarations are rejected without mutating the tree when the key is
// empty, a required setting carries a default, the type is unknown, the
// default does not parse, or the key already exists with another type.
func (t *Tree) AddSetting(def Definition) (*Builder, error) {
	k := t.resolve(def.Key)
	if k.Depth() == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidDefinition)
	}
	if def.Required && def.Default != "" {
		return nil, fmt.Errorf("%w: %s: required settings cannot have a default", ErrInvalidDefinition, k)
	}

	itemType := ItemLabel
	value := &Value{}
	if strings.TrimSpace(def.Type) != "" {
		v, err := NewValue(def.Type, def.Default, def.Params)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, k, err)
		}
		itemType, value = ItemSetting, v
	} else if def.Default != "" {
		return nil, fmt.Errorf("%w: %s: a label cannot have a default", ErrInvalidDefinition, k)
	}

	if existing := t.find(k); existing != InvalidNode {
		n := t.nodes[existing]
		if !n.implicit && foldName(n.value.TypeName()) != foldName(value.TypeName()) {
			return nil, fmt.Errorf("%w: %s: already declared as %q", ErrInvalidDefinition, k, n.value.TypeName())
		}
		if n.itemType != ItemSetting && itemType == ItemSetting {
			t.numSettings++
		}
		t.declare(n, def, itemType, value)
		return &Builder{tree: t, id: existing, generation: t.generation}, nil
	}

	parent := rootID
	for i := 0; i < k.Depth()-1; i++ {
		parent = t.ensureLabel(parent, k.Prefix(i+1))
	}
	n := t.addChild(parent, k)
	t.declare(n, def, itemType, value)
	if itemType == ItemSetting {
		t.numSettings++
	}
	return &Builder{tree: t, id: n.id, generation: t.generation}, nil
}

func (t *Tree) declare(n *Node, def Definition, itemType ItemType, value *Value) {
	n.label = def.Label
	n.description = def.Description
	n.itemType = itemType
	n.value = value
	n.required = def.Required
	n.priority = def.Priority
	n.implicit = false
}

// ensureLabel returns the child of parent named by the last component of
// key, creating an implicit label when absent.
func (t *Tree) ensureLabel(parent NodeID, key Key) NodeID {
	if id := t.nodes[parent].childID(foldName(key.Last())); id != InvalidNode {
		return id
	}
	n := t.addChild(parent, key)
	n.label = key.Last()
	n.implicit = true
	return n.id
}

// addChild inserts a new node under parent, or returns the existing child
// with the same folded name.
func (t *Tree) addChild(parent NodeID, key Key) *Node {
	p := t.nodes[parent]
	if id := p.childID(foldName(key.Last())); id != InvalidNode {
		return t.nodes[id]
	}
	n := newNode(NodeID(len(t.nodes)), parent, key)
	t.nodes = append(t.nodes, n)
	p.appendChild(n)
	t.numItems++
	return n
}

// find resolves an absolute key by descending one folded component at a
// time.
func (t *Tree) find(k Key) NodeID {
	if k.Depth() == 0 {
		return InvalidNode
	}
	id := rootID
	for i := 0; i < k.Depth(); i++ {
		id = t.nodes[id].childID(foldName(k.At(i)))
		if id == InvalidNode {
			return InvalidNode
		}
	}
	return id
}

// Contains reports whether key resolves to a node.
func (t *Tree) Contains(key string) bool {
	return t.find(t.resolve(key)) != InvalidNode
}

// Item returns the node at key. A miss is logged.
func (t *Tree) Item(key string) (*Node, bool) {
	id := t.find(t.resolve(key))
	if id == InvalidNode {
		t.logger.Error("settings key not found", logging.String("key", t.GroupPrefix()+key))
		return nil, false
	}
	return t.nodes[id], true
}

// Value returns the value of the node at key. A miss is logged.
func (t *Tree) Value(key string) (*Value, bool) {
	n, ok := t.Item(key)
	if !ok {
		return nil, false
	}
	return n.value, true
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.nodes[rootID] }

// Node returns the node with the given ID, or nil.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Parent returns the parent of n, or nil for the root.
func (t *Tree) Parent(n *Node) *Node {
	return t.Node(n.parent)
}

// Child returns the i-th child of n.
func (t *Tree) Child(n *Node, i int) *Node {
	return t.nodes[n.children[i]]
}

// Walk visits every node below the root depth first in insertion order.
// depth is 0 for top-level nodes.
func (t *Tree) Walk(fn func(n *Node, depth int)) {
	t.walk(t.nodes[rootID], 0, fn)
}

func (t *Tree) walk(n *Node, depth int, fn func(*Node, int)) {
	for _, id := range n.children {
		child := t.nodes[id]
		fn(child, depth)
		t.walk(child, depth+1, fn)
	}
}

// NumItems returns the number of nodes below the root.
func (t *Tree) NumItems() int { return t.numItems }

// NumSettings returns the number of SETTING nodes.
func (t *Tree) NumSettings() int { return t.numSettings }

// IsModified reports whether the tree holds changes not known to be
// persisted.
func (t *Tree) IsModified() bool { return t.modified }

// DependencyWarnings counts dependency evaluations that referenced a missing
// key or an unparsable literal.
func (t *Tree) DependencyWarnings() int { return t.depWarnings }

// SetValue parses value into the setting at key. With write set and a file
// handler attached the tree is persisted immediately; a failed write is
// logged and leaves the tree marked modified.
func (t *Tree) SetValue(key, value string, write bool) error {
	id := t.find(t.resolve(key))
	if id == InvalidNode {
		return fmt.Errorf("%w: %s", ErrNotFound, t.GroupPrefix()+key)
	}
	if err := t.nodes[id].SetValue(value); err != nil {
		return fmt.Errorf("set %s: %w", t.nodes[id].key, err)
	}
	t.afterChange(write)
	return nil
}

// SetDefault restores the declared default of the setting at key, with the
// same write semantics as SetValue.
func (t *Tree) SetDefault(key string, write bool) error {
	id := t.find(t.resolve(key))
	if id == InvalidNode {
		return fmt.Errorf("%w: %s", ErrNotFound, t.GroupPrefix()+key)
	}
	n := t.nodes[id]
	if err := n.SetValue(n.value.Default()); err != nil {
		return fmt.Errorf("reset %s: %w", n.key, err)
	}
	t.afterChange(write)
	return nil
}

func (t *Tree) afterChange(write bool) {
	written := false
	if write && t.handler != nil {
		if err := t.writeAll(); err != nil {
			t.logger.Error("settings write failed", logging.Error(err))
		} else {
			written = true
		}
	}
	t.modified = !written
}

// SetDefaults resets every setting to its default and clears the modified
// flag.
func (t *Tree) SetDefaults() {
	for _, n := range t.nodes {
		n.value.Reset()
	}
	t.modified = false
}

// Save writes the tree through the file handler, first pointing it at
// fileName when non-empty.
func (t *Tree) Save(fileName string) error {
	if t.handler == nil {
		return ErrNoFileHandler
	}
	t.SetFileName(fileName)
	if err := t.writeAll(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	t.modified = false
	return nil
}

// Load resets every value to its default and reads stored values through
// the file handler. Stored values the tree rejects are returned rather than
// failing the load.
func (t *Tree) Load(fileName string) ([]Invalid, error) {
	if t.handler == nil {
		return nil, ErrNoFileHandler
	}
	t.SetFileName(fileName)
	t.SetDefaults()
	var invalid []Invalid
	err := t.outsideGroups(func() error {
		var readErr error
		invalid, readErr = t.handler.ReadAll(t)
		return readErr
	})
	if err != nil {
		return invalid, fmt.Errorf("read settings: %w", err)
	}
	for _, inv := range invalid {
		t.logger.Warn("rejected stored setting",
			logging.String("key", inv.Key),
			logging.String("value", inv.Value),
			logging.String("reason", inv.Reason),
		)
	}
	t.modified = false
	return invalid, nil
}

func (t *Tree) writeAll() error {
	return t.outsideGroups(func() error {
		return t.handler.WriteAll(t)
	})
}

// outsideGroups runs fn with the group prefix suspended so handlers resolve
// absolute keys.
func (t *Tree) outsideGroups(fn func() error) error {
	saved := t.group
	t.group = nil
	defer func() { t.group = saved }()
	return fn()
}
