package settings

// NodeID indexes a node in the arena owned by its Tree.
type NodeID int

// InvalidNode is returned by lookups that find nothing.
const InvalidNode NodeID = -1

const rootID NodeID = 0

// ItemType distinguishes grouping labels from value-carrying settings.
type ItemType uint8

const (
	ItemInvalid ItemType = iota
	ItemLabel
	ItemSetting
)

// String returns the one letter code used in tree dumps.
func (t ItemType) String() string {
	switch t {
	case ItemLabel:
		return "L"
	case ItemSetting:
		return "S"
	default:
		return "I"
	}
}

// Node is one entity in a settings tree. Parent and children are arena
// indices; use the owning Tree to navigate.
type Node struct {
	id          NodeID
	parent      NodeID
	key         Key
	folded      string
	label       string
	description string
	itemType    ItemType
	value       *Value
	required    bool
	priority    int
	// implicit marks a label created on the way to a deeper key and never
	// declared on its own.
	implicit bool

	deps   *DependencyGroup
	cursor *DependencyGroup

	children []NodeID
	index    map[string]NodeID
}

func newNode(id, parent NodeID, key Key) *Node {
	return &Node{
		id:       id,
		parent:   parent,
		key:      key,
		folded:   foldName(key.Last()),
		itemType: ItemLabel,
		value:    &Value{},
	}
}

// ID returns the arena index of the node.
func (n *Node) ID() NodeID { return n.id }

// ParentID returns the parent index, or InvalidNode for the root.
func (n *Node) ParentID() NodeID { return n.parent }

// Key returns the full key of the node.
func (n *Node) Key() Key { return n.key }

// Label returns the display label.
func (n *Node) Label() string { return n.label }

// Description returns the long description.
func (n *Node) Description() string { return n.description }

// ItemType reports whether the node is a label or a setting.
func (n *Node) ItemType() ItemType { return n.itemType }

// Value returns the node value. Labels return an empty Value of
// TypeUndefined.
func (n *Node) Value() *Value { return n.value }

// Required reports whether the setting must be supplied.
func (n *Node) Required() bool { return n.required }

// Priority returns the declared priority.
func (n *Node) Priority() int { return n.priority }

// DependencyTree returns the root dependency group, or nil.
func (n *Node) DependencyTree() *DependencyGroup { return n.deps }

// NumDependencies counts every dependency attached to the node.
func (n *Node) NumDependencies() int { return n.deps.Count() }

// NumChildren returns the number of direct children.
func (n *Node) NumChildren() int { return len(n.children) }

// ChildIDs returns the children in insertion order.
func (n *Node) ChildIDs() []NodeID {
	out := make([]NodeID, len(n.children))
	copy(out, n.children)
	return out
}

// SetValue parses raw into the node value.
func (n *Node) SetValue(raw string) error {
	if n.itemType != ItemSetting {
		return ErrNotSetting
	}
	return n.value.Set(raw)
}

func (n *Node) childID(folded string) NodeID {
	if id, ok := n.index[folded]; ok {
		return id
	}
	return InvalidNode
}

func (n *Node) appendChild(child *Node) {
	if n.index == nil {
		n.index = make(map[string]NodeID)
	}
	n.index[child.folded] = child.id
	n.children = append(n.children, child.id)
}

// beginDependencyGroup opens a nested scope. The first call on a node
// creates the root group.
func (n *Node) beginDependencyGroup(logic GroupLogic) {
	if n.deps == nil {
		n.deps = NewDependencyGroup(logic)
		n.cursor = n.deps
		return
	}
	if n.cursor == nil {
		n.cursor = n.deps
	}
	n.cursor = n.cursor.AddChild(logic)
}

// endDependencyGroup closes the innermost open scope. The root scope stays
// open.
func (n *Node) endDependencyGroup() {
	if n.cursor != nil && n.cursor.parent != nil {
		n.cursor = n.cursor.parent
	}
}

// addDependency appends to the open scope, creating an AND root if the node
// has none.
func (n *Node) addDependency(dep Dependency) {
	if n.deps == nil {
		n.deps = NewDependencyGroup(GroupAnd)
	}
	if n.cursor == nil {
		n.cursor = n.deps
	}
	n.cursor.AddDependency(dep)
}
