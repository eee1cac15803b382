package settings

import (
	"radiosim/internal/logging"
)

// DependenciesSatisfied reports whether the node at key is active: the
// dependency tree of every ancestor and of the node itself must hold. An
// unknown key is logged and reported as unsatisfied.
func (t *Tree) DependenciesSatisfied(key string) bool {
	id := t.find(t.resolve(key))
	if id == InvalidNode {
		t.logger.Error("settings key not found", logging.String("key", t.GroupPrefix()+key))
		return false
	}
	return t.satisfied(id)
}

func (t *Tree) satisfied(id NodeID) bool {
	n := t.nodes[id]
	if n.parent != InvalidNode && !t.ancestorsSatisfied(n.parent) {
		return false
	}
	if n.deps == nil {
		return true
	}
	return t.groupSatisfied(n.deps)
}

// ancestorsSatisfied walks from id up to the root and fails on the first
// node whose own dependency tree does not hold.
func (t *Tree) ancestorsSatisfied(id NodeID) bool {
	for id != InvalidNode {
		n := t.nodes[id]
		if n.deps != nil && !t.groupSatisfied(n.deps) {
			return false
		}
		id = n.parent
	}
	return true
}

// groupSatisfied folds nested groups first, then direct dependencies. AND
// starts true and OR starts false; any other logic is unsatisfied.
func (t *Tree) groupSatisfied(g *DependencyGroup) bool {
	var ok bool
	switch g.logic {
	case GroupAnd:
		ok = true
	case GroupOr:
		ok = false
	default:
		return false
	}
	for _, child := range g.children {
		childOK := t.groupSatisfied(child)
		if g.logic == GroupAnd {
			ok = ok && childOK
		} else {
			ok = ok || childOK
		}
	}
	for _, dep := range g.deps {
		depOK := t.dependencySatisfied(dep)
		if g.logic == GroupAnd {
			ok = ok && depOK
		} else {
			ok = ok || depOK
		}
	}
	return ok
}

// dependencySatisfied compares the live value at dep.Key with the literal
// parsed as the same type. A key missing from the tree is treated as
// satisfied so a partial schema never locks the configuration; both that and
// an unparsable literal are logged and counted.
func (t *Tree) dependencySatisfied(dep Dependency) bool {
	id := t.find(NewKey(dep.Key(), t.sep))
	if id == InvalidNode {
		t.depWarnings++
		t.logger.Warn("dependency key not found; treating as satisfied",
			logging.String("dependency", dep.Key()),
		)
		return true
	}
	current := t.nodes[id].value
	target, err := current.withText(dep.Value())
	if err != nil {
		t.depWarnings++
		t.logger.Warn("dependency literal rejected by target type",
			logging.String("dependency", dep.Key()),
			logging.String("literal", dep.Value()),
			logging.Error(err),
		)
		return false
	}

	switch dep.Logic() {
	case LogicEQ:
		return current.Equal(target)
	case LogicNE:
		return !current.Equal(target)
	}
	c, ok := current.Compare(target)
	if !ok {
		return false
	}
	switch dep.Logic() {
	case LogicGT:
		return c > 0
	case LogicGE:
		return c >= 0
	case LogicLT:
		return c < 0
	case LogicLE:
		return c <= 0
	default:
		return false
	}
}

// IsCritical reports whether the node at key, or any node below it, is a
// required setting with no value whose dependencies currently hold. An
// unknown key is not critical.
func (t *Tree) IsCritical(key string) bool {
	id := t.find(t.resolve(key))
	if id == InvalidNode {
		return false
	}
	return t.critical(id)
}

// AnyCritical reports whether any setting in the tree is critical.
func (t *Tree) AnyCritical() bool {
	return t.critical(rootID)
}

// CriticalKeys lists every critical setting in traversal order.
func (t *Tree) CriticalKeys() []string {
	var keys []string
	t.Walk(func(n *Node, _ int) {
		if t.itemCritical(n) {
			keys = append(keys, n.key.String())
		}
	})
	return keys
}

func (t *Tree) critical(id NodeID) bool {
	n := t.nodes[id]
	if t.itemCritical(n) {
		return true
	}
	for _, child := range n.children {
		if t.critical(child) {
			return true
		}
	}
	return false
}

func (t *Tree) itemCritical(n *Node) bool {
	return n.itemType == ItemSetting && n.required && !n.value.IsSet() && t.satisfied(n.id)
}
