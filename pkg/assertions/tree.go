package assertions

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/policydesk/pkg/actions"
	"github.com/aretw0/policydesk/pkg/domain"
)

// TreeNode is the tree position of one assertion.
type TreeNode struct {
	assertion domain.Assertion
	parent    *TreeNode
	children  []*TreeNode
	path      string
	disabled  bool
}

func (n *TreeNode) Assertion() domain.Assertion { return n.assertion }
func (n *TreeNode) Path() string                { return n.path }
func (n *TreeNode) Parent() *TreeNode           { return n.parent }
func (n *TreeNode) Disabled() bool              { return n.disabled }

func (n *TreeNode) Children() []*TreeNode {
	return slices.Clone(n.children)
}

func (n *TreeNode) IsComposite() bool {
	_, ok := n.assertion.(domain.Composite)
	return ok
}

// IsDescendantOfInclude reports whether any ancestor is an Include.
func (n *TreeNode) IsDescendantOfInclude() bool {
	for p := n.parent; p != nil; p = p.parent {
		if p.assertion.Kind() == KindInclude {
			return true
		}
	}
	return false
}

// Tree is a policy: a root composite and its nested assertions.
// It is not safe for concurrent use.
type Tree struct {
	root      *TreeNode
	observers *actions.Observers
	disabled  map[domain.Assertion]bool
}

// NewTree builds the tree rooted at root.
func NewTree(root domain.Composite) *Tree {
	t := &Tree{
		observers: &actions.Observers{},
		disabled:  make(map[domain.Assertion]bool),
	}
	t.root = t.build(root, nil, "0")
	return t
}

// Root returns the root node.
func (t *Tree) Root() *TreeNode { return t.root }

// Observers returns the change notification list of the tree.
func (t *Tree) Observers() *actions.Observers { return t.observers }

func (t *Tree) build(a domain.Assertion, parent *TreeNode, path string) *TreeNode {
	n := &TreeNode{assertion: a, parent: parent, path: path, disabled: t.disabled[a]}
	if c, ok := a.(domain.Composite); ok {
		for i, child := range c.Children() {
			n.children = append(n.children, t.build(child, n, path+"."+strconv.Itoa(i)))
		}
	}
	return n
}

func (t *Tree) rebuild() {
	t.root = t.build(t.root.assertion, nil, "0")
}

// Find returns the node at path.
// Returns domain.ErrAssertionNotFound if no node lives there.
func (t *Tree) Find(path string) (*TreeNode, error) {
	parts := strings.Split(path, ".")
	if len(parts) == 0 || parts[0] != "0" {
		return nil, fmt.Errorf("%w: %s", domain.ErrAssertionNotFound, path)
	}
	n := t.root
	for _, p := range parts[1:] {
		i, err := strconv.Atoi(p)
		if err != nil || i < 0 || i >= len(n.children) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAssertionNotFound, path)
		}
		n = n.children[i]
	}
	return n, nil
}

// Walk visits nodes depth-first until fn returns false.
func (t *Tree) Walk(fn func(*TreeNode) bool) {
	var visit func(*TreeNode) bool
	visit = func(n *TreeNode) bool {
		if !fn(n) {
			return false
		}
		for _, c := range n.children {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	visit(t.root)
}

// Add appends a to the composite at parentPath.
func (t *Tree) Add(ctx context.Context, parentPath string, a domain.Assertion) (*TreeNode, error) {
	parent, err := t.Find(parentPath)
	if err != nil {
		return nil, err
	}
	mc, ok := parent.assertion.(MutableComposite)
	if !ok {
		return nil, fmt.Errorf("assertion at %s cannot hold children", parentPath)
	}
	mc.SetChildren(append(slices.Clone(mc.Children()), a))
	t.rebuild()

	path := fmt.Sprintf("%s.%d", parentPath, len(mc.Children())-1)
	t.notify(ctx, domain.EventAssertionAdded, a.Kind(), path)
	return t.Find(path)
}

// Apply performs a structural action on node. It has the shape of an
// actions.Invoker so a Resolver can bind it to the actions it returns.
func (t *Tree) Apply(ctx context.Context, node domain.Node, id domain.ActionID) error {
	n, err := t.Find(node.Path())
	if err != nil {
		return err
	}
	if n.assertion != node.Assertion() {
		return fmt.Errorf("%w: tree changed at %s", domain.ErrAssertionNotFound, node.Path())
	}

	switch id {
	case domain.ActionDisable, domain.ActionEnable:
		t.disabled[n.assertion] = id == domain.ActionDisable
		t.rebuild()
		t.notify(ctx, domain.EventAssertionEdited, n.assertion.Kind(), n.path)
		return nil
	case domain.ActionAddAll:
		_, err := t.Add(ctx, n.path, &All{})
		return err
	case domain.ActionAddOneOrMore:
		_, err := t.Add(ctx, n.path, &OneOrMore{})
		return err
	case domain.ActionAddIdentityConstraint:
		return t.insertBefore(ctx, n, &IdentityConstraint{})
	case domain.ActionDelete, domain.ActionMoveUp, domain.ActionMoveDown:
		return t.reorder(ctx, n, id)
	}
	return fmt.Errorf("action '%s' is not supported by the tree", id)
}

func (t *Tree) insertBefore(ctx context.Context, n *TreeNode, a domain.Assertion) error {
	mc, idx, err := t.siblings(n)
	if err != nil {
		return err
	}
	items := slices.Insert(slices.Clone(mc.Children()), idx, a)
	mc.SetChildren(items)
	t.rebuild()
	t.notify(ctx, domain.EventAssertionAdded, a.Kind(), fmt.Sprintf("%s.%d", n.parent.path, idx))
	return nil
}

func (t *Tree) reorder(ctx context.Context, n *TreeNode, id domain.ActionID) error {
	mc, idx, err := t.siblings(n)
	if err != nil {
		return err
	}
	items := slices.Clone(mc.Children())

	switch id {
	case domain.ActionDelete:
		items = slices.Delete(items, idx, idx+1)
		t.forget(n)
	case domain.ActionMoveUp:
		if idx == 0 {
			return nil
		}
		items[idx-1], items[idx] = items[idx], items[idx-1]
	case domain.ActionMoveDown:
		if idx == len(items)-1 {
			return nil
		}
		items[idx+1], items[idx] = items[idx], items[idx+1]
	}

	mc.SetChildren(items)
	t.rebuild()
	t.notify(ctx, domain.EventAssertionEdited, n.assertion.Kind(), n.parent.path)
	return nil
}

// forget drops the disabled flags of n and everything below it.
func (t *Tree) forget(n *TreeNode) {
	delete(t.disabled, n.assertion)
	for _, c := range n.children {
		t.forget(c)
	}
}

func (t *Tree) siblings(n *TreeNode) (MutableComposite, int, error) {
	if n.parent == nil {
		return nil, 0, fmt.Errorf("the policy root cannot be moved or removed")
	}
	mc, ok := n.parent.assertion.(MutableComposite)
	if !ok {
		return nil, 0, fmt.Errorf("assertion at %s cannot hold children", n.parent.path)
	}
	idx := slices.Index(n.parent.children, n)
	return mc, idx, nil
}

func (t *Tree) notify(ctx context.Context, typ domain.EventType, kind domain.Kind, path string) {
	t.observers.Notify(ctx, &domain.AssertionEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ},
		Kind:      kind,
		Path:      path,
	})
}

// Edited announces that the assertion of node was changed in place.
func (t *Tree) Edited(ctx context.Context, node domain.Node) {
	t.notify(ctx, domain.EventAssertionEdited, node.Assertion().Kind(), node.Path())
}
