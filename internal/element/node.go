// Package element implements a small in-memory HTML element tree.
//
// A tree is built from Nodes created with New and grown with Append. Both
// validate the tag name against a fixed allow-list and refuse to attach a
// subtree that would give two nodes the same id. Trees render to an indented
// HTML text document (Render, RenderToFile) and can be searched in document
// order (FindByAttribute, FindByID, FindByTagName).
package element

// Child is an entry in a Node's children: either Text or *Node.
type Child interface {
	isChild()
}

// Text is raw text content. It is written verbatim when rendering.
type Text string

func (Text) isChild() {}

// Node is an element of the tree. The zero value is not usable; create
// nodes with New.
type Node struct {
	tag      string
	attrs    Attrs
	children []Child
}

func (*Node) isChild() {}

// New creates a node with the given tag, attributes and initial children.
//
// It fails with *InvalidTagError when tag is not in the allow-list and with
// *DuplicateIDError when a child subtree reuses an id already present in the
// new node or among the other children.
func New(tag string, attrs Attrs, children ...Child) (*Node, error) {
	if !IsValidTag(tag) {
		return nil, &InvalidTagError{Tag: tag}
	}

	n := &Node{
		tag:   tag,
		attrs: attrs.normalized(),
	}

	if err := n.Append(children...); err != nil {
		return nil, err
	}
	return n, nil
}

// MustNew is like New but panics on error. It is meant for trees built
// from literals.
func MustNew(tag string, attrs Attrs, children ...Child) *Node {
	n, err := New(tag, attrs, children...)
	if err != nil {
		panic(err)
	}
	return n
}

// Tag returns the node's tag name.
func (n *Node) Tag() string {
	return n.tag
}

// Attrs returns a copy of the node's attributes in insertion order.
func (n *Node) Attrs() Attrs {
	if len(n.attrs) == 0 {
		return nil
	}
	out := make(Attrs, len(n.attrs))
	copy(out, n.attrs)
	return out
}

// Attr returns the value of a single attribute.
func (n *Node) Attr(key string) (any, bool) {
	return n.attrs.Get(key)
}

// ID returns the text of the id attribute, or "" when it is absent.
func (n *Node) ID() string {
	v, ok := n.attrs.Get("id")
	if !ok {
		return ""
	}
	return valueText(v)
}

// Children returns a copy of the node's children.
func (n *Node) Children() []Child {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]Child, len(n.children))
	copy(out, n.children)
	return out
}

// Append adds children to the end of n's children.
//
// Nothing is attached unless every child passes validation: ids in the
// appended subtrees must not collide with each other or with any id already
// in n's subtree, and n must not appear inside an appended subtree.
func (n *Node) Append(children ...Child) error {
	children = normalizeChildren(children)
	if len(children) == 0 {
		return nil
	}

	if err := n.checkAttach(children); err != nil {
		return err
	}

	n.children = append(n.children, children...)
	return nil
}

// normalizeChildren drops nil entries, and a lone empty value, which stands
// for "no initial content".
func normalizeChildren(children []Child) []Child {
	if len(children) == 1 && isEmptyChild(children[0]) {
		return nil
	}

	out := make([]Child, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		if node, ok := c.(*Node); ok && node == nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

func isEmptyChild(c Child) bool {
	switch v := c.(type) {
	case nil:
		return true
	case Text:
		return v == ""
	case *Node:
		return v == nil
	default:
		return false
	}
}

func (n *Node) checkAttach(children []Child) error {
	seen := make(map[string]struct{})
	walk(n, func(node *Node) {
		if id := node.ID(); id != "" {
			seen[id] = struct{}{}
		}
	})

	for _, c := range children {
		child, ok := c.(*Node)
		if !ok {
			continue
		}

		var err error
		walkUntil(child, func(node *Node) bool {
			if node == n {
				err = ErrCycle
				return false
			}
			id := node.ID()
			if id == "" {
				return true
			}
			if _, dup := seen[id]; dup {
				err = &DuplicateIDError{ID: id}
				return false
			}
			seen[id] = struct{}{}
			return true
		})
		if err != nil {
			return err
		}
	}
	return nil
}
