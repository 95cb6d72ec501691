package element

// FindByAttribute returns every node in root's subtree, root included, whose
// attributes contain exactly key=value. Results are in document order.
// Text and nil inputs yield nil.
func FindByAttribute(root Child, key string, value any) []*Node {
	node, ok := root.(*Node)
	if !ok || node == nil {
		return nil
	}

	var found []*Node
	if node.attrs.Has(key, value) {
		found = append(found, node)
	}
	for _, c := range node.children {
		found = append(found, FindByAttribute(c, key, value)...)
	}
	return found
}

// FindByID returns the node whose ID equals id. Ids are compared by text
// form, the same way duplicate ids are detected, so a numeric id 5 is found
// by "5". Ids are unique within a tree, so the result holds at most one node.
func FindByID(root Child, id string) []*Node {
	if id == "" {
		return nil
	}
	return FindFunc(root, func(n *Node) bool { return n.ID() == id })
}

// FindByTagName returns every node in root's subtree, root included, with
// the given tag, in document order.
func FindByTagName(root Child, tag string) []*Node {
	node, ok := root.(*Node)
	if !ok || node == nil {
		return nil
	}

	var found []*Node
	if node.tag == tag {
		found = append(found, node)
	}
	for _, c := range node.children {
		found = append(found, FindByTagName(c, tag)...)
	}
	return found
}

// FindByAttributeText is FindByAttribute comparing the text form of the
// value, so "100" matches a numeric 100. Command-line and HTTP queries use it.
func FindByAttributeText(root Child, key, text string) []*Node {
	return FindFunc(root, func(n *Node) bool {
		v, ok := n.attrs.Get(key)
		return ok && valueText(v) == text
	})
}

// FindFunc returns the nodes in root's subtree, root included, for which
// match reports true, in document order.
func FindFunc(root Child, match func(*Node) bool) []*Node {
	node, ok := root.(*Node)
	if !ok || node == nil {
		return nil
	}

	var found []*Node
	walk(node, func(n *Node) {
		if match(n) {
			found = append(found, n)
		}
	})
	return found
}

// walk visits n and its descendant nodes in pre-order.
func walk(n *Node, visit func(*Node)) {
	walkUntil(n, func(node *Node) bool {
		visit(node)
		return true
	})
}

// walkUntil is walk with early exit: it stops as soon as visit returns false
// and reports whether the traversal ran to completion.
func walkUntil(n *Node, visit func(*Node) bool) bool {
	if !visit(n) {
		return false
	}
	for _, c := range n.children {
		if child, ok := c.(*Node); ok {
			if !walkUntil(child, visit) {
				return false
			}
		}
	}
	return true
}
