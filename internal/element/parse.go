package element

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse reads an HTML document and returns its root element as a tree.
//
// The document goes through the same validation as New and Append, so an
// element outside the allow-list fails with *InvalidTagError and a repeated
// id with *DuplicateIDError. Attribute values are kept as strings in source
// order. Comments, doctypes and whitespace-only text are dropped.
func Parse(r io.Reader) (*Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return convertElement(c)
		}
	}
	return nil, fmt.Errorf("parsing html: document has no root element")
}

// ParseFragment parses HTML as the content of a <body> element and returns
// the top-level children. Ids must be unique across the whole fragment.
func ParseFragment(r io.Reader) ([]Child, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, body)
	if err != nil {
		return nil, fmt.Errorf("parsing html fragment: %w", err)
	}

	// Attach everything to a scratch container so id checks span siblings.
	container := &Node{tag: "body"}
	for _, h := range nodes {
		child, err := convertChild(h)
		if err != nil {
			return nil, err
		}
		if child == nil {
			continue
		}
		if err := container.Append(child); err != nil {
			return nil, err
		}
	}
	return container.children, nil
}

func convertChild(h *html.Node) (Child, error) {
	switch h.Type {
	case html.ElementNode:
		n, err := convertElement(h)
		if err != nil {
			return nil, err
		}
		return n, nil
	case html.TextNode:
		if strings.TrimSpace(h.Data) == "" {
			return nil, nil
		}
		return Text(h.Data), nil
	default:
		return nil, nil
	}
}

func convertElement(h *html.Node) (*Node, error) {
	attrs := make(Attrs, 0, len(h.Attr))
	for _, a := range h.Attr {
		key := a.Key
		if a.Namespace != "" {
			key = a.Namespace + ":" + a.Key
		}
		attrs = append(attrs, Attr{Key: key, Value: a.Val})
	}

	n, err := New(h.Data, attrs)
	if err != nil {
		return nil, err
	}

	for c := h.FirstChild; c != nil; c = c.NextSibling {
		child, err := convertChild(c)
		if err != nil {
			return nil, err
		}
		if child == nil {
			continue
		}
		if err := n.Append(child); err != nil {
			return nil, err
		}
	}
	return n, nil
}
