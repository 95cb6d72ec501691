// Package document loads element trees from files.
//
// Two formats are supported: HTML, parsed with element.Parse, and a YAML
// description of the tree:
//
//	tag: div
//	attrs:
//	  id: main
//	  width: 100
//	children:
//	  - "some text"
//	  - tag: p
//	    children: ["Hi"]
//
// Attribute order follows the YAML source. Unquoted numbers become numeric
// attributes; everything else is a string.
package document

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/mimic/internal/element"
	"github.com/conneroisu/mimic/internal/errors"
)

// Format identifies a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatHTML Format = "html"
)

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".html", ".htm":
		return FormatHTML, nil
	default:
		return "", errors.NewValidationError(errors.CodeDocumentInvalid,
			fmt.Sprintf("unsupported document extension %q", filepath.Ext(path)), nil).WithPath(path)
	}
}

// LoadFile reads and builds the tree stored at path.
func LoadFile(path string) (*element.Node, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIOError(errors.CodeDocumentRead, "failed to open document", err).WithPath(path)
	}
	defer f.Close()

	root, err := Load(f, format)
	if err != nil {
		var me *errors.MimicError
		if stderrors.As(err, &me) && me.Path == "" {
			me.WithPath(path)
		}
		return nil, err
	}
	return root, nil
}

// Load builds a tree from r in the given format.
func Load(r io.Reader, format Format) (*element.Node, error) {
	switch format {
	case FormatYAML:
		return LoadYAML(r)
	case FormatHTML:
		root, err := element.Parse(r)
		if err != nil {
			return nil, errors.NewValidationError(errors.CodeDocumentInvalid, "invalid html document", err)
		}
		return root, nil
	default:
		return nil, errors.NewValidationError(errors.CodeDocumentInvalid,
			fmt.Sprintf("unsupported document format %q", format), nil)
	}
}

// LoadYAML builds a tree from a YAML description.
func LoadYAML(r io.Reader) (*element.Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, errors.NewValidationError(errors.CodeDocumentInvalid, "empty document", nil)
		}
		return nil, errors.NewValidationError(errors.CodeDocumentParse, "invalid yaml", err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.NewValidationError(errors.CodeDocumentInvalid, "empty document", nil)
	}
	return buildNode(doc.Content[0])
}

func buildNode(y *yaml.Node) (*element.Node, error) {
	if y.Kind != yaml.MappingNode {
		return nil, invalidAt(y, "element must be a mapping with a tag", nil)
	}

	var (
		tag      string
		attrs    element.Attrs
		children []element.Child
		hasTag   bool
	)

	for i := 0; i+1 < len(y.Content); i += 2 {
		key, value := y.Content[i], y.Content[i+1]
		switch key.Value {
		case "tag":
			if value.Kind != yaml.ScalarNode {
				return nil, invalidAt(value, "tag must be a string", nil)
			}
			tag, hasTag = value.Value, true
		case "attrs":
			var err error
			if attrs, err = buildAttrs(value); err != nil {
				return nil, err
			}
		case "children":
			var err error
			if children, err = buildChildren(value); err != nil {
				return nil, err
			}
		default:
			return nil, invalidAt(key, fmt.Sprintf("unknown key %q", key.Value), nil)
		}
	}

	if !hasTag {
		return nil, invalidAt(y, "element is missing a tag", nil)
	}

	n, err := element.New(tag, attrs, children...)
	if err != nil {
		return nil, invalidAt(y, "invalid element", err)
	}
	return n, nil
}

func buildAttrs(y *yaml.Node) (element.Attrs, error) {
	if y.Kind != yaml.MappingNode {
		return nil, invalidAt(y, "attrs must be a mapping", nil)
	}

	attrs := make(element.Attrs, 0, len(y.Content)/2)
	for i := 0; i+1 < len(y.Content); i += 2 {
		key, value := y.Content[i], y.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, invalidAt(value, fmt.Sprintf("attribute %q must be a scalar", key.Value), nil)
		}
		attrs = append(attrs, element.Attr{Key: key.Value, Value: scalarValue(value)})
	}
	return attrs, nil
}

// scalarValue keeps plain integers and floats numeric; every other scalar,
// quoted numbers included, is a string.
func scalarValue(y *yaml.Node) any {
	switch y.ShortTag() {
	case "!!int":
		var v int64
		if err := y.Decode(&v); err == nil {
			return v
		}
	case "!!float":
		var v float64
		if err := y.Decode(&v); err == nil {
			return v
		}
	}
	return y.Value
}

func buildChildren(y *yaml.Node) ([]element.Child, error) {
	if y.Kind != yaml.SequenceNode {
		return nil, invalidAt(y, "children must be a list", nil)
	}

	children := make([]element.Child, 0, len(y.Content))
	for _, item := range y.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			if item.ShortTag() == "!!null" {
				continue
			}
			children = append(children, element.Text(item.Value))
		case yaml.MappingNode:
			child, err := buildNode(item)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		default:
			return nil, invalidAt(item, "child must be text or an element", nil)
		}
	}
	return children, nil
}

func invalidAt(y *yaml.Node, msg string, cause error) error {
	return errors.NewValidationError(errors.CodeDocumentInvalid, fmt.Sprintf("line %d: %s", y.Line, msg), cause).
		WithContext("line", y.Line).
		WithContext("column", y.Column)
}
