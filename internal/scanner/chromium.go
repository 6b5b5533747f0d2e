package scanner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// chromiumRoots lists the root folders of a Chromium "Bookmarks" file in the
// order they are flattened.
var chromiumRoots = []string{"bookmark_bar", "other", "synced"}

// parseChromium decodes a Chromium bookmark file into its root folders,
// in bookmark bar, other, synced order.
//
// The file is read token by token with an explicit stack, so folder depth is
// bounded only by memory.
func parseChromium(data []byte) ([]Node, error) {
	roots, err := decodeChromium(json.NewDecoder(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("decode bookmarks json: %w", err)
	}
	return roots, nil
}

func decodeChromium(dec *json.Decoder) ([]Node, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var found map[string]Node
	for dec.More() {
		key, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		if key != "roots" {
			if err := skipValue(dec); err != nil {
				return nil, err
			}
			continue
		}
		if found, err = decodeRoots(dec); err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level object")
	}
	if found == nil {
		return nil, errors.New("missing roots object")
	}

	var roots []Node
	for _, name := range chromiumRoots {
		if n, ok := found[name]; ok {
			roots = append(roots, n)
		}
	}
	return roots, nil
}

// decodeRoots reads the "roots" object. A null root is treated as absent.
func decodeRoots(dec *json.Decoder) (map[string]Node, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	roots := make(map[string]Node)
	for dec.More() {
		key, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		known := false
		for _, name := range chromiumRoots {
			known = known || key == name
		}
		if !known {
			if err := skipValue(dec); err != nil {
				return nil, err
			}
			continue
		}
		n, ok, err := decodeNode(dec)
		if err != nil {
			return nil, fmt.Errorf("root %s: %w", key, err)
		}
		if ok {
			roots[key] = n
		} else {
			delete(roots, key)
		}
	}
	return roots, expectDelim(dec, '}')
}

// nodeFrame is a node under construction. inChildren is set while its
// "children" array is open.
type nodeFrame struct {
	node       *Node
	inChildren bool
}

// decodeNode reads one node and all its descendants. It reports false when
// the value is null.
func decodeNode(dec *json.Decoder) (Node, bool, error) {
	tok, err := dec.Token()
	if err != nil {
		return Node{}, false, err
	}
	if tok == nil {
		return Node{}, false, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return Node{}, false, fmt.Errorf("expected node object, got %v", tok)
	}

	var root Node
	stack := []nodeFrame{{node: &root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.inChildren {
			if !dec.More() {
				if err := expectDelim(dec, ']'); err != nil {
					return Node{}, false, err
				}
				top.inChildren = false
				continue
			}
			tok, err := dec.Token()
			if err != nil {
				return Node{}, false, err
			}
			top.node.Children = append(top.node.Children, Node{})
			child := &top.node.Children[len(top.node.Children)-1]
			if tok == nil {
				continue
			}
			if d, ok := tok.(json.Delim); !ok || d != '{' {
				return Node{}, false, fmt.Errorf("expected node object, got %v", tok)
			}
			// The child pointer stays valid: the parent's slice only grows
			// again after the child is popped.
			stack = append(stack, nodeFrame{node: child})
			continue
		}

		if !dec.More() {
			if err := expectDelim(dec, '}'); err != nil {
				return Node{}, false, err
			}
			stack = stack[:len(stack)-1]
			continue
		}

		key, err := objectKey(dec)
		if err != nil {
			return Node{}, false, err
		}
		switch key {
		case "type":
			err = stringValue(dec, &top.node.Type)
		case "name":
			err = stringValue(dec, &top.node.Name)
		case "url":
			err = stringValue(dec, &top.node.URL)
		case "children":
			var tok json.Token
			if tok, err = dec.Token(); err != nil {
				break
			}
			switch d, _ := tok.(json.Delim); {
			case tok == nil:
				top.node.Children = nil
			case d == '[':
				top.node.Children = nil
				top.inChildren = true
			default:
				err = fmt.Errorf("children: expected array, got %v", tok)
			}
		default:
			err = skipValue(dec)
		}
		if err != nil {
			return Node{}, false, err
		}
	}
	return root, true, nil
}

func objectKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

// stringValue stores a string token in dst. Null leaves dst unchanged.
func stringValue(dec *json.Decoder, dst *string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch v := tok.(type) {
	case nil:
	case string:
		*dst = v
	default:
		return fmt.Errorf("expected string, got %v", tok)
	}
	return nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %v, got %v", want, tok)
	}
	return nil
}

// skipValue consumes one value of any shape without recursion.
func skipValue(dec *json.Decoder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
		if depth == 0 {
			return nil
		}
	}
}
