package resolve

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/roach88/xqbatch/internal/item"
)

// decodeXML builds a document node. Raw tokens are used so prefixes survive
// as name hints; namespace resolution is done here against the declarations
// in scope.
func decodeXML(r io.Reader) ([]item.Item, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	doc := item.NewDocument()
	stack := []*item.Node{doc}
	var raw []xml.Name
	var scopes [][]item.Namespace

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el, decls, err := startElement(t, scopes)
			if err != nil {
				line, _ := dec.InputPos()
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, el)
			stack = append(stack, el)
			raw = append(raw, t.Name)
			scopes = append(scopes, decls)

		case xml.EndElement:
			if len(raw) == 0 || raw[len(raw)-1] != t.Name {
				line, _ := dec.InputPos()
				return nil, fmt.Errorf("line %d: unexpected end element </%s>", line, qname(t.Name))
			}
			stack = stack[:len(stack)-1]
			raw = raw[:len(raw)-1]
			scopes = scopes[:len(scopes)-1]

		case xml.CharData:
			parent := stack[len(stack)-1]
			if parent.Kind == item.DocumentNode && strings.TrimSpace(string(t)) == "" {
				continue
			}
			if n := len(parent.Children); n > 0 && parent.Children[n-1].Kind == item.TextNode {
				parent.Children[n-1].Text += string(t)
				continue
			}
			parent.Children = append(parent.Children, item.NewText(string(t)))
		}
	}

	if len(raw) > 0 {
		return nil, fmt.Errorf("unclosed element <%s>", qname(raw[len(raw)-1]))
	}
	if len(doc.Elements()) == 0 {
		return nil, errors.New("document has no root element")
	}
	return []item.Item{doc}, nil
}

func startElement(t xml.StartElement, scopes [][]item.Namespace) (*item.Node, []item.Namespace, error) {
	var decls []item.Namespace
	for _, a := range t.Attr {
		switch {
		case a.Name.Space == "xmlns":
			decls = append(decls, item.Namespace{Prefix: a.Name.Local, URI: a.Value})
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			decls = append(decls, item.Namespace{URI: a.Value})
		}
	}
	uri, ok := lookupNamespace(scopes, decls, t.Name.Space)
	if !ok {
		return nil, nil, fmt.Errorf("undeclared namespace prefix %q", t.Name.Space)
	}
	el := &item.Node{
		Kind:       item.ElementNode,
		Name:       item.Name{Space: uri, Prefix: t.Name.Space, Local: t.Name.Local},
		Namespaces: decls,
	}
	for _, a := range t.Attr {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		name := item.Name{Local: a.Name.Local}
		if a.Name.Space != "" {
			auri, ok := lookupNamespace(scopes, decls, a.Name.Space)
			if !ok {
				return nil, nil, fmt.Errorf("undeclared namespace prefix %q", a.Name.Space)
			}
			name.Space, name.Prefix = auri, a.Name.Space
		}
		el.Attrs = append(el.Attrs, item.Attr{Name: name, Value: a.Value})
	}
	return el, decls, nil
}

func lookupNamespace(scopes [][]item.Namespace, local []item.Namespace, prefix string) (string, bool) {
	if prefix == "xml" {
		return item.XMLNamespace, true
	}
	for j := len(local) - 1; j >= 0; j-- {
		if local[j].Prefix == prefix {
			return local[j].URI, true
		}
	}
	for i := len(scopes) - 1; i >= 0; i-- {
		for j := len(scopes[i]) - 1; j >= 0; j-- {
			if scopes[i][j].Prefix == prefix {
				return scopes[i][j].URI, true
			}
		}
	}
	return "", prefix == ""
}

func qname(n xml.Name) string {
	if n.Space != "" {
		return n.Space + ":" + n.Local
	}
	return n.Local
}

// charsetReader decodes documents that declare a non-UTF-8 encoding.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
