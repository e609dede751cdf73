package serialize

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/xqbatch/internal/item"
)

const xmlnsPrefix = "xmlns"

// bindings maps prefixes to namespace URIs. "" is the default namespace.
type bindings map[string]string

func (b bindings) clone() bindings {
	c := make(bindings, len(b)+2)
	for k, v := range b {
		c[k] = v
	}
	return c
}

// prefixFor returns an in-scope non-empty prefix bound to uri.
func (b bindings) prefixFor(uri string) (string, bool) {
	var found []string
	for p, u := range b {
		if p != "" && p != "xml" && u == uri {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return "", false
	}
	sort.Strings(found)
	return found[0], true
}

type pendingElement struct {
	name  item.Name
	decls []item.Namespace
	attrs []item.Attr
}

// NSFixup normalizes namespaces before passing events to the next handler.
// For every element it guarantees:
//
//   - element and attribute names are bound to their URI by an in-scope
//     declaration, declaring it when needed
//   - a prefix that conflicts with one already declared on the element is
//     replaced by a generated ns1, ns2, ... prefix
//   - namespaced attributes always carry a non-empty prefix
//   - an element in no namespace under a non-empty default namespace
//     gets xmlns=""
//   - redundant and conflicting declarations are dropped, and the xml
//     prefix is never declared
//
// Attributes named xmlns or xmlns:p, or in the xmlns namespace, are
// treated as declarations.
type NSFixup struct {
	next    Handler
	scopes  []bindings
	pending *pendingElement
	counter int
}

// NewNSFixup creates a filter writing to next.
func NewNSFixup(next Handler) *NSFixup {
	return &NSFixup{next: next}
}

func (f *NSFixup) current() bindings {
	if len(f.scopes) == 0 {
		return bindings{"": "", "xml": item.XMLNamespace}
	}
	return f.scopes[len(f.scopes)-1]
}

func (f *NSFixup) StartElement(name item.Name) error {
	if err := f.flush(); err != nil {
		return err
	}
	f.pending = &pendingElement{name: name}
	return nil
}

func (f *NSFixup) Namespace(prefix, uri string) error {
	if f.pending == nil {
		return ErrNoOpenTag
	}
	f.pending.decls = append(f.pending.decls, item.Namespace{Prefix: prefix, URI: uri})
	return nil
}

func (f *NSFixup) Attribute(name item.Name, value string) error {
	if f.pending == nil {
		return ErrNoOpenTag
	}
	switch {
	case name.Space == "" && name.Prefix == "" && name.Local == xmlnsPrefix:
		f.pending.decls = append(f.pending.decls, item.Namespace{URI: value})
	case name.Prefix == xmlnsPrefix && name.Space == "":
		f.pending.decls = append(f.pending.decls, item.Namespace{Prefix: name.Local, URI: value})
	case name.Space == item.XMLNSNamespace && name.Local == xmlnsPrefix:
		f.pending.decls = append(f.pending.decls, item.Namespace{URI: value})
	case name.Space == item.XMLNSNamespace:
		f.pending.decls = append(f.pending.decls, item.Namespace{Prefix: name.Local, URI: value})
	default:
		f.pending.attrs = append(f.pending.attrs, item.Attr{Name: name, Value: value})
	}
	return nil
}

func (f *NSFixup) EndElement() error {
	if err := f.flush(); err != nil {
		return err
	}
	if len(f.scopes) == 0 {
		return errors.New("serialize: end element without start")
	}
	f.scopes = f.scopes[:len(f.scopes)-1]
	return f.next.EndElement()
}

func (f *NSFixup) Text(s string) error {
	if err := f.flush(); err != nil {
		return err
	}
	return f.next.Text(s)
}

func (f *NSFixup) Atomic(a item.Atomic) error {
	if err := f.flush(); err != nil {
		return err
	}
	return f.next.Atomic(a)
}

func (f *NSFixup) EndItem() error {
	if err := f.flush(); err != nil {
		return err
	}
	return f.next.EndItem()
}

func (f *NSFixup) Flush() error {
	if err := f.flush(); err != nil {
		return err
	}
	return f.next.Flush()
}

// elementScope tracks the declarations made on one element.
type elementScope struct {
	f        *NSFixup
	bound    bindings
	declared map[string]bool
	out      []item.Namespace
}

func (s *elementScope) declare(prefix, uri string) {
	s.bound[prefix] = uri
	if s.declared[prefix] {
		for i := range s.out {
			if s.out[i].Prefix == prefix {
				s.out[i].URI = uri
			}
		}
		return
	}
	s.declared[prefix] = true
	s.out = append(s.out, item.Namespace{Prefix: prefix, URI: uri})
}

// generate returns a fresh prefix bound to uri on this element.
func (s *elementScope) generate(uri string) string {
	for {
		s.f.counter++
		p := fmt.Sprintf("ns%d", s.f.counter)
		if _, taken := s.bound[p]; !taken {
			s.declare(p, uri)
			return p
		}
	}
}

// flush resolves the pending element's names and declarations and writes
// its start tag.
func (f *NSFixup) flush() error {
	el := f.pending
	if el == nil {
		return nil
	}
	f.pending = nil

	s := &elementScope{f: f, bound: f.current().clone(), declared: make(map[string]bool)}

	for _, d := range el.decls {
		switch {
		case d.Prefix == "xml" || d.Prefix == xmlnsPrefix || d.URI == item.XMLNSNamespace:
		case s.declared[d.Prefix]:
		case d.Prefix != "" && d.URI == "":
		case s.bound[d.Prefix] == d.URI && isBound(s.bound, d.Prefix):
		default:
			s.declare(d.Prefix, d.URI)
		}
	}

	name := el.name
	switch {
	case name.Space == "":
		name.Prefix = ""
		if s.bound[""] != "" {
			s.declare("", "")
		}
	case name.Space == item.XMLNamespace:
		name.Prefix = "xml"
	case isBound(s.bound, name.Prefix) && s.bound[name.Prefix] == name.Space:
	case name.Prefix == "xml" || name.Prefix == xmlnsPrefix || s.declared[name.Prefix]:
		if p, ok := s.bound.prefixFor(name.Space); ok {
			name.Prefix = p
		} else {
			name.Prefix = s.generate(name.Space)
		}
	default:
		s.declare(name.Prefix, name.Space)
	}

	attrs := make([]item.Attr, 0, len(el.attrs))
	seen := make(map[string]bool, len(el.attrs))
	for _, a := range el.attrs {
		key := a.Name.Space + " " + a.Name.Local
		if seen[key] {
			continue
		}
		seen[key] = true
		an := a.Name
		switch {
		case an.Space == "":
			an.Prefix = ""
		case an.Space == item.XMLNamespace:
			an.Prefix = "xml"
		case an.Prefix != "" && an.Prefix != "xml" && isBound(s.bound, an.Prefix) && s.bound[an.Prefix] == an.Space:
		case an.Prefix != "" && an.Prefix != "xml" && an.Prefix != xmlnsPrefix && !isBound(s.bound, an.Prefix):
			s.declare(an.Prefix, an.Space)
		default:
			if p, ok := s.bound.prefixFor(an.Space); ok {
				an.Prefix = p
			} else {
				an.Prefix = s.generate(an.Space)
			}
		}
		attrs = append(attrs, item.Attr{Name: an, Value: a.Value})
	}

	f.scopes = append(f.scopes, s.bound)

	if err := f.next.StartElement(name); err != nil {
		return err
	}
	for _, d := range s.out {
		if err := f.next.Namespace(d.Prefix, d.URI); err != nil {
			return err
		}
	}
	for _, a := range attrs {
		if err := f.next.Attribute(a.Name, a.Value); err != nil {
			return err
		}
	}
	return nil
}

func isBound(b bindings, prefix string) bool {
	_, ok := b[prefix]
	return ok
}
