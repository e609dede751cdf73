// Package serialize writes result items as XML through a namespace
// normalization filter.
//
// Items are walked into Handler events by Emit. NSFixup sits in front of
// the Serializer and rewrites element and attribute names and namespace
// declarations so the bytes written are namespace-well-formed whatever the
// engine produced. Each top-level item ends with a newline. Output is UTF-8
// with no XML declaration.
package serialize

import (
	"bufio"
	"encoding/xml"
	"errors"
	"io"

	"github.com/roach88/xqbatch/internal/item"
)

// ErrNoOpenTag is returned when a declaration or attribute arrives after
// the element's start tag was closed.
var ErrNoOpenTag = errors.New("serialize: no open start tag")

// Handler receives serialization events.
type Handler interface {
	StartElement(name item.Name) error
	// Namespace declares prefix for the element most recently started.
	// An empty prefix declares the default namespace.
	Namespace(prefix, uri string) error
	Attribute(name item.Name, value string) error
	EndElement() error
	Text(s string) error
	Atomic(a item.Atomic) error
	// EndItem terminates a top-level item.
	EndItem() error
	Flush() error
}

// Serializer writes events as XML text. It writes names as given; put an
// NSFixup in front of it when names may lack declarations. Characters XML
// does not allow are replaced with U+FFFD.
type Serializer struct {
	w     *bufio.Writer
	text  *xml.Encoder
	stack []string
	open  bool
}

// NewSerializer creates a serializer writing to w.
func NewSerializer(w io.Writer) *Serializer {
	bw := bufio.NewWriter(w)
	return &Serializer{w: bw, text: xml.NewEncoder(bw)}
}

func (s *Serializer) closeStart() {
	if s.open {
		s.w.WriteByte('>')
		s.open = false
	}
}

func (s *Serializer) StartElement(name item.Name) error {
	s.closeStart()
	qname := name.Qualified()
	s.w.WriteByte('<')
	s.w.WriteString(qname)
	s.stack = append(s.stack, qname)
	s.open = true
	return nil
}

func (s *Serializer) Namespace(prefix, uri string) error {
	if !s.open {
		return ErrNoOpenTag
	}
	s.w.WriteString(" xmlns")
	if prefix != "" {
		s.w.WriteByte(':')
		s.w.WriteString(prefix)
	}
	s.writeAttrValue(uri)
	return nil
}

func (s *Serializer) Attribute(name item.Name, value string) error {
	if !s.open {
		return ErrNoOpenTag
	}
	s.w.WriteByte(' ')
	s.w.WriteString(name.Qualified())
	s.writeAttrValue(value)
	return nil
}

func (s *Serializer) writeAttrValue(v string) {
	s.w.WriteString(`="`)
	xml.EscapeText(s.w, []byte(v))
	s.w.WriteByte('"')
}

func (s *Serializer) EndElement() error {
	if len(s.stack) == 0 {
		return errors.New("serialize: end element without start")
	}
	qname := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	if s.open {
		s.w.WriteString("/>")
		s.open = false
		return nil
	}
	s.w.WriteString("</")
	s.w.WriteString(qname)
	s.w.WriteByte('>')
	return nil
}

func (s *Serializer) Text(text string) error {
	s.closeStart()
	// Character data keeps its newlines; only attribute values escape them.
	if err := s.text.EncodeToken(xml.CharData(text)); err != nil {
		return err
	}
	return s.text.Flush()
}

func (s *Serializer) Atomic(a item.Atomic) error {
	return s.Text(a.StringValue())
}

func (s *Serializer) EndItem() error {
	if len(s.stack) > 0 {
		return errors.New("serialize: item ended inside an element")
	}
	return s.w.WriteByte('\n')
}

// Flush writes buffered output to the underlying writer.
func (s *Serializer) Flush() error {
	return s.w.Flush()
}
