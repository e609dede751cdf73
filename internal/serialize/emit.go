package serialize

import (
	"fmt"

	"github.com/roach88/xqbatch/internal/item"
)

// Emit walks it into h as one top-level unit.
func Emit(h Handler, it item.Item) error {
	switch x := it.(type) {
	case item.Atomic:
		if err := h.Atomic(x); err != nil {
			return err
		}
	case *item.Node:
		if err := emitNode(h, x); err != nil {
			return err
		}
	default:
		return fmt.Errorf("serialize: unsupported item %T", it)
	}
	return h.EndItem()
}

func emitNode(h Handler, n *item.Node) error {
	switch n.Kind {
	case item.DocumentNode:
		for _, c := range n.Children {
			if err := emitNode(h, c); err != nil {
				return err
			}
		}
		return nil
	case item.TextNode:
		return h.Text(n.Text)
	case item.ElementNode:
		if err := h.StartElement(n.Name); err != nil {
			return err
		}
		for _, ns := range n.Namespaces {
			if err := h.Namespace(ns.Prefix, ns.URI); err != nil {
				return err
			}
		}
		for _, a := range n.Attrs {
			if err := h.Attribute(a.Name, a.Value); err != nil {
				return err
			}
		}
		for _, c := range n.Children {
			if err := emitNode(h, c); err != nil {
				return err
			}
		}
		return h.EndElement()
	default:
		return fmt.Errorf("serialize: unsupported node kind %v", n.Kind)
	}
}
