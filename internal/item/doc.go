// Package item provides the result items exchanged between engine profiles,
// document resolvers and the serialization chain.
//
// An Item is either an Atomic value or a *Node. Nodes form a minimal tree of
// document, element and text nodes whose names carry a namespace URI and a
// preferred prefix. The tree is not a query data model: engines never navigate
// it directly, they receive it converted to ordered generic values (see
// ToValue) and hand results back in the same shape (see FromValue).
//
// # Value Mapping
//
// Generic values map to items as follows:
//
//   - nil is the empty sequence
//   - a top-level []any flattens into a sequence of items
//   - string, bool, integers and floats become Atomic items
//   - an Object becomes a document node
//
// Inside an Object, keys select the node that a field produces:
//
//	"@name"       attribute
//	"@xmlns"      default namespace declaration
//	"@xmlns:p"    namespace declaration for prefix p
//	"#text"       text content
//	"name"        child element (a list value repeats the element)
//
// Element and attribute names are written as "local", "p:local" (p must be
// declared by an enclosing "@xmlns:p"), or in Clark notation "{uri}local",
// optionally with a prefix hint: "{uri}p:local".
package item
