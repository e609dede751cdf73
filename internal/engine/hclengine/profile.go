// Package hclengine evaluates query documents written in HCL native syntax.
//
// A document holds a required result attribute and an optional trace
// attribute:
//
//	result = {
//	  greeting = { "@lang" = "en", "#text" = "hello ${var.name}" }
//	}
//	trace = { name = var.name }
//
// Expressions see the variables var, input, now and base_uri, the go-cty
// standard functions listed in functions.go, timestamp() and doc(uri).
// cty objects have no field order, so object keys come out sorted.
package hclengine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/roach88/xqbatch/internal/diag"
	"github.com/roach88/xqbatch/internal/engine"
	"github.com/roach88/xqbatch/internal/resolve"
)

// Name is the profile name.
const Name = "hcl"

const (
	resultAttr = "result"
	traceAttr  = "trace"
)

// Profile compiles HCL query documents.
type Profile struct{}

// New creates an HCL profile.
func New() *Profile {
	return &Profile{}
}

func (p *Profile) Name() string { return Name }

// NewString wraps raw as a cty string.
func (p *Profile) NewString(raw string) (engine.Value, error) {
	return cty.StringVal(raw), nil
}

// Compile parses src and checks its attributes.
func (p *Profile) Compile(src engine.Source) (engine.CompiledQuery, error) {
	file, diags := hclsyntax.ParseConfig(src.Data, src.Filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, toDiagnostic(diags, src.Filename)
	}
	attrs, attrDiags := file.Body.JustAttributes()
	diags = append(diags, attrDiags...)
	if attrDiags.HasErrors() {
		return nil, toDiagnostic(attrDiags, src.Filename)
	}

	q := &Query{
		ref:      src.Ref,
		filename: src.Filename,
		baseURI:  resolve.FileURI(src.Filename),
		src:      src.Data,
	}
	for _, attr := range sortedAttributes(attrs) {
		switch name := attr.Name; name {
		case resultAttr:
			q.result = attr
		case traceAttr:
			q.trace = attr
		default:
			return nil, diag.Newf(location(attr.NameRange), "unsupported attribute %q; a query document defines result and optionally trace", name)
		}
	}
	if q.result == nil {
		return nil, diag.New(diag.Location{File: src.Filename, Line: 1, Column: 1},
			"query document defines no result attribute")
	}
	if src.Listener != nil {
		reportWarnings(diags, src.Filename, src.Listener)
	}
	return q, nil
}

// sortedAttributes returns attrs in source order.
func sortedAttributes(attrs hcl.Attributes) []*hcl.Attribute {
	out := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, attr)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].NameRange.Start.Byte < out[j].NameRange.Start.Byte
	})
	return out
}

// Query is a parsed HCL document.
type Query struct {
	ref      string
	filename string
	baseURI  string
	src      []byte
	result   *hcl.Attribute
	trace    *hcl.Attribute
	released bool
}

func (q *Query) Source() string         { return q.ref }
func (q *Query) DefaultBaseURI() string { return q.baseURI }

// Describe prints the result expression with the variables it references
// and the functions it calls.
func (q *Query) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", q.filename)
	fmt.Fprintf(&b, "result = %s\n", q.exprSource(q.result.Expr))

	vars, funcs := referencesAndFunctions(q.result.Expr)
	if len(vars) > 0 {
		fmt.Fprintf(&b, "# variables: %s\n", strings.Join(vars, ", "))
	}
	if len(funcs) > 0 {
		fmt.Fprintf(&b, "# functions: %s\n", strings.Join(funcs, ", "))
	}
	return b.String()
}

// Release drops the parsed document.
func (q *Query) Release() {
	q.result, q.trace, q.src = nil, nil, nil
	q.released = true
}

func (q *Query) exprSource(expr hcl.Expression) string {
	rng := expr.Range()
	if rng.Start.Byte < 0 || rng.End.Byte > len(q.src) || rng.Start.Byte > rng.End.Byte {
		return ""
	}
	return string(rng.SliceBytes(q.src))
}

// referencesAndFunctions lists the traversals and function names used by
// expr, sorted.
func referencesAndFunctions(expr hcl.Expression) ([]string, []string) {
	seen := make(map[string]struct{})
	var vars []string
	for _, t := range expr.Variables() {
		key := string(hclwrite.TokensForTraversal(t).Bytes())
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		vars = append(vars, key)
	}
	sort.Strings(vars)

	functions := make(map[string]struct{})
	if syntaxExpr, ok := expr.(hclsyntax.Expression); ok {
		walkForFunctions(syntaxExpr, functions)
	}
	funcs := make([]string, 0, len(functions))
	for f := range functions {
		funcs = append(funcs, f)
	}
	sort.Strings(funcs)
	return vars, funcs
}

func walkForFunctions(expr hclsyntax.Expression, functions map[string]struct{}) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		functions[e.Name] = struct{}{}
		for _, arg := range e.Args {
			walkForFunctions(arg, functions)
		}
	case *hclsyntax.BinaryOpExpr:
		walkForFunctions(e.LHS, functions)
		walkForFunctions(e.RHS, functions)
	case *hclsyntax.ConditionalExpr:
		walkForFunctions(e.Condition, functions)
		walkForFunctions(e.TrueResult, functions)
		walkForFunctions(e.FalseResult, functions)
	case *hclsyntax.UnaryOpExpr:
		walkForFunctions(e.Val, functions)
	case *hclsyntax.TemplateExpr:
		for _, part := range e.Parts {
			walkForFunctions(part, functions)
		}
	case *hclsyntax.TemplateWrapExpr:
		walkForFunctions(e.Wrapped, functions)
	case *hclsyntax.TupleConsExpr:
		for _, el := range e.Exprs {
			walkForFunctions(el, functions)
		}
	case *hclsyntax.ObjectConsExpr:
		for _, el := range e.Items {
			walkForFunctions(el.KeyExpr, functions)
			walkForFunctions(el.ValueExpr, functions)
		}
	case *hclsyntax.ObjectConsKeyExpr:
		walkForFunctions(e.Wrapped, functions)
	case *hclsyntax.ForExpr:
		walkForFunctions(e.CollExpr, functions)
		walkForFunctions(e.KeyExpr, functions)
		walkForFunctions(e.ValExpr, functions)
		walkForFunctions(e.CondExpr, functions)
	case *hclsyntax.IndexExpr:
		walkForFunctions(e.Collection, functions)
		walkForFunctions(e.Key, functions)
	case *hclsyntax.SplatExpr:
		walkForFunctions(e.Source, functions)
		walkForFunctions(e.Each, functions)
	case *hclsyntax.ParenthesesExpr:
		walkForFunctions(e.Expression, functions)
	}
}

// toDiagnostic converts the first error in diags.
func toDiagnostic(diags hcl.Diagnostics, filename string) error {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		loc := diag.Location{File: filename}
		if d.Subject != nil {
			loc = location(*d.Subject)
		}
		return &diag.Diagnostic{Kind: diag.KindError, Location: loc, Message: message(d), Err: diags}
	}
	return diag.Wrap(diag.Location{File: filename}, diags)
}

func message(d *hcl.Diagnostic) string {
	if d.Detail == "" {
		return d.Summary
	}
	return d.Summary + "; " + d.Detail
}

func location(rng hcl.Range) diag.Location {
	return diag.Location{File: rng.Filename, Line: rng.Start.Line, Column: rng.Start.Column}
}

// reportWarnings sends the warning diagnostics in diags to l.
func reportWarnings(diags hcl.Diagnostics, filename string, l diag.Listener) {
	for _, d := range diags {
		if d.Severity != hcl.DiagWarning {
			continue
		}
		loc := diag.Location{File: filename}
		if d.Subject != nil {
			loc = location(*d.Subject)
		}
		l.Warning(loc, message(d))
	}
}
