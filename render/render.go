// Package render serializes the Statement IR produced by translate into a
// PostgREST-shaped HTTP request. Render never returns an error: any
// invariant violation that reaches it is a translator bug, not a rejection
// a caller should handle, so malformed input panics.
package render

import (
	"strconv"
	"strings"

	"github.com/xcono/pgrest-translate/ir"
)

// Param is one ordered key/value pair of the rendered query string.
// Duplicate keys are legal (multiple filters on the same column).
type Param struct {
	Key   string
	Value string
}

// Request is the renderer's output.
type Request struct {
	Method   string
	Path     string
	Params   []Param
	FullPath string
}

// Render serializes stmt into a GET request against stmt.From.
//
// JSON path keys are never re-quoted for URL safety; percent-encoding, if
// any, is the caller's responsibility.
func Render(stmt *ir.Statement) *Request {
	var params []Param

	if sel := topLevelSelect(stmt.Targets); sel != "" {
		params = append(params, Param{Key: "select", Value: sel})
	}

	params = append(params, renderFilter(stmt.Filter)...)

	if len(stmt.Sorts) > 0 {
		params = append(params, Param{Key: "order", Value: renderOrder(stmt.Sorts)})
	}
	if stmt.Limit != nil {
		params = append(params, Param{Key: "limit", Value: strconv.Itoa(*stmt.Limit)})
	}
	if stmt.Offset != nil {
		params = append(params, Param{Key: "offset", Value: strconv.Itoa(*stmt.Offset)})
	}

	path := "/" + stmt.From.Name
	return &Request{
		Method:   "GET",
		Path:     path,
		Params:   params,
		FullPath: path + "?" + encodeParams(params),
	}
}

func encodeParams(params []Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p.Key+"="+p.Value)
	}
	return strings.Join(parts, "&")
}

// topLevelSelect renders the select= parameter, except a bare `select *`
// with nothing else projects PostgREST's default and needs no parameter at
// all. A lone Star combined with anything else (an embed, another column)
// still renders explicitly.
func topLevelSelect(targets []ir.Target) string {
	if len(targets) == 1 {
		if _, ok := targets[0].(ir.Star); ok {
			return ""
		}
	}
	return renderTargetList(targets)
}

// renderTargetList implements the select-string grammar for a target
// list, whether at the top level or nested inside an EmbeddedTarget. Unlike
// topLevelSelect it never omits a lone Star, since `...rel()` and
// `...rel(*)` are not the same thing.
func renderTargetList(targets []ir.Target) string {
	items := make([]string, 0, len(targets))
	for _, t := range targets {
		items = append(items, renderTarget(t))
	}
	return strings.Join(items, ",")
}

func renderTarget(t ir.Target) string {
	switch v := t.(type) {
	case ir.Star:
		return "*"
	case ir.Column:
		return renderColumn(v)
	case ir.AggregateTarget:
		return renderAggregate(v)
	case *ir.EmbeddedTarget:
		return renderEmbedded(v)
	default:
		panic("render: unknown Target variant")
	}
}

func renderColumn(c ir.Column) string {
	var b strings.Builder
	if c.Alias != "" {
		b.WriteString(c.Alias)
		b.WriteByte(':')
	}
	b.WriteString(c.Name)
	b.WriteString(renderJSONPath(c.JSONPath))
	if c.Cast != "" {
		b.WriteString("::")
		b.WriteString(c.Cast)
	}
	return b.String()
}

func renderJSONPath(steps []ir.JSONPathStep) string {
	var b strings.Builder
	for _, s := range steps {
		b.WriteString(s.Arrow)
		b.WriteString(s.Key)
	}
	return b.String()
}

func renderAggregate(a ir.AggregateTarget) string {
	var b strings.Builder
	if a.Alias != "" {
		b.WriteString(a.Alias)
		b.WriteByte(':')
	}
	b.WriteString(a.Input.Name)
	b.WriteString(renderJSONPath(a.Input.JSONPath))
	if a.InputCast != "" {
		b.WriteString("::")
		b.WriteString(a.InputCast)
	}
	b.WriteByte('.')
	b.WriteString(string(a.Function))
	b.WriteString("()")
	if a.OutputCast != "" {
		b.WriteString("::")
		b.WriteString(a.OutputCast)
	}
	return b.String()
}

func renderEmbedded(e *ir.EmbeddedTarget) string {
	var b strings.Builder
	b.WriteString("...")
	if e.Alias != "" {
		b.WriteString(e.Alias)
		b.WriteByte(':')
	}
	b.WriteString(e.Relation)
	if e.JoinType == ir.JoinInner {
		b.WriteString("!inner")
	}
	b.WriteByte('(')
	b.WriteString(renderTargetList(e.Targets))
	b.WriteByte(')')
	return b.String()
}

// renderFilter flattens the logical tree into top-level parameters: a
// non-negated top-level AND splits into one parameter per child, in
// source order; everything else (a negated AND, any OR, a single leaf)
// collapses into one parameter.
func renderFilter(expr ir.LogicalExpression) []Param {
	if expr == nil {
		return nil
	}
	if l, ok := expr.(*ir.Logical); ok && l.Operator == ir.LogicalAnd && !l.Negate {
		params := make([]Param, 0, len(l.Values))
		for _, v := range l.Values {
			params = append(params, renderTopLevel(v))
		}
		return params
	}
	return []Param{renderTopLevel(expr)}
}

func renderTopLevel(expr ir.LogicalExpression) Param {
	switch v := expr.(type) {
	case *ir.ColumnExpression:
		return Param{Key: filterKey(v.Column), Value: negPrefix(v.Negate) + string(v.Operator) + "." + filterValue(v)}
	case *ir.Logical:
		return Param{Key: negPrefix(v.Negate) + string(v.Operator), Value: "(" + renderCombinatorChildren(v) + ")"}
	default:
		panic("render: unknown LogicalExpression variant")
	}
}

// renderNested renders a LogicalExpression as it appears inside a
// combinator's child list: leaves use `column.op.value`, nested
// combinators use `op(children)` with no `=`.
func renderNested(expr ir.LogicalExpression) string {
	switch v := expr.(type) {
	case *ir.ColumnExpression:
		return filterKey(v.Column) + "." + negPrefix(v.Negate) + string(v.Operator) + "." + filterValue(v)
	case *ir.Logical:
		return negPrefix(v.Negate) + string(v.Operator) + "(" + renderCombinatorChildren(v) + ")"
	default:
		panic("render: unknown LogicalExpression variant")
	}
}

func renderCombinatorChildren(l *ir.Logical) string {
	items := make([]string, 0, len(l.Values))
	for _, v := range l.Values {
		items = append(items, renderNested(v))
	}
	return strings.Join(items, ",")
}

func negPrefix(negate bool) string {
	if negate {
		return "not."
	}
	return ""
}

func filterKey(c ir.Column) string {
	return c.Name + renderJSONPath(c.JSONPath)
}

func filterValue(c *ir.ColumnExpression) string {
	if c.Operator == ir.OpIs {
		return "null"
	}
	return formatValue(c.Value)
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		panic("render: unsupported filter value type")
	}
}

// renderOrder implements the order= grammar.
func renderOrder(sorts []ir.Sort) string {
	items := make([]string, 0, len(sorts))
	for _, s := range sorts {
		var b strings.Builder
		if s.Relation != "" {
			b.WriteString(s.Relation)
			b.WriteByte('.')
		}
		b.WriteString(s.Column)
		switch s.Direction {
		case ir.SortAsc:
			b.WriteString(".asc")
		case ir.SortDesc:
			b.WriteString(".desc")
		}
		switch s.Nulls {
		case ir.NullsFirst:
			b.WriteString(".nullsfirst")
		case ir.NullsLast:
			b.WriteString(".nullslast")
		}
		items = append(items, b.String())
	}
	return strings.Join(items, ",")
}
