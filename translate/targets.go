package translate

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/xcono/pgrest-translate/ir"
)

var aggregateFunctions = map[string]ir.AggregateFunction{
	"avg":   ir.AggAvg,
	"count": ir.AggCount,
	"max":   ir.AggMax,
	"min":   ir.AggMin,
	"sum":   ir.AggSum,
}

// buildTargets walks the SELECT target list and produces the top-level
// Target slice, lifting joined-relation columns into EmbeddedTarget nodes
// in the position of their first reference.
func buildTargets(rt *relationTable, resTargets []*pg_query.Node) ([]ir.Target, *ir.Error) {
	var top []ir.Target

	for _, rtNode := range resTargets {
		res := rtNode.GetResTarget()
		if res == nil {
			return nil, ir.NewError(ir.ErrUnsupportedExpression, rtNode, "expected a select target")
		}

		target, owner, err := buildOneTarget(rt, res)
		if err != nil {
			return nil, err
		}

		if owner == nil || owner.isPrimary {
			top = append(top, target)
			continue
		}

		appendToEmbed(rt, owner, target)
		if !owner.appended {
			top = insertEmbedIntoParent(rt, top, owner)
		}
	}

	return top, nil
}

// buildOneTarget classifies and builds a single ResTarget, returning the
// relationNode it belongs to (nil/primary for a plain primary-relation
// target). For `rel.*` and `rel.col` it is the joined relation; for an
// aggregate or plain column it is always the primary relation, since
// aggregates and cross-relation arithmetic over a join are not supported.
func buildOneTarget(rt *relationTable, res *pg_query.ResTarget) (ir.Target, *relationNode, *ir.Error) {
	val := res.Val

	if isStarResTarget(val) {
		return ir.Star{}, rt.primary, nil
	}

	if cref := val.GetColumnRef(); cref != nil {
		if rel, _, star, ok := columnRefParts(cref); ok && star && rel != "" {
			owner, found := rt.lookup(rel)
			if !found {
				return nil, nil, ir.NewError(ir.ErrUnknownRelation, val, "unknown relation %q", rel)
			}
			return ir.Star{}, owner, nil
		}
	}

	if tc := val.GetTypeCast(); tc != nil {
		if fc := tc.Arg.GetFuncCall(); fc != nil {
			return buildAggregateTarget(rt, res, fc, typeNameString(tc.TypeName))
		}
	}

	if fc := val.GetFuncCall(); fc != nil {
		return buildAggregateTarget(rt, res, fc, "")
	}

	col, err := decomposeColumn(val, true)
	if err != nil {
		return nil, nil, err
	}

	owner := rt.primary
	if col.Relation != "" {
		var found bool
		owner, found = rt.lookup(col.Relation)
		if !found {
			return nil, nil, ir.NewError(ir.ErrUnknownRelation, val, "unknown relation %q", col.Relation)
		}
	}

	applyAlias(col, res.Name)
	ownColumn := *col
	ownColumn.Relation = ""
	return ownColumn, owner, nil
}

func isStarResTarget(node *pg_query.Node) bool {
	cref := node.GetColumnRef()
	if cref == nil {
		return false
	}
	rel, _, star, ok := columnRefParts(cref)
	return ok && star && rel == ""
}

// applyAlias implements the alias-elision rule: an explicit `AS name` that
// is textually identical to the bare column name is dropped, since
// PostgREST's default projection already uses that name. A target that
// keeps its alias also gets its cast name normalized to the pg_catalog
// form, per the resolved Open Question on cast catalog normalization.
func applyAlias(col *ir.Column, alias string) {
	if alias == "" || alias == col.Name {
		return
	}
	col.Alias = alias
	if col.Cast != "" && !containsDot(col.Cast) {
		col.Cast = "pg_catalog." + col.Cast
	}
}

func containsDot(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return true
		}
	}
	return false
}

// buildAggregateTarget builds an AggregateTarget from a FuncCall. outputCast
// is the cast applied to the whole aggregate result (the outer `::type` in
// `sum(amount)::float`, unwrapped by the caller); a cast on the argument
// itself (`sum(amount::int)`) is the InputCast instead.
func buildAggregateTarget(rt *relationTable, res *pg_query.ResTarget, fc *pg_query.FuncCall, outputCast string) (ir.Target, *relationNode, *ir.Error) {
	if len(fc.Funcname) != 1 {
		return nil, nil, ir.NewError(ir.ErrUnsupportedAggregate, res.Val, "unsupported function call")
	}
	name, ok := fieldString(fc.Funcname[0])
	if !ok {
		return nil, nil, ir.NewError(ir.ErrUnsupportedAggregate, res.Val, "unsupported function call")
	}
	fn, ok := aggregateFunctions[name]
	if !ok {
		return nil, nil, ir.NewError(ir.ErrUnsupportedAggregate, res.Val, "unsupported aggregate function %q", name)
	}
	if len(fc.Args) != 1 {
		return nil, nil, ir.NewError(ir.ErrAggregateArgumentShape, res.Val, "aggregate %q takes exactly one argument", name)
	}
	if fc.Args[0].GetFuncCall() != nil {
		return nil, nil, ir.NewError(ir.ErrAggregateArgumentShape, res.Val, "nested aggregates are not supported")
	}

	col, err := decomposeColumn(fc.Args[0], true)
	if err != nil {
		return nil, nil, err
	}
	if col.Relation != "" {
		return nil, nil, ir.NewError(ir.ErrAggregateArgumentShape, res.Val, "aggregate argument must be an unqualified column of the queried relation")
	}

	agg := ir.AggregateTarget{
		Function:   fn,
		Input:      ir.Column{Name: col.Name, JSONPath: col.JSONPath},
		InputCast:  col.Cast,
		OutputCast: outputCast,
	}
	if res.Name != "" {
		agg.Alias = res.Name
	}
	return agg, rt.primary, nil
}

// appendToEmbed lazily creates owner.embed on first use and appends target
// to its Targets slice.
func appendToEmbed(rt *relationTable, owner *relationNode, target ir.Target) {
	if owner.embed == nil {
		owner.embed = &ir.EmbeddedTarget{
			Relation: owner.name,
			Alias:    owner.alias,
			JoinType: owner.joinType,
			Spread:   true,
		}
		if owner.qualifier != nil {
			owner.embed.JoinQualifier = *owner.qualifier
		}
	}
	owner.embed.Targets = append(owner.embed.Targets, target)
}

// insertEmbedIntoParent places owner's EmbeddedTarget into its parent's
// target list at the position it is discovered, recursing up the join chain
// if the parent itself is a joined relation not yet appended anywhere.
func insertEmbedIntoParent(rt *relationTable, top []ir.Target, owner *relationNode) []ir.Target {
	owner.appended = true

	if owner.parent.isPrimary {
		return append(top, owner.embed)
	}

	parent := owner.parent
	appendToEmbed(rt, parent, owner.embed)
	if !parent.appended {
		return insertEmbedIntoParent(rt, top, parent)
	}
	return top
}
