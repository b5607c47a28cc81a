// Package translate implements the validator-transpiler: it consumes a
// parsed PostgreSQL SELECT statement and produces the Statement IR that
// render.Render serializes into a PostgREST request.
package translate

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/xcono/pgrest-translate/ir"
)

// FromSQL parses raw SQL text and translates the single statement it
// contains. It exists for callers that only have a SQL string; the
// translator itself never touches raw text, only the parse tree.
func FromSQL(sql string) (*ir.Statement, error) {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return nil, ir.NewError(ir.ErrUnsupportedExpression, nil, "parse error: %s", err)
	}
	if len(result.Stmts) != 1 {
		return nil, ir.NewError(ir.ErrUnsupportedExpression, nil, "expected exactly one statement")
	}
	raw := result.Stmts[0].Stmt
	stmt := raw.GetSelectStmt()
	if stmt == nil {
		return nil, ir.NewError(ir.ErrUnsupportedExpression, raw, "only SELECT statements are supported")
	}
	return Translate(stmt)
}

// Translate is the assembler: it runs the join resolver, target-list
// processor, filter compiler, and sort/limit/offset compiler, enforces the
// GROUP BY/HAVING rules, and produces the Statement IR.
func Translate(stmt *pg_query.SelectStmt) (*ir.Statement, error) {
	if stmt.HavingClause != nil {
		return nil, ir.NewError(ir.ErrHavingUnsupported, stmt.HavingClause, "HAVING is not supported")
	}

	rt, err := resolveFrom(stmt.FromClause)
	if err != nil {
		return nil, err
	}

	targets, err := buildTargets(rt, stmt.TargetList)
	if err != nil {
		return nil, err
	}

	if err := checkGroupBy(stmt.GroupClause, targets); err != nil {
		return nil, err
	}

	filter, err := compileFilter(stmt.WhereClause)
	if err != nil {
		return nil, err
	}

	sorts, err := compileSorts(rt, stmt.SortClause)
	if err != nil {
		return nil, err
	}

	limit, offset, err := compileLimitOffset(stmt.LimitCount, stmt.LimitOffset)
	if err != nil {
		return nil, err
	}

	out := &ir.Statement{
		Type:    "select",
		From:    ir.Relation{Name: rt.primary.name, Alias: rt.primary.alias},
		Targets: targets,
		Filter:  filter,
		Sorts:   sorts,
		Limit:   limit,
		Offset:  offset,
	}
	return out, nil
}

// checkGroupBy enforces the GROUP BY rule: grouping columns must set-equal
// the non-aggregate Column targets exactly, and at least one AggregateTarget
// must be present.
func checkGroupBy(groupClause []*pg_query.Node, targets []ir.Target) *ir.Error {
	if len(groupClause) == 0 {
		return nil
	}

	var hasAggregate bool
	plainColumns := map[string]bool{}
	for _, t := range targets {
		switch v := t.(type) {
		case ir.AggregateTarget:
			hasAggregate = true
		case ir.Column:
			plainColumns[v.Name] = true
		}
	}
	if !hasAggregate {
		return ir.NewError(ir.ErrGroupByWithoutAggregate, nil, "GROUP BY requires at least one aggregate target")
	}

	grouped := map[string]bool{}
	for _, g := range groupClause {
		cref := g.GetColumnRef()
		if cref == nil {
			return ir.NewError(ir.ErrGroupByMissingTarget, g, "GROUP BY items must be plain column references")
		}
		rel, name, star, ok := columnRefParts(cref)
		if !ok || star || rel != "" {
			return ir.NewError(ir.ErrGroupByMissingTarget, g, "GROUP BY items must be unqualified column references")
		}
		grouped[name] = true
	}

	if len(grouped) != len(plainColumns) {
		return ir.NewError(ir.ErrGroupByMissingTarget, nil, "GROUP BY columns must exactly match the non-aggregate select targets")
	}
	for name := range grouped {
		if !plainColumns[name] {
			return ir.NewError(ir.ErrGroupByMissingTarget, nil, "GROUP BY column %q is not a select target", name)
		}
	}

	return nil
}
