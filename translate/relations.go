package translate

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/xcono/pgrest-translate/ir"
)

// relationNode is one node of the join graph built from the FROM clause: the
// primary relation, or a relation attached via a JOIN. refName is how SQL
// qualifies columns against it (its alias if aliased, else its table name);
// once a relation is aliased, its original table name is never registered,
// which is what makes "the other side once aliased" references fail lookup.
type relationNode struct {
	isPrimary bool
	name      string
	alias     string
	refName   string

	joinType  ir.JoinType
	qualifier *ir.JoinQualifier
	parent    *relationNode

	// embed is created lazily, the first time a column of this relation is
	// referenced in the target list. A joined relation that is never
	// projected has no EmbeddedTarget and never appears in the rendered
	// select string.
	embed    *ir.EmbeddedTarget
	appended bool
}

// relationTable is the result of resolving a FROM clause plus its joins: the
// primary relation and a lookup from every qualifying name to its node.
type relationTable struct {
	primary *relationNode
	byName  map[string]*relationNode
}

func (rt *relationTable) lookup(refName string) (*relationNode, bool) {
	n, ok := rt.byName[refName]
	return n, ok
}

// resolveFrom builds the relation table from SelectStmt.FromClause. It
// validates the FROM and join rules and leaves embed construction to the
// target-list processor.
func resolveFrom(fromClause []*pg_query.Node) (*relationTable, *ir.Error) {
	if len(fromClause) == 0 {
		return nil, ir.NewError(ir.ErrMissingFromClause, nil, "SELECT requires a FROM clause")
	}
	if len(fromClause) > 1 {
		return nil, ir.NewError(ir.ErrMultipleFromRelations, fromClause[1], "FROM must name exactly one relation; comma-separated relation lists are not supported")
	}

	primaryVar, joins, err := flattenJoins(fromClause[0])
	if err != nil {
		return nil, err
	}

	primary := &relationNode{
		isPrimary: true,
		name:      primaryVar.Relname,
	}
	if primaryVar.Alias != nil {
		primary.alias = primaryVar.Alias.Aliasname
	}
	primary.refName = refNameOf(primary.name, primary.alias)

	rt := &relationTable{
		primary: primary,
		byName:  map[string]*relationNode{primary.refName: primary},
	}

	for _, je := range joins {
		if err := attachJoin(rt, je); err != nil {
			return nil, err
		}
	}

	return rt, nil
}

func refNameOf(name, alias string) string {
	if alias != "" {
		return alias
	}
	return name
}

// flattenJoins walks the left-deep JoinExpr tree the Postgres grammar
// produces for `a JOIN b ON .. JOIN c ON ..` and returns the primary
// RangeVar plus the joins in source order (b then c).
func flattenJoins(node *pg_query.Node) (*pg_query.RangeVar, []*pg_query.JoinExpr, *ir.Error) {
	if rv := node.GetRangeVar(); rv != nil {
		return rv, nil, nil
	}
	if je := node.GetJoinExpr(); je != nil {
		primary, joins, err := flattenJoins(je.Larg)
		if err != nil {
			return nil, nil, err
		}
		return primary, append(joins, je), nil
	}
	return nil, nil, ir.NewError(ir.ErrUnsupportedExpression, node, "unsupported FROM item; only plain tables and JOINs are supported")
}

func attachJoin(rt *relationTable, je *pg_query.JoinExpr) *ir.Error {
	var joinType ir.JoinType
	switch je.Jointype {
	case pg_query.JoinType_JOIN_LEFT:
		joinType = ir.JoinLeft
	case pg_query.JoinType_JOIN_INNER:
		if je.Quals == nil {
			return ir.NewError(ir.ErrUnsupportedJoinType, nil, "CROSS JOIN is not supported")
		}
		joinType = ir.JoinInner
	default:
		return ir.NewError(ir.ErrUnsupportedJoinType, nil, "only LEFT [OUTER] JOIN and [INNER] JOIN are supported")
	}

	rv := je.Rarg.GetRangeVar()
	if rv == nil {
		return ir.NewError(ir.ErrUnsupportedJoinType, je.Rarg, "join target must be a plain table reference")
	}

	node := &relationNode{
		name:     rv.Relname,
		joinType: joinType,
		parent:   rt.primary,
	}
	if rv.Alias != nil {
		node.alias = rv.Alias.Aliasname
	}
	node.refName = refNameOf(node.name, node.alias)

	if _, exists := rt.byName[node.refName]; exists {
		return ir.NewError(ir.ErrSelfJoinUnsupported, je.Rarg, "relation %q is already joined", node.refName)
	}

	qual, parent, err := resolveJoinQualifier(rt, node, je.Quals)
	if err != nil {
		return err
	}
	node.qualifier = qual
	node.parent = parent

	rt.byName[node.refName] = node
	return nil
}

// resolveJoinQualifier validates the single equality ON clause and resolves
// which side names the new relation and which names an already-known
// ancestor.
func resolveJoinQualifier(rt *relationTable, joined *relationNode, quals *pg_query.Node) (*ir.JoinQualifier, *relationNode, *ir.Error) {
	ae := quals.GetAExpr()
	if ae == nil || ae.Kind != pg_query.A_Expr_Kind_AEXPR_OP {
		return nil, nil, ir.NewError(ir.ErrNonEquiJoin, quals, "join condition must be a single equality")
	}
	sym, ok := fieldString(ae.Name[0])
	if !ok || sym != "=" || len(ae.Name) != 1 {
		return nil, nil, ir.NewError(ir.ErrNonEquiJoin, quals, "join condition operator must be '='")
	}

	lCol, lIsConst := joinSide(ae.Lexpr)
	rCol, rIsConst := joinSide(ae.Rexpr)
	if lIsConst || rIsConst {
		return nil, nil, ir.NewError(ir.ErrConstantInJoin, quals, "join condition must compare two columns, not a literal")
	}
	if lCol == nil || rCol == nil {
		return nil, nil, ir.NewError(ir.ErrNonEquiJoin, quals, "join condition must compare two column references")
	}

	lIsChild := lCol.Relation == joined.refName
	rIsChild := rCol.Relation == joined.refName
	if lIsChild && rIsChild {
		return nil, nil, ir.NewError(ir.ErrSelfJoinUnsupported, quals, "both sides of the join condition reference %q", joined.refName)
	}
	if !lIsChild && !rIsChild {
		return nil, nil, ir.NewError(ir.ErrNonEquiJoin, quals, "join condition does not reference the joined relation %q", joined.refName)
	}

	childSide, parentSide := lCol, rCol
	if rIsChild {
		childSide, parentSide = rCol, lCol
	}

	var parent *relationNode
	if parentSide.Relation == "" {
		parent = rt.primary
	} else {
		var found bool
		parent, found = rt.lookup(parentSide.Relation)
		if !found {
			return nil, nil, ir.NewError(ir.ErrUnknownRelation, quals, "join condition references unknown relation %q", parentSide.Relation)
		}
	}

	qual := &ir.JoinQualifier{
		Parent: ir.ColumnRef{Relation: parent.refName, Column: parentSide.Column},
		Child:  ir.ColumnRef{Relation: joined.refName, Column: childSide.Column},
	}
	return qual, parent, nil
}

// joinSideColumn is a minimal column reference used only while validating a
// join qualifier.
type joinSideColumn struct {
	Relation string
	Column   string
}

// joinSide classifies one operand of a join equality: a column reference
// (possibly unqualified), or a constant.
func joinSide(node *pg_query.Node) (*joinSideColumn, bool) {
	if node.GetAConst() != nil {
		return nil, true
	}
	cref := node.GetColumnRef()
	if cref == nil {
		return nil, false
	}
	rel, name, star, ok := columnRefParts(cref)
	if !ok || star {
		return nil, false
	}
	return &joinSideColumn{Relation: rel, Column: name}, false
}
