package translate

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/xcono/pgrest-translate/ir"
)

var comparisonOperators = map[string]ir.ColumnOperator{
	"=":  ir.OpEq,
	"<>": ir.OpNeq,
	"!=": ir.OpNeq,
	">":  ir.OpGt,
	">=": ir.OpGte,
	"<":  ir.OpLt,
	"<=": ir.OpLte,
}

// compileFilter translates a WHERE expression into a LogicalExpression tree.
// A nil expression produces a nil tree.
func compileFilter(node *pg_query.Node) (ir.LogicalExpression, *ir.Error) {
	if node == nil {
		return nil, nil
	}

	if be := node.GetBoolExpr(); be != nil {
		return compileBoolExpr(be)
	}

	if nt := node.GetNullTest(); nt != nil {
		return compileNullTest(nt)
	}

	if ae := node.GetAExpr(); ae != nil {
		return compileComparison(ae)
	}

	return nil, ir.NewError(ir.ErrUnsupportedExpression, node, "unsupported WHERE expression")
}

func compileBoolExpr(be *pg_query.BoolExpr) (ir.LogicalExpression, *ir.Error) {
	switch be.Boolop {
	case pg_query.BoolExprType_NOT_EXPR:
		if len(be.Args) != 1 {
			return nil, ir.NewError(ir.ErrUnsupportedExpression, nil, "NOT takes exactly one argument")
		}
		inner, err := compileFilter(be.Args[0])
		if err != nil {
			return nil, err
		}
		return negate(inner), nil

	case pg_query.BoolExprType_AND_EXPR, pg_query.BoolExprType_OR_EXPR:
		op := ir.LogicalAnd
		if be.Boolop == pg_query.BoolExprType_OR_EXPR {
			op = ir.LogicalOr
		}
		values := make([]ir.LogicalExpression, 0, len(be.Args))
		for _, arg := range be.Args {
			v, err := compileFilter(arg)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return &ir.Logical{Operator: op, Values: values}, nil

	default:
		return nil, ir.NewError(ir.ErrUnsupportedExpression, nil, "unsupported boolean expression")
	}
}

// negate toggles negation on the root of expr, rather than pushing the
// negation down through its children via De Morgan rewriting. Double
// negation cancels.
func negate(expr ir.LogicalExpression) ir.LogicalExpression {
	switch v := expr.(type) {
	case *ir.Logical:
		v.Negate = !v.Negate
		return v
	case *ir.ColumnExpression:
		v.Negate = !v.Negate
		return v
	default:
		return expr
	}
}

func compileNullTest(nt *pg_query.NullTest) (ir.LogicalExpression, *ir.Error) {
	col, err := primaryColumn(nt.Arg)
	if err != nil {
		return nil, err
	}
	return &ir.ColumnExpression{
		Column:   *col,
		Operator: ir.OpIs,
		Value:    nil,
		Negate:   nt.Nulltesttype == pg_query.NullTestType_IS_NOT_NULL,
	}, nil
}

func compileComparison(ae *pg_query.A_Expr) (ir.LogicalExpression, *ir.Error) {
	switch ae.Kind {
	case pg_query.A_Expr_Kind_AEXPR_OP:
		return compileOpComparison(ae)
	case pg_query.A_Expr_Kind_AEXPR_LIKE:
		return compileLikeComparison(ae, false)
	case pg_query.A_Expr_Kind_AEXPR_ILIKE:
		return compileLikeComparison(ae, true)
	default:
		return nil, ir.NewError(ir.ErrUnsupportedOperator, ae.Lexpr, "unsupported WHERE operator")
	}
}

func compileOpComparison(ae *pg_query.A_Expr) (ir.LogicalExpression, *ir.Error) {
	if len(ae.Name) != 1 {
		return nil, ir.NewError(ir.ErrUnsupportedOperator, ae.Lexpr, "unsupported WHERE operator")
	}
	sym, ok := fieldString(ae.Name[0])
	if !ok {
		return nil, ir.NewError(ir.ErrUnsupportedOperator, ae.Lexpr, "unsupported WHERE operator")
	}
	op, ok := comparisonOperators[sym]
	if !ok {
		return nil, ir.NewError(ir.ErrUnsupportedOperator, ae.Lexpr, "unsupported WHERE operator %q", sym)
	}

	col, err := primaryColumn(ae.Lexpr)
	if err != nil {
		return nil, err
	}
	value, verr := literalValue(ae.Rexpr)
	if verr != nil {
		return nil, verr
	}
	return &ir.ColumnExpression{Column: *col, Operator: op, Value: value}, nil
}

func compileLikeComparison(ae *pg_query.A_Expr, ilike bool) (ir.LogicalExpression, *ir.Error) {
	col, err := primaryColumn(ae.Lexpr)
	if err != nil {
		return nil, err
	}
	value, verr := literalValue(ae.Rexpr)
	if verr != nil {
		return nil, verr
	}
	s, ok := value.(string)
	if !ok {
		return nil, ir.NewError(ir.ErrUnsupportedOperator, ae.Rexpr, "LIKE/ILIKE pattern must be a string literal")
	}
	op := ir.OpLike
	if ilike {
		op = ir.OpILike
	}
	return &ir.ColumnExpression{Column: *col, Operator: op, Value: likePattern(s)}, nil
}

// likePattern rewrites SQL's `%` wildcard to PostgREST's `*`. `_` and
// backslash escapes are left untouched.
func likePattern(s string) string {
	return strings.ReplaceAll(s, "%", "*")
}

// primaryColumn resolves a WHERE leaf's column operand: it must be an
// unqualified column of the primary relation, with no cast.
func primaryColumn(node *pg_query.Node) (*ir.Column, *ir.Error) {
	col, err := decomposeColumn(node, false)
	if err != nil {
		return nil, err
	}
	if col.Relation != "" {
		return nil, ir.NewError(ir.ErrForeignColumnWithoutJoin, node, "WHERE clause columns must be unqualified columns of the queried relation")
	}
	return col, nil
}

// literalValue extracts a Go value from an A_Const used as a WHERE operand.
func literalValue(node *pg_query.Node) (interface{}, *ir.Error) {
	ac := node.GetAConst()
	if ac == nil {
		return nil, ir.NewError(ir.ErrUnsupportedExpression, node, "WHERE operand must be a literal")
	}
	if ac.Isnull {
		return nil, nil
	}
	switch v := ac.Val.(type) {
	case *pg_query.A_Const_Sval:
		return v.Sval.Sval, nil
	case *pg_query.A_Const_Ival:
		return int(v.Ival.Ival), nil
	case *pg_query.A_Const_Fval:
		return v.Fval.Fval, nil
	case *pg_query.A_Const_Boolval:
		return v.Boolval.Boolval, nil
	default:
		return nil, ir.NewError(ir.ErrUnsupportedExpression, node, "unsupported literal in WHERE clause")
	}
}
