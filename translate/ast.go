package translate

import (
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/xcono/pgrest-translate/ir"
)

// fieldString reads a ColumnRef field or a Funcname segment, which pg_query
// represents as a bare *pg_query.String node.
func fieldString(n *pg_query.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	if s := n.GetString_(); s != nil {
		return s.Sval, true
	}
	return "", false
}

func isStarField(n *pg_query.Node) bool {
	return n != nil && n.GetAStar() != nil
}

// columnRefParts splits a ColumnRef into relation/name/star. Schema-qualified
// references (three or more dotted segments) are not part of the supported
// subset.
func columnRefParts(cref *pg_query.ColumnRef) (relation, name string, star bool, ok bool) {
	switch len(cref.Fields) {
	case 1:
		if isStarField(cref.Fields[0]) {
			return "", "", true, true
		}
		n, okName := fieldString(cref.Fields[0])
		return "", n, false, okName
	case 2:
		if isStarField(cref.Fields[1]) {
			rel, okRel := fieldString(cref.Fields[0])
			return rel, "", true, okRel
		}
		rel, okRel := fieldString(cref.Fields[0])
		n, okName := fieldString(cref.Fields[1])
		return rel, n, false, okRel && okName
	default:
		return "", "", false, false
	}
}

// grammarTypeNames maps the internal names PostgreSQL's grammar substitutes
// for SQL type keywords (`float` parses as pg_catalog.float8) back to a
// keyword spelling.
var grammarTypeNames = map[string]string{
	"float8": "float", "float4": "real", "int2": "smallint",
	"int4": "int", "int8": "bigint", "bool": "boolean",
}

// typeNameString joins a TypeName's segments (e.g. "text" or "my.type").
// A pg_catalog-qualified name, which is what the grammar produces for type
// keywords, loses its qualification and is spelled as the keyword
// ("float", "int"), so `x::float` yields "float".
func typeNameString(tn *pg_query.TypeName) string {
	parts := make([]string, 0, len(tn.Names))
	for _, n := range tn.Names {
		if s, ok := fieldString(n); ok {
			parts = append(parts, s)
		}
	}
	if len(parts) == 2 && parts[0] == "pg_catalog" {
		if kw, ok := grammarTypeNames[parts[1]]; ok {
			return kw
		}
		return parts[1]
	}
	return strings.Join(parts, ".")
}

// jsonArrow reports whether an A_Expr is a `->` / `->>` JSON path hop.
func jsonArrow(ae *pg_query.A_Expr) (string, bool) {
	if ae.Kind != pg_query.A_Expr_Kind_AEXPR_OP || len(ae.Name) != 1 {
		return "", false
	}
	sym, ok := fieldString(ae.Name[0])
	if !ok {
		return "", false
	}
	if sym == "->" || sym == "->>" {
		return sym, true
	}
	return "", false
}

// jsonPathKey extracts the literal key/index from the right-hand operand of
// a JSON path hop. PostgREST keys are unquoted in the rendered URL, so SQL
// string quoting is stripped here and never re-applied.
func jsonPathKey(node *pg_query.Node, onErr func(string) *ir.Error) (string, *ir.Error) {
	ac := node.GetAConst()
	if ac == nil || ac.Isnull {
		return "", onErr("JSON path key must be a string or integer literal")
	}
	switch v := ac.Val.(type) {
	case *pg_query.A_Const_Sval:
		return v.Sval.Sval, nil
	case *pg_query.A_Const_Ival:
		return strconv.Itoa(int(v.Ival.Ival)), nil
	default:
		return "", onErr("JSON path key must be a string or integer literal")
	}
}

// decomposeColumn walks a (possibly cast, possibly JSON-path) expression down
// to its base column reference. allowCast controls whether a TypeCast at
// this level is acceptable (true only for target-list expressions); a cast
// encountered with allowCast false fails CastOutsideTarget.
func decomposeColumn(node *pg_query.Node, allowCast bool) (*ir.Column, *ir.Error) {
	if tc := node.GetTypeCast(); tc != nil {
		if !allowCast {
			return nil, ir.NewError(ir.ErrCastOutsideTarget, node, "casts are not permitted here")
		}
		inner, err := decomposeColumn(tc.Arg, false)
		if err != nil {
			return nil, err
		}
		inner.Cast = typeNameString(tc.TypeName)
		return inner, nil
	}

	if ae := node.GetAExpr(); ae != nil {
		if arrow, ok := jsonArrow(ae); ok {
			left, err := decomposeColumn(ae.Lexpr, false)
			if err != nil {
				return nil, err
			}
			key, kerr := jsonPathKey(ae.Rexpr, func(msg string) *ir.Error {
				return ir.NewError(ir.ErrInvalidJsonPath, node, "%s", msg)
			})
			if kerr != nil {
				return nil, kerr
			}
			left.JSONPath = append(left.JSONPath, ir.JSONPathStep{Arrow: arrow, Key: key})
			return left, nil
		}
		return nil, ir.NewError(ir.ErrUnsupportedExpression, node, "arithmetic and non-JSON operator expressions are not supported")
	}

	if cref := node.GetColumnRef(); cref != nil {
		rel, name, star, ok := columnRefParts(cref)
		if !ok || star {
			return nil, ir.NewError(ir.ErrUnsupportedExpression, node, "unsupported column reference shape")
		}
		return &ir.Column{Relation: rel, Name: name}, nil
	}

	return nil, ir.NewError(ir.ErrUnsupportedExpression, node, "expected a column reference, got an unsupported expression")
}
