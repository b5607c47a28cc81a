package translate

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/xcono/pgrest-translate/ir"
)

// compileSorts translates the ORDER BY list. A qualified column produces a
// "sorted embed": the relation must already be a known join.
func compileSorts(rt *relationTable, items []*pg_query.Node) ([]ir.Sort, *ir.Error) {
	sorts := make([]ir.Sort, 0, len(items))
	for _, item := range items {
		sb := item.GetSortBy()
		if sb == nil {
			return nil, ir.NewError(ir.ErrUnsupportedExpression, item, "expected an ORDER BY item")
		}

		cref := sb.Node.GetColumnRef()
		if cref == nil {
			return nil, ir.NewError(ir.ErrUnsupportedExpression, sb.Node, "ORDER BY items must be plain column references")
		}
		rel, name, star, ok := columnRefParts(cref)
		if !ok || star {
			return nil, ir.NewError(ir.ErrUnsupportedExpression, sb.Node, "ORDER BY items must be plain column references")
		}
		if rel != "" {
			if _, found := rt.lookup(rel); !found {
				return nil, ir.NewError(ir.ErrUnknownRelation, sb.Node, "unknown relation %q", rel)
			}
		}

		s := ir.Sort{Column: name, Relation: rel}

		switch sb.SortbyDir {
		case pg_query.SortByDir_SORTBY_ASC:
			s.Direction = ir.SortAsc
		case pg_query.SortByDir_SORTBY_DESC:
			s.Direction = ir.SortDesc
		case pg_query.SortByDir_SORTBY_DEFAULT:
		default:
			return nil, ir.NewError(ir.ErrUnsupportedExpression, sb.Node, "unsupported ORDER BY direction")
		}

		switch sb.SortbyNulls {
		case pg_query.SortByNulls_SORTBY_NULLS_FIRST:
			s.Nulls = ir.NullsFirst
		case pg_query.SortByNulls_SORTBY_NULLS_LAST:
			s.Nulls = ir.NullsLast
		case pg_query.SortByNulls_SORTBY_NULLS_DEFAULT:
		}

		sorts = append(sorts, s)
	}
	return sorts, nil
}

// compileLimitOffset validates LIMIT/OFFSET are non-negative integer
// literals.
func compileLimitOffset(limitNode, offsetNode *pg_query.Node) (*int, *int, *ir.Error) {
	limit, err := nonNegativeIntLiteral(limitNode, ir.ErrInvalidLimit)
	if err != nil {
		return nil, nil, err
	}
	offset, err := nonNegativeIntLiteral(offsetNode, ir.ErrInvalidOffset)
	if err != nil {
		return nil, nil, err
	}
	return limit, offset, nil
}

func nonNegativeIntLiteral(node *pg_query.Node, kind ir.ErrorKind) (*int, *ir.Error) {
	if node == nil {
		return nil, nil
	}
	ac := node.GetAConst()
	if ac == nil || ac.Isnull {
		return nil, ir.NewError(kind, node, "must be a non-negative integer literal")
	}
	ival, ok := ac.Val.(*pg_query.A_Const_Ival)
	if !ok {
		return nil, ir.NewError(kind, node, "must be a non-negative integer literal")
	}
	v := int(ival.Ival.Ival)
	if v < 0 {
		return nil, ir.NewError(kind, node, "must be non-negative, got %d", v)
	}
	return &v, nil
}
