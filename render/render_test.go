package render_test

import (
	"testing"

	"github.com/xcono/pgrest-translate/ir"
	"github.com/xcono/pgrest-translate/render"
)

func intp(v int) *int { return &v }

func TestRenderEndToEndScenarios(t *testing.T) {
	tt := []struct {
		name string
		stmt *ir.Statement
		want string
	}{
		{
			name: "plain projection",
			stmt: &ir.Statement{
				From:    ir.Relation{Name: "books"},
				Targets: []ir.Target{ir.Column{Name: "title"}, ir.Column{Name: "description"}},
			},
			want: "/books?select=title,description",
		},
		{
			name: "flattened AND filters",
			stmt: &ir.Statement{
				From:    ir.Relation{Name: "books"},
				Targets: []ir.Target{ir.Star{}},
				Filter: &ir.Logical{
					Operator: ir.LogicalAnd,
					Values: []ir.LogicalExpression{
						&ir.ColumnExpression{Column: ir.Column{Name: "title"}, Operator: ir.OpEq, Value: "Cheese"},
						&ir.ColumnExpression{Column: ir.Column{Name: "description"}, Operator: ir.OpILike, Value: "*salsa*"},
					},
				},
			},
			want: "/books?title=eq.Cheese&description=ilike.*salsa*",
		},
		{
			name: "negated OR collapses to one param",
			stmt: &ir.Statement{
				From:    ir.Relation{Name: "books"},
				Targets: []ir.Target{ir.Star{}},
				Filter: &ir.Logical{
					Operator: ir.LogicalOr,
					Negate:   true,
					Values: []ir.LogicalExpression{
						&ir.ColumnExpression{Column: ir.Column{Name: "title"}, Operator: ir.OpEq, Value: "Cheese"},
						&ir.ColumnExpression{Column: ir.Column{Name: "title"}, Operator: ir.OpEq, Value: "Salsa"},
					},
				},
			},
			want: "/books?not.or=(title.eq.Cheese,title.eq.Salsa)",
		},
		{
			name: "embedded target with inner join",
			stmt: &ir.Statement{
				From: ir.Relation{Name: "books"},
				Targets: []ir.Target{
					ir.Star{},
					&ir.EmbeddedTarget{
						Relation: "authors",
						JoinType: ir.JoinInner,
						Spread:   true,
						Targets:  []ir.Target{ir.Column{Name: "name"}},
					},
				},
			},
			want: "/books?select=*,...authors!inner(name)",
		},
		{
			name: "aggregate with output cast",
			stmt: &ir.Statement{
				From: ir.Relation{Name: "orders"},
				Targets: []ir.Target{
					ir.AggregateTarget{Function: ir.AggSum, Input: ir.Column{Name: "amount"}, OutputCast: "float"},
				},
			},
			want: "/orders?select=amount.sum()::float",
		},
		{
			name: "order, limit, offset",
			stmt: &ir.Statement{
				From:    ir.Relation{Name: "books"},
				Targets: []ir.Target{ir.Star{}},
				Sorts:   []ir.Sort{{Column: "title", Direction: ir.SortDesc, Nulls: ir.NullsLast}},
				Limit:   intp(5),
				Offset:  intp(10),
			},
			want: "/books?order=title.desc.nullslast&limit=5&offset=10",
		},
		{
			name: "JSON path normalization strips quotes",
			stmt: &ir.Statement{
				From: ir.Relation{Name: "books"},
				Targets: []ir.Target{
					ir.Column{Name: "address", JSONPath: []ir.JSONPathStep{{Arrow: "->", Key: "city"}, {Arrow: "->>", Key: "name"}}},
				},
			},
			want: "/books?select=address->city->>name",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			req := render.Render(tc.stmt)
			if req.FullPath != tc.want {
				t.Fatalf("FullPath = %q, want %q", req.FullPath, tc.want)
			}
			if req.Method != "GET" {
				t.Fatalf("Method = %q, want GET", req.Method)
			}
			if req.Path != "/"+tc.stmt.From.Name {
				t.Fatalf("Path = %q, want /%s", req.Path, tc.stmt.From.Name)
			}
		})
	}
}

func TestRenderDeterministic(t *testing.T) {
	stmt := &ir.Statement{
		From:    ir.Relation{Name: "books"},
		Targets: []ir.Target{ir.Column{Name: "title"}},
	}
	a := render.Render(stmt).FullPath
	b := render.Render(stmt).FullPath
	if a != b {
		t.Fatalf("render is not deterministic: %q != %q", a, b)
	}
}

func TestRenderAliasElision(t *testing.T) {
	stmt := &ir.Statement{
		From:    ir.Relation{Name: "books"},
		Targets: []ir.Target{ir.Column{Name: "title"}},
	}
	req := render.Render(stmt)
	if req.FullPath != "/books?select=title" {
		t.Fatalf("expected no alias prefix, got %q", req.FullPath)
	}
}

func TestRenderNegatedLeaf(t *testing.T) {
	stmt := &ir.Statement{
		From:    ir.Relation{Name: "books"},
		Targets: []ir.Target{ir.Star{}},
		Filter:  &ir.ColumnExpression{Column: ir.Column{Name: "title"}, Operator: ir.OpEq, Value: "Cheese", Negate: true},
	}
	if got := render.Render(stmt).FullPath; got != "/books?title=not.eq.Cheese" {
		t.Fatalf("FullPath = %q", got)
	}
}
