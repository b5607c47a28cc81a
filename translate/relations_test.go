package translate

import (
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

func parseSelect(t *testing.T, sql string) *pg_query.SelectStmt {
	t.Helper()
	result, err := pg_query.Parse(sql)
	if err != nil {
		t.Fatalf("parse(%q): %v", sql, err)
	}
	stmt := result.Stmts[0].Stmt.GetSelectStmt()
	if stmt == nil {
		t.Fatalf("parse(%q): not a SELECT", sql)
	}
	return stmt
}

func TestResolveFromNestedJoinChain(t *testing.T) {
	stmt := parseSelect(t, `
		select * from books
		join authors on books.author_id = authors.id
		join publishers on authors.publisher_id = publishers.id
	`)

	rt, err := resolveFrom(stmt.FromClause)
	if err != nil {
		t.Fatalf("resolveFrom: %v", err)
	}

	if rt.primary.name != "books" {
		t.Fatalf("primary = %q, want books", rt.primary.name)
	}

	authors, ok := rt.lookup("authors")
	if !ok {
		t.Fatalf("expected authors to be resolved")
	}
	if authors.parent != rt.primary {
		t.Fatalf("authors should be a direct child of the primary relation")
	}

	publishers, ok := rt.lookup("publishers")
	if !ok {
		t.Fatalf("expected publishers to be resolved")
	}
	if publishers.parent != authors {
		t.Fatalf("publishers should be a child of authors, not the primary relation")
	}
	if publishers.qualifier.Parent.Relation != "authors" || publishers.qualifier.Parent.Column != "publisher_id" {
		t.Fatalf("unexpected join qualifier: %+v", publishers.qualifier)
	}
}

func TestResolveFromRejectsSelfJoin(t *testing.T) {
	stmt := parseSelect(t, `select * from books join authors on authors.id = authors.id`)
	if _, err := resolveFrom(stmt.FromClause); err == nil {
		t.Fatalf("expected SelfJoinUnsupported")
	}
}

func TestResolveFromHonorsAlias(t *testing.T) {
	stmt := parseSelect(t, `select * from books b join authors a on b.author_id = a.id`)
	rt, err := resolveFrom(stmt.FromClause)
	if err != nil {
		t.Fatalf("resolveFrom: %v", err)
	}
	if rt.primary.refName != "b" {
		t.Fatalf("primary refName = %q, want b", rt.primary.refName)
	}
	if _, found := rt.lookup("authors"); found {
		t.Fatalf("aliased relation must not be reachable by its original name")
	}
	if _, found := rt.lookup("a"); !found {
		t.Fatalf("expected aliased relation to be reachable by its alias")
	}
}
