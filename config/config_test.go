package config_test

import (
	"testing"

	"github.com/zeromicro/go-zero/core/conf"

	"github.com/xcono/pgrest-translate/config"
)

const sampleYAML = `
defaults:
  limit: 100
  rejectUnknownCasts: true
  knownCasts:
    - float
    - int
    - text
fixtures:
  books:
    table: books
    columns:
      - "title text"
      - "description text"
    rows:
      - title: Cheese
        description: a book about cheese
`

func TestLoadFromYAML(t *testing.T) {
	var c config.Config
	if err := conf.LoadFromYamlBytes([]byte(sampleYAML), &c); err != nil {
		t.Fatalf("LoadFromYamlBytes: %v", err)
	}

	if c.Defaults.Limit != 100 {
		t.Fatalf("Defaults.Limit = %d, want 100", c.Defaults.Limit)
	}
	if !c.Defaults.RejectUnknownCasts {
		t.Fatalf("Defaults.RejectUnknownCasts = false, want true")
	}
	if len(c.Defaults.KnownCasts) != 3 {
		t.Fatalf("Defaults.KnownCasts = %v, want 3 entries", c.Defaults.KnownCasts)
	}

	books, ok := c.Fixtures["books"]
	if !ok {
		t.Fatalf("expected a books fixture")
	}
	if books.TableName("books") != "books" {
		t.Fatalf("TableName = %q, want books", books.TableName("books"))
	}
	if len(books.Rows) != 1 || books.Rows[0]["title"] != "Cheese" {
		t.Fatalf("unexpected fixture rows: %+v", books.Rows)
	}
}

func TestFixtureTableNameDefaultsToKey(t *testing.T) {
	f := config.Fixture{}
	if f.TableName("orders") != "orders" {
		t.Fatalf("TableName without override should default to the map key")
	}
}
