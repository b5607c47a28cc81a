// Package config defines the YAML configuration loaded by cmd/sqlxlate.
// The translator itself is pure and stateless; only the CLI reads
// configuration.
package config

type (
	// Config is the root CLI configuration.
	Config struct {
		// Defaults controls fallback behavior for clauses a query omits.
		Defaults Defaults `yaml:"defaults" json:"defaults,optional"`
		// Fixtures is a named map of relations describing e2e seed data;
		// a declarative stand-in for the schema introspection the
		// translator itself never performs. It is loaded but not read by
		// the e2e suite, which seeds its PostgreSQL container from
		// e2e/migrations/pg/fixtures.sql.
		Fixtures Fixtures `yaml:"fixtures" json:"fixtures,optional"`
	}

	// Defaults holds CLI-level fallback behavior. Nothing here changes
	// translation semantics; it only affects what cmd/sqlxlate prints or
	// assumes when a query is silent on a clause.
	Defaults struct {
		// Limit is applied by the CLI when a SELECT has no LIMIT, so
		// "translate" output always shows a bounded request. 0 means
		// no default is applied.
		Limit int `yaml:"limit" json:"limit,optional"`
		// RejectUnknownCasts makes "validate" fail closed on a cast name
		// that isn't in KnownCasts, instead of passing it through
		// verbatim.
		RejectUnknownCasts bool `yaml:"rejectUnknownCasts" json:"rejectUnknownCasts,optional"`
		// KnownCasts is the allow-list consulted when RejectUnknownCasts
		// is set.
		KnownCasts []string `yaml:"knownCasts" json:"knownCasts,optional"`
	}

	// Fixtures is a named map of relations for e2e seeding.
	Fixtures map[string]Fixture

	// Fixture describes one table's DDL and seed rows for the e2e suite.
	Fixture struct {
		// Table is the relation name; defaults to the map key.
		Table string `yaml:"table" json:"table,optional"`
		// Columns is "name type" pairs, e.g. "title text".
		Columns []string `yaml:"columns" json:"columns,optional"`
		// Rows is one map per seeded row, keyed by column name.
		Rows []map[string]interface{} `yaml:"rows" json:"rows,optional"`
	}
)

// TableName returns the relation name a Fixture seeds, honoring an explicit
// Table override.
func (f Fixture) TableName(key string) string {
	if f.Table != "" {
		return f.Table
	}
	return key
}
