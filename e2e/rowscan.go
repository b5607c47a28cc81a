// Package e2e hosts the end-to-end equivalence suite between a direct
// PostgreSQL query and the same query translated and dispatched through
// PostgREST. Most of the package is gated behind the "e2e" build tag since
// it needs live Docker containers; scanRows has no such dependency and is
// exercised directly with go-sqlmock.
package e2e

import "database/sql"

// scanRows reads *sql.Rows into one map per row, keyed by column name, the
// same shape json.Unmarshal produces for a PostgREST response body, so the
// two sides of the comparison line up without a bespoke struct per fixture.
func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = normalizeScanned(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalizeScanned turns driver-specific byte slices (lib/pq returns text
// and numeric columns as []byte) into strings, matching what json.Unmarshal
// of a PostgREST response would produce for the same value.
func normalizeScanned(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
