package storage

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// foldFunc is the sqlite scalar that lowercases with Unicode rules.
// The built-in LOWER only folds ASCII.
const foldFunc = "dbt_fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, foldScalar)
}

func foldScalar(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// Fold wraps a text expression so it compares case-insensitively against a
// pattern lowered with strings.ToLower, on either dialect
func (db *DB) Fold(expr string) string {
	if db.dialect == DialectSQLite {
		return foldFunc + "(" + expr + ")"
	}
	return "LOWER(" + expr + ")"
}
