package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"maps"
	"math/big"

	"github.com/zephyrtronium/formulas"
)

// evalRows evaluates f once for each row produced by query. Numeric columns
// are bound as variables named by the column at the given precision, on top
// of given. Other columns, including NULLs, are left unbound. Evaluation errors
// are printed in place of results; only database errors end the run.
func evalRows(ctx context.Context, db *sql.DB, query string, f *formulas.Formula[*big.Float], given map[string]*big.Float, prec uint, w io.Writer, verb string) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		vars := maps.Clone(given)
		if vars == nil {
			vars = make(map[string]*big.Float, len(cols))
		}
		for i, c := range cols {
			if x := column(vals[i], prec); x != nil {
				vars[c] = x
			}
		}
		r, err := f.Eval(vars)
		if err != nil {
			fmt.Fprintln(w, err)
			continue
		}
		fmt.Fprintf(w, verb, r)
	}
	return rows.Err()
}

// column converts a scanned column value to a number, or nil if it isn't one.
func column(v any, prec uint) *big.Float {
	x := new(big.Float).SetPrec(prec)
	switch v := v.(type) {
	case int64:
		return x.SetInt64(v)
	case float64:
		if v != v {
			return nil
		}
		return x.SetFloat64(v)
	case []byte:
		if _, ok := x.SetString(string(v)); ok {
			return x
		}
	case string:
		if _, ok := x.SetString(v); ok {
			return x
		}
	}
	return nil
}
