package database

// NullValue is the textual value stored for SQL NULL columns.
const NullValue = "NULL"

// Row maps column names to textual values.
type Row map[string]string

// Rows is an ordered sequence of rows.
//
// A statement that produces no result set is represented by exactly one
// empty Row; a SELECT matching nothing is an empty, non-nil Rows.
type Rows []Row

func placeholderRows() Rows {
	return Rows{Row{}}
}

// IsPlaceholder reports whether rows is the single empty row returned for
// statements without a result set.
func (rows Rows) IsPlaceholder() bool {
	return len(rows) == 1 && len(rows[0]) == 0
}

// Get returns the value of column in the row, and whether it exists and is
// not NULL.
func (row Row) Get(column string) (string, bool) {
	v, ok := row[column]
	if !ok || v == NullValue {
		return "", false
	}
	return v, true
}
