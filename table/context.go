package table

import "sort"

// QueryContext is the pushdown request handed to Plugin.Generate: for every column
// of the table, its declared affinity and the constraints that apply to it.
// It is owned by a single Generate call.
type QueryContext struct {
	constraints map[string]*ConstraintList
}

// NewQueryContext creates a context with an empty constraint list for every column.
func NewQueryContext(schema Schema) *QueryContext {
	qc := &QueryContext{constraints: make(map[string]*ConstraintList, len(schema))}
	for _, col := range schema {
		qc.constraints[col.Name] = &ConstraintList{Affinity: col.Type}
	}
	return qc
}

// Add records a constraint against column. Columns unknown to the schema get TEXT affinity.
func (qc *QueryContext) Add(column string, c Constraint) {
	if qc.constraints == nil {
		qc.constraints = make(map[string]*ConstraintList)
	}
	cl, ok := qc.constraints[column]
	if !ok {
		cl = &ConstraintList{Affinity: Text}
		qc.constraints[column] = cl
	}
	cl.Add(c)
}

// Constraints returns the list for column, or nil when the column is unknown.
func (qc *QueryContext) Constraints(column string) *ConstraintList {
	if qc == nil {
		return nil
	}
	return qc.constraints[column]
}

// HasConstraint reports whether column carries a constraint with op.
func (qc *QueryContext) HasConstraint(column string, op Op) bool {
	return qc.Constraints(column).Exists(op)
}

// GetAll returns every literal constraining column with op.
func (qc *QueryContext) GetAll(column string, op Op) []string {
	return qc.Constraints(column).GetAll(op)
}

// Columns returns the column names in the context, sorted.
func (qc *QueryContext) Columns() []string {
	if qc == nil {
		return nil
	}
	names := make([]string, 0, len(qc.constraints))
	for name := range qc.constraints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Matches reports whether row satisfies every constraint in the context.
// Plugins use it to prune rows they could not avoid generating.
func (qc *QueryContext) Matches(row Row) bool {
	if qc == nil {
		return true
	}
	for column, cl := range qc.constraints {
		if cl.Len() == 0 {
			continue
		}
		if !cl.Matches(row[column]) {
			return false
		}
	}
	return true
}
