package vtab

import "github.com/hugr-lab/airport-vtable/table"

// IndexConstraint is one predicate term the engine offers during planning.
type IndexConstraint struct {
	// Column is the 0-based schema index of the constrained column, -1 for rowid.
	Column int
	// Op is the comparison operator.
	Op table.Op
	// Usable is false for terms the engine cannot supply a value for, including
	// every term of a disjunctive (OR) group.
	Usable bool
}

// OrderBy describes one ORDER BY term.
type OrderBy struct {
	Column int
	Desc   bool
}

// IndexInfoInput is what the engine passes to BestIndex.
type IndexInfoInput struct {
	Constraints []IndexConstraint
	OrderBy     []OrderBy
	// ColUsed is a mask of the columns the statement reads.
	ColUsed uint64
}

// ConstraintUsage tells the engine how a constraint offered in IndexInfoInput is consumed.
type ConstraintUsage struct {
	// ArgvIndex is the 1-based position of the constraint's literal in the argument
	// list passed to Cursor.Filter. Zero means the constraint is not pushed down.
	ArgvIndex int
	// Omit would let the engine skip re-checking the constraint. Never set by the adapter.
	Omit bool
}

// IndexInfoOutput is the plan chosen by BestIndex.
type IndexInfoOutput struct {
	// ConstraintUsage is parallel to IndexInfoInput.Constraints.
	ConstraintUsage []ConstraintUsage
	IndexNumber     int
	IndexString     string
	OrderByConsumed bool
	EstimatedCost   float64
	EstimatedRows   int64
}

// Args arranges per-constraint literals in the order the adapter expects them at
// Filter time: literal i goes to position ConstraintUsage[i].ArgvIndex.
// literals must be parallel to the constraints offered to BestIndex.
func (out *IndexInfoOutput) Args(literals []any) ([]any, error) {
	if len(literals) != len(out.ConstraintUsage) {
		return nil, &BoundsError{Kind: "literal", Index: len(literals), Limit: len(out.ConstraintUsage)}
	}
	n := 0
	for _, u := range out.ConstraintUsage {
		if u.ArgvIndex > n {
			n = u.ArgvIndex
		}
	}
	args := make([]any, n)
	for i, u := range out.ConstraintUsage {
		if u.ArgvIndex > 0 {
			args[u.ArgvIndex-1] = literals[i]
		}
	}
	return args, nil
}
