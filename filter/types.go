// Package filter parses the filter pushdown JSON that DuckDB's Airport extension
// sends with each scan.
//
// Only the expression shapes a row source can act on are modelled in full:
// comparisons, AND/OR groups, constants, column references, casts, BETWEEN,
// function calls and operators. Everything else parses to an UnsupportedExpression
// so a single exotic term never rejects the whole filter.
//
//	fp, err := filter.Parse(opts.Filter)
//	if err != nil {
//	    return err
//	}
//	for _, expr := range fp.Filters {
//	    // every top-level filter is AND'ed
//	}
package filter

import "fmt"

// ExpressionClass identifies the category of expression.
type ExpressionClass string

const (
	ClassBoundCast        ExpressionClass = "BOUND_CAST"
	ClassBoundColumnRef   ExpressionClass = "BOUND_COLUMN_REF"
	ClassBoundComparison  ExpressionClass = "BOUND_COMPARISON"
	ClassBoundConjunction ExpressionClass = "BOUND_CONJUNCTION"
	ClassBoundConstant    ExpressionClass = "BOUND_CONSTANT"
	ClassBoundFunction    ExpressionClass = "BOUND_FUNCTION"
	ClassBoundOperator    ExpressionClass = "BOUND_OPERATOR"
	ClassBoundBetween     ExpressionClass = "BOUND_BETWEEN"
)

// ExpressionType identifies the specific operation.
type ExpressionType string

const (
	TypeCompareEqual              ExpressionType = "COMPARE_EQUAL"
	TypeCompareNotEqual           ExpressionType = "COMPARE_NOTEQUAL"
	TypeCompareLessThan           ExpressionType = "COMPARE_LESSTHAN"
	TypeCompareGreaterThan        ExpressionType = "COMPARE_GREATERTHAN"
	TypeCompareLessThanOrEqual    ExpressionType = "COMPARE_LESSTHANOREQUALTO"
	TypeCompareGreaterThanOrEqual ExpressionType = "COMPARE_GREATERTHANOREQUALTO"
	TypeCompareIn                 ExpressionType = "COMPARE_IN"
	TypeCompareNotIn              ExpressionType = "COMPARE_NOT_IN"
	TypeCompareDistinctFrom       ExpressionType = "COMPARE_DISTINCT_FROM"
	TypeCompareNotDistinctFrom    ExpressionType = "COMPARE_NOT_DISTINCT_FROM"
	TypeCompareBetween            ExpressionType = "COMPARE_BETWEEN"

	TypeConjunctionAnd ExpressionType = "CONJUNCTION_AND"
	TypeConjunctionOr  ExpressionType = "CONJUNCTION_OR"

	TypeOperatorNot       ExpressionType = "OPERATOR_NOT"
	TypeOperatorIsNull    ExpressionType = "OPERATOR_IS_NULL"
	TypeOperatorIsNotNull ExpressionType = "OPERATOR_IS_NOT_NULL"

	TypeValueConstant  ExpressionType = "VALUE_CONSTANT"
	TypeBoundFunction  ExpressionType = "BOUND_FUNCTION"
	TypeCast           ExpressionType = "CAST"
	TypeBoundColumnRef ExpressionType = "BOUND_COLUMN_REF"
)

// Expression is implemented by every parsed filter node.
type Expression interface {
	Class() ExpressionClass
	Type() ExpressionType
	Alias() string

	expressionMarker()
}

// BaseExpression holds the fields every expression carries.
type BaseExpression struct {
	ExprClass ExpressionClass `json:"expression_class"`
	ExprType  ExpressionType  `json:"type"`
	ExprAlias string          `json:"alias"`
}

func (b *BaseExpression) Class() ExpressionClass { return b.ExprClass }
func (b *BaseExpression) Type() ExpressionType   { return b.ExprType }
func (b *BaseExpression) Alias() string          { return b.ExprAlias }
func (b *BaseExpression) expressionMarker()      {}

// ColumnBinding identifies a column by table and column index.
type ColumnBinding struct {
	TableIndex  int `json:"table_index"`
	ColumnIndex int `json:"column_index"`
}

// FilterPushdown is the parsed filter JSON. Filters are implicitly AND'ed.
type FilterPushdown struct {
	Filters []Expression
	// ColumnBindings maps binding column indices to column names.
	ColumnBindings []string
}

// ColumnName resolves the column name a reference is bound to.
func (fp *FilterPushdown) ColumnName(ref *ColumnRefExpression) (string, error) {
	if ref.Binding.ColumnIndex < 0 || ref.Binding.ColumnIndex >= len(fp.ColumnBindings) {
		return "", &ColumnBindingError{Index: ref.Binding.ColumnIndex, Max: len(fp.ColumnBindings)}
	}
	return fp.ColumnBindings[ref.Binding.ColumnIndex], nil
}

// ColumnBindingError indicates a binding index outside the binding list.
type ColumnBindingError struct {
	Index int
	Max   int
}

func (e *ColumnBindingError) Error() string {
	return fmt.Sprintf("invalid column binding index: %d (max: %d)", e.Index, e.Max-1)
}

// ComparisonExpression is a binary comparison.
type ComparisonExpression struct {
	BaseExpression
	Left  Expression
	Right Expression
}

// ConjunctionExpression is an AND or OR over its children.
type ConjunctionExpression struct {
	BaseExpression
	Children []Expression
}

// ConstantExpression is a literal.
type ConstantExpression struct {
	BaseExpression
	Value Value
}

// ColumnRefExpression references a table column.
type ColumnRefExpression struct {
	BaseExpression
	Binding    ColumnBinding
	ReturnType LogicalType
	Depth      int
}

// FunctionExpression is a scalar function call, including operators DuckDB
// lowers to functions such as ~~ (LIKE).
type FunctionExpression struct {
	BaseExpression
	Name       string
	Children   []Expression
	ReturnType LogicalType
	IsOperator bool
}

// CastExpression is CAST or TRY_CAST.
type CastExpression struct {
	BaseExpression
	Child      Expression
	ReturnType LogicalType
	TryCast    bool
}

// BetweenExpression is input BETWEEN lower AND upper.
type BetweenExpression struct {
	BaseExpression
	Input          Expression
	Lower          Expression
	Upper          Expression
	LowerInclusive bool
	UpperInclusive bool
}

// OperatorExpression covers NOT, IS [NOT] NULL and IN lists.
type OperatorExpression struct {
	BaseExpression
	Children   []Expression
	ReturnType LogicalType
}

// UnsupportedExpression stands in for any expression class not modelled above.
type UnsupportedExpression struct {
	BaseExpression
}
