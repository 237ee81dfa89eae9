// Package pushdown translates parsed DuckDB filters into the index constraints a
// virtual table negotiates over.
package pushdown

import (
	"strings"

	"github.com/hugr-lab/airport-vtable/filter"
	"github.com/hugr-lab/airport-vtable/table"
	"github.com/hugr-lab/airport-vtable/vtab"
)

// Candidate is one predicate term offered to BestIndex together with the literal
// the engine will supply if the term is accepted.
type Candidate struct {
	Column  int
	Op      table.Op
	Usable  bool
	Literal any
}

var comparisonOps = map[filter.ExpressionType]table.Op{
	filter.TypeCompareEqual:              table.OpEQ,
	filter.TypeCompareNotEqual:           table.OpNE,
	filter.TypeCompareLessThan:           table.OpLT,
	filter.TypeCompareLessThanOrEqual:    table.OpLE,
	filter.TypeCompareGreaterThan:        table.OpGT,
	filter.TypeCompareGreaterThanOrEqual: table.OpGE,
}

// flipped is the operator to use when the constant is on the left.
var flipped = map[table.Op]table.Op{
	table.OpEQ: table.OpEQ,
	table.OpNE: table.OpNE,
	table.OpLT: table.OpGT,
	table.OpLE: table.OpGE,
	table.OpGT: table.OpLT,
	table.OpGE: table.OpLE,
}

var functionOps = map[string]table.Op{
	"~~":                table.OpLike,
	"like":              table.OpLike,
	"~~~":               table.OpGlob,
	"glob":              table.OpGlob,
	"regexp_matches":    table.OpRegexp,
	"regexp_full_match": table.OpRegexp,
}

// Plan walks the top-level filters and returns the candidates in the order they
// appear. Terms inside an OR group, and terms where a CAST wraps the column or the
// literal, are returned with Usable false: the engine compares the cast values,
// which the column's own affinity cannot reproduce.
// Shapes with no single-column literal form are skipped.
func Plan(fp *filter.FilterPushdown, schema table.Schema) []Candidate {
	if fp == nil {
		return nil
	}
	p := &planner{fp: fp, schema: schema}
	for _, expr := range fp.Filters {
		p.collect(expr, true)
	}
	return p.out
}

// Input converts candidates into the BestIndex request and the literal list
// parallel to its constraints.
func Input(cands []Candidate, colUsed uint64) (*vtab.IndexInfoInput, []any) {
	in := &vtab.IndexInfoInput{
		Constraints: make([]vtab.IndexConstraint, len(cands)),
		ColUsed:     colUsed,
	}
	literals := make([]any, len(cands))
	for i, c := range cands {
		in.Constraints[i] = vtab.IndexConstraint{Column: c.Column, Op: c.Op, Usable: c.Usable}
		literals[i] = c.Literal
	}
	return in, literals
}

type planner struct {
	fp     *filter.FilterPushdown
	schema table.Schema
	out    []Candidate
}

func (p *planner) collect(expr filter.Expression, usable bool) {
	switch e := expr.(type) {
	case *filter.ConjunctionExpression:
		if e.Type() == filter.TypeConjunctionOr {
			usable = false
		}
		for _, child := range e.Children {
			p.collect(child, usable)
		}

	case *filter.ComparisonExpression:
		op, ok := comparisonOps[e.Type()]
		if !ok {
			return
		}
		if col, ok := p.column(e.Left); ok {
			if lit, ok := literal(e.Right); ok {
				p.add(col, op, usable, lit)
			}
			return
		}
		if col, ok := p.column(e.Right); ok {
			if lit, ok := literal(e.Left); ok {
				p.add(col, flipped[op], usable, lit)
			}
		}

	case *filter.BetweenExpression:
		col, ok := p.column(e.Input)
		if !ok {
			return
		}
		lower, lok := literal(e.Lower)
		upper, uok := literal(e.Upper)
		if lok {
			op := table.OpGT
			if e.LowerInclusive {
				op = table.OpGE
			}
			p.add(col, op, usable, lower)
		}
		if uok {
			op := table.OpLT
			if e.UpperInclusive {
				op = table.OpLE
			}
			p.add(col, op, usable, upper)
		}

	case *filter.FunctionExpression:
		op, ok := functionOps[strings.ToLower(e.Name)]
		if !ok || len(e.Children) != 2 {
			return
		}
		col, ok := p.column(e.Children[0])
		if !ok {
			return
		}
		if lit, ok := literal(e.Children[1]); ok {
			p.add(col, op, usable, lit)
		}
	}
}

// operand is a resolved side of a predicate. cast is set when a CAST was looked through.
type operand struct {
	column int
	value  any
	cast   bool
}

func (p *planner) add(col operand, op table.Op, usable bool, lit operand) {
	p.out = append(p.out, Candidate{
		Column:  col.column,
		Op:      op,
		Usable:  usable && !col.cast && !lit.cast,
		Literal: lit.value,
	})
}

func uncast(expr filter.Expression) (filter.Expression, bool) {
	cast := false
	for {
		c, ok := expr.(*filter.CastExpression)
		if !ok {
			return expr, cast
		}
		expr, cast = c.Child, true
	}
}

// column resolves a column reference, looking through casts, to its schema index.
func (p *planner) column(expr filter.Expression) (operand, bool) {
	expr, cast := uncast(expr)
	ref, ok := expr.(*filter.ColumnRefExpression)
	if !ok {
		return operand{}, false
	}
	name, err := p.fp.ColumnName(ref)
	if err != nil {
		return operand{}, false
	}
	idx := p.schema.Index(name)
	return operand{column: idx, cast: cast}, idx >= 0
}

// literal returns the scalar value of a non-NULL constant, looking through casts.
func literal(expr filter.Expression) (operand, bool) {
	expr, cast := uncast(expr)
	c, ok := expr.(*filter.ConstantExpression)
	if !ok || c.Value.IsNull {
		return operand{}, false
	}
	switch c.Value.Data.(type) {
	case bool, int64, uint64, float64, string:
		return operand{value: c.Value.Data, cast: cast}, true
	}
	return operand{}, false
}
