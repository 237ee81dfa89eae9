package table

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Op is a predicate operator. Values mirror SQLite's index constraint codes so that
// engine-side planners can pass them through unchanged.
type Op uint8

const (
	OpEQ     Op = 2
	OpGT     Op = 4
	OpLE     Op = 8
	OpLT     Op = 16
	OpGE     Op = 32
	OpMatch  Op = 64
	OpLike   Op = 65
	OpGlob   Op = 66
	OpRegexp Op = 67
	OpNE     Op = 68
)

// String returns the SQL spelling of the operator.
func (o Op) String() string {
	switch o {
	case OpEQ:
		return "="
	case OpGT:
		return ">"
	case OpLE:
		return "<="
	case OpLT:
		return "<"
	case OpGE:
		return ">="
	case OpMatch:
		return "MATCH"
	case OpLike:
		return "LIKE"
	case OpGlob:
		return "GLOB"
	case OpRegexp:
		return "REGEXP"
	case OpNE:
		return "<>"
	default:
		return fmt.Sprintf("OP(%d)", uint8(o))
	}
}

// Constraint is one predicate term. The operator is fixed when the engine negotiates
// the plan; Expr is filled in when the engine supplies the literal at execution time.
type Constraint struct {
	Op   Op
	Expr string
}

// Sentinel is what the engine reads for INTEGER and BIGINT values that fail to parse.
const Sentinel = -1

// Matches reports whether value satisfies the constraint under the given affinity.
//
// Integer affinities compare numerically against the value the engine will see,
// so a value that does not parse compares as Sentinel. A literal that is not a
// number keeps the row; the engine decides. A constraint is a hint and matching
// errs towards keeping rows: an invalid pattern matches everything.
func (c Constraint) Matches(affinity ColumnType, value string) bool {
	re, isPattern, err := compilePattern(c)
	if isPattern {
		return matchPattern(re, err, value)
	}
	return c.compare(affinity, value)
}

func matchPattern(re *regexp.Regexp, err error, value string) bool {
	if err != nil {
		return true
	}
	return re.MatchString(value)
}

func (c Constraint) compare(affinity ColumnType, value string) bool {
	var order int
	switch affinity {
	case Integer, BigInt:
		var ok bool
		if order, ok = compareNumeric(engineInteger(affinity, value), strings.TrimSpace(c.Expr)); !ok {
			return true
		}
	default:
		order = strings.Compare(value, c.Expr)
	}

	switch c.Op {
	case OpEQ:
		return order == 0
	case OpNE:
		return order != 0
	case OpLT:
		return order < 0
	case OpLE:
		return order <= 0
	case OpGT:
		return order > 0
	case OpGE:
		return order >= 0
	}
	return true
}

// engineInteger parses value the way column reads coerce it.
func engineInteger(affinity ColumnType, value string) int64 {
	bits := 64
	if affinity == Integer {
		bits = 32
	}
	n, err := strconv.ParseInt(value, 10, bits)
	if err != nil {
		return Sentinel
	}
	return n
}

// compareNumeric compares v with a numeric literal. Integral literals compare
// exactly, others as float64. ok is false when the literal is not a number.
func compareNumeric(v int64, literal string) (int, bool) {
	if lit, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return cmp.Compare(v, lit), true
	}
	lit, err := strconv.ParseFloat(literal, 64)
	if err != nil || math.IsNaN(lit) {
		return 0, false
	}
	return cmp.Compare(float64(v), lit), true
}

// ConstraintList holds the constraints that apply to a single column together with
// the column's declared affinity. Pattern constraints are compiled on first use, so
// a list is not safe for concurrent Matches calls.
type ConstraintList struct {
	Affinity    ColumnType
	Constraints []Constraint

	patterns map[Constraint]compiledPattern
}

type compiledPattern struct {
	re  *regexp.Regexp
	err error
}

// Add appends a constraint.
func (cl *ConstraintList) Add(c Constraint) {
	cl.Constraints = append(cl.Constraints, c)
}

// Len returns the number of constraints. Safe on a nil list.
func (cl *ConstraintList) Len() int {
	if cl == nil {
		return 0
	}
	return len(cl.Constraints)
}

// Exists reports whether any constraint uses op.
func (cl *ConstraintList) Exists(op Op) bool {
	if cl == nil {
		return false
	}
	for _, c := range cl.Constraints {
		if c.Op == op {
			return true
		}
	}
	return false
}

// GetAll returns the literals of every constraint using op, in negotiation order.
func (cl *ConstraintList) GetAll(op Op) []string {
	if cl == nil {
		return nil
	}
	var out []string
	for _, c := range cl.Constraints {
		if c.Op == op {
			out = append(out, c.Expr)
		}
	}
	return out
}

// Matches reports whether value satisfies every constraint in the list.
// An empty list matches everything.
func (cl *ConstraintList) Matches(value string) bool {
	if cl == nil {
		return true
	}
	for _, c := range cl.Constraints {
		if !cl.match(c, value) {
			return false
		}
	}
	return true
}

func (cl *ConstraintList) match(c Constraint, value string) bool {
	p, ok := cl.patterns[c]
	if !ok {
		re, isPattern, err := compilePattern(c)
		if !isPattern {
			return c.compare(cl.Affinity, value)
		}
		if cl.patterns == nil {
			cl.patterns = make(map[Constraint]compiledPattern)
		}
		p = compiledPattern{re: re, err: err}
		cl.patterns[c] = p
	}
	return matchPattern(p.re, p.err, value)
}

// ColumnConstraint pairs a column name with one of its constraints.
type ColumnConstraint struct {
	Column     string
	Constraint Constraint
}

// ErrPositionOutOfRange is returned when a literal is bound to a position that
// was never assigned during negotiation.
var ErrPositionOutOfRange = errors.New("constraint position out of range")

// ConstraintSet is the ordered list of constraints accepted while negotiating a plan.
// Insertion order is the order in which the engine supplies literals, so entries are
// never reordered or de-duplicated.
type ConstraintSet struct {
	items []ColumnConstraint
}

// Propose appends a constraint for column with operator op and returns its
// 1-based position.
func (s *ConstraintSet) Propose(column string, op Op) int {
	s.items = append(s.items, ColumnConstraint{Column: column, Constraint: Constraint{Op: op}})
	return len(s.items)
}

// Bind writes the literal for the constraint at the 1-based position.
func (s *ConstraintSet) Bind(position int, expr string) error {
	if position < 1 || position > len(s.items) {
		return fmt.Errorf("%w: %d (have %d)", ErrPositionOutOfRange, position, len(s.items))
	}
	s.items[position-1].Constraint.Expr = expr
	return nil
}

// Len returns the number of accepted constraints.
func (s *ConstraintSet) Len() int {
	return len(s.items)
}

// At returns the constraint at the 0-based index i.
func (s *ConstraintSet) At(i int) ColumnConstraint {
	return s.items[i]
}

// Reset drops every constraint. Used when the engine starts a new negotiation.
func (s *ConstraintSet) Reset() {
	s.items = s.items[:0]
}

// QueryContext groups the set by column and attaches each column's declared
// affinity from schema.
func (s *ConstraintSet) QueryContext(schema Schema) *QueryContext {
	qc := NewQueryContext(schema)
	for _, item := range s.items {
		qc.Add(item.Column, item.Constraint)
	}
	return qc
}
