package filter

import (
	"encoding/json"
	"fmt"
)

// Parse parses filter pushdown JSON. Empty input yields an empty FilterPushdown.
// Expression classes this package does not model parse to *UnsupportedExpression.
func Parse(data []byte) (*FilterPushdown, error) {
	if len(data) == 0 {
		return &FilterPushdown{}, nil
	}

	var raw struct {
		Filters        []json.RawMessage `json:"filters"`
		ColumnBindings []string          `json:"column_binding_names_by_index"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("filter: invalid JSON: %w", err)
	}

	fp := &FilterPushdown{
		ColumnBindings: raw.ColumnBindings,
		Filters:        make([]Expression, 0, len(raw.Filters)),
	}
	for i, rawExpr := range raw.Filters {
		expr, err := parseExpression(rawExpr)
		if err != nil {
			return nil, fmt.Errorf("filter: error parsing filter %d: %w", i, err)
		}
		fp.Filters = append(fp.Filters, expr)
	}
	return fp, nil
}

// rawExpression is the union of every field the modelled classes use.
type rawExpression struct {
	ExpressionClass string            `json:"expression_class"`
	Type            string            `json:"type"`
	Alias           string            `json:"alias"`
	Left            json.RawMessage   `json:"left"`
	Right           json.RawMessage   `json:"right"`
	Children        []json.RawMessage `json:"children"`
	Value           json.RawMessage   `json:"value"`
	ReturnType      json.RawMessage   `json:"return_type"`
	Binding         ColumnBinding     `json:"binding"`
	Depth           int               `json:"depth"`
	Name            string            `json:"name"`
	IsOperator      bool              `json:"is_operator"`
	Child           json.RawMessage   `json:"child"`
	TryCast         bool              `json:"try_cast"`
	Input           json.RawMessage   `json:"input"`
	Lower           json.RawMessage   `json:"lower"`
	Upper           json.RawMessage   `json:"upper"`
	LowerInclusive  bool              `json:"lower_inclusive"`
	UpperInclusive  bool              `json:"upper_inclusive"`
}

func parseExpression(data json.RawMessage) (Expression, error) {
	var raw rawExpression
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}
	base := BaseExpression{
		ExprClass: ExpressionClass(raw.ExpressionClass),
		ExprType:  ExpressionType(raw.Type),
		ExprAlias: raw.Alias,
	}

	switch base.ExprClass {
	case ClassBoundComparison:
		left, err := parseExpression(raw.Left)
		if err != nil {
			return nil, fmt.Errorf("invalid left operand: %w", err)
		}
		right, err := parseExpression(raw.Right)
		if err != nil {
			return nil, fmt.Errorf("invalid right operand: %w", err)
		}
		return &ComparisonExpression{BaseExpression: base, Left: left, Right: right}, nil

	case ClassBoundConjunction:
		children, err := parseChildren(raw.Children)
		if err != nil {
			return nil, err
		}
		return &ConjunctionExpression{BaseExpression: base, Children: children}, nil

	case ClassBoundConstant:
		value, err := parseValue(raw.Value)
		if err != nil {
			return nil, err
		}
		return &ConstantExpression{BaseExpression: base, Value: value}, nil

	case ClassBoundColumnRef:
		rt, err := parseLogicalType(raw.ReturnType)
		if err != nil {
			return nil, fmt.Errorf("invalid return type: %w", err)
		}
		return &ColumnRefExpression{BaseExpression: base, Binding: raw.Binding, ReturnType: rt, Depth: raw.Depth}, nil

	case ClassBoundFunction:
		rt, err := parseLogicalType(raw.ReturnType)
		if err != nil {
			return nil, fmt.Errorf("invalid return type: %w", err)
		}
		children, err := parseChildren(raw.Children)
		if err != nil {
			return nil, err
		}
		return &FunctionExpression{
			BaseExpression: base,
			Name:           raw.Name,
			Children:       children,
			ReturnType:     rt,
			IsOperator:     raw.IsOperator,
		}, nil

	case ClassBoundCast:
		child, err := parseExpression(raw.Child)
		if err != nil {
			return nil, fmt.Errorf("invalid child: %w", err)
		}
		rt, err := parseLogicalType(raw.ReturnType)
		if err != nil {
			return nil, fmt.Errorf("invalid return type: %w", err)
		}
		return &CastExpression{BaseExpression: base, Child: child, ReturnType: rt, TryCast: raw.TryCast}, nil

	case ClassBoundBetween:
		input, err := parseExpression(raw.Input)
		if err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}
		lower, err := parseExpression(raw.Lower)
		if err != nil {
			return nil, fmt.Errorf("invalid lower bound: %w", err)
		}
		upper, err := parseExpression(raw.Upper)
		if err != nil {
			return nil, fmt.Errorf("invalid upper bound: %w", err)
		}
		return &BetweenExpression{
			BaseExpression: base,
			Input:          input,
			Lower:          lower,
			Upper:          upper,
			LowerInclusive: raw.LowerInclusive,
			UpperInclusive: raw.UpperInclusive,
		}, nil

	case ClassBoundOperator:
		rt, err := parseLogicalType(raw.ReturnType)
		if err != nil {
			return nil, fmt.Errorf("invalid return type: %w", err)
		}
		children, err := parseChildren(raw.Children)
		if err != nil {
			return nil, err
		}
		return &OperatorExpression{BaseExpression: base, Children: children, ReturnType: rt}, nil

	default:
		return &UnsupportedExpression{BaseExpression: base}, nil
	}
}

func parseChildren(raw []json.RawMessage) ([]Expression, error) {
	children := make([]Expression, 0, len(raw))
	for i, child := range raw {
		expr, err := parseExpression(child)
		if err != nil {
			return nil, fmt.Errorf("invalid child %d: %w", i, err)
		}
		children = append(children, expr)
	}
	return children, nil
}
