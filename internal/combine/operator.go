package combine

import (
	"fmt"
	"math"

	"github.com/roach88/probcal/internal/cube"
)

// Operator names an arithmetic or reduction operation.
type Operator string

const (
	OpAdd      Operator = "add"
	OpSubtract Operator = "subtract"
	OpMultiply Operator = "multiply"
	OpDivide   Operator = "divide"
	OpMean     Operator = "mean"
	OpMin      Operator = "min"
	OpMax      Operator = "max"
)

// operatorAliases maps every accepted spelling to its canonical Operator.
var operatorAliases = map[string]Operator{
	"add": OpAdd, "+": OpAdd,
	"subtract": OpSubtract, "-": OpSubtract,
	"multiply": OpMultiply, "*": OpMultiply,
	"divide": OpDivide, "/": OpDivide,
	"mean": OpMean,
	"min":  OpMin,
	"max":  OpMax,
}

// ValidOperators lists canonical operator names in documentation order.
var ValidOperators = []Operator{OpAdd, OpSubtract, OpMultiply, OpDivide, OpMean, OpMin, OpMax}

// ParseOperator resolves an operator name or symbol.
func ParseOperator(s string) (Operator, error) {
	op, ok := operatorAliases[s]
	if !ok {
		return "", &cube.Error{
			Kind:     cube.KindConfiguration,
			Message:  fmt.Sprintf("unknown operation %q: must be one of %v", s, ValidOperators),
			Operator: s,
		}
	}
	return op, nil
}

// IsReduction reports whether the operator reduces across the whole set in
// one pass (order-independent) rather than folding left to right.
func (op Operator) IsReduction() bool {
	return op == OpMean || op == OpMin || op == OpMax
}

// fold applies a binary operator in float32 arithmetic.
func (op Operator) fold(acc, v float32) float32 {
	switch op {
	case OpSubtract:
		return acc - v
	case OpMultiply:
		return acc * v
	case OpDivide:
		return acc / v
	default:
		return acc + v
	}
}

// reduce applies a reduction operator across one element of every input.
func (op Operator) reduce(vals []float32) float32 {
	switch op {
	case OpMin:
		m := float64(vals[0])
		for _, v := range vals[1:] {
			m = math.Min(m, float64(v))
		}
		return float32(m)
	case OpMax:
		m := float64(vals[0])
		for _, v := range vals[1:] {
			m = math.Max(m, float64(v))
		}
		return float32(m)
	default:
		var sum float64
		for _, v := range vals {
			sum += float64(v)
		}
		return float32(sum / float64(len(vals)))
	}
}
