package cclnav

import (
	"regexp"
	"strconv"
	"strings"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

// Shape classifies the textual form of an attribute value
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeNumber
	ShapeQuantity
	ShapeVector
	ShapeText
)

func (s Shape) String() string {
	switch s {
	case ShapeEmpty:
		return "empty"
	case ShapeNumber:
		return "number"
	case ShapeQuantity:
		return "quantity"
	case ShapeVector:
		return "vector"
	default:
		return "text"
	}
}

var quantityPattern = regexp.MustCompile(`^(\S+)\s*\[([^\[\]]*)\]$`)

// ShapeOf returns the shape of a value
func ShapeOf(value string) Shape {
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		return ShapeEmpty
	case isNumber(v):
		return ShapeNumber
	case isQuantity(v):
		return ShapeQuantity
	case isVector(v):
		return ShapeVector
	default:
		return ShapeText
	}
}

func isNumber(v string) bool {
	if strings.ContainsAny(v, "nNiI") {
		// keep NaN, Inf and friends as text
		lower := strings.ToLower(v)
		if strings.Contains(lower, "nan") || strings.Contains(lower, "inf") {
			return false
		}
	}
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

func isQuantity(v string) bool {
	m := quantityPattern.FindStringSubmatch(v)
	return m != nil && isNumber(m[1])
}

func isVector(v string) bool {
	if !strings.Contains(v, ",") {
		return false
	}
	for _, part := range strings.Split(v, ",") {
		p := strings.TrimSpace(part)
		if !isNumber(p) && !isQuantity(p) {
			return false
		}
	}
	return true
}

// Quantity is a number with an optional engineering unit, written "10 [s]"
type Quantity struct {
	Value float64
	Unit  string
}

// ParseQuantity parses "<number> [<unit>]" or a bare number
func ParseQuantity(s string) (Quantity, error) {
	v := strings.TrimSpace(s)
	if isNumber(v) {
		f, _ := strconv.ParseFloat(v, 64)
		return Quantity{Value: f}, nil
	}
	m := quantityPattern.FindStringSubmatch(v)
	if m == nil || !isNumber(m[1]) {
		return Quantity{}, cfderror.Newf(cfderror.CodeTypeMismatch, "not a quantity: %q", s)
	}
	f, _ := strconv.ParseFloat(m[1], 64)
	return Quantity{Value: f, Unit: strings.TrimSpace(m[2])}, nil
}

// String formats the quantity in CCL notation
func (q Quantity) String() string {
	num := strconv.FormatFloat(q.Value, 'g', -1, 64)
	if q.Unit == "" {
		return num
	}
	return num + " [" + q.Unit + "]"
}
