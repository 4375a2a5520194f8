package query

import (
	"github.com/vegasq/insight/dataset"
)

// Top-level and nested keys of a query document.
const (
	keyWhere           = "WHERE"
	keyOptions         = "OPTIONS"
	keyTransformations = "TRANSFORMATIONS"
	keyColumns         = "COLUMNS"
	keyOrder           = "ORDER"
	keyDir             = "dir"
	keyKeys            = "keys"
	keyGroup           = "GROUP"
	keyApply           = "APPLY"
)

// Query is a validated query plan bound to one dataset.
type Query struct {
	// Dataset is the id every qualified name in the query refers to.
	Dataset string

	Where           Filter
	Columns         []string
	Order           *Order
	Transformations *Transformation
}

// Filter is a node of a WHERE tree. The set of implementations is closed:
// MatchAll, And, Or, Not, NumericComparison and TextComparison.
type Filter interface {
	filterNode()
}

// MatchAll is the empty WHERE clause.
type MatchAll struct{}

// And holds when every child holds.
type And struct {
	Filters []Filter
}

// Or holds when any child holds.
type Or struct {
	Filters []Filter
}

// Not inverts its child.
type Not struct {
	Filter Filter
}

// Comparator is a numeric comparison operator.
type Comparator int

const (
	LT Comparator = iota
	GT
	EQ
)

func (c Comparator) String() string {
	switch c {
	case LT:
		return "LT"
	case GT:
		return "GT"
	case EQ:
		return "EQ"
	default:
		return "?"
	}
}

var comparators = map[string]Comparator{
	"LT": LT,
	"GT": GT,
	"EQ": EQ,
}

// NumericComparison compares a numeric field against a literal.
type NumericComparison struct {
	Op    Comparator
	Field string
	Value float64
}

// TextComparison matches a textual field against a pattern that may start
// and/or end with the wildcard '*'.
type TextComparison struct {
	Field   string
	Pattern string
}

func (MatchAll) filterNode()          {}
func (And) filterNode()               {}
func (Or) filterNode()                {}
func (Not) filterNode()               {}
func (NumericComparison) filterNode() {}
func (TextComparison) filterNode()    {}

// Aggregator is an APPLY operator.
type Aggregator string

const (
	Max   Aggregator = "MAX"
	Min   Aggregator = "MIN"
	Avg   Aggregator = "AVG"
	Count Aggregator = "COUNT"
	Sum   Aggregator = "SUM"
)

var aggregators = map[string]Aggregator{
	"MAX":   Max,
	"MIN":   Min,
	"AVG":   Avg,
	"COUNT": Count,
	"SUM":   Sum,
}

// numericOnly reports whether the operator requires a numeric source field.
func (a Aggregator) numericOnly() bool {
	return a != Count
}

// ApplySpec names one aggregate output of a transformation.
type ApplySpec struct {
	Name  string
	Op    Aggregator
	Field string
}

// Transformation groups rows by Group and computes Apply per group.
type Transformation struct {
	Group []string
	Apply []ApplySpec
}

// applyNames returns the set of aggregate output names.
func (t *Transformation) applyNames() map[string]struct{} {
	names := make(map[string]struct{}, len(t.Apply))
	for _, a := range t.Apply {
		names[a.Name] = struct{}{}
	}
	return names
}

// Order is an ORDER clause. A plain string ORDER becomes a single ascending
// key with Hierarchical unset.
type Order struct {
	Keys         []string
	Descending   bool
	Hierarchical bool
}

// Result is the outcome of a query: rows restricted to Columns, in order.
type Result struct {
	Columns []string
	Rows    []dataset.Row
}
