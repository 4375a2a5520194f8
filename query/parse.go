package query

import (
	"fmt"
	"strings"

	"github.com/vegasq/insight/schema"
)

const wildcard = "*"

// Limits bounds the work a single query may request.
type Limits struct {
	// MaxResultRows is the largest result a query may return.
	MaxResultRows int
	// MaxFilterDepth bounds the nesting of WHERE.
	MaxFilterDepth int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxResultRows: 5000, MaxFilterDepth: 100}
}

// object is a decoded JSON object.
type object = map[string]interface{}

// CheckShape performs the checks that need no dataset: the document is an
// object with WHERE, OPTIONS and optionally TRANSFORMATIONS, WHERE and
// OPTIONS are objects and COLUMNS is a non-empty list.
func CheckShape(doc interface{}) error {
	q, ok := doc.(object)
	if !ok {
		return invalidf("query is not an object")
	}
	switch len(q) {
	case 2:
	case 3:
		if _, ok := q[keyTransformations]; !ok {
			return invalidf("query has 3 keys but no %s", keyTransformations)
		}
	default:
		return invalidf("query must have 2 or 3 keys, got %d", len(q))
	}

	if _, ok := q[keyWhere].(object); !ok {
		return invalidf("missing or invalid %s", keyWhere)
	}
	opts, ok := q[keyOptions].(object)
	if !ok {
		return invalidf("missing or invalid %s", keyOptions)
	}
	cols, ok := opts[keyColumns].([]interface{})
	if !ok || len(cols) == 0 {
		return invalidf("%s must be a non-empty list", keyColumns)
	}
	return nil
}

// TargetDataset returns the id of the dataset a shape-checked document
// queries: the prefix of the first COLUMNS entry that is a qualified name,
// or else of the first such GROUP entry.
func TargetDataset(doc interface{}) (string, error) {
	q, _ := doc.(object)
	opts, _ := q[keyOptions].(object)
	cols, _ := opts[keyColumns].([]interface{})
	if id, ok := firstPrefix(cols); ok {
		return id, nil
	}
	if trans, ok := q[keyTransformations].(object); ok {
		group, _ := trans[keyGroup].([]interface{})
		if id, ok := firstPrefix(group); ok {
			return id, nil
		}
	}
	return "", invalidf("no dataset key found in %s or %s", keyColumns, keyGroup)
}

func firstPrefix(names []interface{}) (string, bool) {
	for _, n := range names {
		s, ok := n.(string)
		if !ok {
			continue
		}
		if prefix, _, ok := schema.Split(s); ok {
			return prefix, true
		}
	}
	return "", false
}

// parser builds a plan for one dataset.
type parser struct {
	resolver *schema.Resolver
	limits   Limits
}

// Parse validates a document against the dataset the resolver describes and
// returns its plan. Nothing is read from the dataset.
func Parse(doc interface{}, r *schema.Resolver, limits Limits) (*Query, error) {
	if err := CheckShape(doc); err != nil {
		return nil, err
	}
	p := &parser{resolver: r, limits: limits}
	q := doc.(object)

	plan := &Query{Dataset: r.DatasetID}

	var applyNames map[string]struct{}
	if raw, ok := q[keyTransformations]; ok {
		trans, err := p.transformation(raw)
		if err != nil {
			return nil, err
		}
		plan.Transformations = trans
		applyNames = trans.applyNames()
	}

	where, err := p.filter(q[keyWhere], 1)
	if err != nil {
		return nil, err
	}
	plan.Where = where

	if err := p.options(q[keyOptions].(object), plan, applyNames); err != nil {
		return nil, err
	}

	if plan.Transformations != nil {
		group := make(map[string]struct{}, len(plan.Transformations.Group))
		for _, g := range plan.Transformations.Group {
			group[g] = struct{}{}
		}
		for _, c := range plan.Columns {
			_, inGroup := group[c]
			_, isApply := applyNames[c]
			if !inGroup && !isApply {
				return nil, invalidf("column %q is neither a %s key nor an %s name", c, keyGroup, keyApply)
			}
		}
	}
	return plan, nil
}

func (p *parser) filter(raw interface{}, depth int) (Filter, error) {
	if depth > p.limits.MaxFilterDepth {
		return nil, invalidf("%s nested deeper than %d", keyWhere, p.limits.MaxFilterDepth)
	}
	node, ok := raw.(object)
	if !ok {
		return nil, invalidf("filter is not an object")
	}
	if depth == 1 && len(node) == 0 {
		return MatchAll{}, nil
	}
	if len(node) != 1 {
		return nil, invalidf("filter must have exactly one key, got %d", len(node))
	}

	op, body := only(node)
	switch op {
	case "AND", "OR":
		children, ok := body.([]interface{})
		if !ok || len(children) == 0 {
			return nil, invalidf("%s must be a non-empty list", op)
		}
		filters := make([]Filter, 0, len(children))
		for _, c := range children {
			f, err := p.filter(c, depth+1)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		}
		if op == "AND" {
			return And{Filters: filters}, nil
		}
		return Or{Filters: filters}, nil
	case "NOT":
		f, err := p.filter(body, depth+1)
		if err != nil {
			return nil, err
		}
		return Not{Filter: f}, nil
	case "LT", "GT", "EQ":
		field, value, err := p.comparison(op, body, schema.NumericOnly)
		if err != nil {
			return nil, err
		}
		n, ok := value.(float64)
		if !ok {
			return nil, invalidf("%s value for %q must be a number", op, field)
		}
		return NumericComparison{Op: comparators[op], Field: field, Value: n}, nil
	case "IS":
		field, value, err := p.comparison(op, body, schema.TextualOnly)
		if err != nil {
			return nil, err
		}
		pattern, ok := value.(string)
		if !ok {
			return nil, invalidf("IS value for %q must be a string", field)
		}
		if len(pattern) > 2 && strings.Contains(pattern[1:len(pattern)-1], wildcard) {
			return nil, invalidf("IS pattern %q has a wildcard in the middle", pattern)
		}
		return TextComparison{Field: field, Pattern: pattern}, nil
	default:
		return nil, invalidf("unknown filter %q", op)
	}
}

// comparison unpacks {field: value} and resolves field.
func (p *parser) comparison(op string, body interface{}, shape schema.Shape) (string, interface{}, error) {
	m, ok := body.(object)
	if !ok || len(m) != 1 {
		return "", nil, invalidf("%s must be an object with one key", op)
	}
	field, value := only(m)
	if _, err := p.resolver.Resolve(field, shape); err != nil {
		return "", nil, fmt.Errorf("%w: %s: %v", ErrInvalidQuery, op, err)
	}
	return field, value, nil
}

// only returns the sole entry of a one-key object.
func only(m object) (string, interface{}) {
	for k, v := range m {
		return k, v
	}
	return "", nil
}

func (p *parser) options(opts object, plan *Query, applyNames map[string]struct{}) error {
	switch len(opts) {
	case 1:
	case 2:
		if _, ok := opts[keyOrder]; !ok {
			return invalidf("%s has 2 keys but no %s", keyOptions, keyOrder)
		}
	default:
		return invalidf("%s must have 1 or 2 keys, got %d", keyOptions, len(opts))
	}

	raw := opts[keyColumns].([]interface{})
	cols := make([]string, 0, len(raw))
	inColumns := make(map[string]struct{}, len(raw))
	for _, c := range raw {
		name, ok := c.(string)
		if !ok {
			return invalidf("%s entries must be strings", keyColumns)
		}
		_, isApply := applyNames[name]
		if !isApply && !p.resolver.Valid(name) {
			return invalidf("invalid key %q in %s", name, keyColumns)
		}
		cols = append(cols, name)
		inColumns[name] = struct{}{}
	}
	plan.Columns = cols

	rawOrder, ok := opts[keyOrder]
	if !ok {
		return nil
	}
	switch o := rawOrder.(type) {
	case string:
		if _, ok := inColumns[o]; !ok {
			return invalidf("%s key %q is not in %s", keyOrder, o, keyColumns)
		}
		plan.Order = &Order{Keys: []string{o}}
	case object:
		if len(o) != 2 {
			return invalidf("%s must have exactly %q and %q", keyOrder, keyDir, keyKeys)
		}
		dir, ok := o[keyDir].(string)
		if !ok {
			return invalidf("%s.%s must be a string", keyOrder, keyDir)
		}
		keys, ok := o[keyKeys].([]interface{})
		if !ok {
			return invalidf("%s.%s must be a list", keyOrder, keyKeys)
		}
		if dir != "UP" && dir != "DOWN" {
			return invalidf("%s.%s must be UP or DOWN, got %q", keyOrder, keyDir, dir)
		}
		if len(keys) == 0 {
			return invalidf("%s.%s must not be empty", keyOrder, keyKeys)
		}
		order := &Order{Descending: dir == "DOWN", Hierarchical: true}
		for _, k := range keys {
			name, ok := k.(string)
			if !ok {
				return invalidf("%s keys must be strings", keyOrder)
			}
			if _, ok := inColumns[name]; !ok {
				return invalidf("%s key %q is not in %s", keyOrder, name, keyColumns)
			}
			order.Keys = append(order.Keys, name)
		}
		plan.Order = order
	default:
		return invalidf("%s must be a string or an object", keyOrder)
	}
	return nil
}

func (p *parser) transformation(raw interface{}) (*Transformation, error) {
	t, ok := raw.(object)
	if !ok {
		return nil, invalidf("%s is not an object", keyTransformations)
	}
	if len(t) != 2 {
		return nil, invalidf("%s must have exactly %s and %s", keyTransformations, keyGroup, keyApply)
	}
	group, ok := t[keyGroup].([]interface{})
	if !ok {
		return nil, invalidf("%s must be a list", keyGroup)
	}
	apply, ok := t[keyApply].([]interface{})
	if !ok {
		return nil, invalidf("%s must be a list", keyApply)
	}
	if len(group) == 0 {
		return nil, invalidf("%s must not be empty", keyGroup)
	}

	trans := &Transformation{}
	for _, g := range group {
		name, ok := g.(string)
		if !ok || !p.resolver.Valid(name) {
			return nil, invalidf("invalid %s key %v", keyGroup, g)
		}
		trans.Group = append(trans.Group, name)
	}

	seen := make(map[string]struct{}, len(apply))
	for _, a := range apply {
		spec, err := p.applySpec(a)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[spec.Name]; dup {
			return nil, invalidf("duplicate %s name %q", keyApply, spec.Name)
		}
		seen[spec.Name] = struct{}{}
		trans.Apply = append(trans.Apply, spec)
	}
	return trans, nil
}

func (p *parser) applySpec(raw interface{}) (ApplySpec, error) {
	entry, ok := raw.(object)
	if !ok || len(entry) != 1 {
		return ApplySpec{}, invalidf("%s entry must be an object with one key", keyApply)
	}
	name, body := only(entry)
	if name == "" || strings.Contains(name, schema.Separator) {
		return ApplySpec{}, invalidf("%s name %q must be non-empty and contain no %q", keyApply, name, schema.Separator)
	}
	agg, ok := body.(object)
	if !ok || len(agg) != 1 {
		return ApplySpec{}, invalidf("%s %q must hold one aggregation", keyApply, name)
	}
	token, field := only(agg)
	op, ok := aggregators[token]
	if !ok {
		return ApplySpec{}, invalidf("%s %q has unknown operator %q", keyApply, name, token)
	}
	key, ok := field.(string)
	if !ok {
		return ApplySpec{}, invalidf("%s %q field must be a string", keyApply, name)
	}
	shape := schema.Either
	if op.numericOnly() {
		shape = schema.NumericOnly
	}
	if _, err := p.resolver.Resolve(key, shape); err != nil {
		return ApplySpec{}, fmt.Errorf("%w: %s %q: %v", ErrInvalidQuery, keyApply, name, err)
	}
	return ApplySpec{Name: name, Op: op, Field: key}, nil
}
