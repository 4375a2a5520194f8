// Package schema holds the fixed field layouts of every dataset kind and
// resolves qualified field names against them.
//
// A qualified field name is a dataset id, the separator "_", and a bare field
// name, e.g. "courses_avg". Every bare field is either numeric or textual.
package schema

import (
	"fmt"
	"sort"
)

// Separator joins a dataset id and a bare field name.
const Separator = "_"

// Kind identifies a dataset kind.
type Kind string

const (
	KindCourses Kind = "courses"
	KindRooms   Kind = "rooms"
)

// FieldType is the declared type of a field.
type FieldType int

const (
	Numeric FieldType = iota
	Textual
)

func (t FieldType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Textual:
		return "textual"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// Schema is the set of bare field names of a dataset kind, split into two
// disjoint sets by type.
type Schema struct {
	Kind    Kind
	Numeric map[string]struct{}
	Textual map[string]struct{}
}

// Fields returns every bare field name, sorted.
func (s Schema) Fields() []string {
	fields := make([]string, 0, len(s.Numeric)+len(s.Textual))
	for f := range s.Numeric {
		fields = append(fields, f)
	}
	for f := range s.Textual {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// TypeOf returns the type of a bare field name.
func (s Schema) TypeOf(field string) (FieldType, bool) {
	if _, ok := s.Numeric[field]; ok {
		return Numeric, true
	}
	if _, ok := s.Textual[field]; ok {
		return Textual, true
	}
	return 0, false
}

func set(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

var registry = map[Kind]Schema{
	KindCourses: {
		Kind:    KindCourses,
		Numeric: set("avg", "pass", "fail", "audit", "year"),
		Textual: set("dept", "id", "instructor", "title", "uuid"),
	},
	KindRooms: {
		Kind:    KindRooms,
		Numeric: set("lat", "lon", "seats"),
		Textual: set("fullname", "shortname", "number", "name", "address", "type", "furniture", "href"),
	},
}

// For returns the schema of a dataset kind.
func For(kind Kind) (Schema, error) {
	s, ok := registry[kind]
	if !ok {
		return Schema{}, fmt.Errorf("unknown dataset kind %q", kind)
	}
	return s, nil
}

// ParseKind validates a dataset kind name.
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	if _, ok := registry[k]; !ok {
		return "", fmt.Errorf("unknown dataset kind %q", name)
	}
	return k, nil
}

// Kinds returns every registered kind, sorted.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
