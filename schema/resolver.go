package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Shape narrows which field types a resolution accepts.
type Shape int

const (
	Either Shape = iota
	NumericOnly
	TextualOnly
)

// ErrUnresolvedKey is returned when a qualified name does not resolve.
var ErrUnresolvedKey = errors.New("unresolved key")

// Resolver resolves qualified field names for one dataset.
type Resolver struct {
	DatasetID string
	Schema    Schema
}

// NewResolver returns a resolver for dataset id of the given kind.
func NewResolver(datasetID string, kind Kind) (*Resolver, error) {
	s, err := For(kind)
	if err != nil {
		return nil, err
	}
	return &Resolver{DatasetID: datasetID, Schema: s}, nil
}

// Split splits a qualified name at its separator. It fails unless there is
// exactly one separator.
func Split(qualified string) (prefix, field string, ok bool) {
	parts := strings.Split(qualified, Separator)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Qualify joins a dataset id and a bare field name.
func Qualify(datasetID, field string) string {
	return datasetID + Separator + field
}

// Resolve checks that qualified names a field of the resolver's dataset with
// a type allowed by shape, and returns that type.
func (r *Resolver) Resolve(qualified string, shape Shape) (FieldType, error) {
	prefix, field, ok := Split(qualified)
	if !ok {
		return 0, fmt.Errorf("%w: %q is not of the form <dataset>%s<field>", ErrUnresolvedKey, qualified, Separator)
	}
	if prefix != r.DatasetID {
		return 0, fmt.Errorf("%w: %q references dataset %q, query targets %q", ErrUnresolvedKey, qualified, prefix, r.DatasetID)
	}
	t, ok := r.Schema.TypeOf(field)
	if !ok {
		return 0, fmt.Errorf("%w: %q is not a %s field", ErrUnresolvedKey, qualified, r.Schema.Kind)
	}
	switch {
	case shape == NumericOnly && t != Numeric:
		return 0, fmt.Errorf("%w: %q is not numeric", ErrUnresolvedKey, qualified)
	case shape == TextualOnly && t != Textual:
		return 0, fmt.Errorf("%w: %q is not textual", ErrUnresolvedKey, qualified)
	}
	return t, nil
}

// Valid reports whether qualified resolves with any type.
func (r *Resolver) Valid(qualified string) bool {
	_, err := r.Resolve(qualified, Either)
	return err == nil
}

// TypeOf returns the type of a name that already resolved.
func (r *Resolver) TypeOf(qualified string) FieldType {
	_, field, _ := Split(qualified)
	t, _ := r.Schema.TypeOf(field)
	return t
}
