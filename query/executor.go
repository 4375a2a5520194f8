package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/vegasq/insight/dataset"
	"github.com/vegasq/insight/schema"
)

// Source gives read access to datasets. View must keep the dataset
// unchanged until fn returns.
type Source interface {
	View(ctx context.Context, id string, fn func(*dataset.Dataset) error) error
}

// Engine validates and runs query documents.
type Engine struct {
	source Source
	limits Limits
	logger log.Logger
}

// NewEngine returns an engine reading datasets from source.
func NewEngine(source Source, limits Limits, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	defaults := DefaultLimits()
	if limits.MaxResultRows <= 0 {
		limits.MaxResultRows = defaults.MaxResultRows
	}
	if limits.MaxFilterDepth <= 0 {
		limits.MaxFilterDepth = defaults.MaxFilterDepth
	}
	return &Engine{source: source, limits: limits, logger: logger}
}

// ExecuteJSON decodes a query document and executes it.
func (e *Engine) ExecuteJSON(ctx context.Context, data []byte) (*Result, error) {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, invalidf("decode query: %v", err)
	}
	if err := dec.Decode(new(json.RawMessage)); err != io.EOF {
		return nil, invalidf("decode query: trailing data after document")
	}
	return e.Execute(ctx, doc)
}

// Execute validates doc, runs it against the dataset it names and returns
// the ordered result. Every failure wraps ErrInvalidQuery or
// ErrResultTooLarge, except errors of the dataset source other than
// dataset.ErrNotFound.
func (e *Engine) Execute(ctx context.Context, doc interface{}) (*Result, error) {
	if err := CheckShape(doc); err != nil {
		return nil, err
	}
	id, err := TargetDataset(doc)
	if err != nil {
		return nil, err
	}

	var result *Result
	err = e.source.View(ctx, id, func(ds *dataset.Dataset) error {
		resolver, err := schema.NewResolver(ds.ID, ds.Kind)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		plan, err := Parse(doc, resolver, e.limits)
		if err != nil {
			return err
		}
		result, err = e.run(plan, resolver, ds.Rows)
		return err
	})
	if errors.Is(err, dataset.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// run evaluates a plan: filter, transform, project, order, then check the
// size of the result.
func (e *Engine) run(plan *Query, resolver *schema.Resolver, rows []dataset.Row) (*Result, error) {
	logger := log.With(e.logger, "dataset", plan.Dataset)

	matched, err := ApplyFilter(rows, plan.Where)
	if err != nil {
		return nil, err
	}
	level.Debug(logger).Log("msg", "filtered", "input", len(rows), "matched", len(matched))

	var applyNames map[string]struct{}
	if plan.Transformations != nil {
		matched, err = ApplyTransformation(matched, plan.Transformations)
		if err != nil {
			return nil, err
		}
		applyNames = plan.Transformations.applyNames()
		level.Debug(logger).Log("msg", "grouped", "groups", len(matched))
	}

	projected, err := ApplyColumns(matched, plan.Columns)
	if err != nil {
		return nil, err
	}

	numeric := func(column string) bool {
		if _, ok := applyNames[column]; ok {
			return true
		}
		return resolver.TypeOf(column) == schema.Numeric
	}
	ordered, err := ApplyOrder(projected, plan.Order, numeric)
	if err != nil {
		return nil, err
	}

	if len(ordered) > e.limits.MaxResultRows {
		return nil, fmt.Errorf("%w: %d rows, limit is %d", ErrResultTooLarge, len(ordered), e.limits.MaxResultRows)
	}
	return &Result{Columns: plan.Columns, Rows: ordered}, nil
}
