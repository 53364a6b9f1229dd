package nodes

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

// RowFilter only lets through rows accepted by its predicate.
// Testing the predicate consumes the row, so this node can't look ahead.
type RowFilter struct {
	execution.Lifecycle
	source  execution.SequentialNode
	inputs  []access.ReadAccess
	factory execution.PredicateFactory

	predicate execution.Predicate
}

func NewRowFilter(source execution.SequentialNode, inputs []access.ReadAccess, factory execution.PredicateFactory) *RowFilter {
	return &RowFilter{
		source:  source,
		inputs:  inputs,
		factory: factory,
	}
}

func (f *RowFilter) Create() error {
	if err := f.BeginCreate("row filter"); err != nil {
		return err
	}
	if err := f.source.Create(); err != nil {
		return err
	}
	predicate, err := f.factory.CreatePredicate(f.inputs)
	if err != nil {
		return errors.Wrap(err, "couldn't create row filter predicate")
	}
	f.predicate = predicate
	return nil
}

func (f *RowFilter) Forward() (bool, error) {
	if err := f.CheckCreated("row filter"); err != nil {
		return false, err
	}
	for {
		ok, err := f.source.Forward()
		if err != nil {
			return false, errors.Wrap(err, "couldn't forward source")
		}
		if !ok {
			return false, nil
		}
		accepted, err := f.predicate.Test()
		if err != nil {
			return false, errors.Wrap(err, "couldn't evaluate row filter predicate")
		}
		if accepted {
			return true, nil
		}
	}
}

func (f *RowFilter) CanForward() (bool, error) {
	return false, errors.Wrap(vtable.ErrIllegalState, "row filter doesn't support lookahead")
}

func (f *RowFilter) SupportsLookahead() bool {
	return false
}

func (f *RowFilter) Outputs() []access.ReadAccess {
	return nil
}

func (f *RowFilter) Close() error {
	if !f.BeginClose() {
		return nil
	}
	return execution.CloseAll("row filter", f.source.Close)
}
