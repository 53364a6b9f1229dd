package virtual

import (
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/logs"
	"github.com/cube2222/vtable/vtable"
)

// Aggregate reads the given columns of the whole table and folds them into a single value.
// Columns may be given in any order and repeat.
func (t *Table) Aggregate(columns []int, factory execution.AggregatorFactory) (vtable.Value, error) {
	if factory == nil {
		return vtable.Value{}, errors.Wrap(vtable.ErrInvalidSpec, "no aggregator factory given")
	}
	selected, positions := selectionFor(columns)
	cursor, err := t.Cursor(vtable.SelectColumns(selected...))
	if err != nil {
		return vtable.Value{}, err
	}

	value, err := aggregate(cursor, positions, factory)
	if closeErr := cursor.Close(); closeErr != nil {
		if err != nil {
			logs.Logger().Warn("couldn't close cursor after failed aggregation", zap.Error(closeErr))
		} else {
			err = errors.Wrap(closeErr, "couldn't close cursor")
		}
	}
	if err != nil {
		return vtable.Value{}, err
	}
	return value, nil
}

func aggregate(cursor *Cursor, positions []int, factory execution.AggregatorFactory) (vtable.Value, error) {
	inputs := make([]access.ReadAccess, len(positions))
	for i, position := range positions {
		inputs[i] = cursor.Access(position)
	}
	aggregator, err := factory.CreateAggregator(inputs)
	if err != nil {
		return vtable.Value{}, errors.Wrap(err, "couldn't create aggregator")
	}

	for row := 0; ; row++ {
		ok, err := cursor.Forward()
		if err != nil {
			return vtable.Value{}, errors.Wrapf(err, "couldn't read row %d", row)
		}
		if !ok {
			break
		}
		if err := aggregator.Update(); err != nil {
			return vtable.Value{}, errors.Wrapf(err, "couldn't aggregate row %d", row)
		}
	}

	value, err := aggregator.Result()
	if err != nil {
		return vtable.Value{}, errors.Wrap(err, "couldn't get aggregation result")
	}
	if !value.Type.Equal(factory.OutputType()) {
		return vtable.Value{}, errors.Wrapf(vtable.ErrSchemaMismatch, "aggregator returned %s, declared %s", value.Type, factory.OutputType())
	}
	return value, nil
}

// selectionFor returns the sorted unique columns to read, and for each requested column its position among them.
func selectionFor(columns []int) ([]int, []int) {
	selected := append([]int{}, columns...)
	sort.Ints(selected)
	unique := selected[:0]
	for i, column := range selected {
		if i == 0 || column != selected[i-1] {
			unique = append(unique, column)
		}
	}

	positions := make([]int, len(columns))
	for i, column := range columns {
		positions[i] = sort.SearchInts(unique, column)
	}
	return unique, positions
}
