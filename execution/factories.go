package execution

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/vtable"
)

// Named factories can be persisted as part of a logical spec and resolved again by name.
type Named interface {
	Name() string
}

// Parameterized factories are persisted together with their parameters.
type Parameterized interface {
	Named
	Parameters() []string
}

// MapperFactory creates the per-cursor functions deriving new columns.
// Factories are bound once per physical node and must be comparable.
type MapperFactory interface {
	OutputSchema() vtable.Schema
	CreateMapper(inputs []access.ReadAccess, outputs []access.WriteAccess) (Mapper, error)
}

// Mapper writes the output columns for the current input row.
// Outputs are reset to missing before every call.
type Mapper interface {
	Map() error
}

type MapperFunc func() error

func (f MapperFunc) Map() error {
	return f()
}

// RunMapper resets the outputs to missing and invokes the mapper,
// so that fields the mapper doesn't write read as missing instead of as the previous row's value.
func RunMapper(mapper Mapper, outputs []*access.Buffer) error {
	for i := range outputs {
		outputs[i].SetMissing()
	}
	if err := mapper.Map(); err != nil {
		return errors.Wrap(err, "couldn't map row")
	}
	return nil
}

type PredicateFactory interface {
	CreatePredicate(inputs []access.ReadAccess) (Predicate, error)
}

type Predicate interface {
	Test() (bool, error)
}

type PredicateFunc func() (bool, error)

func (f PredicateFunc) Test() (bool, error) {
	return f()
}

type ObserverFactory interface {
	CreateObserver(inputs []access.ReadAccess) (Observer, error)
}

// Observer sees every row passing through an observer node. It must not change data.
type Observer interface {
	Update() error
	Close() error
}

type AggregatorFactory interface {
	OutputType() vtable.Type
	CreateAggregator(inputs []access.ReadAccess) (Aggregator, error)
}

type Aggregator interface {
	Update() error
	Result() (vtable.Value, error)
}
