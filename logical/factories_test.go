package logical

import (
	"strconv"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

type plus struct {
	delta int32
}

func (f plus) Name() string {
	return "plus"
}

func (f plus) Parameters() []string {
	return []string{strconv.Itoa(int(f.delta))}
}

func (f plus) OutputSchema() vtable.Schema {
	return vtable.NewSchema(vtable.Int)
}

func (f plus) CreateMapper(inputs []access.ReadAccess, outputs []access.WriteAccess) (execution.Mapper, error) {
	return execution.MapperFunc(func() error {
		outputs[0].SetInt(inputs[0].IntValue() + f.delta)
		return nil
	}), nil
}

type dates struct{}

func (dates) OutputSchema() vtable.Schema {
	return vtable.NewSchema(vtable.LocalDate)
}

func (dates) CreateMapper(inputs []access.ReadAccess, outputs []access.WriteAccess) (execution.Mapper, error) {
	return execution.MapperFunc(func() error { return nil }), nil
}

type unnamed struct{}

func (unnamed) OutputSchema() vtable.Schema {
	return vtable.NewSchema(vtable.Int)
}

func (unnamed) CreateMapper(inputs []access.ReadAccess, outputs []access.WriteAccess) (execution.Mapper, error) {
	return execution.MapperFunc(func() error { return nil }), nil
}

type nonMissing struct{}

func (nonMissing) Name() string {
	return "non_missing"
}

func (nonMissing) CreatePredicate(inputs []access.ReadAccess) (execution.Predicate, error) {
	return execution.PredicateFunc(func() (bool, error) {
		return !inputs[0].IsMissing(), nil
	}), nil
}

type noopObserver struct{}

func (noopObserver) Name() string {
	return "noop"
}

func (noopObserver) CreateObserver(inputs []access.ReadAccess) (execution.Observer, error) {
	return noopObserver{}, nil
}

func (noopObserver) Update() error {
	return nil
}

func (noopObserver) Close() error {
	return nil
}

func testRegistry() *Registry {
	registry := NewRegistry()
	registry.RegisterMapper("plus", func(parameters []string) (execution.MapperFactory, error) {
		delta, err := strconv.Atoi(parameters[0])
		if err != nil {
			return nil, err
		}
		return plus{delta: int32(delta)}, nil
	})
	registry.RegisterPredicate("non_missing", func(parameters []string) (execution.PredicateFactory, error) {
		return nonMissing{}, nil
	})
	registry.RegisterObserver("noop", func(parameters []string) (execution.ObserverFactory, error) {
		return noopObserver{}, nil
	})
	return registry
}

func mustNode(node *TransformNode, err error) *TransformNode {
	if err != nil {
		panic(err)
	}
	return node
}

func source(id string, types ...vtable.Type) *TransformNode {
	return mustNode(NewTransformNode(NewSourceSpec(id, vtable.NewSchema(types...))))
}
