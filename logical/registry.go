package logical

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

type MapperConstructor func(parameters []string) (execution.MapperFactory, error)
type PredicateConstructor func(parameters []string) (execution.PredicateFactory, error)
type ObserverConstructor func(parameters []string) (execution.ObserverFactory, error)

// Registry resolves persisted factory names back into factories.
type Registry struct {
	mutex      sync.RWMutex
	mappers    map[string]MapperConstructor
	predicates map[string]PredicateConstructor
	observers  map[string]ObserverConstructor
}

func NewRegistry() *Registry {
	return &Registry{
		mappers:    make(map[string]MapperConstructor),
		predicates: make(map[string]PredicateConstructor),
		observers:  make(map[string]ObserverConstructor),
	}
}

func (r *Registry) RegisterMapper(name string, constructor MapperConstructor) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.mappers[name] = constructor
}

func (r *Registry) RegisterPredicate(name string, constructor PredicateConstructor) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.predicates[name] = constructor
}

func (r *Registry) RegisterObserver(name string, constructor ObserverConstructor) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.observers[name] = constructor
}

func (r *Registry) Mapper(name string, parameters []string) (execution.MapperFactory, error) {
	r.mutex.RLock()
	constructor, ok := r.mappers[name]
	r.mutex.RUnlock()
	if !ok {
		return nil, errors.Wrapf(vtable.ErrInvalidSpec, "unknown mapper: %s", name)
	}
	factory, err := constructor(parameters)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't create mapper %s", name)
	}
	return factory, nil
}

func (r *Registry) Predicate(name string, parameters []string) (execution.PredicateFactory, error) {
	r.mutex.RLock()
	constructor, ok := r.predicates[name]
	r.mutex.RUnlock()
	if !ok {
		return nil, errors.Wrapf(vtable.ErrInvalidSpec, "unknown predicate: %s", name)
	}
	factory, err := constructor(parameters)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't create predicate %s", name)
	}
	return factory, nil
}

func (r *Registry) Observer(name string, parameters []string) (execution.ObserverFactory, error) {
	r.mutex.RLock()
	constructor, ok := r.observers[name]
	r.mutex.RUnlock()
	if !ok {
		return nil, errors.Wrapf(vtable.ErrInvalidSpec, "unknown observer: %s", name)
	}
	factory, err := constructor(parameters)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't create observer %s", name)
	}
	return factory, nil
}

// Names lists the registered factory names of every kind, sorted.
func (r *Registry) Names() (mappers, predicates, observers []string) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	for name := range r.mappers {
		mappers = append(mappers, name)
	}
	for name := range r.predicates {
		predicates = append(predicates, name)
	}
	for name := range r.observers {
		observers = append(observers, name)
	}
	sort.Strings(mappers)
	sort.Strings(predicates)
	sort.Strings(observers)
	return mappers, predicates, observers
}
