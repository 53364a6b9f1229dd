package nodes

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
)

// Map derives new columns using a mapper, evaluated once per row.
type Map struct {
	execution.Lifecycle
	source  execution.SequentialNode
	inputs  []access.ReadAccess
	factory execution.MapperFactory
	buffers []*access.Buffer
	outputs []access.ReadAccess

	mapper execution.Mapper
}

func NewMap(source execution.SequentialNode, inputs []access.ReadAccess, factory execution.MapperFactory) (*Map, error) {
	buffers, err := access.NewBuffers(factory.OutputSchema())
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create map outputs")
	}
	outputs := make([]access.ReadAccess, len(buffers))
	for i := range buffers {
		outputs[i] = buffers[i]
	}
	return &Map{
		source:  source,
		inputs:  inputs,
		factory: factory,
		buffers: buffers,
		outputs: outputs,
	}, nil
}

func (m *Map) Create() error {
	if err := m.BeginCreate("map"); err != nil {
		return err
	}
	if err := m.source.Create(); err != nil {
		return err
	}
	writeAccesses := make([]access.WriteAccess, len(m.buffers))
	for i := range m.buffers {
		writeAccesses[i] = m.buffers[i]
	}
	mapper, err := m.factory.CreateMapper(m.inputs, writeAccesses)
	if err != nil {
		return errors.Wrap(err, "couldn't create mapper")
	}
	m.mapper = mapper
	return nil
}

func (m *Map) Forward() (bool, error) {
	if err := m.CheckCreated("map"); err != nil {
		return false, err
	}
	ok, err := m.source.Forward()
	if err != nil {
		return false, errors.Wrap(err, "couldn't forward source")
	}
	if !ok {
		return false, nil
	}
	if err := execution.RunMapper(m.mapper, m.buffers); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Map) CanForward() (bool, error) {
	if err := m.CheckCreated("map"); err != nil {
		return false, err
	}
	return m.source.CanForward()
}

func (m *Map) SupportsLookahead() bool {
	return m.source.SupportsLookahead()
}

func (m *Map) Outputs() []access.ReadAccess {
	return m.outputs
}

func (m *Map) Close() error {
	if !m.BeginClose() {
		return nil
	}
	return execution.CloseAll("map", m.source.Close)
}
