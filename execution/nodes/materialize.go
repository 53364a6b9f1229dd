package nodes

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

// Materialize writes all rows of its source into a sink.
// Forward runs the whole materialization and may only be called once.
type Materialize struct {
	execution.Lifecycle
	source execution.SequentialNode
	inputs []access.ReadAccess
	sink   execution.Sink

	done bool
	rows int64
}

func NewMaterialize(source execution.SequentialNode, inputs []access.ReadAccess, sink execution.Sink) *Materialize {
	return &Materialize{
		source: source,
		inputs: inputs,
		sink:   sink,
	}
}

func (m *Materialize) Create() error {
	if err := m.BeginCreate("materialize"); err != nil {
		return err
	}
	return m.source.Create()
}

// Forward always returns false, as a materialize node doesn't expose any rows itself.
func (m *Materialize) Forward() (bool, error) {
	if err := m.CheckCreated("materialize"); err != nil {
		return false, err
	}
	if m.done {
		return false, errors.Wrap(vtable.ErrIllegalState, "materialize can only be run once")
	}
	m.done = true

	for {
		ok, err := m.source.Forward()
		if err != nil {
			return false, errors.Wrapf(err, "couldn't forward source after %d rows", m.rows)
		}
		if !ok {
			break
		}
		if err := m.sink.Write(m.inputs); err != nil {
			return false, errors.Wrapf(err, "couldn't write row %d", m.rows)
		}
		m.rows++
	}
	if err := m.sink.Flush(); err != nil {
		return false, errors.Wrap(err, "couldn't flush sink")
	}
	return false, nil
}

// Rows returns the number of rows written so far.
func (m *Materialize) Rows() int64 {
	return m.rows
}

func (m *Materialize) CanForward() (bool, error) {
	return false, errors.Wrap(vtable.ErrIllegalState, "materialize doesn't support lookahead")
}

func (m *Materialize) SupportsLookahead() bool {
	return false
}

func (m *Materialize) Outputs() []access.ReadAccess {
	return nil
}

func (m *Materialize) Close() error {
	if !m.BeginClose() {
		return nil
	}
	return execution.CloseAll("materialize", m.source.Close)
}
