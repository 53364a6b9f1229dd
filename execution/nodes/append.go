package nodes

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
)

// Append puts the columns of its sources side by side.
// It has as many rows as its longest source, the columns of exhausted sources read as missing.
type Append struct {
	execution.Lifecycle
	sources []execution.SequentialNode
	inputs  [][]access.ReadAccess
	cells   [][]*access.Cell
	outputs []access.ReadAccess

	exhausted []bool
}

func NewAppend(sources []execution.SequentialNode, inputs [][]access.ReadAccess) *Append {
	cells := make([][]*access.Cell, len(inputs))
	var outputs []access.ReadAccess
	for i := range inputs {
		cells[i] = make([]*access.Cell, len(inputs[i]))
		for j := range inputs[i] {
			cells[i][j] = access.NewCell(inputs[i][j].Type())
			outputs = append(outputs, cells[i][j])
		}
	}
	return &Append{
		sources:   sources,
		inputs:    inputs,
		cells:     cells,
		outputs:   outputs,
		exhausted: make([]bool, len(sources)),
	}
}

func (a *Append) Create() error {
	if err := a.BeginCreate("append"); err != nil {
		return err
	}
	for i := range a.sources {
		if err := a.sources[i].Create(); err != nil {
			return errors.Wrapf(err, "couldn't create append source %d", i)
		}
	}
	for i := range a.cells {
		for j := range a.cells[i] {
			a.cells[i][j].Set(a.inputs[i][j])
		}
	}
	return nil
}

func (a *Append) Forward() (bool, error) {
	if err := a.CheckCreated("append"); err != nil {
		return false, err
	}
	anyForwarded := false
	for i := range a.sources {
		if a.exhausted[i] {
			continue
		}
		ok, err := a.sources[i].Forward()
		if err != nil {
			return false, errors.Wrapf(err, "couldn't forward append source %d", i)
		}
		if !ok {
			a.exhausted[i] = true
			for _, cell := range a.cells[i] {
				cell.SetMissing()
			}
			continue
		}
		anyForwarded = true
	}
	return anyForwarded, nil
}

func (a *Append) CanForward() (bool, error) {
	if err := a.CheckCreated("append"); err != nil {
		return false, err
	}
	for i := range a.sources {
		if a.exhausted[i] {
			continue
		}
		ok, err := a.sources[i].CanForward()
		if err != nil {
			return false, errors.Wrapf(err, "couldn't look ahead in append source %d", i)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (a *Append) SupportsLookahead() bool {
	for i := range a.sources {
		if !a.sources[i].SupportsLookahead() {
			return false
		}
	}
	return true
}

func (a *Append) Outputs() []access.ReadAccess {
	return a.outputs
}

func (a *Append) Close() error {
	if !a.BeginClose() {
		return nil
	}
	closers := make([]func() error, len(a.sources))
	for i := range a.sources {
		closers[i] = a.sources[i].Close
	}
	return execution.CloseAll("append", closers...)
}
