package nodes

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
)

// Concatenate serves the rows of all its sources, one source after another.
type Concatenate struct {
	execution.Lifecycle
	sources []execution.SequentialNode
	inputs  [][]access.ReadAccess
	cells   []*access.Cell
	outputs []access.ReadAccess

	current int
}

// NewConcatenate expects at least one source, all inputs having the same column types.
func NewConcatenate(sources []execution.SequentialNode, inputs [][]access.ReadAccess) *Concatenate {
	cells := make([]*access.Cell, len(inputs[0]))
	outputs := make([]access.ReadAccess, len(inputs[0]))
	for i := range inputs[0] {
		cells[i] = access.NewCell(inputs[0][i].Type())
		outputs[i] = cells[i]
	}
	return &Concatenate{
		sources: sources,
		inputs:  inputs,
		cells:   cells,
		outputs: outputs,
	}
}

func (c *Concatenate) Create() error {
	if err := c.BeginCreate("concatenate"); err != nil {
		return err
	}
	for i := range c.sources {
		if err := c.sources[i].Create(); err != nil {
			return errors.Wrapf(err, "couldn't create concatenate source %d", i)
		}
	}
	c.link(0)
	return nil
}

func (c *Concatenate) link(source int) {
	c.current = source
	if source >= len(c.sources) {
		for i := range c.cells {
			c.cells[i].SetMissing()
		}
		return
	}
	for i := range c.cells {
		c.cells[i].Set(c.inputs[source][i])
	}
}

func (c *Concatenate) Forward() (bool, error) {
	if err := c.CheckCreated("concatenate"); err != nil {
		return false, err
	}
	for c.current < len(c.sources) {
		ok, err := c.sources[c.current].Forward()
		if err != nil {
			return false, errors.Wrapf(err, "couldn't forward concatenate source %d", c.current)
		}
		if ok {
			return true, nil
		}
		c.link(c.current + 1)
	}
	return false, nil
}

func (c *Concatenate) CanForward() (bool, error) {
	if err := c.CheckCreated("concatenate"); err != nil {
		return false, err
	}
	for i := c.current; i < len(c.sources); i++ {
		ok, err := c.sources[i].CanForward()
		if err != nil {
			return false, errors.Wrapf(err, "couldn't look ahead in concatenate source %d", i)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c *Concatenate) SupportsLookahead() bool {
	for i := range c.sources {
		if !c.sources[i].SupportsLookahead() {
			return false
		}
	}
	return true
}

func (c *Concatenate) Outputs() []access.ReadAccess {
	return c.outputs
}

func (c *Concatenate) Close() error {
	if !c.BeginClose() {
		return nil
	}
	closers := make([]func() error, len(c.sources))
	for i := range c.sources {
		closers[i] = c.sources[i].Close
	}
	return execution.CloseAll("concatenate", closers...)
}
