package randomaccess

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
)

// Concatenate serves the rows of all its sources, one source after another.
type Concatenate struct {
	execution.Lifecycle
	sources []execution.RandomAccessNode
	inputs  [][]access.ReadAccess
	cells   []*access.Cell
	outputs []access.ReadAccess

	// ends[i] is the first row past source i.
	ends    []int64
	current int
}

// NewConcatenate expects at least one source, all inputs having the same column types.
func NewConcatenate(sources []execution.RandomAccessNode, inputs [][]access.ReadAccess) *Concatenate {
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
		current: -1,
	}
}

func (c *Concatenate) Create() error {
	if err := c.BeginCreate("concatenate"); err != nil {
		return err
	}
	c.ends = make([]int64, len(c.sources))
	var total int64
	for i := range c.sources {
		if err := c.sources[i].Create(); err != nil {
			return errors.Wrapf(err, "couldn't create concatenate source %d", i)
		}
		total += c.sources[i].Size()
		c.ends[i] = total
	}
	return nil
}

func (c *Concatenate) MoveTo(row int64) error {
	if err := c.CheckCreated("concatenate"); err != nil {
		return err
	}
	if err := checkRow("concatenate", row, c.Size()); err != nil {
		return err
	}
	source := sort.Search(len(c.ends), func(i int) bool {
		return c.ends[i] > row
	})
	if source != c.current {
		for i := range c.cells {
			c.cells[i].Set(c.inputs[source][i])
		}
		c.current = source
	}
	var offset int64
	if source > 0 {
		offset = c.ends[source-1]
	}
	if err := c.sources[source].MoveTo(row - offset); err != nil {
		return errors.Wrapf(err, "couldn't move concatenate source %d", source)
	}
	return nil
}

func (c *Concatenate) Size() int64 {
	if len(c.ends) == 0 {
		return -1
	}
	return c.ends[len(c.ends)-1]
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
