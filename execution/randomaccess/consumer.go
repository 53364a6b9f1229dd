package randomaccess

import (
	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
)

// Consumer is the terminal node a random access cursor reads from.
type Consumer struct {
	execution.Lifecycle
	source execution.RandomAccessNode
	inputs []access.ReadAccess
}

func NewConsumer(source execution.RandomAccessNode, inputs []access.ReadAccess) *Consumer {
	return &Consumer{
		source: source,
		inputs: inputs,
	}
}

func (c *Consumer) Create() error {
	if err := c.BeginCreate("consumer"); err != nil {
		return err
	}
	return c.source.Create()
}

func (c *Consumer) MoveTo(row int64) error {
	if err := c.CheckCreated("consumer"); err != nil {
		return err
	}
	return c.source.MoveTo(row)
}

func (c *Consumer) Size() int64 {
	return c.source.Size()
}

func (c *Consumer) Outputs() []access.ReadAccess {
	return c.inputs
}

func (c *Consumer) Close() error {
	if !c.BeginClose() {
		return nil
	}
	return execution.CloseAll("consumer", c.source.Close)
}
