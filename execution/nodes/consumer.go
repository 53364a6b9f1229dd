package nodes

import (
	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
)

// Consumer is the terminal node a cursor reads from.
type Consumer struct {
	execution.Lifecycle
	source execution.SequentialNode
	inputs []access.ReadAccess
}

func NewConsumer(source execution.SequentialNode, inputs []access.ReadAccess) *Consumer {
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

func (c *Consumer) Forward() (bool, error) {
	if err := c.CheckCreated("consumer"); err != nil {
		return false, err
	}
	return c.source.Forward()
}

func (c *Consumer) CanForward() (bool, error) {
	if err := c.CheckCreated("consumer"); err != nil {
		return false, err
	}
	return c.source.CanForward()
}

func (c *Consumer) SupportsLookahead() bool {
	return c.source.SupportsLookahead()
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
