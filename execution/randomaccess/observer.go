package randomaccess

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
)

// Observer lets an observer see every row the cursor is moved to.
type Observer struct {
	execution.Lifecycle
	source  execution.RandomAccessNode
	inputs  []access.ReadAccess
	factory execution.ObserverFactory

	observer execution.Observer
}

func NewObserver(source execution.RandomAccessNode, inputs []access.ReadAccess, factory execution.ObserverFactory) *Observer {
	return &Observer{
		source:  source,
		inputs:  inputs,
		factory: factory,
	}
}

func (o *Observer) Create() error {
	if err := o.BeginCreate("observer"); err != nil {
		return err
	}
	if err := o.source.Create(); err != nil {
		return err
	}
	observer, err := o.factory.CreateObserver(o.inputs)
	if err != nil {
		return errors.Wrap(err, "couldn't create observer")
	}
	o.observer = observer
	return nil
}

func (o *Observer) MoveTo(row int64) error {
	if err := o.CheckCreated("observer"); err != nil {
		return err
	}
	if err := o.source.MoveTo(row); err != nil {
		return err
	}
	if err := o.observer.Update(); err != nil {
		return errors.Wrap(err, "couldn't update observer")
	}
	return nil
}

func (o *Observer) Size() int64 {
	return o.source.Size()
}

func (o *Observer) Outputs() []access.ReadAccess {
	return nil
}

func (o *Observer) Close() error {
	if !o.BeginClose() {
		return nil
	}
	var closeObserver func() error
	if o.observer != nil {
		closeObserver = o.observer.Close
	}
	return execution.CloseAll("observer", closeObserver, o.source.Close)
}
