package nodes

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
)

// Observer lets an observer see every row, without changing anything about the rows.
type Observer struct {
	execution.Lifecycle
	source  execution.SequentialNode
	inputs  []access.ReadAccess
	factory execution.ObserverFactory

	observer execution.Observer
}

func NewObserver(source execution.SequentialNode, inputs []access.ReadAccess, factory execution.ObserverFactory) *Observer {
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

func (o *Observer) Forward() (bool, error) {
	if err := o.CheckCreated("observer"); err != nil {
		return false, err
	}
	ok, err := o.source.Forward()
	if err != nil {
		return false, errors.Wrap(err, "couldn't forward source")
	}
	if !ok {
		return false, nil
	}
	if err := o.observer.Update(); err != nil {
		return false, errors.Wrap(err, "couldn't update observer")
	}
	return true, nil
}

func (o *Observer) CanForward() (bool, error) {
	if err := o.CheckCreated("observer"); err != nil {
		return false, err
	}
	return o.source.CanForward()
}

func (o *Observer) SupportsLookahead() bool {
	return o.source.SupportsLookahead()
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
