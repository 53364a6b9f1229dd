package execution

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/vtable"
)

type state int

const (
	stateUncreated state = iota
	stateCreated
	stateClosed
)

// Lifecycle tracks the uncreated -> created -> closed state machine shared by all live nodes.
// Nodes embed it and call its checks at the start of their operations.
type Lifecycle struct {
	state state
}

func (l *Lifecycle) BeginCreate(node string) error {
	if l.state != stateUncreated {
		return errors.Wrapf(vtable.ErrIllegalState, "%s node created twice", node)
	}
	l.state = stateCreated
	return nil
}

func (l *Lifecycle) CheckCreated(node string) error {
	switch l.state {
	case stateUncreated:
		return errors.Wrapf(vtable.ErrIllegalState, "%s node used before being created", node)
	case stateClosed:
		return errors.Wrapf(vtable.ErrIllegalState, "%s node used after being closed", node)
	}
	return nil
}

// BeginClose returns false if the node has already been closed.
func (l *Lifecycle) BeginClose() bool {
	if l.state == stateClosed {
		return false
	}
	l.state = stateClosed
	return true
}
