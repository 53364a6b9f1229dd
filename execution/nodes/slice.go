package nodes

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
)

// Slice restricts its source to the rows [from, to).
type Slice struct {
	execution.Lifecycle
	source   execution.SequentialNode
	from, to int64

	// position is the number of source rows consumed so far.
	position int64
}

func NewSlice(source execution.SequentialNode, from, to int64) *Slice {
	return &Slice{
		source: source,
		from:   from,
		to:     to,
	}
}

func (s *Slice) Create() error {
	if err := s.BeginCreate("slice"); err != nil {
		return err
	}
	return s.source.Create()
}

// skip consumes the rows before the slice start.
// The skipped rows are never visible, so doing this during lookahead doesn't change any later Forward.
func (s *Slice) skip() (bool, error) {
	for s.position < s.from {
		ok, err := s.source.Forward()
		if err != nil {
			return false, errors.Wrap(err, "couldn't skip source row")
		}
		if !ok {
			// Make sure we never forward an exhausted source again.
			s.from = s.position
			s.to = s.position
			return false, nil
		}
		s.position++
	}
	return true, nil
}

func (s *Slice) Forward() (bool, error) {
	if err := s.CheckCreated("slice"); err != nil {
		return false, err
	}
	if ok, err := s.skip(); !ok || err != nil {
		return false, err
	}
	if s.position >= s.to {
		return false, nil
	}
	ok, err := s.source.Forward()
	if err != nil {
		return false, errors.Wrap(err, "couldn't forward source")
	}
	if !ok {
		s.to = s.position
		return false, nil
	}
	s.position++
	return true, nil
}

func (s *Slice) CanForward() (bool, error) {
	if err := s.CheckCreated("slice"); err != nil {
		return false, err
	}
	if ok, err := s.skip(); !ok || err != nil {
		return false, err
	}
	if s.position >= s.to {
		return false, nil
	}
	return s.source.CanForward()
}

func (s *Slice) SupportsLookahead() bool {
	return s.source.SupportsLookahead()
}

func (s *Slice) Outputs() []access.ReadAccess {
	return nil
}

func (s *Slice) Close() error {
	if !s.BeginClose() {
		return nil
	}
	return execution.CloseAll("slice", s.source.Close)
}
