package randomaccess

import (
	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

type Slice struct {
	execution.Lifecycle
	source   execution.RandomAccessNode
	from, to int64

	size int64
}

func NewSlice(source execution.RandomAccessNode, from, to int64) *Slice {
	return &Slice{
		source: source,
		from:   from,
		to:     to,
		size:   -1,
	}
}

func (s *Slice) Create() error {
	if err := s.BeginCreate("slice"); err != nil {
		return err
	}
	if err := s.source.Create(); err != nil {
		return err
	}
	s.size = vtable.Rows(s.from, s.to).Clamp(s.source.Size())
	return nil
}

func (s *Slice) MoveTo(row int64) error {
	if err := s.CheckCreated("slice"); err != nil {
		return err
	}
	if err := checkRow("slice", row, s.size); err != nil {
		return err
	}
	return s.source.MoveTo(s.from + row)
}

func (s *Slice) Size() int64 {
	return s.size
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
