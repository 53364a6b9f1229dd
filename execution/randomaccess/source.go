package randomaccess

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

type Source struct {
	execution.Lifecycle
	table     execution.RandomAccessTable
	selection vtable.Selection
	cells     []*access.Cell
	outputs   []access.ReadAccess

	cursor execution.RandomAccessCursor
	size   int64
}

func NewSource(table execution.RandomAccessTable, selection vtable.Selection, columnTypes []vtable.Type) *Source {
	cells := make([]*access.Cell, len(columnTypes))
	outputs := make([]access.ReadAccess, len(columnTypes))
	for i := range columnTypes {
		cells[i] = access.NewCell(columnTypes[i])
		outputs[i] = cells[i]
	}
	return &Source{
		table:     table,
		selection: selection,
		cells:     cells,
		outputs:   outputs,
		size:      -1,
	}
}

func (s *Source) Create() error {
	if err := s.BeginCreate("source"); err != nil {
		return err
	}
	cursor, err := s.table.RandomAccessCursor(s.selection)
	if err != nil {
		return errors.Wrap(err, "couldn't open random access source cursor")
	}
	s.cursor = cursor
	if cursor.NumColumns() != len(s.cells) {
		return errors.Wrapf(vtable.ErrSchemaMismatch, "source cursor has %d columns, expected %d", cursor.NumColumns(), len(s.cells))
	}
	if cursor.Size() < 0 {
		return errors.Wrap(vtable.ErrRandomAccessUnsupported, "source cursor doesn't know its size")
	}
	s.size = cursor.Size()
	for i := range s.cells {
		s.cells[i].Set(cursor.Access(i))
	}
	return nil
}

func (s *Source) MoveTo(row int64) error {
	if err := s.CheckCreated("source"); err != nil {
		return err
	}
	if err := checkRow("source", row, s.size); err != nil {
		return err
	}
	if err := s.cursor.MoveTo(row); err != nil {
		return errors.Wrapf(err, "couldn't move source cursor to row %d", row)
	}
	return nil
}

func (s *Source) Size() int64 {
	return s.size
}

func (s *Source) Outputs() []access.ReadAccess {
	return s.outputs
}

func (s *Source) Close() error {
	if !s.BeginClose() || s.cursor == nil {
		return nil
	}
	if err := s.cursor.Close(); err != nil {
		return errors.Wrap(err, "couldn't close source cursor")
	}
	return nil
}
