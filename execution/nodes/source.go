package nodes

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

// Source reads a projection of an external table.
type Source struct {
	execution.Lifecycle
	table     execution.Table
	selection vtable.Selection
	cells     []*access.Cell
	outputs   []access.ReadAccess

	cursor    execution.Cursor
	lookahead execution.LookaheadCursor
}

// NewSource creates a source node reading the selected columns of table.
// columnTypes are the types of the selected columns, in selection order.
func NewSource(table execution.Table, selection vtable.Selection, columnTypes []vtable.Type) *Source {
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
	}
}

func (s *Source) Create() error {
	if err := s.BeginCreate("source"); err != nil {
		return err
	}
	cursor, err := s.table.Cursor(s.selection)
	if err != nil {
		return errors.Wrap(err, "couldn't open source cursor")
	}
	if cursor.NumColumns() != len(s.cells) {
		closeErr := cursor.Close()
		return errors.Wrapf(vtable.ErrSchemaMismatch, "source cursor has %d columns, expected %d (close error: %v)", cursor.NumColumns(), len(s.cells), closeErr)
	}
	for i := range s.cells {
		s.cells[i].Set(cursor.Access(i))
	}
	s.cursor = cursor
	if lookahead, ok := cursor.(execution.LookaheadCursor); ok {
		s.lookahead = lookahead
	}
	return nil
}

func (s *Source) Forward() (bool, error) {
	if err := s.CheckCreated("source"); err != nil {
		return false, err
	}
	ok, err := s.cursor.Forward()
	if err != nil {
		return false, errors.Wrap(err, "couldn't forward source cursor")
	}
	return ok, nil
}

func (s *Source) CanForward() (bool, error) {
	if err := s.CheckCreated("source"); err != nil {
		return false, err
	}
	if s.lookahead == nil {
		return false, errors.Wrap(vtable.ErrIllegalState, "source cursor doesn't support lookahead")
	}
	return s.lookahead.CanForward()
}

// SupportsLookahead is only meaningful once the node has been created.
func (s *Source) SupportsLookahead() bool {
	return s.lookahead != nil
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
