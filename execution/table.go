package execution

import (
	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/vtable"
)

// Table is a row-oriented table which can be read by cursors.
// Tables are owned by the caller, the engine only borrows them while a cursor is open.
type Table interface {
	Schema() vtable.Schema
	// Cursor opens a cursor over the selected columns and rows.
	// The cursor's accessors are indexed by position in the selection.
	Cursor(selection vtable.Selection) (Cursor, error)
	// Size returns the number of rows, or -1 if it's not known.
	Size() int64
	Close() error
}

// RandomAccessTable is a Table which can also be read by seeking.
type RandomAccessTable interface {
	Table
	RandomAccessCursor(selection vtable.Selection) (RandomAccessCursor, error)
}

type Cursor interface {
	Forward() (bool, error)
	Access(column int) access.ReadAccess
	NumColumns() int
	Close() error
}

// LookaheadCursor is a Cursor which can tell whether another row is available without consuming it.
type LookaheadCursor interface {
	Cursor
	CanForward() (bool, error)
}

type RandomAccessCursor interface {
	// MoveTo positions the cursor on the given row, relative to the selection it was created for.
	MoveTo(row int64) error
	Size() int64
	Access(column int) access.ReadAccess
	NumColumns() int
	Close() error
}

// Sink receives the rows of a materialized table.
type Sink interface {
	Schema() vtable.Schema
	Write(row []access.ReadAccess) error
	Flush() error
}
