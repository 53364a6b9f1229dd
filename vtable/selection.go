package vtable

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// RowRange is a half-open range of row indices. The zero value selects all rows.
type RowRange struct {
	Bounded  bool
	From, To int64
}

func AllRows() RowRange {
	return RowRange{}
}

func Rows(from, to int64) RowRange {
	return RowRange{Bounded: true, From: from, To: to}
}

func (r RowRange) Validate() error {
	if !r.Bounded {
		return nil
	}
	if r.From < 0 || r.To < 0 {
		return errors.Wrapf(ErrInvalidSpec, "row range [%d, %d) must be non-negative", r.From, r.To)
	}
	if r.From > r.To {
		return errors.Wrapf(ErrInvalidSpec, "row range start %d is after its end %d", r.From, r.To)
	}
	return nil
}

// Compose maps inner, given relative to r, into the coordinates r itself is expressed in.
// For example Rows(2, 10).Compose(Rows(1, 3)) is Rows(3, 5).
func (r RowRange) Compose(inner RowRange) RowRange {
	if !inner.Bounded {
		return r
	}
	if !r.Bounded {
		return inner
	}
	from := r.From + inner.From
	to := r.From + inner.To
	if from > r.To {
		from = r.To
	}
	if to > r.To {
		to = r.To
	}
	return Rows(from, to)
}

// Clamp returns the number of rows of a table with size rows visible through this range.
// Size -1 means unknown, in which case -1 is returned.
func (r RowRange) Clamp(size int64) int64 {
	if size < 0 {
		return -1
	}
	if !r.Bounded {
		return size
	}
	to := r.To
	if to > size {
		to = size
	}
	if r.From >= to {
		return 0
	}
	return to - r.From
}

func (r RowRange) String() string {
	if !r.Bounded {
		return "*"
	}
	return strconv.FormatInt(r.From, 10) + ":" + strconv.FormatInt(r.To, 10)
}

// Selection describes the columns and rows a cursor is created for.
// Nil Columns selects all columns.
type Selection struct {
	Columns []int
	Rows    RowRange
}

func SelectAll() Selection {
	return Selection{}
}

func SelectColumns(columns ...int) Selection {
	return Selection{Columns: append([]int{}, columns...)}
}

func (s Selection) WithRows(from, to int64) Selection {
	s.Rows = Rows(from, to)
	return s
}

func (s Selection) AllColumns() bool {
	return s.Columns == nil
}

// Validate checks that the column indices are non-negative, strictly ascending, and the row range is valid.
// numColumns is the width of the table the selection applies to.
func (s Selection) Validate(numColumns int) error {
	for i, column := range s.Columns {
		if column < 0 || column >= numColumns {
			return errors.Wrapf(ErrInvalidSpec, "selected column %d out of range for %d columns", column, numColumns)
		}
		if i > 0 && s.Columns[i-1] >= column {
			return errors.Wrapf(ErrInvalidSpec, "selected columns must be strictly ascending, got %v", s.Columns)
		}
	}
	return s.Rows.Validate()
}

// Resolve returns the explicit column list for a table with numColumns columns.
func (s Selection) Resolve(numColumns int) []int {
	if s.Columns != nil {
		return append([]int{}, s.Columns...)
	}
	out := make([]int, numColumns)
	for i := range out {
		out[i] = i
	}
	return out
}

// Key is a canonical representation, equal for equal selections.
func (s Selection) Key() string {
	builder := &strings.Builder{}
	if s.Columns == nil {
		builder.WriteString("c=*")
	} else {
		builder.WriteString("c=[")
		for i, column := range s.Columns {
			if i != 0 {
				builder.WriteString(",")
			}
			builder.WriteString(strconv.Itoa(column))
		}
		builder.WriteString("]")
	}
	builder.WriteString(";r=")
	builder.WriteString(s.Rows.String())
	return builder.String()
}

func (s Selection) String() string {
	return s.Key()
}
