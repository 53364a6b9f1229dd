package nodes

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

// RowIndex provides the ordinal of the current row, plus an offset, as a long column.
type RowIndex struct {
	execution.Lifecycle
	source  execution.SequentialNode
	offset  int64
	buffer  *access.Buffer
	outputs []access.ReadAccess

	index int64
}

func NewRowIndex(source execution.SequentialNode, offset int64) *RowIndex {
	buffer, _ := access.NewBuffer(vtable.Long)
	return &RowIndex{
		source:  source,
		offset:  offset,
		buffer:  buffer,
		outputs: []access.ReadAccess{buffer},
		index:   -1,
	}
}

func (r *RowIndex) Create() error {
	if err := r.BeginCreate("row index"); err != nil {
		return err
	}
	return r.source.Create()
}

func (r *RowIndex) Forward() (bool, error) {
	if err := r.CheckCreated("row index"); err != nil {
		return false, err
	}
	ok, err := r.source.Forward()
	if err != nil {
		return false, errors.Wrap(err, "couldn't forward source")
	}
	if !ok {
		r.buffer.SetMissing()
		return false, nil
	}
	r.index++
	r.buffer.SetLong(r.index + r.offset)
	return true, nil
}

func (r *RowIndex) CanForward() (bool, error) {
	if err := r.CheckCreated("row index"); err != nil {
		return false, err
	}
	return r.source.CanForward()
}

func (r *RowIndex) SupportsLookahead() bool {
	return r.source.SupportsLookahead()
}

func (r *RowIndex) Outputs() []access.ReadAccess {
	return r.outputs
}

func (r *RowIndex) Close() error {
	if !r.BeginClose() {
		return nil
	}
	return execution.CloseAll("row index", r.source.Close)
}
