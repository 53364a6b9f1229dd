package randomaccess

import (
	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

type RowIndex struct {
	execution.Lifecycle
	source  execution.RandomAccessNode
	offset  int64
	buffer  *access.Buffer
	outputs []access.ReadAccess
}

func NewRowIndex(source execution.RandomAccessNode, offset int64) *RowIndex {
	buffer, _ := access.NewBuffer(vtable.Long)
	return &RowIndex{
		source:  source,
		offset:  offset,
		buffer:  buffer,
		outputs: []access.ReadAccess{buffer},
	}
}

func (r *RowIndex) Create() error {
	if err := r.BeginCreate("row index"); err != nil {
		return err
	}
	return r.source.Create()
}

func (r *RowIndex) MoveTo(row int64) error {
	if err := r.CheckCreated("row index"); err != nil {
		return err
	}
	if err := r.source.MoveTo(row); err != nil {
		return err
	}
	r.buffer.SetLong(row + r.offset)
	return nil
}

func (r *RowIndex) Size() int64 {
	return r.source.Size()
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
