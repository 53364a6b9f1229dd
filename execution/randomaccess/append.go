package randomaccess

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
)

// Append puts the columns of its sources side by side.
// Its size is the size of its longest source, the columns of shorter sources read as missing past their end.
type Append struct {
	execution.Lifecycle
	sources []execution.RandomAccessNode
	inputs  [][]access.ReadAccess
	cells   [][]*access.Cell
	outputs []access.ReadAccess

	// bySize holds source indices, ordered by ascending size.
	bySize []int
	sizes  []int64
	size   int64
	// exhausted is the number of sources in bySize which are past their end at the current row.
	exhausted int
}

func NewAppend(sources []execution.RandomAccessNode, inputs [][]access.ReadAccess) *Append {
	cells := make([][]*access.Cell, len(inputs))
	var outputs []access.ReadAccess
	for i := range inputs {
		cells[i] = make([]*access.Cell, len(inputs[i]))
		for j := range inputs[i] {
			cells[i][j] = access.NewCell(inputs[i][j].Type())
			outputs = append(outputs, cells[i][j])
		}
	}
	return &Append{
		sources: sources,
		inputs:  inputs,
		cells:   cells,
		outputs: outputs,
		size:    -1,
	}
}

func (a *Append) Create() error {
	if err := a.BeginCreate("append"); err != nil {
		return err
	}
	a.bySize = make([]int, len(a.sources))
	a.sizes = make([]int64, len(a.sources))
	a.size = 0
	for i := range a.sources {
		if err := a.sources[i].Create(); err != nil {
			return errors.Wrapf(err, "couldn't create append source %d", i)
		}
		a.bySize[i] = i
		if size := a.sources[i].Size(); size > a.size {
			a.size = size
		}
	}
	sort.SliceStable(a.bySize, func(i, j int) bool {
		return a.sources[a.bySize[i]].Size() < a.sources[a.bySize[j]].Size()
	})
	for i, source := range a.bySize {
		a.sizes[i] = a.sources[source].Size()
	}
	for i := range a.cells {
		for j := range a.cells[i] {
			a.cells[i][j].Set(a.inputs[i][j])
		}
	}
	return nil
}

func (a *Append) MoveTo(row int64) error {
	if err := a.CheckCreated("append"); err != nil {
		return err
	}
	if err := checkRow("append", row, a.size); err != nil {
		return err
	}
	exhausted := sort.Search(len(a.sizes), func(i int) bool {
		return a.sizes[i] > row
	})
	if exhausted != a.exhausted {
		a.relink(exhausted)
	}
	for _, source := range a.bySize[exhausted:] {
		if err := a.sources[source].MoveTo(row); err != nil {
			return errors.Wrapf(err, "couldn't move append source %d", source)
		}
	}
	return nil
}

func (a *Append) relink(exhausted int) {
	for i, source := range a.bySize {
		for j, cell := range a.cells[source] {
			if i < exhausted {
				cell.SetMissing()
			} else {
				cell.Set(a.inputs[source][j])
			}
		}
	}
	a.exhausted = exhausted
}

func (a *Append) Size() int64 {
	return a.size
}

func (a *Append) Outputs() []access.ReadAccess {
	return a.outputs
}

func (a *Append) Close() error {
	if !a.BeginClose() {
		return nil
	}
	closers := make([]func() error, len(a.sources))
	for i := range a.sources {
		closers[i] = a.sources[i].Close
	}
	return execution.CloseAll("append", closers...)
}
