package chunk

import (
	"github.com/pkg/errors"
)

var ErrRowWidth = errors.New("row field count does not match header")

//Builder accumulate text rows and cut chunks, used by sources
type Builder struct {
	header  *Header
	columns []Column
	numRows int
}

func NewBuilder(header *Header) *Builder {
	b := &Builder{header: header}
	b.reset()
	return b
}

func (b *Builder) reset() {
	b.columns = make([]Column, b.header.Len())
	for i := range b.columns {
		b.columns[i] = newColumn(b.header.Def(i).Kind)
	}
	b.numRows = 0
}

func (b *Builder) AppendRow(fields []string) error {
	if len(fields) != b.header.Len() {
		return errors.WithMessagef(ErrRowWidth, "%d fields for header %s", len(fields), b.header)
	}
	for i, field := range fields {
		if err := b.columns[i].appendText(field); err != nil {
			return errors.WithMessagef(err, "column %s", b.header.Def(i).Name)
		}
	}
	b.numRows++
	return nil
}

func (b *Builder) Len() int {
	return b.numRows
}

//Cut return the accumulated chunk and reset the builder, nil if no rows
func (b *Builder) Cut() *Chunk {
	if b.numRows == 0 {
		return nil
	}
	ck := &Chunk{header: b.header, columns: b.columns, numRows: b.numRows}
	b.reset()
	return ck
}
