package chunk

import (
	"fmt"
	"github.com/pkg/errors"
	"strings"
)

var (
	ErrNoColumn      = errors.New("header has no column with this name")
	ErrHeaderInvalid = errors.New("header column names must be unique and non empty")
	ErrShapeInvalid  = errors.New("columns must match header count, kinds and row length")
)

type ColumnDef struct {
	Name string
	Kind Kind
}

//Header fix the schema of every chunk flowing through one pipeline edge
type Header struct {
	defs     []ColumnDef
	position map[string]int
}

func NewHeader(defs ...ColumnDef) (*Header, error) {
	position := map[string]int{}
	for i, def := range defs {
		if def.Name == "" {
			return nil, errors.WithMessagef(ErrHeaderInvalid, "column %d", i)
		}
		if _, ok := position[def.Name]; ok {
			return nil, errors.WithMessage(ErrHeaderInvalid, def.Name)
		}
		position[def.Name] = i
	}
	return &Header{defs: defs, position: position}, nil
}

func MustNewHeader(defs ...ColumnDef) *Header {
	if header, err := NewHeader(defs...); err != nil {
		panic(err)
	} else {
		return header
	}
}

//ParseSchema build a header from "name:kind" entries, used by source properties
func ParseSchema(entries []string) (*Header, error) {
	defs := make([]ColumnDef, 0, len(entries))
	for _, entry := range entries {
		name, kindName, found := strings.Cut(entry, ":")
		if !found || name == "" {
			return nil, errors.WithMessagef(ErrHeaderInvalid, "schema entry %q", entry)
		}
		kind, err := ParseKind(kindName)
		if err != nil {
			return nil, err
		}
		defs = append(defs, ColumnDef{Name: name, Kind: kind})
	}
	return NewHeader(defs...)
}

func (h *Header) Position(name string) (int, error) {
	if idx, ok := h.position[name]; ok {
		return idx, nil
	}
	return 0, errors.WithMessage(ErrNoColumn, name)
}

func (h *Header) Def(i int) ColumnDef {
	return h.defs[i]
}

func (h *Header) Len() int {
	return len(h.defs)
}

func (h *Header) String() string {
	names := make([]string, len(h.defs))
	for i, def := range h.defs {
		names[i] = fmt.Sprintf("%s:%s", def.Name, def.Kind)
	}
	return strings.Join(names, ",")
}

//Chunk is a fixed-schema horizontal slice of a streaming relation,
//columns are equal-length and ordered by the header
type Chunk struct {
	header  *Header
	columns []Column
	numRows int
}

func New(header *Header, columns []Column) (*Chunk, error) {
	if len(columns) != header.Len() {
		return nil, errors.WithMessagef(ErrShapeInvalid, "%d columns for header %s", len(columns), header)
	}
	numRows := 0
	for i, column := range columns {
		if column.Kind() != header.Def(i).Kind {
			return nil, errors.WithMessagef(ErrShapeInvalid, "column %s is %s", header.Def(i).Name, column.Kind())
		}
		if i == 0 {
			numRows = column.Len()
		} else if column.Len() != numRows {
			return nil, errors.WithMessagef(ErrShapeInvalid, "column %s has %d rows, want %d", header.Def(i).Name, column.Len(), numRows)
		}
	}
	return &Chunk{header: header, columns: columns, numRows: numRows}, nil
}

func MustNew(header *Header, columns []Column) *Chunk {
	if ck, err := New(header, columns); err != nil {
		panic(err)
	} else {
		return ck
	}
}

func (c *Chunk) Header() *Header {
	return c.header
}

func (c *Chunk) NumRows() int {
	return c.numRows
}

func (c *Chunk) Columns() []Column {
	return c.columns
}

func (c *Chunk) Column(i int) Column {
	return c.columns[i]
}

//DetachColumns hand the column vectors to the caller, the chunk is empty until SetColumns
func (c *Chunk) DetachColumns() []Column {
	columns := c.columns
	c.columns = nil
	c.numRows = 0
	return columns
}

func (c *Chunk) SetColumns(columns []Column, numRows int) {
	c.columns = columns
	c.numRows = numRows
}
