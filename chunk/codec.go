package chunk

import (
	"bytes"
	"encoding/gob"
)

//gob codec for component state snapshots

type wire struct {
	Defs    []ColumnDef
	Columns []Column
	NumRows int
}

func init() {
	gob.Register(&UInt32Column{})
	gob.Register(&Int64Column{})
	gob.Register(&Float64Column{})
	gob.Register(&StringColumn{})
}

func Marshal(cks []*Chunk) ([]byte, error) {
	var buffer bytes.Buffer
	wires := make([]wire, len(cks))
	for i, ck := range cks {
		wires[i] = wire{Defs: ck.header.defs, Columns: ck.columns, NumRows: ck.numRows}
	}
	if err := gob.NewEncoder(&buffer).Encode(&wires); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func Unmarshal(snapshot []byte) ([]*Chunk, error) {
	var wires []wire
	if err := gob.NewDecoder(bytes.NewReader(snapshot)).Decode(&wires); err != nil {
		return nil, err
	}
	cks := make([]*Chunk, 0, len(wires))
	for _, w := range wires {
		header, err := NewHeader(w.Defs...)
		if err != nil {
			return nil, err
		}
		ck, err := New(header, w.Columns)
		if err != nil {
			return nil, err
		}
		cks = append(cks, ck)
	}
	return cks, nil
}
