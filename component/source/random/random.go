package random

import (
	"math/rand"
	"styx"
	"styx/chunk"
	"styx/properties"
	"time"
)

var (
	IntervalProperty = properties.NewProperty[int]("interval", "random source generate chunk interval", 100)
	RowsProperty     = properties.NewProperty[int]("rows", "rows per generated chunk", 8)
)

//header: a window end timestamp and a random payload
var header = chunk.MustNewHeader(
	chunk.ColumnDef{Name: "window_end", Kind: chunk.KindUInt32},
	chunk.ColumnDef{Name: "random", Kind: chunk.KindInt64},
)

type source struct {
	ctx      styx.Context
	interval int
	rows     int
}

func (s *source) PropertyDef() styx.PropertyDef {
	return styx.PropertyDef{IntervalProperty, RowsProperty}
}

func (s *source) Collect(emitNext styx.EmitNext) error {
	//open source
	ticker := time.NewTicker(time.Duration(s.interval) * time.Millisecond)
	for true {
		select {
		case <-s.ctx.Done():
			//source close
			return nil
		case <-ticker.C:
			windowEnds := make([]uint32, s.rows)
			randoms := make([]int64, s.rows)
			now := uint32(time.Now().Unix())
			for i := 0; i < s.rows; i++ {
				windowEnds[i] = now
				randoms[i] = rand.Int63()
			}
			emitNext(chunk.MustNew(header, []chunk.Column{
				&chunk.UInt32Column{Data: windowEnds},
				&chunk.Int64Column{Data: randoms},
			}))
		}
	}
	return nil
}

func (s *source) Open(ctx styx.Context) error {
	s.ctx = ctx
	s.interval = ctx.Properties().GetInt(IntervalProperty.Name())
	s.rows = ctx.Properties().GetInt(RowsProperty.Name())

	return nil
}

func (s *source) Close() error {
	return nil
}

//New uses for test only
func New() styx.Source {
	return &source{}
}
