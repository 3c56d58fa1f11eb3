package sample

import (
	"styx"
	"styx/chunk"
	"styx/properties"
	"sync/atomic"
)

var (
	RateProperty = properties.NewProperty[uint64]("rate", "forward one chunk of every rate", uint64(10))
)

type operator struct {
	ctx styx.Context

	rate     uint64
	ops      uint64
	emitNext styx.EmitNext
}

func (o *operator) Open(ctx styx.Context) error {
	o.ctx = ctx
	o.rate = ctx.Properties().GetUint64(RateProperty.Name())

	return nil
}

func (o *operator) Close() error {
	return nil
}

func (o *operator) PropertyDef() styx.PropertyDef {
	return styx.PropertyDef{RateProperty}
}

func (o *operator) Collect(emitNext styx.EmitNext) error {
	o.emitNext = emitNext
	<-o.ctx.Done()
	return nil
}

func (o *operator) Emit(ck *chunk.Chunk) {
	if atomic.AddUint64(&o.ops, 1) == o.rate {
		atomic.AddUint64(&o.ops, -o.rate)
		o.emitNext(ck)
	}

}

func New() styx.Operator {
	return &operator{}
}
