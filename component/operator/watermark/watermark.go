package watermark

import (
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"styx"
	"styx/chunk"
	"styx/properties"
	"styx/view"
)

var (
	ViewProperty         = properties.NewRequiredProperty[string]("view", "window view store to notify at drain")
	ColumnProperty       = properties.NewProperty[string]("column", "window end timestamp column name", "window_end")
	MaxTimestampProperty = properties.NewProperty[uint64]("max.timestamp", "upstream max raw event timestamp, 0 disables the notification", uint64(0))
	LatenessProperty     = properties.NewProperty[uint64]("lateness.upper.bound", "inclusive cutoff classifying a window end as late, 0 disables late tracking", uint64(0))
)

type operator struct {
	ctx styx.Context

	store              *view.Store
	windowColumnName   string
	maxTimestamp       uint32
	latenessUpperBound uint32

	stage    *Stage
	emitNext styx.EmitNext
}

func (o *operator) Open(ctx styx.Context) error {
	o.ctx = ctx
	o.windowColumnName = ctx.Properties().GetString(ColumnProperty.Name())
	o.maxTimestamp = cast.ToUint32(ctx.Properties().Get(MaxTimestampProperty.Name()))
	o.latenessUpperBound = cast.ToUint32(ctx.Properties().Get(LatenessProperty.Name()))

	viewName := ctx.Properties().GetString(ViewProperty.Name())
	o.store = view.Get(viewName)
	if o.store == nil {
		return errors.WithMessage(ErrStoreUnavailable, viewName)
	}
	return nil
}

func (o *operator) Close() error {
	if o.stage != nil {
		o.stage.Drain()
	}
	return nil
}

func (o *operator) PropertyDef() styx.PropertyDef {
	return styx.PropertyDef{ViewProperty, ColumnProperty, MaxTimestampProperty, LatenessProperty}
}

func (o *operator) Collect(emitNext styx.EmitNext) error {
	o.emitNext = emitNext
	<-o.ctx.Done()
	return nil
}

func (o *operator) Emit(ck *chunk.Chunk) {
	if o.stage == nil {
		stage, err := NewStage(ck.Header(), o.store, o.windowColumnName, o.maxTimestamp, o.latenessUpperBound, o.ctx.Logger())
		if err != nil {
			o.ctx.Logger().WithError(err).Error("watermark stage rejected the stream header, cancelling pipeline.")
			o.ctx.Cancel()
			return
		}
		o.stage = stage
	}
	out, err := o.stage.Transform(ck)
	if err != nil {
		o.ctx.Logger().WithError(err).Error("watermark stage rejected a chunk, cancelling pipeline.")
		o.ctx.Cancel()
		return
	}
	o.emitNext(out)
}

func New() styx.Operator {
	return &operator{}
}
