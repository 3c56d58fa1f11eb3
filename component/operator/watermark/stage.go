package watermark

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"styx/chunk"
	"sync"
)

var (
	//ErrSchemaMismatch is fatal, the pipeline should be cancelled
	ErrSchemaMismatch = errors.New("window column is missing or not uint32")
	//ErrLifecycle mean a chunk was submitted after drain, programmer error
	ErrLifecycle = errors.New("chunk submitted after drain")
	//ErrStoreUnavailable mean the view store handle is gone at drain time
	ErrStoreUnavailable = errors.New("window view store is unavailable")
)

//Intake is the window view store surface the stage notifies at drain.
//Implementations must be safe under concurrent callers.
type Intake interface {
	UpdateMaxTimestamp(ts uint32)
	UpdateMaxWatermark(ts uint32)
	AddFireSignal(signals map[uint32]struct{})
}

//Stage observe every chunk passing through, accumulate the max seen
//window-end timestamp and the late window-end set, and forward chunks
//unchanged. Aggregates reach the store exactly once, at Drain.
//
//One stage instance is driven by one pipeline goroutine, per-chunk state
//needs no locking; Drain may race with nothing but itself.
type Stage struct {
	header             *chunk.Header
	store              Intake
	windowColumnIdx    int
	maxTimestamp       uint32
	latenessUpperBound uint32
	logger             logrus.FieldLogger

	maxWatermark uint32
	lateSignals  map[uint32]struct{}
	drained      bool
	drainOnce    sync.Once
}

//NewStage resolve and type-check the window column once, eagerly;
//a header without it never accepts a chunk.
func NewStage(header *chunk.Header, store Intake, windowColumnName string, maxTimestamp uint32, latenessUpperBound uint32, logger logrus.FieldLogger) (*Stage, error) {
	idx, err := header.Position(windowColumnName)
	if err != nil {
		return nil, errors.WithMessage(ErrSchemaMismatch, windowColumnName)
	}
	if def := header.Def(idx); def.Kind != chunk.KindUInt32 {
		return nil, errors.WithMessagef(ErrSchemaMismatch, "%s is %s", windowColumnName, def.Kind)
	}
	return &Stage{
		header:             header,
		store:              store,
		windowColumnIdx:    idx,
		maxTimestamp:       maxTimestamp,
		latenessUpperBound: latenessUpperBound,
		logger:             logger,
		lateSignals:        map[uint32]struct{}{},
	}, nil
}

//Transform update stage aggregates from the window-end column and hand the
//chunk back untouched, same rows, same columns, same order.
func (s *Stage) Transform(ck *chunk.Chunk) (*chunk.Chunk, error) {
	if s.drained {
		return nil, ErrLifecycle
	}
	numRows := ck.NumRows()
	columns := ck.DetachColumns()

	windowColumn, ok := columns[s.windowColumnIdx].(*chunk.UInt32Column)
	if !ok {
		return nil, errors.WithMessage(ErrSchemaMismatch, s.header.Def(s.windowColumnIdx).Name)
	}
	for _, ts := range windowColumn.Data {
		if ts > s.maxWatermark {
			s.maxWatermark = ts
		}
		//zero is the unset sentinel everywhere, never a real window end
		if s.latenessUpperBound != 0 && ts != 0 && ts <= s.latenessUpperBound {
			s.lateSignals[ts] = struct{}{}
		}
	}

	ck.SetColumns(columns, numRows)
	return ck, nil
}

//Watermark is the max window-end timestamp seen so far, 0 until one arrives.
func (s *Stage) Watermark() uint32 {
	return s.maxWatermark
}

//Drain deliver the aggregates to the store: max timestamp, then watermark,
//then late signals. Exactly once, on every exit path, best effort, a failed
//notification never skips the following ones.
func (s *Stage) Drain() {
	s.drainOnce.Do(func() {
		s.drained = true
		if s.store == nil {
			s.logger.WithError(ErrStoreUnavailable).Error("drop watermark stage aggregates.")
			return
		}
		if s.maxTimestamp != 0 {
			s.notify(func() { s.store.UpdateMaxTimestamp(s.maxTimestamp) })
		}
		if s.maxWatermark != 0 {
			s.notify(func() { s.store.UpdateMaxWatermark(s.maxWatermark) })
		}
		if s.latenessUpperBound != 0 {
			s.notify(func() { s.store.AddFireSignal(s.lateSignals) })
		}
	})
}

func (s *Stage) notify(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("watermark stage drain notification error:%v.", r)
		}
	}()
	fn()
}
