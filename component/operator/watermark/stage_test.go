package watermark

import (
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"styx/chunk"
	"sync"
	"testing"
)

type recordingStore struct {
	mutex         sync.Mutex
	maxTimestamps []uint32
	maxWatermarks []uint32
	fireSignals   []map[uint32]struct{}
}

func (r *recordingStore) UpdateMaxTimestamp(ts uint32) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.maxTimestamps = append(r.maxTimestamps, ts)
}

func (r *recordingStore) UpdateMaxWatermark(ts uint32) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.maxWatermarks = append(r.maxWatermarks, ts)
}

func (r *recordingStore) AddFireSignal(signals map[uint32]struct{}) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	copied := map[uint32]struct{}{}
	for windowEnd := range signals {
		copied[windowEnd] = struct{}{}
	}
	r.fireSignals = append(r.fireSignals, copied)
}

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

var testHeader = chunk.MustNewHeader(
	chunk.ColumnDef{Name: "id", Kind: chunk.KindInt64},
	chunk.ColumnDef{Name: "window_end", Kind: chunk.KindUInt32},
)

func windowChunk(t *testing.T, windowEnds ...uint32) *chunk.Chunk {
	t.Helper()
	ids := make([]int64, len(windowEnds))
	for i := range windowEnds {
		ids[i] = int64(i)
	}
	return chunk.MustNew(testHeader, []chunk.Column{
		&chunk.Int64Column{Data: ids},
		&chunk.UInt32Column{Data: windowEnds},
	})
}

func newTestStage(t *testing.T, store Intake, maxTimestamp uint32, latenessUpperBound uint32) *Stage {
	t.Helper()
	stage, err := NewStage(testHeader, store, "window_end", maxTimestamp, latenessUpperBound, testLogger())
	require.NoError(t, err)
	return stage
}

func TestStageEmptyStream(t *testing.T) {
	store := &recordingStore{}
	stage := newTestStage(t, store, 0, 0)

	stage.Drain()

	assert.Empty(t, store.maxTimestamps)
	assert.Empty(t, store.maxWatermarks)
	assert.Empty(t, store.fireSignals)
}

func TestStageBasicWatermark(t *testing.T) {
	store := &recordingStore{}
	stage := newTestStage(t, store, 0, 0)

	first := windowChunk(t, 10, 20)
	out, err := stage.Transform(first)
	require.NoError(t, err)
	assert.Same(t, first, out)
	assert.Equal(t, []uint32{10, 20}, out.Column(1).(*chunk.UInt32Column).Data)

	second := windowChunk(t, 15, 25)
	out, err = stage.Transform(second)
	require.NoError(t, err)
	assert.Same(t, second, out)
	assert.Equal(t, []uint32{15, 25}, out.Column(1).(*chunk.UInt32Column).Data)

	//nothing reaches the store before drain
	assert.Empty(t, store.maxWatermarks)

	stage.Drain()
	assert.Empty(t, store.maxTimestamps)
	assert.Equal(t, []uint32{25}, store.maxWatermarks)
	assert.Empty(t, store.fireSignals)
}

func TestStageLateSignals(t *testing.T) {
	store := &recordingStore{}
	stage := newTestStage(t, store, 0, 15)

	_, err := stage.Transform(windowChunk(t, 10, 20, 14))
	require.NoError(t, err)
	_, err = stage.Transform(windowChunk(t, 30, 5))
	require.NoError(t, err)

	stage.Drain()

	assert.Equal(t, []uint32{30}, store.maxWatermarks)
	require.Len(t, store.fireSignals, 1)
	assert.Equal(t, map[uint32]struct{}{5: {}, 10: {}, 14: {}}, store.fireSignals[0])
}

func TestStageMaxTimestampSeed(t *testing.T) {
	store := &recordingStore{}
	stage := newTestStage(t, store, 100, 0)

	stage.Drain()

	assert.Equal(t, []uint32{100}, store.maxTimestamps)
	assert.Empty(t, store.maxWatermarks)
	assert.Empty(t, store.fireSignals)
}

func TestStageLateDuplicates(t *testing.T) {
	store := &recordingStore{}
	stage := newTestStage(t, store, 0, 10)

	_, err := stage.Transform(windowChunk(t, 7, 7, 7))
	require.NoError(t, err)

	stage.Drain()

	require.Len(t, store.fireSignals, 1)
	assert.Equal(t, map[uint32]struct{}{7: {}}, store.fireSignals[0])
}

func TestStageMonotoneAcrossChunks(t *testing.T) {
	store := &recordingStore{}
	stage := newTestStage(t, store, 0, 0)

	_, err := stage.Transform(windowChunk(t, 50))
	require.NoError(t, err)
	assert.Equal(t, uint32(50), stage.Watermark())

	_, err = stage.Transform(windowChunk(t, 10))
	require.NoError(t, err)
	assert.Equal(t, uint32(50), stage.Watermark())

	stage.Drain()
	assert.Equal(t, []uint32{50}, store.maxWatermarks)
}

func TestStageZeroWindowEnd(t *testing.T) {
	store := &recordingStore{}
	stage := newTestStage(t, store, 0, 5)

	_, err := stage.Transform(windowChunk(t, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), stage.Watermark())

	stage.Drain()

	//zero is the unset sentinel: no watermark notification, no late signal
	assert.Empty(t, store.maxWatermarks)
	require.Len(t, store.fireSignals, 1)
	assert.Empty(t, store.fireSignals[0])
}

func TestStagePassThrough(t *testing.T) {
	store := &recordingStore{}
	stage := newTestStage(t, store, 0, 0)

	ck := chunk.MustNew(testHeader, []chunk.Column{
		&chunk.Int64Column{Data: []int64{1, 2, 3}},
		&chunk.UInt32Column{Data: []uint32{10, 30, 20}},
	})
	out, err := stage.Transform(ck)
	require.NoError(t, err)

	assert.Same(t, ck, out)
	assert.Equal(t, 3, out.NumRows())
	require.Equal(t, testHeader.Len(), len(out.Columns()))
	assert.Equal(t, []int64{1, 2, 3}, out.Column(0).(*chunk.Int64Column).Data)
	assert.Equal(t, []uint32{10, 30, 20}, out.Column(1).(*chunk.UInt32Column).Data)
}

func TestStageSchemaMismatch(t *testing.T) {
	store := &recordingStore{}

	_, err := NewStage(testHeader, store, "missing_column", 0, 0, testLogger())
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = NewStage(testHeader, store, "id", 0, 0, testLogger())
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestStageLifecycle(t *testing.T) {
	store := &recordingStore{}
	stage := newTestStage(t, store, 0, 0)

	stage.Drain()

	_, err := stage.Transform(windowChunk(t, 10))
	assert.ErrorIs(t, err, ErrLifecycle)
}

func TestStageDrainOnce(t *testing.T) {
	store := &recordingStore{}
	stage := newTestStage(t, store, 100, 15)

	_, err := stage.Transform(windowChunk(t, 5, 40))
	require.NoError(t, err)

	stage.Drain()
	stage.Drain()

	assert.Equal(t, []uint32{100}, store.maxTimestamps)
	assert.Equal(t, []uint32{40}, store.maxWatermarks)
	assert.Len(t, store.fireSignals, 1)
}

func TestStageNilStore(t *testing.T) {
	stage, err := NewStage(testHeader, nil, "window_end", 100, 15, testLogger())
	require.NoError(t, err)

	_, err = stage.Transform(windowChunk(t, 5, 40))
	require.NoError(t, err)

	//best effort teardown, a dangling store is logged and swallowed
	assert.NotPanics(t, func() { stage.Drain() })
}
