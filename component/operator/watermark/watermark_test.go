package watermark

import (
	_c "context"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"styx/chunk"
	"styx/context"
	"styx/view"
	"sync"
	"testing"
	"time"
)

func TestOperatorOpenWithoutStore(t *testing.T) {
	v := viper.New()
	v.Set("view", "no-such-view")
	v.Set("column", "window_end")
	l := logrus.New()
	l.Out = io.Discard
	ctx := context.New(_c.Background(), v, l)

	op := New()
	err := op.Open(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestOperatorEndToEnd(t *testing.T) {
	l := logrus.New()
	l.Out = io.Discard

	store, err := view.New("clicks", "@every 1s", 1, l)
	require.NoError(t, err)
	view.Register(store)
	defer func() {
		view.Unregister("clicks")
		store.Close()
	}()

	var (
		fireMutex sync.Mutex
		fired     []uint32
	)
	store.Subscribe(func(windowEnd uint32) {
		fireMutex.Lock()
		fired = append(fired, windowEnd)
		fireMutex.Unlock()
	})

	v := viper.New()
	v.Set("view", "clicks")
	v.Set("column", "window_end")
	v.Set("max.timestamp", 99)
	v.Set("lateness.upper.bound", 15)
	ctx := context.New(_c.Background(), v, l)

	op := New()
	require.NoError(t, op.Open(ctx))

	var (
		mutex     sync.Mutex
		forwarded []*chunk.Chunk
	)
	go func() {
		_ = op.Collect(func(ck *chunk.Chunk) {
			mutex.Lock()
			forwarded = append(forwarded, ck)
			mutex.Unlock()
		})
	}()
	time.Sleep(10 * time.Millisecond)

	op.Emit(windowChunk(t, 10, 20, 14))
	op.Emit(windowChunk(t, 30, 5))

	mutex.Lock()
	assert.Len(t, forwarded, 2)
	mutex.Unlock()

	//nothing reaches the store before the operator closes
	assert.Zero(t, store.MaxWatermark())

	ctx.Cancel()
	require.NoError(t, op.Close())

	assert.Equal(t, uint32(99), store.MaxTimestamp())
	assert.Equal(t, uint32(30), store.MaxWatermark())
	assert.Eventually(t, func() bool {
		fireMutex.Lock()
		defer fireMutex.Unlock()
		return len(fired) == 3
	}, time.Second, 5*time.Millisecond)
	fireMutex.Lock()
	assert.ElementsMatch(t, []uint32{5, 10, 14}, fired)
	fireMutex.Unlock()
}
