package view

import (
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"sync"
	"testing"
	"time"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New("orders", "@every 1s", 1, testLogger())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

type fireRecorder struct {
	mutex sync.Mutex
	fired map[uint32]int
}

func newFireRecorder(store *Store) *fireRecorder {
	r := &fireRecorder{fired: map[uint32]int{}}
	store.Subscribe(func(windowEnd uint32) {
		r.mutex.Lock()
		r.fired[windowEnd]++
		r.mutex.Unlock()
	})
	return r
}

func (r *fireRecorder) snapshot() map[uint32]int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	copied := map[uint32]int{}
	for windowEnd, count := range r.fired {
		copied[windowEnd] = count
	}
	return copied
}

func TestStoreMonotoneIntake(t *testing.T) {
	store := newTestStore(t)

	store.UpdateMaxTimestamp(100)
	store.UpdateMaxTimestamp(50)
	assert.Equal(t, uint32(100), store.MaxTimestamp())

	store.UpdateMaxWatermark(30)
	store.UpdateMaxWatermark(10)
	assert.Equal(t, uint32(30), store.MaxWatermark())
}

func TestStoreFireOnWatermarkAdvance(t *testing.T) {
	store := newTestStore(t)
	recorder := newFireRecorder(store)

	store.AddFireSignal(map[uint32]struct{}{5: {}, 8: {}, 20: {}})
	store.UpdateMaxWatermark(10)

	assert.Eventually(t, func() bool {
		fired := recorder.snapshot()
		return fired[5] == 1 && fired[8] == 1
	}, time.Second, 5*time.Millisecond)
	//20 is past the watermark and stays pending
	assert.Zero(t, recorder.snapshot()[20])

	store.UpdateMaxWatermark(25)
	assert.Eventually(t, func() bool {
		return recorder.snapshot()[20] == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStoreFireExactlyOnce(t *testing.T) {
	store := newTestStore(t)
	recorder := newFireRecorder(store)

	store.UpdateMaxWatermark(100)
	store.AddFireSignal(map[uint32]struct{}{7: {}})

	assert.Eventually(t, func() bool {
		return recorder.snapshot()[7] == 1
	}, time.Second, 5*time.Millisecond)

	//a fired window leaves the pending queue, later flushes never repeat it
	store.Flush()
	store.UpdateMaxWatermark(200)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, recorder.snapshot()[7])
}

func TestStoreUnionPending(t *testing.T) {
	store := newTestStore(t)
	recorder := newFireRecorder(store)

	store.AddFireSignal(map[uint32]struct{}{40: {}})
	store.AddFireSignal(map[uint32]struct{}{40: {}, 41: {}})
	store.UpdateMaxWatermark(50)

	assert.Eventually(t, func() bool {
		fired := recorder.snapshot()
		return fired[40] == 1 && fired[41] == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStoreConcurrentIntake(t *testing.T) {
	store := newTestStore(t)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 1; i <= 100; i++ {
				store.UpdateMaxWatermark(uint32(g*100 + i))
				store.UpdateMaxTimestamp(uint32(g*100 + i))
				store.AddFireSignal(map[uint32]struct{}{uint32(g*100 + i): {}})
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, uint32(800), store.MaxWatermark())
	assert.Equal(t, uint32(800), store.MaxTimestamp())
}

func TestStoreCloseKeepsUnreachedWindows(t *testing.T) {
	store, err := New("close", "@every 1h", 1, testLogger())
	require.NoError(t, err)
	recorder := newFireRecorder(store)

	store.UpdateMaxWatermark(10)
	store.AddFireSignal(map[uint32]struct{}{30: {}})

	//the watermark never passed 30, teardown must not fire it
	store.Close()
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, recorder.snapshot()[30])
}

func TestRegistry(t *testing.T) {
	store, err := New("registry", "@every 1h", 1, testLogger())
	require.NoError(t, err)
	defer store.Close()

	Register(store)
	assert.Same(t, store, Get("registry"))

	Unregister("registry")
	assert.Nil(t, Get("registry"))
}
