package view

import (
	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"sync"
)

//FireFunc is called once for every completed window end
type FireFunc func(windowEnd uint32)

//Store own the pending fire queue of one window view. Many stage instances
//share one store, the intake methods are safe under concurrent callers and
//monotone, a lower value is a no-op.
//
//A window end fires when the watermark passes it: dispatch runs on every
//watermark advance and on a periodic cron flush, each window end is handed
//to the subscriber pool exactly once.
type Store struct {
	name   string
	logger logrus.FieldLogger

	mutex        sync.Mutex
	maxTimestamp uint32
	maxWatermark uint32
	pending      map[uint32]struct{}
	subscribers  []FireFunc

	firePool *ants.PoolWithFunc
	cron     *cron.Cron
}

func New(name string, flushSpec string, concurrency int, logger logrus.FieldLogger) (*Store, error) {
	s := &Store{
		name:    name,
		logger:  logger.WithField("view", name),
		pending: map[uint32]struct{}{},
	}
	var err error
	s.firePool, err = ants.NewPoolWithFunc(concurrency, s.fanout, ants.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	s.cron = cron.New(cron.WithSeconds())
	if _, err = s.cron.AddFunc(flushSpec, s.Flush); err != nil {
		s.firePool.Release()
		return nil, err
	}
	s.cron.Start()
	return s, nil
}

func (s *Store) Name() string {
	return s.name
}

func (s *Store) UpdateMaxTimestamp(ts uint32) {
	s.mutex.Lock()
	if ts > s.maxTimestamp {
		s.maxTimestamp = ts
	}
	s.mutex.Unlock()
}

func (s *Store) UpdateMaxWatermark(ts uint32) {
	s.mutex.Lock()
	if ts > s.maxWatermark {
		s.maxWatermark = ts
	}
	fired := s.takeFiredLocked()
	s.mutex.Unlock()
	s.submit(fired)
}

func (s *Store) AddFireSignal(signals map[uint32]struct{}) {
	s.mutex.Lock()
	for windowEnd := range signals {
		s.pending[windowEnd] = struct{}{}
	}
	fired := s.takeFiredLocked()
	s.mutex.Unlock()
	s.submit(fired)
}

func (s *Store) MaxTimestamp() uint32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.maxTimestamp
}

func (s *Store) MaxWatermark() uint32 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.maxWatermark
}

//Subscribe register a fire observer, it runs on the fire pool and may be slow
func (s *Store) Subscribe(fn FireFunc) {
	s.mutex.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mutex.Unlock()
}

//Flush dispatch every pending window end the watermark has passed
func (s *Store) Flush() {
	s.mutex.Lock()
	fired := s.takeFiredLocked()
	s.mutex.Unlock()
	s.submit(fired)
}

func (s *Store) takeFiredLocked() []uint32 {
	var fired []uint32
	for windowEnd := range s.pending {
		if windowEnd <= s.maxWatermark {
			fired = append(fired, windowEnd)
			delete(s.pending, windowEnd)
		}
	}
	return fired
}

func (s *Store) submit(fired []uint32) {
	for _, windowEnd := range fired {
		if err := s.firePool.Invoke(windowEnd); err != nil {
			s.logger.WithError(err).Warnf("can't submit window %d fire, requeue.", windowEnd)
			s.mutex.Lock()
			s.pending[windowEnd] = struct{}{}
			s.mutex.Unlock()
		}
	}
}

func (s *Store) fanout(arg interface{}) {
	windowEnd := arg.(uint32)
	s.mutex.Lock()
	subscribers := make([]FireFunc, len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mutex.Unlock()
	for _, fn := range subscribers {
		fn(windowEnd)
	}
}

//Close stop the flush task, fire what the watermark already covers and
//release the pool. Stages referencing this store must be drained first.
func (s *Store) Close() {
	s.cron.Stop()
	s.mutex.Lock()
	fired := s.takeFiredLocked()
	s.mutex.Unlock()
	for _, windowEnd := range fired {
		s.fanout(windowEnd)
	}
	s.firePool.Release()
}
