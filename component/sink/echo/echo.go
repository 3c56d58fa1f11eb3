package echo

import (
	"github.com/eapache/queue"
	"styx"
	"styx/chunk"
	"styx/properties"
	"sync"
)

var (
	BatchSizeProperty = properties.NewProperty[int]("batch", "echo sink echo batch size", 100)
	TypeProperty      = properties.NewProperty[string]("echo", "echo type, like info debug", "info")
)

type sink struct {
	batch     int
	buffer    *queue.Queue
	bufferMux sync.Mutex
	ctx       styx.Context
	echoFunc  func(format string, args ...interface{})
}

func (s *sink) Snapshot() ([]byte, error) {
	s.bufferMux.Lock()
	defer s.bufferMux.Unlock()
	var cks []*chunk.Chunk
	for s.buffer.Length() > 0 {
		cks = append(cks, s.buffer.Remove().(*chunk.Chunk))
	}
	return chunk.Marshal(cks)
}

func (s *sink) Restore(snapshot []byte) error {
	cks, err := chunk.Unmarshal(snapshot)
	if err != nil {
		return err
	}
	s.buffer = queue.New()
	for _, ck := range cks {
		s.buffer.Add(ck)
	}
	return nil
}

func (s *sink) Emit(ck *chunk.Chunk) {
	s.bufferMux.Lock()
	defer s.bufferMux.Unlock()
	s.buffer.Add(ck)
	if s.buffer.Length() >= s.batch {
		for i := 0; i < s.batch; i++ {
			buffered := s.buffer.Remove().(*chunk.Chunk)
			s.echoFunc("%d rows of %s", buffered.NumRows(), buffered.Header())
		}
	}

}

func (s *sink) Open(ctx styx.Context) error {
	s.ctx = ctx
	s.batch = ctx.Properties().GetInt(BatchSizeProperty.Name())
	echoType := ctx.Properties().GetString(TypeProperty.Name())
	if s.buffer == nil {
		s.buffer = queue.New()
	}
	switch echoType {
	case "debug":
		s.echoFunc = s.ctx.Logger().Debugf
	case "warn":
		s.echoFunc = s.ctx.Logger().Warnf
	case "error":
		s.echoFunc = s.ctx.Logger().Errorf
	case "info":
		s.echoFunc = s.ctx.Logger().Infof
	default:
		s.ctx.Logger().Warnf("unknown echo type %s, use info", echoType)
		s.echoFunc = s.ctx.Logger().Infof
	}
	return nil
}

func (s *sink) Close() error {
	return nil
}

func (s *sink) PropertyDef() styx.PropertyDef {
	return styx.PropertyDef{BatchSizeProperty, TypeProperty}
}

func New() styx.Sink {
	return &sink{}
}
