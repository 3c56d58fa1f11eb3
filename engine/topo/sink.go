package topo

import (
	"styx"
	"styx/chunk"
)

type SinkTaskOption func(task *SinkTask)

type SinkTask struct {
	*ComponentTask
	ctx  styx.Context
	sink styx.Sink
}

func (s *SinkTask) Emit(ck *chunk.Chunk) {
	s.sink.Emit(ck)
}

func (s *SinkTask) Starter() error {
	if err := s.sink.Open(s.ctx); err != nil {
		return err
	}
	//sink does not block, so wait
	<-s.ComponentTask.ctx.Done()
	return nil
}

func (s *SinkTask) Stopper() error {
	return s.sink.Close()
}

func NewSinkBox(ctx styx.Context, name string, sink styx.Sink, options ...SinkTaskOption) *SinkTask {
	var sinkBoxWrapper = &SinkTask{
		sink: sink,
		ctx:  ctx,
		ComponentTask: &ComponentTask{
			name:      name,
			component: sink,
			ctx:       ctx,
		},
	}
	sinkBoxWrapper.starter = sinkBoxWrapper.Starter
	sinkBoxWrapper.stopper = sinkBoxWrapper.Stopper
	for _, option := range options {
		option(sinkBoxWrapper)
	}
	return sinkBoxWrapper
}

var _ NonRootTask = &SinkTask{}
