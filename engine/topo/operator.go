package topo

import (
	"styx"
	"styx/chunk"
)

type OperatorTaskOption func(task *OperatorTask)

type OperatorTask struct {
	*ComponentTask
	ctx      styx.Context
	operator styx.Operator

	emitNextGenerator EmitNextGenerator
}

func (o *OperatorTask) Emit(ck *chunk.Chunk) {
	o.operator.Emit(ck)
}

func (o *OperatorTask) Starter() error {
	if err := o.operator.Open(o.ctx); err != nil {
		return err
	}

	return o.operator.Collect(o.emitNextGenerator())
}

func (o *OperatorTask) Stopper() error {
	return o.operator.Close()
}

func NewOperatorBox(ctx styx.Context, name string, operator styx.Operator, emitNextGenerator EmitNextGenerator, options ...OperatorTaskOption) *OperatorTask {
	operatorBox := &OperatorTask{
		ComponentTask:     &ComponentTask{ctx: ctx, name: name, component: operator},
		operator:          operator,
		ctx:               ctx,
		emitNextGenerator: emitNextGenerator,
	}
	operatorBox.starter = operatorBox.Starter
	operatorBox.stopper = operatorBox.Stopper
	for _, option := range options {
		option(operatorBox)
	}
	return operatorBox
}

var _ NonRootTask = &OperatorTask{}
