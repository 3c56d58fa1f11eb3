package topo

import (
	"styx"
)

type Task interface {
	styx.Stateful
	Name() string
	Start()
	Stop()
}

type NonRootTask interface {
	Task
	styx.EmitTarget
}

type EmitNextGenerator func() styx.EmitNext
