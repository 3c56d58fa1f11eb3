package registry

import (
	"styx"
)

var (
	sinkMap     = map[string]styx.NewSinkFunc{}
	sourceMap   = map[string]styx.NewSourceFunc{}
	operatorMap = map[string]styx.NewOperatorFunc{}
)

func RegisterNewSinkFunc(_type string, sinkFunc styx.NewSinkFunc) {
	sinkMap[_type] = sinkFunc
}

func RegisterNewSourceFunc(_type string, sourceFunc styx.NewSourceFunc) {
	sourceMap[_type] = sourceFunc
}

func RegisterNewOperatorFunc(_type string, operatorFunc styx.NewOperatorFunc) {
	operatorMap[_type] = operatorFunc
}

func NewSourceFunc(_type string) styx.NewSourceFunc {
	return sourceMap[_type]
}

func NewOperatorFunc(_type string) styx.NewOperatorFunc {
	return operatorMap[_type]
}

func NewSinkFunc(_type string) styx.NewSinkFunc {
	return sinkMap[_type]
}

func ListSourceDef() map[string]styx.PropertyDef {
	sourceDefMap := map[string]styx.PropertyDef{}
	for name, sourceFunc := range sourceMap {
		sourceDefMap[name] = sourceFunc().PropertyDef()
	}
	return sourceDefMap
}

func ListOperatorDef() map[string]styx.PropertyDef {
	operatorDefMap := map[string]styx.PropertyDef{}
	for name, operatorFunc := range operatorMap {
		operatorDefMap[name] = operatorFunc().PropertyDef()
	}
	return operatorDefMap
}

func ListSinkDef() map[string]styx.PropertyDef {
	sinkDefMap := map[string]styx.PropertyDef{}
	for name, sinkFunc := range sinkMap {
		sinkDefMap[name] = sinkFunc().PropertyDef()
	}
	return sinkDefMap
}
