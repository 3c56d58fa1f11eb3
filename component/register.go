package component

import (
	"styx/component/operator/sample"
	"styx/component/operator/watermark"
	"styx/component/sink/echo"
	"styx/component/source/kafka"
	"styx/component/source/random"
	"styx/component/source/spooldir"
	"styx/registry"
)

func registrySource() {
	registry.RegisterNewSourceFunc("kafka", kafka.New)
	registry.RegisterNewSourceFunc("random", random.New)
	registry.RegisterNewSourceFunc("spooldir", spooldir.New)
}

func registryOperator() {
	registry.RegisterNewOperatorFunc("sample", sample.New)
	registry.RegisterNewOperatorFunc("watermark", watermark.New)
}
func registrySink() {
	registry.RegisterNewSinkFunc("echo", echo.New)
}

func init() {
	registrySource()
	registryOperator()
	registrySink()
}
