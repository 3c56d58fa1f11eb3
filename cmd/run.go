package main

import (
	_c "context"
	"github.com/spf13/cobra"
	"path"
	"strings"
	_ "styx/component"
	"styx/engine"
)

func init() {
	Command.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "run styx",
		Long:  `config view source operator sink, start styx`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 0 {
				panic("config file can't be nil")
			}
			configFilePath := args[0]
			ext := path.Ext(configFilePath)
			name := strings.TrimSuffix(path.Base(configFilePath), ext)
			e := engine.New(_c.Background(), name, strings.TrimPrefix(ext, "."), path.Dir(configFilePath))
			e.Run()
		},
	})
}
