package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"os"
)

var Command = &cobra.Command{
	Use:   "styx",
	Short: "chunked streaming runtime with watermark driven window views",
}

func main() {

	if err := Command.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
