package main

import (
	"fmt"
	"os"

	servecmder "github.com/papercomputeco/lingo/cmd/lingo/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()

	cmd.Use = "lingorelay"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .lingo/ config directory")

	err := cmd.Execute()
	if err != nil {
		fmt.Printf("Error executing root command: %v\n", err)
		os.Exit(1)
	}
}
