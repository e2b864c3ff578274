package main

import (
	"errors"
	"fmt"
	"os"

	lingocmder "github.com/papercomputeco/lingo/cmd/lingo"
	taskcmder "github.com/papercomputeco/lingo/cmd/lingo/task"
	"github.com/papercomputeco/lingo/pkg/cliui"
)

func main() {
	cmd := lingocmder.NewLingoCmd()
	err := cmd.Execute()
	switch {
	case err == nil:
	case errors.Is(err, taskcmder.ErrInterrupted):
		os.Exit(130)
	default:
		fmt.Fprintf(os.Stderr, "%s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
