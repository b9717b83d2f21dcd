package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/bundl/cmd/bundl"
	"github.com/arthur-debert/bundl/pkg/style"
)

func main() {
	rootCmd := bundl.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !bundl.Reported(err) {
			plain := style.DetectFormat(os.Stderr) != style.FormatTerminal
			fmt.Fprint(os.Stderr, style.ErrorReport{Plain: plain}.Errors(err))
		}
		os.Exit(1)
	}
}
