package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/bundl/cmd/bundl"
	"github.com/arthur-debert/bundl/internal/version"
)

func main() {
	rootCmd := bundl.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "BUNDL",
		Section: "1",
		Source:  "bundl " + version.Version,
		Manual:  "bundl manual",
	}

	err := doc.GenMan(rootCmd, header, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
