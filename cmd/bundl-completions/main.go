// Command bundl-completions writes shell completion scripts for packaging.
//
//	bundl-completions [-o dir] [shell...]
//
// Without shells it writes all of them: bundl.bash, _bundl, bundl.fish and
// bundl.ps1.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthur-debert/bundl/cmd/bundl"
)

var fileNames = map[string]string{
	"bash":       "bundl.bash",
	"zsh":        "_bundl",
	"fish":       "bundl.fish",
	"powershell": "bundl.ps1",
}

func main() {
	dir := flag.String("o", "completions", "output directory")
	flag.Parse()

	shells := flag.Args()
	if len(shells) == 0 {
		shells = bundl.Shells
	}

	if err := os.MkdirAll(*dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *dir, err)
		os.Exit(1)
	}

	root := bundl.NewRootCmd()
	for _, shell := range shells {
		name, ok := fileNames[shell]
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown shell: %s\n", shell)
			os.Exit(1)
		}
		var buf bytes.Buffer
		if err := bundl.WriteCompletion(root, shell, &buf); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s completion: %v\n", shell, err)
			os.Exit(1)
		}
		target := filepath.Join(*dir, name)
		if err := os.WriteFile(target, buf.Bytes(), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", target, err)
			os.Exit(1)
		}
		fmt.Println(target)
	}
}
