package main

import (
	"flag"

	"github.com/goyek/goyek/v2"
)

// Flags for docs task
var (
	docsConfig = flag.String("config", "", "Configuration file (for docs)")
	docsFull   = flag.Bool("full", false, "Read every document again (for docs)")
)

// Flags for format tasks
var (
	formatter = flag.String("formatter", "", "Formatter executable (for format, format-check)")
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"list"}
	}
	goyek.Main(args)
}
