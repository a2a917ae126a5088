package main

import (
	"flag"
	"fmt"

	"github.com/goyek/goyek/v2"
)

// List prints the registered tasks and the flags they read
var List = goyek.Define(goyek.Task{
	Name:  "list",
	Usage: "List all available tasks and flags",
	Action: func(a *goyek.A) {
		fmt.Println("Usage: go run ./build [flags] [tasks]")
		fmt.Println()
		fmt.Println("Tasks:")
		for _, task := range goyek.Tasks() {
			fmt.Printf("  %-14s %s\n", task.Name(), task.Usage())
		}
		fmt.Println()
		fmt.Println("Flags:")
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("  -%-13s %s\n", f.Name, f.Usage)
		})
	},
})
