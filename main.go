package main

import "github.com/spachava753/luadomain/cmd"

func main() {
	cmd.Execute()
}
