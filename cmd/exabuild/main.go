package main

import "github.com/exaequos/exabuild/cmd/exabuild/cmd"

func main() {
	cmd.Execute()
}
