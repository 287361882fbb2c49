package main

import (
	"os"

	"kresolve/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args))
}
