package main

import (
	"os"

	"github.com/patchwatch/patchwatch/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
