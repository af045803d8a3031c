package main

import (
	"os"

	"github.com/genprog/varbuild/cmd/varbuild/internal"
)

func main() {
	os.Exit(internal.Execute())
}
