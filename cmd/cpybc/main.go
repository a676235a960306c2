// Command cpybc is a static analysis tool for CPython 3.14 .pyc bytecode:
// it unmarshals a compiled module's code object, lifts its bytecode into a
// typed instruction list, and abstractly interprets it into a block graph.
package main

import (
	"os"

	"github.com/mna/mainer"

	"github.com/leastinformednerd/cpybc/internal/maincmd"
)

var (
	// placeholder values, replaced on build
	version   = "{v}"
	buildDate = "{d}"
)

func main() {
	c := maincmd.Cmd{BuildVersion: version, BuildDate: buildDate}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
