package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/leastinformednerd/cpybc/lift"
)

// Instructions unmarshals the .pyc file named by args[0], lifts its
// top-level code object's bytecode, and prints the lifted instruction
// list, one instruction per line, by index.
func (c *Cmd) Instructions(ctx context.Context, stdio mainer.Stdio, args []string) error {
	code, _, err := readCodeObject(args[0])
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	instrs, err := lift.Lift(code.Code())
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", args[0], err)
		return err
	}

	for i, instr := range instrs {
		fmt.Fprintf(stdio.Stdout, "%d: %#v\n", i, instr)
	}
	return nil
}
