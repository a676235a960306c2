// Package maincmd implements cpybc's command line: argument parsing and
// dispatch to each pipeline stage's subcommand.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"
)

const binName = "cpybc"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> <path>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> <path>
       %[1]s -h|--help
       %[1]s -v|--version

Static analysis tool for CPython 3.14 .pyc bytecode.

The <command> can be one of:
       objects                   Unmarshal path and print every decoded
                                  object in its region.
       instructions               Unmarshal path, lift its top-level code
                                  object's bytecode, and print the lifted
                                  instruction list.
       blocks                     Run the full pipeline: unmarshal, lift,
                                  and abstractly interpret path's top-level
                                  code object, printing its block graph.

Valid flag options are:
       -h --help                  Show this help and exit.
       -v --version               Print version and exit.

More information on the cpybc repository:
       https://github.com/leastinformednerd/cpybc
`, binName)
)

// Cmd holds parsed flags and dispatches to the subcommand named by its
// first positional argument. Every exported method with the right shape
// (ctx, stdio, []string) -> error becomes a subcommand named after the
// method, lowercased; see buildCmds.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args  []string
	flags map[string]bool
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]

	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	if len(c.args[1:]) != 1 {
		return fmt.Errorf("%s: exactly one .pyc path must be provided", cmdName)
	}

	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		return mainer.Failure
	}
	return mainer.Success
}

// buildCmds reflects over v's methods to find every subcommand: a method
// taking (context.Context, mainer.Stdio, []string) and returning error.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
