package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/leastinformednerd/cpybc/marshal"
)

// Objects unmarshals the .pyc file named by args[0] and prints every
// decoded object in its region, one per line, by index.
func (c *Cmd) Objects(ctx context.Context, stdio mainer.Stdio, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	if len(data) < pycHeaderSize {
		err := fmt.Errorf("%s: too short to be a .pyc file", args[0])
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	region, err := marshal.Loads(data[pycHeaderSize:])
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", args[0], err)
		return err
	}

	for i := 0; i < region.Len(); i++ {
		obj, err := region.Get(i)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%d: %s\n", i, err)
			continue
		}
		fmt.Fprintf(stdio.Stdout, "%d: %s\n", i, marshal.Quote(region, obj))
	}
	return nil
}
