package maincmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/mna/mainer"

	"github.com/leastinformednerd/cpybc/interp"
)

// Blocks runs the full pipeline against the .pyc file named by args[0]:
// unmarshal, lift, and abstractly interpret its top-level code object,
// printing its block graph ordered by each block's starting index.
func (c *Cmd) Blocks(ctx context.Context, stdio mainer.Stdio, args []string) error {
	code, _, err := readCodeObject(args[0])
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	blocks, err := interp.Eval(code)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", args[0], err)
		return err
	}

	starts := make([]uint32, 0, len(blocks))
	for start := range blocks {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	for _, start := range starts {
		block := blocks[start]
		fmt.Fprintf(stdio.Stdout, "block %d:\n", start)
		for _, stmt := range block.Body {
			fmt.Fprintf(stdio.Stdout, "  %#v\n", stmt)
		}
		fmt.Fprintf(stdio.Stdout, "  -> %#v\n", block.ControlFlow)
	}
	return nil
}
