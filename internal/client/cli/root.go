package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

// getStatus renders the short queue summary shown in the prompt.
func (a *App) getStatus() string {
	v, err := a.view.Snapshot(context.Background())
	if err != nil {
		return "(store?)"
	}

	s := fmt.Sprintf("%d pending, %d failed", len(v.Pending), len(v.Failed))
	if v.Processing {
		s += ", syncing"
	}
	return "(" + s + ")"
}

func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to VaultSync CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
