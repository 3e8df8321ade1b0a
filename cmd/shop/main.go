package main

import (
	"context"
	"os"

	"github.com/amaironohi/shop/internal/cli/commands"
	"github.com/amaironohi/shop/internal/cli/ui"
)

func main() {
	if err := commands.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		ui.Error(os.Stderr, "%v", err)
		os.Exit(1)
	}
}
