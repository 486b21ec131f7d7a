package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gophersatwork/relift/cmd/relift/commands"
)

func main() {
	cli := commands.New()
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
