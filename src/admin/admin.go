package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/veedubyou/stem-splitter/src/admin/internal/cli"
)

func main() {
	_ = godotenv.Load()

	cmd := cli.NewRootCommand(cli.DefaultOptions())
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
