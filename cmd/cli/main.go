// Command cli checks a portfolio against its stop-loss limits from the
// terminal. It shares configuration and price cache with the server.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

var verbose = flag.Bool("v", false, "Log progress to stderr")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&checkCmd{}, "portfolio")
	commander.Register(&chartCmd{}, "portfolio")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
