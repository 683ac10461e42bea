// cmd/frame is the command-line interface to FRAME, a fantasy console
// assembler and emulator.
package main

import (
	"context"
	"os"

	"github.com/PBnJK/frame/internal/cli"
	"github.com/PBnJK/frame/internal/cli/cmd"
)

var commands = []cli.Command{
	cmd.Assembler(),
	cmd.Runner(),
	cmd.Disassembler(),
	cmd.Demo(),
}

// Entry point.
func main() {
	result :=
		cli.New(context.Background()).
			WithLogger(os.Stderr).
			WithCommands(commands).
			WithHelp(cmd.Help(commands)).
			Execute(os.Args[1:])

	os.Exit(result)
}
