// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package help provides help subcommand.
package help

import (
	"flag"
	"fmt"
	"io"

	"github.com/maruel/subcommands"
)

// topics are help topics other than commands.
var topics = map[string]string{
	"reports": `Reports printed by -show=<name>,...

 list   "path", kind, module
        for each unit. kind is one of primary-module-interface,
        module-partition-interface, module-partition, module-unit,
        global-unit, header-unit, header or system-header-unit.
 deps   "path", "dep", ...
        direct dependencies of each unit.
 order  "path", ...
        units of each batch. units in a batch depend only on units
        in earlier batches.
 cmd    commands to run, in blocks separated by an empty line.
        commands in a block may run in parallel.

Each report is followed by an empty line.
Unresolved <header> becomes a unit "sys:<header>".
`,
	"config": `Project config cxxmod.star

The config is a Starlark file that defines init(ctx) returning
struct(...) with any of compiler, flags, patterns, exclude, headers,
include_dirs, obj_dir, module_cache, lib, so and exe.
ctx.flags is a dict of command line flags.
Flags set on the command line override values in the config.

e.g.
 def init(ctx):
     flags = ["-O2"]
     if ctx.flags["exe"] == "debug":
         flags = ["-g"]
     return struct(
         compiler = "g++-14",
         flags = flags,
         exclude = ["tests/**"],
     )
`,
}

// Cmd returns the Command for the `help` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "help [<command>|reports|config|-advanced]",
		ShortDesc: "prints help about a command",
		LongDesc:  "Prints commands and globally-available flags or help about a specific command or topic.\nUse -advanced to display all commands.",
		CommandRun: func() subcommands.CommandRun {
			ret := &helpCmdRun{}
			ret.Flags.BoolVar(&ret.advanced, "advanced", false, "show advanced commands")
			return ret
		},
	}
}

type helpCmdRun struct {
	subcommands.CommandRunBase
	advanced bool
}

func (h *helpCmdRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	// For top-level help, print subcommands.Usage. Then print flags.
	if len(args) == 0 {
		subcommands.Usage(a.GetOut(), a, h.advanced)
		writeTopics(a.GetOut())
		fmt.Fprintln(a.GetOut(), "Common flags accepted by all commands:")
		flag.CommandLine.SetOutput(a.GetOut())
		flag.PrintDefaults()
		return 0
	}
	if len(args) == 1 {
		if topic, ok := topics[args[0]]; ok {
			fmt.Fprint(a.GetOut(), topic)
			return 0
		}
	}

	// Use default subcommands.CmdHelp for all other cases.
	helpInit := subcommands.CmdHelp.CommandRun()
	return helpInit.Run(a, args, env)
}

func writeTopics(w io.Writer) {
	fmt.Fprintln(w, "Help topics:")
	for _, name := range []string{"reports", "config"} {
		fmt.Fprintf(w, "  %-8s use \"help %s\"\n", name, name)
	}
	fmt.Fprintln(w)
}
