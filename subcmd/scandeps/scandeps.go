// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scandeps is scandeps subcommand for debugging scandeps.
package scandeps

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/maruel/subcommands"
	"golang.org/x/sync/errgroup"

	"go.chromium.org/luci/common/cli"

	"go.chromium.org/infra/build/cxxmod/runtimex"
	"go.chromium.org/infra/build/cxxmod/scandeps"
)

const usage = `run scandeps

 $ cxxmod scandeps [-json] <file>...

prints module, import and #include declarations found in <file>s
with line numbers, e.g.

 a.cppm:1: export module A;
 a.cppm:2: import <iostream>;
`

// Cmd returns the Command for the `scandeps` subcommand provided by this package.
func Cmd() *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "scandeps <file>...",
		ShortDesc: "run scandeps",
		LongDesc:  usage,
		Advanced:  true,
		CommandRun: func() subcommands.CommandRun {
			c := &run{}
			c.init()
			return c
		},
	}
}

type run struct {
	subcommands.CommandRunBase

	json bool
}

func (c *run) init() {
	c.Flags.BoolVar(&c.json, "json", false, "print declarations in json")
}

func (c *run) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	ctx := cli.GetContext(a, c, env)
	err := c.run(ctx, os.Stdout, args)
	if err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			fmt.Fprintf(os.Stderr, "%v\n%s\n", err, usage)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

type fileDecls struct {
	File  string          `json:"file"`
	Decls []scandeps.Decl `json:"decls"`
}

func (c *run) run(ctx context.Context, w io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no files: %w", flag.ErrHelp)
	}
	results := make([]fileDecls, len(args))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtimex.NumCPU())
	for i, fname := range args {
		eg.Go(func() error {
			decls, err := scandeps.ScanFile(ctx, fname)
			if err != nil {
				return fmt.Errorf("%s: %w", fname, err)
			}
			results[i] = fileDecls{File: fname, Decls: decls}
			return nil
		})
	}
	err := eg.Wait()
	if err != nil {
		return err
	}
	if c.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", " ")
		return enc.Encode(results)
	}
	for _, r := range results {
		for _, d := range r.Decls {
			fmt.Fprintf(w, "%s:%d: %s\n", r.File, d.Line, d)
		}
	}
	return nil
}
