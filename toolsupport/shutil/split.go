// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package shutil

import (
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// Split splits a command line into args.
// Quotes and escapes are processed and environment variables are
// expanded. It returns error for pipelines, lists, redirects,
// env assignments and command substitutions.
func Split(cmdline string) ([]string, error) {
	if n := len(cmdline) - len(strings.TrimRight(cmdline, `\`)); n%2 == 1 {
		return nil, fmt.Errorf("failed to split %q: trailing backslash", cmdline)
	}
	f, err := syntax.NewParser(syntax.Variant(syntax.LangPOSIX)).Parse(strings.NewReader(cmdline), "")
	if err != nil {
		return nil, fmt.Errorf("failed to split %q: %w", cmdline, err)
	}
	switch len(f.Stmts) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, fmt.Errorf("failed to split %q: multiple commands", cmdline)
	}
	stmt := f.Stmts[0]
	if stmt.Background || stmt.Coprocess || stmt.Negated || len(stmt.Redirs) > 0 {
		return nil, fmt.Errorf("failed to split %q: not a simple command", cmdline)
	}
	call, ok := stmt.Cmd.(*syntax.CallExpr)
	if !ok {
		return nil, fmt.Errorf("failed to split %q: not a simple command", cmdline)
	}
	if len(call.Assigns) > 0 {
		return nil, fmt.Errorf("failed to split %q: argv[0] is env set", cmdline)
	}
	cfg := &expand.Config{
		Env: expand.ListEnviron(os.Environ()...),
	}
	args, err := expand.Fields(cfg, call.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to split %q: %w", cmdline, err)
	}
	return args, nil
}

// SplitFlags splits flags given in a string, e.g. `-O2 -DNAME="a b"`.
func SplitFlags(flags string) ([]string, error) {
	if strings.TrimSpace(flags) == "" {
		return nil, nil
	}
	// Prefix a dummy command so that flags are parsed as args.
	args, err := Split("cc " + flags)
	if err != nil {
		return nil, err
	}
	return args[1:], nil
}
