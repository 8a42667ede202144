// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// cxxmod builds C++20 modules in dependency order.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	log "github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/maruel/subcommands"
	"go.chromium.org/luci/common/cli"
	"go.chromium.org/luci/common/system/signals"

	"go.chromium.org/infra/build/cxxmod/o11y/clog"
	"go.chromium.org/infra/build/cxxmod/o11y/trace"
	"go.chromium.org/infra/build/cxxmod/subcmd/buildcmd"
	"go.chromium.org/infra/build/cxxmod/subcmd/digraph"
	"go.chromium.org/infra/build/cxxmod/subcmd/help"
	"go.chromium.org/infra/build/cxxmod/subcmd/scandeps"
	"go.chromium.org/infra/build/cxxmod/subcmd/version"
	"go.chromium.org/infra/build/cxxmod/subcmd/watchcmd"
	"go.chromium.org/infra/build/cxxmod/ui"
)

const versionID = "v0.1.0"

// traceIDEnv is an environment variable to set the trace id.
const traceIDEnv = "CXXMOD_TRACE_ID"

func getApplication() *cli.Application {
	return &cli.Application{
		Name:  "cxxmod",
		Title: "C++20 modules build tool",
		Context: func(ctx context.Context) context.Context {
			ctx, cancel := context.WithCancel(ctx)
			signals.HandleInterrupt(cancel)
			id := os.Getenv(traceIDEnv)
			if id == "" {
				id = uuid.New().String()
			}
			tc := trace.New(ctx, id)
			ctx = trace.NewContext(ctx, tc)
			ctx = clog.NewContext(ctx, clog.New().Span(trace.ID(ctx), "", nil))
			return ctx
		},
		Commands: []*subcommands.Command{
			buildcmd.Cmd(),
			watchcmd.Cmd(),
			scandeps.Cmd(),
			digraph.Cmd(),

			help.Cmd(),
			version.Cmd(versionID),
		},
		EnvVars: map[string]subcommands.EnvVarDefinition{
			traceIDEnv: {
				ShortDesc: "trace id (uuid) of logs and chrome trace json. random if not set",
			},
		},
	}
}

func main() {
	os.Exit(cxxmodMain())
}

func cxxmodMain() int {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(out, "global flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	ui.Init()
	defer ui.Restore()

	// Flush the log on exit to not lose any messages.
	defer log.Flush()

	// Print a stack trace when a panic occurs.
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Fatalf("panic: %v\n%s", r, buf)
		}
	}()

	// Print build information to the log.
	buildinfo, ok := debug.ReadBuildInfo()
	if ok {
		log.Infof("main module: %s %s", moduleInfo(&buildinfo.Main), vcsInfo(buildinfo))
		if log.V(1) {
			for _, m := range buildinfo.Deps {
				log.Infof("deps module: %s", moduleInfo(m))
			}
		}
	}
	return subcommands.Run(getApplication(), flag.Args())
}

func moduleInfo(m *debug.Module) string {
	if m == nil {
		return "<nil>"
	}
	return fmt.Sprintf("path:%s version:%s sum:%s replace:%s", m.Path, m.Version, m.Sum, moduleInfo(m.Replace))
}

func vcsInfo(buildinfo *debug.BuildInfo) string {
	m := make(map[string]string)
	for _, bs := range buildinfo.Settings {
		if strings.HasPrefix(bs.Key, "vcs.") {
			m[bs.Key] = bs.Value
		}
	}
	return fmt.Sprintf("vcs[revision=%s time=%s modified=%s]", m["vcs.revision"], m["vcs.time"], m["vcs.modified"])
}
