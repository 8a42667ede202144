// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package version provides version subcommand.
package version

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/maruel/subcommands"
	"go.chromium.org/luci/cipd/version"
)

func Cmd(ver string) *subcommands.Command {
	return &subcommands.Command{
		UsageLine: "version",
		ShortDesc: "prints the executable version",
		LongDesc:  "Prints the executable version, the CIPD package the executable was installed from (if it was installed via CIPD), and the build info.",
		CommandRun: func() subcommands.CommandRun {
			r := &versionRun{version: ver}
			r.init()
			return r
		},
	}
}

type versionRun struct {
	subcommands.CommandRunBase
	version string
	deps    bool
}

func (c *versionRun) init() {
	c.Flags.BoolVar(&c.deps, "deps", false, "show versions of dependency modules")
}

func (c *versionRun) Run(a subcommands.Application, args []string, env subcommands.Env) int {
	if len(args) != 0 {
		fmt.Fprintf(a.GetErr(), "%s: position arguments not expected\n", a.GetName())
		return 1
	}
	fmt.Fprintln(a.GetOut(), c.version)
	ver, err := version.GetStartupVersion()
	if err != nil {
		// Note: this is some sort of catastrophic error. If the binary is not
		// installed via CIPD, err == nil && ver.InstanceID == "".
		fmt.Fprintf(a.GetErr(), "cannot determine CIPD package version: %s\n", err)
		return 1
	}
	if ver.InstanceID != "" {
		fmt.Fprintf(a.GetOut(), "CIPD package name: %s\n", ver.PackageName)
		fmt.Fprintf(a.GetOut(), "CIPD instance ID:  %s\n", ver.InstanceID)
	}
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return 0
	}
	writeBuildInfo(a.GetOut(), buildInfo, c.deps)
	return 0
}

func writeBuildInfo(w io.Writer, buildInfo *debug.BuildInfo, deps bool) {
	if buildInfo.GoVersion != "" {
		fmt.Fprintf(w, "go\t%s\n", buildInfo.GoVersion)
	}
	for _, s := range buildInfo.Settings {
		if strings.HasPrefix(s.Key, "vcs.") {
			fmt.Fprintf(w, "build\t%s=%s\n", s.Key, s.Value)
		}
	}
	if !deps {
		return
	}
	for _, m := range buildInfo.Deps {
		fmt.Fprintf(w, "dep\t%s\t%s\n", m.Path, m.Version)
	}
}
