// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"flag"
	"fmt"
	"strings"

	"go.chromium.org/infra/build/cxxmod/build"
	"go.chromium.org/infra/build/cxxmod/discovery"
	"go.chromium.org/infra/build/cxxmod/toolsupport/shutil"
)

// stringsFlag is a flag that may be given multiple times.
type stringsFlag []string

func (f *stringsFlag) String() string {
	return strings.Join(*f, ",")
}

func (f *stringsFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

// Flags are command line flags that may be set by the config.
type Flags struct {
	Config string

	compiler      string
	flags         string
	patterns      string
	patternsPlus  string
	patternsMinus string
	headers       string
	headersPlus   string
	includeDirs   stringsFlag
	objDir        string
	moduleCache   string
	lib           string
	so            string
	exe           string
}

// Register registers flags in fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", DefaultFilename, "project config file. ignored if the default file doesn't exist")
	fs.StringVar(&f.compiler, "gcc", build.DefaultCompiler, "compiler executable for compilation")
	fs.StringVar(&f.flags, "flags", "", "additional flags to all commands")
	fs.StringVar(&f.patterns, "patterns", strings.Join(discovery.DefaultPatterns, ","), "comma separated patterns of files to inspect")
	fs.StringVar(&f.patternsPlus, "patterns+", "", "additional patterns of files to inspect")
	fs.StringVar(&f.patternsMinus, "patterns-", "", "patterns to exclude files from inspection")
	fs.StringVar(&f.headers, "headers", strings.Join(discovery.DefaultHeaders, ","), "comma separated patterns of headers, not compiled to objects")
	fs.StringVar(&f.headersPlus, "headers+", "", "additional patterns of headers")
	fs.Var(&f.includeDirs, "I", "directory to search headers. can be given multiple times")
	fs.StringVar(&f.objDir, "obj", build.DefaultObjDir, "directory for intermediate objects")
	fs.StringVar(&f.moduleCache, "module_cache", build.DefaultModuleCache, "compiler's module cache directory")
	fs.StringVar(&f.lib, "lib", "", "creates a static library")
	fs.StringVar(&f.so, "so", "", "creates a shared library")
	fs.StringVar(&f.exe, "exe", "", "creates an executable. default is "+build.DefaultExe+" if no output is requested")
}

// Values returns values of all flags in fs for `ctx.flags`.
func Values(fs *flag.FlagSet) map[string]string {
	m := make(map[string]string)
	fs.VisitAll(func(f *flag.Flag) {
		m[f.Name] = f.Value.String()
	})
	return m
}

// Merge returns a config that has cfg values overridden by flags set
// explicitly in fs. cfg may be nil.
// `-patterns+`, `-patterns-` and `-headers+` extend the merged values.
func (f *Flags) Merge(fs *flag.FlagSet, cfg *Config) (*Config, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	pick := func(name, v, cv string) string {
		if set[name] || cv == "" {
			return v
		}
		return cv
	}
	pickList := func(name string, v, cv []string) []string {
		if set[name] || len(cv) == 0 {
			return v
		}
		return cv
	}
	flags, err := shutil.SplitFlags(f.flags)
	if err != nil {
		return nil, fmt.Errorf("bad -flags: %w", err)
	}
	m := &Config{
		Compiler:    pick("gcc", f.compiler, cfg.Compiler),
		Flags:       pickList("flags", flags, cfg.Flags),
		Patterns:    pickList("patterns", splitList(f.patterns), cfg.Patterns),
		Exclude:     cfg.Exclude,
		Headers:     pickList("headers", splitList(f.headers), cfg.Headers),
		IncludeDirs: pickList("I", f.includeDirs, cfg.IncludeDirs),
		ObjDir:      pick("obj", f.objDir, cfg.ObjDir),
		ModuleCache: pick("module_cache", f.moduleCache, cfg.ModuleCache),
	}
	// outputs are overridden as a whole.
	if set["lib"] || set["so"] || set["exe"] {
		m.Lib, m.SO, m.Exe = f.lib, f.so, f.exe
	} else {
		m.Lib, m.SO, m.Exe = cfg.Lib, cfg.SO, cfg.Exe
	}
	m.Patterns = appendUnique(m.Patterns, splitList(f.patternsPlus)...)
	m.Exclude = appendUnique(m.Exclude, splitList(f.patternsMinus)...)
	m.Headers = appendUnique(m.Headers, splitList(f.headersPlus)...)
	for _, patterns := range [][]string{m.Patterns, m.Exclude, m.Headers} {
		err := discovery.ValidatePatterns(patterns)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Outputs returns outputs to link.
func (cfg *Config) Outputs() build.Outputs {
	return build.Outputs{
		StaticLib: cfg.Lib,
		SharedLib: cfg.SO,
		Exe:       cfg.Exe,
	}
}

// splitList splits comma separated list, dropping empty elements.
func splitList(s string) []string {
	var list []string
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		list = append(list, v)
	}
	return list
}

func appendUnique(list []string, elems ...string) []string {
	seen := make(map[string]bool)
	var r []string
	for _, v := range append(list[:len(list):len(list)], elems...) {
		if seen[v] {
			continue
		}
		seen[v] = true
		r = append(r, v)
	}
	return r
}
