// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"fmt"
	"path/filepath"
	"runtime"

	starjson "go.starlark.net/lib/json"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"go.chromium.org/infra/build/cxxmod/runtimex"
)

// builtinModule returns predeclared values of the config.
//
//	struct(**kwargs)
//	module(name, **kwargs)
//	json
//	runtime.os, runtime.arch, runtime.num_cpu
//	path.base(fname), path.dir(fname), path.ext(fname)
//	path.join(...), path.rel(basepath, targetpath), path.isabs(fname)
func builtinModule() starlark.StringDict {
	runtimeModule := &starlarkstruct.Module{
		Name: "runtime",
		Members: starlark.StringDict{
			"num_cpu": starlark.MakeInt(runtimex.NumCPU()),
			"os":      starlark.String(runtime.GOOS),
			"arch":    starlark.String(runtime.GOARCH),
		},
	}
	runtimeModule.Freeze()

	pathModule := &starlarkstruct.Module{
		Name: "path",
		Members: starlark.StringDict{
			"base":  pathFunc("base", filepath.Base),
			"dir":   pathFunc("dir", filepath.Dir),
			"ext":   pathFunc("ext", filepath.Ext),
			"join":  starlark.NewBuiltin("join", starPathJoin),
			"rel":   starlark.NewBuiltin("rel", starPathRel),
			"isabs": starlark.NewBuiltin("isabs", starPathIsAbs),
		},
	}
	pathModule.Freeze()

	return starlark.StringDict{
		"struct":  starlark.NewBuiltin("struct", starlarkstruct.Make),
		"module":  starlark.NewBuiltin("module", starlarkstruct.MakeModule),
		"json":    starjson.Module,
		"runtime": runtimeModule,
		"path":    pathModule,
	}
}

// pathFunc returns a Starlark function `path.<name>(fname)`.
func pathFunc(name string, f func(string) string) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var fname string
		err := starlark.UnpackArgs(name, args, kwargs, "fname", &fname)
		if err != nil {
			return starlark.None, err
		}
		return starlark.String(filepath.ToSlash(f(filepath.FromSlash(fname)))), nil
	})
}

// Starlark function `path.join(...)` to return joined path name.
func starPathJoin(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	elems := make([]string, 0, len(args))
	for _, v := range args {
		s, ok := starlark.AsString(v)
		if !ok {
			return starlark.None, fmt.Errorf("join: for parameter elems: got %s, want string", v.Type())
		}
		elems = append(elems, s)
	}
	return starlark.String(filepath.ToSlash(filepath.Join(elems...))), nil
}

// Starlark function `path.rel(basepath, targetpath)` to return relative path of targetpath from basepath.
func starPathRel(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var basepath, targetpath string
	err := starlark.UnpackArgs("rel", args, kwargs, "basepath", &basepath, "targetpath", &targetpath)
	if err != nil {
		return starlark.None, err
	}
	rel, err := filepath.Rel(basepath, targetpath)
	if err != nil {
		return starlark.None, err
	}
	return starlark.String(filepath.ToSlash(rel)), nil
}

// Starlark function `path.isabs(fname)`.
func starPathIsAbs(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fname string
	err := starlark.UnpackArgs("isabs", args, kwargs, "fname", &fname)
	if err != nil {
		return starlark.None, err
	}
	return starlark.Bool(filepath.IsAbs(fname)), nil
}
