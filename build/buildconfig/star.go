// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package buildconfig

import (
	"fmt"
	"sort"

	"go.starlark.net/starlark"
)

// packFlags packs flags into Starlark dict.
func packFlags(flags map[string]string) (starlark.Value, error) {
	names := make([]string, 0, len(flags))
	for name := range flags {
		names = append(names, name)
	}
	sort.Strings(names)
	dict := starlark.NewDict(len(flags))
	for _, name := range names {
		err := dict.SetKey(starlark.String(name), starlark.String(flags[name]))
		if err != nil {
			return nil, fmt.Errorf("set %s=%s: %w", name, flags[name], err)
		}
	}
	dict.Freeze()
	return dict, nil
}

func unpackList(v starlark.Value) ([]string, error) {
	if _, ok := v.(starlark.String); ok {
		return nil, fmt.Errorf("got string %s; want list", v)
	}
	iterator := starlark.Iterate(v)
	if iterator == nil {
		return nil, fmt.Errorf("got %v; want iterator", v.Type())
	}
	defer iterator.Done()
	var elem starlark.Value
	var list []string
	for iterator.Next(&elem) {
		s, ok := starlark.AsString(elem)
		if !ok {
			return nil, fmt.Errorf("got %v in %v; want string", elem.Type(), v.Type())
		}
		list = append(list, s)
	}
	return list, nil
}
