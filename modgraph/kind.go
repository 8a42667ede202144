// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package modgraph

import "fmt"

// Kind is a syntactic role of a unit.
type Kind int

const (
	// PrimaryModuleInterface is `export module M;`.
	PrimaryModuleInterface Kind = iota + 1
	// ModulePartitionInterface is `export module M:P;`.
	ModulePartitionInterface
	// ModulePartition is `module M:P;`.
	ModulePartition
	// ModuleUnit is `module M;`.
	ModuleUnit
	// GlobalUnit is a source file without module declaration.
	GlobalUnit
	// HeaderUnit is a header imported by `import "h";`.
	HeaderUnit
	// Header is a header only included, or a header not referenced.
	Header
	// SystemHeaderUnit is an external header imported by `import <h>;`.
	SystemHeaderUnit
)

var kindNames = [...]string{
	PrimaryModuleInterface:   "primary-module-interface",
	ModulePartitionInterface: "module-partition-interface",
	ModulePartition:          "module-partition",
	ModuleUnit:               "module-unit",
	GlobalUnit:               "global-unit",
	HeaderUnit:               "header-unit",
	Header:                   "header",
	SystemHeaderUnit:         "system-header-unit",
}

// Kinds returns all kinds.
func Kinds() []Kind {
	return []Kind{
		PrimaryModuleInterface,
		ModulePartitionInterface,
		ModulePartition,
		ModuleUnit,
		GlobalUnit,
		HeaderUnit,
		Header,
		SystemHeaderUnit,
	}
}

func (k Kind) String() string {
	if k <= 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind parses kind tag.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k <= 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("unknown kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// IsModule reports whether the kind is declared by a module declaration.
func (k Kind) IsModule() bool {
	switch k {
	case PrimaryModuleInterface, ModulePartitionInterface, ModulePartition, ModuleUnit:
		return true
	}
	return false
}

// ProducesObject reports whether compiling the kind produces an object
// file to link.
func (k Kind) ProducesObject() bool {
	switch k {
	case PrimaryModuleInterface, ModulePartitionInterface, ModulePartition, ModuleUnit, GlobalUnit:
		return true
	}
	return false
}

// Compiled reports whether the kind is compiled.
// Header is an ordering-only node.
func (k Kind) Compiled() bool {
	return k != Header && k > 0 && int(k) < len(kindNames)
}
