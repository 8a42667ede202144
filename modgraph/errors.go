// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package modgraph

import (
	"errors"
	"fmt"
	"strings"
)

// Errors of plan computation. All of them are fatal.
var (
	ErrUnreadableFile            = errors.New("unreadable file")
	ErrUnparsableDeclaration     = errors.New("unparsable declaration")
	ErrDuplicateModuleDefinition = errors.New("duplicate module definition")
	ErrUnresolvedImport          = errors.New("unresolved import")
	ErrCyclicDependency          = errors.New("cyclic dependency")
)

// UnreadableFileError is an error when a source file can't be read.
type UnreadableFileError struct {
	Path string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUnreadableFile, e.Path, e.Err)
}

func (e *UnreadableFileError) Unwrap() []error {
	return []error{ErrUnreadableFile, e.Err}
}

// DeclarationError is an error of malformed or conflicting module
// declarations in a file.
type DeclarationError struct {
	Path string
	Line int
	Msg  string
}

func (e *DeclarationError) Error() string {
	return fmt.Sprintf("%s: %s:%d: %s", ErrUnparsableDeclaration, e.Path, e.Line, e.Msg)
}

func (e *DeclarationError) Unwrap() error {
	return ErrUnparsableDeclaration
}

// DuplicateModuleError is an error when two files define the same
// module or module partition.
type DuplicateModuleError struct {
	Module string
	Paths  []string
}

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("%s: %s defined in %s", ErrDuplicateModuleDefinition, e.Module, strings.Join(e.Paths, " and "))
}

func (e *DuplicateModuleError) Unwrap() error {
	return ErrDuplicateModuleDefinition
}

// UnresolvedImportError is an error when a referenced module, partition
// or quoted path matches no discovered file.
type UnresolvedImportError struct {
	Path   string
	Line   int
	Target string
}

func (e *UnresolvedImportError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s: %s", ErrUnresolvedImport, e.Path, e.Target)
	}
	return fmt.Sprintf("%s: %s:%d: %s", ErrUnresolvedImport, e.Path, e.Line, e.Target)
}

func (e *UnresolvedImportError) Unwrap() error {
	return ErrUnresolvedImport
}

// CycleError is an error when the dependency graph has a cycle.
type CycleError struct {
	// Cycle is the unit ids on the cycle, the first id repeated at the end.
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCyclicDependency, strings.Join(e.Cycle, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCyclicDependency
}
