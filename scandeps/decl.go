// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"fmt"
	"strings"
)

// DeclKind is a kind of declaration.
type DeclKind int

const (
	// DeclModule is `[export] module M[:P];`.
	DeclModule DeclKind = iota
	// DeclImport is `[export] import M[:P];` or `[export] import :P;`.
	DeclImport
	// DeclHeaderImport is `[export] import "h";` or `[export] import <h>;`.
	DeclHeaderImport
	// DeclInclude is `#include "h"` or `#include <h>`.
	DeclInclude
)

func (k DeclKind) String() string {
	switch k {
	case DeclModule:
		return "module"
	case DeclImport:
		return "import"
	case DeclHeaderImport:
		return "header-import"
	case DeclInclude:
		return "include"
	default:
		return fmt.Sprintf("unknown=%d", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k DeclKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Decl is a declaration found in a source file.
type Decl struct {
	Kind DeclKind `json:"kind"`

	// Line is 1-based line number where the declaration starts.
	Line int `json:"line"`

	// Export is true for `export module` or `export import`.
	Export bool `json:"export,omitempty"`

	// Module is a module name for DeclModule and DeclImport.
	// It is empty for `import :P;`.
	Module string `json:"module,omitempty"`

	// Partition is a partition name for DeclModule and DeclImport.
	Partition string `json:"partition,omitempty"`

	// Path is a header name without delimiters for
	// DeclHeaderImport and DeclInclude.
	Path string `json:"path,omitempty"`

	// Angled is true for <h>.
	Angled bool `json:"angled,omitempty"`
}

// ModuleName returns "M" or "M:P".
// For `import :P;`, it returns ":P".
func (d Decl) ModuleName() string {
	if d.Partition == "" {
		return d.Module
	}
	return d.Module + ":" + d.Partition
}

// HeaderName returns quoted header name, i.e. `"h"` or `<h>`.
func (d Decl) HeaderName() string {
	if d.Angled {
		return "<" + d.Path + ">"
	}
	return `"` + d.Path + `"`
}

// String returns the declaration in canonical source form.
func (d Decl) String() string {
	var sb strings.Builder
	if d.Export {
		sb.WriteString("export ")
	}
	switch d.Kind {
	case DeclModule:
		fmt.Fprintf(&sb, "module %s;", d.ModuleName())
	case DeclImport:
		fmt.Fprintf(&sb, "import %s;", d.ModuleName())
	case DeclHeaderImport:
		fmt.Fprintf(&sb, "import %s;", d.HeaderName())
	case DeclInclude:
		fmt.Fprintf(&sb, "#include %s", d.HeaderName())
	default:
		fmt.Fprintf(&sb, "%s?", d.Kind)
	}
	return sb.String()
}

// SyntaxError is an error of malformed module declaration.
type SyntaxError struct {
	Line   int
	Text   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}
