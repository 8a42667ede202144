// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package scandeps provides forged C++20 module declaration scanner.
// It is not a C++ preprocessor nor a parser. It strips comments and
// checks the following forms at the beginning of a line
//
//	export module foo;
//	export module foo:part;
//	module foo;
//	module foo:part;
//	[export] import foo;
//	[export] import foo:part;
//	[export] import :part;
//	[export] import "foo.h";
//	[export] import <foo.h>;
//	#include "foo.h"
//	#include <foo.h>
//
// `module;` (global module fragment) and `module :private;` are skipped.
//
// Since it doesn't process `#if` or `#ifdef`, declarations in any
// conditional branch are reported.  Lookalike tokens in string literals
// or raw strings may also be reported, and a string literal containing
// "/*" hides declarations up to the next "*/".  `#include MACRO` is
// ignored.  These are accepted limitations of the scanner.
package scandeps
