// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package shutil provides shell command line utilities.
package shutil

import (
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Join joins a command line args to a single string, quoting args
// as needed so that Split returns the same args.
func Join(args []string) string {
	var sb strings.Builder
	for i, arg := range args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(Quote(arg))
	}
	return sb.String()
}

// Quote quotes s for POSIX shell if needed.
func Quote(s string) string {
	if s != "" && strings.IndexFunc(s, unsafeRune) < 0 {
		return s
	}
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		// s contains bytes that shell can't represent, e.g. NUL.
		return strconv.Quote(s)
	}
	return q
}

func unsafeRune(r rune) bool {
	switch {
	case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		return false
	}
	return !strings.ContainsRune("_@%+=:,./-", r)
}
