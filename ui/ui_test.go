// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui_test

import (
	"testing"

	"go.chromium.org/infra/build/cxxmod/ui"
)

func TestStripANSIEscapeCodes(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{
			in:   "foo\033",
			want: "foo",
		},
		{
			in:   "foo\033[",
			want: "foo",
		},
		{
			in:   "\033[1ma.cppm:3:8: \033[0m\033[0;1;31merror: \033[0m\033[1mfailed to read compiled module\033[0m",
			want: "a.cppm:3:8: error: failed to read compiled module",
		},
		{
			in:   ui.SGR(ui.Red, "FAILED") + " CXX a.cpp",
			want: "FAILED CXX a.cpp",
		},
	} {
		got := ui.StripANSIEscapeCodes(tc.in)
		if got != tc.want {
			t.Errorf("ui.StripANSIEscapeCodes(%q)=%q; want=%q", tc.in, got, tc.want)
		}
	}
}
