// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package ui

import (
	"fmt"
	"strings"
	"time"
)

// DurationThreshold is a threshold of duration to show in spinner.
const DurationThreshold = 500 * time.Millisecond

// FormatDuration formats duration in "X.XXs", "XmXX.XXs" or "XhXmXX.XXs".
func FormatDuration(d time.Duration) string {
	d = d.Round(10 * time.Millisecond)
	var sb strings.Builder
	mins := d.Truncate(time.Minute)
	d -= mins
	if mins > 0 {
		sb.WriteString(strings.TrimSuffix(mins.String(), "0s"))
		if d < 10*time.Second {
			sb.WriteByte('0')
		}
	}
	fmt.Fprintf(&sb, "%.02fs", d.Seconds())
	return sb.String()
}
