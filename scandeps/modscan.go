// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package scandeps

import (
	"bytes"
	"context"
	"errors"
	"os"
	"time"

	log "github.com/golang/glog"

	"go.chromium.org/infra/build/cxxmod/o11y/clog"
	"go.chromium.org/infra/build/cxxmod/o11y/trace"
)

// maxStmtLines is the maximum number of lines joined for a declaration
// split over lines, e.g. "export module\n  foo;".
const maxStmtLines = 4

// ScanFile reads fname and scans declarations in it.
// It returns an error from os.ReadFile as is.
func ScanFile(ctx context.Context, fname string) ([]Decl, error) {
	buf, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return Scan(ctx, fname, buf)
}

var utf8BOM = []byte("\xef\xbb\xbf")

// Scan scans module, import and #include declarations in buf in source order.
// It returns *SyntaxError for malformed `export module` or module partition
// declarations.
func Scan(ctx context.Context, fname string, buf []byte) ([]Decl, error) {
	ctx, span := trace.NewSpan(ctx, "scan")
	span.SetAttr("file", fname)
	defer span.Close(nil)

	started := time.Now()
	buf = bytes.TrimPrefix(buf, utf8BOM)
	buf = StripComments(buf)
	lines := bytes.Split(buf, []byte("\n"))

	var decls []Decl
	for i := 0; i < len(lines); i++ {
		lineno := i + 1
		line := bytes.TrimSpace(lines[i])
		if len(line) == 0 {
			continue
		}
		if line[0] == '#' {
			d, ok := parseInclude(ctx, line[1:])
			if !ok {
				continue
			}
			d.Line = lineno
			decls = append(decls, d)
			continue
		}
		if !declStart(line) {
			continue
		}
		stmt := line
		for n := 1; bytes.IndexByte(stmt, ';') < 0 && n < maxStmtLines && i+1 < len(lines); n++ {
			next := bytes.TrimSpace(lines[i+1])
			if len(next) > 0 && next[0] == '#' {
				break
			}
			i++
			stmt = joinLine(stmt, next)
		}
		semi := bytes.IndexByte(stmt, ';')
		if semi < 0 {
			if log.V(1) {
				clog.Infof(ctx, "%s:%d: no ';' in %q", fname, lineno, stmt)
			}
			continue
		}
		d, ok, err := parseDecl(stmt[:semi])
		if err != nil {
			span.SetAttr("error", err.Error())
			return nil, &SyntaxError{
				Line:   lineno,
				Text:   string(stmt[:semi+1]),
				Reason: err.Error(),
			}
		}
		if !ok {
			if log.V(2) {
				clog.Infof(ctx, "%s:%d: skip %q", fname, lineno, stmt)
			}
			continue
		}
		d.Line = lineno
		if log.V(1) {
			clog.Infof(ctx, "%s:%d: %s", fname, lineno, d)
		}
		decls = append(decls, d)
	}
	if dur := time.Since(started); dur > time.Second {
		clog.Infof(ctx, "slow scan %s %s", fname, dur)
	}
	span.SetAttr("decls", len(decls))
	return decls, nil
}

// StripComments returns a copy of buf with `//` and `/* */` comments
// replaced by spaces.  Newlines are kept, so line numbers are unchanged.
// String literals are not recognized.
func StripComments(buf []byte) []byte {
	out := bytes.Clone(buf)
	for i := 0; i+1 < len(out); i++ {
		if out[i] != '/' {
			continue
		}
		switch out[i+1] {
		case '/':
			j := i
			for ; j < len(out) && out[j] != '\n'; j++ {
				out[j] = ' '
			}
			i = j
		case '*':
			out[i], out[i+1] = ' ', ' '
			j := i + 2
			for ; j < len(out); j++ {
				if out[j] == '*' && j+1 < len(out) && out[j+1] == '/' {
					out[j], out[j+1] = ' ', ' '
					j++
					break
				}
				if out[j] != '\n' {
					out[j] = ' '
				}
			}
			i = j
		}
	}
	return out
}

func joinLine(stmt, next []byte) []byte {
	s := make([]byte, 0, len(stmt)+1+len(next))
	s = append(s, stmt...)
	s = append(s, ' ')
	return append(s, next...)
}

// declStart reports whether line starts with `module`, `import` or
// `export` followed by one of them (or nothing).
func declStart(line []byte) bool {
	if rest, ok := keyword(line, "export"); ok {
		rest = bytes.TrimSpace(rest)
		if len(rest) == 0 {
			return true
		}
		line = rest
	}
	if _, ok := keyword(line, "module"); ok {
		return true
	}
	_, ok := keyword(line, "import")
	return ok
}

// keyword returns the rest of b if b starts with kw as a whole token.
func keyword(b []byte, kw string) ([]byte, bool) {
	if !bytes.HasPrefix(b, []byte(kw)) {
		return nil, false
	}
	rest := b[len(kw):]
	if len(rest) > 0 && isIdentChar(rest[0]) {
		return nil, false
	}
	return rest, true
}

// parseDecl parses stmt without trailing ';'.
// It returns false if stmt is not a declaration (e.g. `import` used as
// an identifier), and error if stmt is a malformed module declaration.
func parseDecl(stmt []byte) (Decl, bool, error) {
	var d Decl
	stmt = bytes.TrimSpace(stmt)
	if rest, ok := keyword(stmt, "export"); ok {
		d.Export = true
		stmt = bytes.TrimSpace(rest)
	}
	if rest, ok := keyword(stmt, "module"); ok {
		return parseModuleDecl(d, bytes.TrimSpace(rest))
	}
	if rest, ok := keyword(stmt, "import"); ok {
		return parseImportDecl(d, bytes.TrimSpace(rest))
	}
	return d, false, nil
}

func parseModuleDecl(d Decl, rest []byte) (Decl, bool, error) {
	d.Kind = DeclModule
	switch {
	case len(rest) == 0:
		if d.Export {
			return d, false, errors.New("export module without name")
		}
		// global module fragment.
		return d, false, nil
	case rest[0] == ':':
		if !d.Export && string(bytes.TrimSpace(rest[1:])) == "private" {
			// private module fragment.
			return d, false, nil
		}
		return d, false, errors.New("module partition without module name")
	}
	mod, part, tail, ok := parseModuleName(rest)
	if !ok || !emptyOrAttr(tail) {
		if d.Export {
			return d, false, errors.New("malformed module name")
		}
		return d, false, nil
	}
	d.Module = mod
	d.Partition = part
	return d, true, nil
}

func parseImportDecl(d Decl, rest []byte) (Decl, bool, error) {
	if len(rest) == 0 {
		return d, false, nil
	}
	switch rest[0] {
	case '"', '<':
		delim := byte('"')
		if rest[0] == '<' {
			delim = '>'
		}
		i := bytes.IndexByte(rest[1:], delim)
		if i <= 0 {
			// unclosed or empty header name.
			return d, false, nil
		}
		if !emptyOrAttr(bytes.TrimSpace(rest[i+2:])) {
			return d, false, nil
		}
		d.Kind = DeclHeaderImport
		d.Path = string(rest[1 : i+1])
		d.Angled = delim == '>'
		return d, true, nil
	case ':':
		part, tail := parseDotted(bytes.TrimSpace(rest[1:]))
		if part == "" || !emptyOrAttr(bytes.TrimSpace(tail)) {
			return d, false, nil
		}
		d.Kind = DeclImport
		d.Partition = part
		return d, true, nil
	}
	mod, part, tail, ok := parseModuleName(rest)
	if !ok || !emptyOrAttr(tail) {
		return d, false, nil
	}
	d.Kind = DeclImport
	d.Module = mod
	d.Partition = part
	return d, true, nil
}

func parseInclude(ctx context.Context, line []byte) (Decl, bool) {
	rest, ok := keyword(bytes.TrimSpace(line), "include")
	if !ok {
		return Decl{}, false
	}
	rest = bytes.TrimSpace(rest)
	if len(rest) == 0 {
		return Decl{}, false
	}
	var delim byte
	switch rest[0] {
	case '"':
		delim = '"'
	case '<':
		delim = '>'
	default:
		if log.V(1) {
			clog.Infof(ctx, "ignore #include %q", rest)
		}
		return Decl{}, false
	}
	i := bytes.IndexByte(rest[1:], delim)
	if i <= 0 {
		if log.V(1) {
			clog.Infof(ctx, "unclosed path? %q", rest)
		}
		return Decl{}, false
	}
	return Decl{
		Kind:   DeclInclude,
		Path:   string(rest[1 : i+1]),
		Angled: delim == '>',
	}, true
}

// parseModuleName parses `M` or `M:P` where M and P are dotted identifiers.
func parseModuleName(b []byte) (mod, part string, tail []byte, ok bool) {
	mod, rest := parseDotted(b)
	if mod == "" {
		return "", "", b, false
	}
	rest = bytes.TrimSpace(rest)
	if len(rest) > 0 && rest[0] == ':' {
		part, rest = parseDotted(bytes.TrimSpace(rest[1:]))
		if part == "" {
			return "", "", b, false
		}
		rest = bytes.TrimSpace(rest)
	}
	return mod, part, rest, true
}

// parseDotted parses `ident(.ident)*` at the beginning of b.
func parseDotted(b []byte) (string, []byte) {
	i := 0
	for {
		j := identEnd(b, i)
		if j == i {
			return "", b
		}
		i = j
		if i < len(b) && b[i] == '.' {
			i++
			continue
		}
		return string(b[:i]), b[i:]
	}
}

func identEnd(b []byte, i int) int {
	if i >= len(b) || !isIdentStart(b[i]) {
		return i
	}
	i++
	for i < len(b) && isIdentChar(b[i]) {
		i++
	}
	return i
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentChar(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

// emptyOrAttr reports whether tail is empty or attributes, e.g. [[deprecated]].
func emptyOrAttr(tail []byte) bool {
	return len(tail) == 0 || bytes.HasPrefix(tail, []byte("[["))
}
