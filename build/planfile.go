// Copyright 2026 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package build

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"go.chromium.org/infra/build/cxxmod/modgraph"
)

// PlanFileVersion is a version of the plan file format.
const PlanFileVersion = 1

// PlanFile is a serialized form of Plan.
type PlanFile struct {
	Version int          `json:"version"`
	WorkDir string       `json:"work_dir"`
	Units   []PlanUnit   `json:"units"`
	Batches [][]string   `json:"batches"`
	Mkdir   []*Command   `json:"mkdir"`
	Compile [][]*Command `json:"compile"`
	Link    []*Command   `json:"link"`
	Cleanup []*Command   `json:"cleanup"`
}

// PlanUnit is a serialized form of modgraph.Unit.
type PlanUnit struct {
	ID     string        `json:"id"`
	Kind   modgraph.Kind `json:"kind"`
	Module string        `json:"module,omitempty"`
	Deps   []string      `json:"deps,omitempty"`
}

// File returns a serialized form of the plan.
func (p *Plan) File() *PlanFile {
	pf := &PlanFile{
		Version: PlanFileVersion,
		WorkDir: p.WorkDir,
		Mkdir:   p.Mkdir,
		Compile: p.Compile,
		Link:    p.Link,
		Cleanup: p.Cleanup,
	}
	for _, u := range p.Graph.Units() {
		pu := PlanUnit{
			ID:     u.ID,
			Kind:   u.Kind,
			Module: u.ModuleName(),
		}
		for _, d := range p.Graph.Deps(u) {
			pu.Deps = append(pu.Deps, d.ID)
		}
		pf.Units = append(pf.Units, pu)
	}
	for _, batch := range p.Batches {
		ids := make([]string, 0, len(batch))
		for _, u := range batch {
			ids = append(ids, u.ID)
		}
		pf.Batches = append(pf.Batches, ids)
	}
	return pf
}

func isZstd(fname string) bool {
	return strings.HasSuffix(fname, ".zst")
}

// WritePlanFile writes the plan to fname in JSON.
// If fname ends with ".zst", it is compressed with zstd.
func WritePlanFile(fname string, plan *Plan) (err error) {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()
	var w io.Writer = f
	if isZstd(fname) {
		zw, zerr := zstd.NewWriter(f)
		if zerr != nil {
			return zerr
		}
		defer func() {
			cerr := zw.Close()
			if err == nil {
				err = cerr
			}
		}()
		w = zw
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	err = enc.Encode(plan.File())
	if err != nil {
		return fmt.Errorf("failed to encode plan to %s: %w", fname, err)
	}
	return nil
}

// ReadPlanFile reads the plan file written by WritePlanFile.
func ReadPlanFile(fname string) (*PlanFile, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var r io.Reader = f
	if isZstd(fname) {
		zr, zerr := zstd.NewReader(f)
		if zerr != nil {
			return nil, zerr
		}
		defer zr.Close()
		r = zr
	}
	pf := &PlanFile{}
	err = json.NewDecoder(r).Decode(pf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode plan %s: %w", fname, err)
	}
	if pf.Version != PlanFileVersion {
		return nil, fmt.Errorf("unsupported plan version %d in %s", pf.Version, fname)
	}
	return pf, nil
}
