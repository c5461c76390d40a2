// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package out exports simulation results: zstd-compressed binary state
// checkpoints and VTK structured-points files of depth and velocity.
package out

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/DataDog/zstd"
	"github.com/alaamroue/src-pro-gpu/domain"
	"github.com/cpmech/gosl/chk"
)

// checkpoint file magic, bumped on layout changes
const checkpointMagic = uint32(0x53504731) // "SPG1"

// SaveCheckpoint writes the domain state (cell states, bed, roughness) to a
// zstd-compressed binary file. Values are stored as doubles regardless of
// the run precision.
func SaveCheckpoint(path string, dom *domain.Domain) error {
	if !dom.Prepared() {
		return chk.Err("cannot checkpoint an unprepared domain")
	}
	n := dom.CellCount()
	dx, dy := dom.Resolution()

	var buf bytes.Buffer
	w := func(v interface{}) {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	w(checkpointMagic)
	w(uint32(dom.Rows()))
	w(uint32(dom.Cols()))
	w(dx)
	w(dy)
	states := dom.States()
	for i := 0; i < 4*n; i++ {
		w(states.Get(i))
	}
	bed := dom.Bed()
	for i := 0; i < n; i++ {
		w(bed.Get(i))
	}
	man := dom.Manning()
	for i := 0; i < n; i++ {
		w(man.Get(i))
	}

	packed, err := zstd.CompressLevel(nil, buf.Bytes(), 1)
	if err != nil {
		return chk.Err("checkpoint compression failed:\n%v", err)
	}
	if err := os.WriteFile(path, packed, 0644); err != nil {
		return chk.Err("cannot write checkpoint %q:\n%v", path, err)
	}
	return nil
}

// LoadCheckpoint restores a checkpoint into a prepared domain with the same
// geometry. Values are written back without rounding so a save/load
// round-trip is exact.
func LoadCheckpoint(path string, dom *domain.Domain) error {
	if !dom.Prepared() {
		return chk.Err("cannot restore into an unprepared domain")
	}
	packed, err := os.ReadFile(path)
	if err != nil {
		return chk.Err("cannot read checkpoint %q:\n%v", path, err)
	}
	raw, err := zstd.Decompress(nil, packed)
	if err != nil {
		return chk.Err("checkpoint decompression failed:\n%v", err)
	}

	buf := bytes.NewReader(raw)
	r := func(v interface{}) error {
		return binary.Read(buf, binary.LittleEndian, v)
	}
	var magic, rows, cols uint32
	var dx, dy float64
	if err := r(&magic); err != nil || magic != checkpointMagic {
		return chk.Err("checkpoint %q: bad magic", path)
	}
	r(&rows)
	r(&cols)
	r(&dx)
	r(&dy)
	if int(rows) != dom.Rows() || int(cols) != dom.Cols() {
		return chk.Err("checkpoint grid %dx%d does not match domain %dx%d",
			rows, cols, dom.Rows(), dom.Cols())
	}

	n := dom.CellCount()
	var v float64
	states := dom.States()
	for i := 0; i < 4*n; i++ {
		if err := r(&v); err != nil {
			return chk.Err("checkpoint %q is truncated", path)
		}
		states.Set(i, v)
	}
	bed := dom.Bed()
	for i := 0; i < n; i++ {
		if err := r(&v); err != nil {
			return chk.Err("checkpoint %q is truncated", path)
		}
		bed.Set(i, v)
	}
	man := dom.Manning()
	for i := 0; i < n; i++ {
		if err := r(&v); err != nil {
			return chk.Err("checkpoint %q is truncated", path)
		}
		man.Set(i, v)
	}
	return nil
}
