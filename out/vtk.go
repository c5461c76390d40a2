// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"os"
	"strings"

	"github.com/alaamroue/src-pro-gpu/domain"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// WriteVTK writes depth, free-surface level and velocity fields as a legacy
// VTK structured-points file. The domain host state is refreshed first, so
// this blocks until the device queue drains.
func WriteVTK(path string, dom *domain.Domain, t float64) error {
	if !dom.Prepared() {
		return chk.Err("cannot export an unprepared domain")
	}
	n := dom.CellCount()
	h := make([]float64, n)
	vx := make([]float64, n)
	vy := make([]float64, n)
	if err := dom.ReadAll(h, vx, vy); err != nil {
		return err
	}
	dx, dy := dom.Resolution()

	var b strings.Builder
	b.WriteString("# vtk DataFile Version 3.0\n")
	b.WriteString(io.Sf("floodplain state at t=%g s\n", t))
	b.WriteString("ASCII\n")
	b.WriteString("DATASET STRUCTURED_POINTS\n")
	b.WriteString(io.Sf("DIMENSIONS %d %d 1\n", dom.Cols(), dom.Rows()))
	b.WriteString("ORIGIN 0 0 0\n")
	b.WriteString(io.Sf("SPACING %g %g 1\n", dx, dy))
	b.WriteString(io.Sf("POINT_DATA %d\n", n))

	writeField := func(name string, vals []float64) {
		b.WriteString(io.Sf("SCALARS %s double 1\n", name))
		b.WriteString("LOOKUP_TABLE default\n")
		for i := 0; i < n; i++ {
			b.WriteString(io.Sf("%g\n", vals[i]))
		}
	}
	writeField("depth", h)
	writeField("velocity_x", vx)
	writeField("velocity_y", vy)

	eta := make([]float64, n)
	for i := 0; i < n; i++ {
		eta[i] = dom.GetBed(i) + h[i]
	}
	writeField("fsl", eta)

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return chk.Err("cannot write VTK file %q:\n%v", path, err)
	}
	return nil
}
