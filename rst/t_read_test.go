// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rst

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alaamroue/src-pro-gpu/domain"
	"github.com/alaamroue/src-pro-gpu/sim"
	"github.com/cpmech/gosl/chk"
)

func writeGrid(tst *testing.T, name, text string) string {
	path := filepath.Join(tst.TempDir(), name)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		tst.Fatalf("cannot write test raster: %v", err)
	}
	return path
}

func Test_rst01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("rst01. ESRI ASCII grid reading")

	path := writeGrid(tst, "dem.asc", `ncols 3
nrows 2
xllcorner 0
yllcorner 0
cellsize 1
NODATA_value -9999
1 2 3
4 5 -9999
`)
	g, err := ReadASCIIGrid(path)
	if err != nil {
		tst.Fatalf("ReadASCIIGrid failed:\n%v", err)
	}
	chk.Int(tst, "rows", g.Rows, 2)
	chk.Int(tst, "cols", g.Cols, 3)
	chk.Float64(tst, "cellsize", 1e-15, g.CellSize, 1)
	chk.Float64(tst, "first value", 1e-15, g.Vals[0], 1)
	chk.Float64(tst, "nodata value", 1e-15, g.Vals[5], -9999)

	// malformed files fail loudly
	bad := writeGrid(tst, "bad.asc", "ncols 2\nnrows 2\ncellsize 1\n1 2 3\n")
	if _, err := ReadASCIIGrid(bad); err == nil {
		tst.Errorf("wrong value count must fail")
	}
}

func Test_rst02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("rst02. applying layers with north-up orientation")

	dom := domain.New(nil)
	dom.SetResolution(1, 1)
	dom.SetExtent(2, 3)
	if err := dom.Prepare(sim.Double); err != nil {
		tst.Fatalf("Prepare failed:\n%v", err)
	}

	dem := writeGrid(tst, "dem.asc", `ncols 3
nrows 2
cellsize 1
NODATA_value -9999
1 2 3
4 5 -9999
`)
	g, err := ReadASCIIGrid(dem)
	if err != nil {
		tst.Fatalf("ReadASCIIGrid failed:\n%v", err)
	}
	if err := Apply(dom, g, BedElevation); err != nil {
		tst.Fatalf("Apply failed:\n%v", err)
	}

	// the first file row is the northern-most grid row (y = rows-1)
	chk.Float64(tst, "north-west bed", 1e-12, dom.GetBed(dom.CellID(0, 1)), 1)
	chk.Float64(tst, "south-west bed", 1e-12, dom.GetBed(dom.CellID(0, 0)), 4)
	if !dom.Disabled(dom.CellID(2, 0)) {
		tst.Errorf("no-data bed cells must be disabled")
	}

	// depth layer on top of the bed
	dep := writeGrid(tst, "depth.asc", `ncols 3
nrows 2
cellsize 1
NODATA_value -9999
0 0 0
0.5 0 0
`)
	g, _ = ReadASCIIGrid(dep)
	if err := Apply(dom, g, Depth); err != nil {
		tst.Fatalf("Apply failed:\n%v", err)
	}
	chk.Float64(tst, "imported depth", 1e-12, dom.Depth(dom.CellID(0, 0)), 0.5)

	// extent mismatch is rejected
	small := domain.New(nil)
	small.SetResolution(1, 1)
	small.SetExtent(1, 1)
	small.Prepare(sim.Double)
	if err := Apply(small, g, Depth); err == nil {
		tst.Errorf("extent mismatch must fail")
	}
}

func Test_rst03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("rst03. layer names resolve to quantities")

	cases := map[string]Value{
		"dem_10m":       BedElevation,
		"initial_depth": Depth,
		"manningcoefficient": Manning,
		"velocityx":     VelocityX,
		"disabled_mask": Disabled,
		"fsl_start":     FreeSurfaceLevel,
	}
	for name, want := range cases {
		got, err := ValueFromName(name)
		if err != nil {
			tst.Errorf("%q failed to resolve:\n%v", name, err)
			continue
		}
		if got != want {
			tst.Errorf("%q resolved to %v, want %v", name, got, want)
		}
	}
	if _, err := ValueFromName("temperature"); err == nil {
		tst.Errorf("unknown layer name must fail")
	}
}
