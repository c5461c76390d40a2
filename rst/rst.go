// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package rst imports raster initial conditions (ESRI ASCII grids) into a
// domain: bed elevation, free-surface level, depth, roughness, velocities
// and disabled-cell masks.
package rst

import (
	"strconv"
	"strings"

	"github.com/alaamroue/src-pro-gpu/domain"
	"github.com/cpmech/gosl/chk"
	"github.com/maseology/mmio"
)

// Value identifies the quantity a raster layer carries
type Value int

const (
	BedElevation Value = iota
	FreeSurfaceLevel
	Depth
	Manning
	VelocityX
	VelocityY
	DischargeX
	DischargeY
	Disabled
)

// ValueFromName maps a layer name to its quantity, matching on substrings
// the way raster tooling labels bands
func ValueFromName(s string) (Value, error) {
	l := strings.ToLower(s)
	switch {
	case strings.Contains(l, "dem"):
		return BedElevation, nil
	case strings.Contains(l, "depth"):
		return Depth, nil
	case strings.Contains(l, "disabled"):
		return Disabled, nil
	case strings.Contains(l, "dischargex"):
		return DischargeX, nil
	case strings.Contains(l, "dischargey"):
		return DischargeY, nil
	case strings.Contains(l, "fsl"):
		return FreeSurfaceLevel, nil
	case strings.Contains(l, "manning"):
		return Manning, nil
	case strings.Contains(l, "velocityx"):
		return VelocityX, nil
	case strings.Contains(l, "velocityy"):
		return VelocityY, nil
	}
	return BedElevation, chk.Err("unknown raster value name %q", s)
}

// Grid holds one raster layer. Vals is row-major starting at the
// northern-most row, as stored in the file.
type Grid struct {
	Rows, Cols int
	CellSize   float64
	NoData     float64
	Vals       []float64
}

// ReadASCIIGrid reads an ESRI ASCII grid file
func ReadASCIIGrid(path string) (g *Grid, err error) {
	lines := mmio.ReadTextLines(path)
	if len(lines) == 0 {
		return nil, chk.Err("raster file %q is empty", path)
	}

	g = &Grid{NoData: -9999}
	idata := 0
	for i, ln := range lines {
		f := strings.Fields(ln)
		if len(f) != 2 {
			idata = i
			break
		}
		key := strings.ToLower(f[0])
		v, perr := strconv.ParseFloat(f[1], 64)
		if perr != nil {
			return nil, chk.Err("raster %q: cannot parse header %q", path, ln)
		}
		switch key {
		case "ncols":
			g.Cols = int(v)
		case "nrows":
			g.Rows = int(v)
		case "cellsize":
			g.CellSize = v
		case "nodata_value":
			g.NoData = v
		case "xllcorner", "yllcorner":
			// origin is not used; the domain is anchored at (0,0)
		default:
			return nil, chk.Err("raster %q: unknown header key %q", path, key)
		}
		idata = i + 1
	}
	if g.Rows < 1 || g.Cols < 1 {
		return nil, chk.Err("raster %q: missing nrows/ncols header", path)
	}

	g.Vals = make([]float64, 0, g.Rows*g.Cols)
	for _, ln := range lines[idata:] {
		for _, tok := range strings.Fields(ln) {
			v, perr := strconv.ParseFloat(tok, 64)
			if perr != nil {
				return nil, chk.Err("raster %q: cannot parse value %q", path, tok)
			}
			g.Vals = append(g.Vals, v)
		}
	}
	if len(g.Vals) != g.Rows*g.Cols {
		return nil, chk.Err("raster %q: %d values but %dx%d expected", path, len(g.Vals), g.Rows, g.Cols)
	}
	return
}

// Apply feeds one raster layer into the domain. The first file row is the
// northern-most grid row; no-data cells of a bed layer disable the cell,
// no-data cells of any other layer are skipped, and in a disabled mask any
// positive value disables the cell.
func Apply(dom *domain.Domain, g *Grid, what Value) error {
	if !dom.Prepared() {
		return chk.Err("domain must be prepared before importing rasters")
	}
	if g.Rows != dom.Rows() || g.Cols != dom.Cols() {
		return chk.Err("raster extent %dx%d does not match domain %dx%d",
			g.Rows, g.Cols, dom.Rows(), dom.Cols())
	}
	for r := 0; r < g.Rows; r++ {
		y := g.Rows - 1 - r
		for x := 0; x < g.Cols; x++ {
			v := g.Vals[r*g.Cols+x]
			id := dom.CellID(x, y)
			if v == g.NoData {
				if what == BedElevation {
					dom.SetDisabled(id)
				}
				continue
			}
			switch what {
			case BedElevation:
				dom.SetBedElevation(id, v)
			case FreeSurfaceLevel:
				dom.SetFSL(id, v)
			case Depth:
				dom.SetDepth(id, v)
			case Manning:
				dom.SetManning(id, v)
			case VelocityX:
				dom.SetVelocityX(id, v)
			case VelocityY:
				dom.SetVelocityY(id, v)
			case DischargeX:
				dom.SetDischargeX(id, v)
			case DischargeY:
				dom.SetDischargeY(id, v)
			case Disabled:
				if v > 0 {
					dom.SetDisabled(id)
				}
			}
		}
	}
	return nil
}
