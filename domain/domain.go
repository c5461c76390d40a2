// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package domain implements the regular Cartesian grid domain: geometry,
// per-cell host arrays and the accessors used by importers and schemes.
package domain

import (
	"math"
	"unsafe"

	"github.com/alaamroue/src-pro-gpu/sim"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"gonum.org/v1/gonum/floats"
)

// indices into the 4-tuple cell state
const (
	StateFSL    = 0 // free-surface level η
	StateMaxFSL = 1 // running maximum free-surface level
	StateQx     = 2 // discharge per unit width in x [m2/s]
	StateQy     = 3 // discharge per unit width in y [m2/s]
)

// per-face Poleni flag bits
const (
	PoleniN = 1 << iota
	PoleniE
	PoleniS
	PoleniW
)

// Direction identifies one face of a cell. North increments the row index,
// east increments the column index.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// StateReader pulls the current cell-state buffer from the device back into
// the host arrays. The scheme bound to this domain implements it.
type StateReader interface {
	ReadBack() error
}

// Domain holds the grid geometry and all per-cell host arrays. Geometry is
// fixed at Prepare; cell values may be modified between batches.
type Domain struct {
	log sim.Logger

	// geometry (set once before Prepare)
	dx, dy       float64
	rows, cols   int
	cellCount    int
	sparse       bool
	couplingSize int

	// state
	prec     sim.Precision
	prepared bool
	reader   StateReader

	// host arrays (allocated at Prepare)
	states   *Array // 4 values per cell
	bed      *Array
	manning  *Array
	boundary *Array // dense coupling only
	poleni   []byte // flag bits per cell
	zxmax    *Array
	cx       *Array
	zymax    *Array
	cy       *Array
	cplIDs   []uint64 // sparse coupling only
	cplVals  *Array

	// statistics gathered while ingesting initial conditions
	minTopo, maxTopo   float64
	minFSL, maxFSL     float64
	minDepth, maxDepth float64
}

// New returns an empty domain
func New(log sim.Logger) (o *Domain) {
	o = new(Domain)
	o.log = log
	if o.log == nil {
		o.log = &sim.NopLogger{}
	}
	o.minTopo, o.maxTopo = 9999.0, -9999.0
	o.minFSL, o.maxFSL = 9999.0, -9999.0
	o.minDepth, o.maxDepth = 9999.0, -9999.0
	return
}

// SetResolution sets the cell size in each axis; must be called before Prepare
func (o *Domain) SetResolution(dx, dy float64) error {
	if o.prepared {
		return chk.Err("invalid state: resolution cannot change after domain is prepared")
	}
	if dx <= 0 || dy <= 0 {
		return chk.Err("cell resolution must be positive; got (%g, %g)", dx, dy)
	}
	o.dx, o.dy = dx, dy
	return nil
}

// SetExtent sets the number of rows and columns; must be called before Prepare
func (o *Domain) SetExtent(rows, cols int) error {
	if o.prepared {
		return chk.Err("invalid state: extent cannot change after domain is prepared")
	}
	if rows < 1 || cols < 1 {
		return chk.Err("grid extent must be at least 1x1; got %dx%d", rows, cols)
	}
	o.rows, o.cols = rows, cols
	o.cellCount = rows * cols
	return nil
}

// UseSparseCoupling switches boundary forcing to the compact coupling list
func (o *Domain) UseSparseCoupling(on bool) error {
	if o.prepared {
		return chk.Err("invalid state: coupling mode cannot change after domain is prepared")
	}
	o.sparse = on
	return nil
}

// SetSparseCouplingSize sets the number of active coupling entries K
func (o *Domain) SetSparseCouplingSize(k int) error {
	if o.prepared {
		return chk.Err("invalid state: coupling size cannot change after domain is prepared")
	}
	if k < 0 {
		return chk.Err("coupling size must be non-negative; got %d", k)
	}
	o.couplingSize = k
	return nil
}

// Prepare validates the geometry and allocates the host arrays at the given
// precision. Idempotent for the same precision.
func (o *Domain) Prepare(prec sim.Precision) error {
	if o.prepared {
		if prec != o.prec {
			return chk.Err("invalid state: domain already prepared at %v precision", o.prec)
		}
		return nil
	}
	if o.dx <= 0 || o.dy <= 0 {
		return chk.Err("cell resolution is not defined")
	}
	if o.rows < 1 || o.cols < 1 {
		return chk.Err("grid extent is not defined")
	}
	if o.sparse && o.couplingSize < 1 {
		return chk.Err("sparse coupling requested but coupling size is not set")
	}
	o.prec = prec
	n := o.cellCount
	o.states = NewArray(prec, 4*n)
	o.bed = NewArray(prec, n)
	o.manning = NewArray(prec, n)
	o.poleni = make([]byte, n)
	o.zxmax = NewArray(prec, n)
	o.cx = NewArray(prec, n)
	o.zymax = NewArray(prec, n)
	o.cy = NewArray(prec, n)
	if o.sparse {
		o.cplIDs = make([]uint64, o.couplingSize)
		o.cplVals = NewArray(prec, o.couplingSize)
	} else {
		o.boundary = NewArray(prec, n)
	}
	o.prepared = true
	o.logDetails()
	return nil
}

func (o *Domain) logDetails() {
	o.log.LogInfo("REGULAR CARTESIAN GRID DOMAIN")
	o.log.LogInfo(io.Sf("  Cell count:        %d", o.cellCount))
	o.log.LogInfo(io.Sf("  Cell resolution:   %g x %g", o.dx, o.dy))
	o.log.LogInfo(io.Sf("  Cell dimensions:   [%d, %d]", o.cols, o.rows))
	o.log.LogInfo(io.Sf("  Precision:         %v", o.prec))
}

// Prepared reports whether the host arrays are allocated
func (o *Domain) Prepared() bool { return o.prepared }

// Rows returns the number of rows
func (o *Domain) Rows() int { return o.rows }

// Cols returns the number of columns
func (o *Domain) Cols() int { return o.cols }

// CellCount returns rows x cols
func (o *Domain) CellCount() int { return o.cellCount }

// Resolution returns the cell size in each axis
func (o *Domain) Resolution() (dx, dy float64) { return o.dx, o.dy }

// Precision returns the precision the host arrays were allocated at
func (o *Domain) Precision() sim.Precision { return o.prec }

// SparseCoupling reports whether the compact coupling list is in use
func (o *Domain) SparseCoupling() bool { return o.sparse }

// CouplingSize returns the number of coupling entries K
func (o *Domain) CouplingSize() int { return o.couplingSize }

// SetStateReader binds the scheme that refreshes the host state arrays
func (o *Domain) SetStateReader(r StateReader) { o.reader = r }

// CellID converts column/row indices to a cell ID
func (o *Domain) CellID(x, y int) int { return y*o.cols + x }

// CellIndices converts a cell ID back to column/row indices
func (o *Domain) CellIndices(id int) (x, y int) { return id % o.cols, id / o.cols }

// Neighbour returns the cell across the given face. Faces on the domain
// border have no neighbour and return an error.
func (o *Domain) Neighbour(id int, dir Direction) (int, error) {
	x, y := o.CellIndices(id)
	switch dir {
	case North:
		if y >= o.rows-1 {
			return -1, chk.Err("cell %d has no northern neighbour", id)
		}
		return id + o.cols, nil
	case East:
		if x >= o.cols-1 {
			return -1, chk.Err("cell %d has no eastern neighbour", id)
		}
		return id + 1, nil
	case South:
		if y <= 0 {
			return -1, chk.Err("cell %d has no southern neighbour", id)
		}
		return id - o.cols, nil
	}
	if x <= 0 {
		return -1, chk.Err("cell %d has no western neighbour", id)
	}
	return id - 1, nil
}

// checkCell panics when the domain is unready or the cell ID out of bounds
func (o *Domain) checkCell(id int) {
	if !o.prepared {
		chk.Panic("invalid state: domain is not prepared")
	}
	if id < 0 || id >= o.cellCount {
		chk.Panic("cell id %d out of bounds [0,%d)", id, o.cellCount)
	}
}

// SetBedElevation sets the bed elevation of one cell. The free-surface
// level follows the bed so a freshly imported domain starts dry.
func (o *Domain) SetBedElevation(id int, z float64) {
	o.checkCell(id)
	z = sim.Round(z, sim.RoundDecimals)
	o.bed.Set(id, z)
	o.states.Set(4*id+StateFSL, z)
	if z != sim.DisabledCell {
		o.minTopo = math.Min(o.minTopo, z)
		o.maxTopo = math.Max(o.maxTopo, z)
	}
}

// SetManning sets the Manning roughness coefficient of one cell
func (o *Domain) SetManning(id int, n float64) {
	o.checkCell(id)
	o.manning.Set(id, sim.Round(n, sim.RoundDecimals))
}

// SetFSL sets the free-surface level of one cell; the running maximum is
// initialised to the same value
func (o *Domain) SetFSL(id int, eta float64) {
	o.checkCell(id)
	eta = sim.Round(eta, sim.RoundDecimals)
	o.states.Set(4*id+StateFSL, eta)
	o.states.Set(4*id+StateMaxFSL, eta)
	o.minFSL = math.Min(o.minFSL, eta)
	o.maxFSL = math.Max(o.maxFSL, eta)
	d := eta - o.bed.Get(id)
	o.minDepth = math.Min(o.minDepth, d)
	o.maxDepth = math.Max(o.maxDepth, d)
}

// SetDepth sets the water depth of one cell (derived free-surface setter)
func (o *Domain) SetDepth(id int, h float64) {
	o.checkCell(id)
	o.SetFSL(id, o.bed.Get(id)+h)
}

// SetDischargeX sets the x discharge per unit width of one cell
func (o *Domain) SetDischargeX(id int, q float64) {
	o.checkCell(id)
	o.states.Set(4*id+StateQx, sim.Round(q, sim.RoundDecimals))
}

// SetDischargeY sets the y discharge per unit width of one cell
func (o *Domain) SetDischargeY(id int, q float64) {
	o.checkCell(id)
	o.states.Set(4*id+StateQy, sim.Round(q, sim.RoundDecimals))
}

// SetVelocityX sets the x discharge from a velocity and the current depth
func (o *Domain) SetVelocityX(id int, v float64) {
	o.checkCell(id)
	o.SetDischargeX(id, v*o.Depth(id))
}

// SetVelocityY sets the y discharge from a velocity and the current depth
func (o *Domain) SetVelocityY(id int, v float64) {
	o.checkCell(id)
	o.SetDischargeY(id, v*o.Depth(id))
}

// SetDisabled marks one cell as disabled; every kernel skips it
func (o *Domain) SetDisabled(id int) {
	o.checkCell(id)
	o.states.Set(4*id+StateMaxFSL, sim.DisabledCell)
}

// Disabled reports whether a cell is disabled
func (o *Domain) Disabled(id int) bool {
	o.checkCell(id)
	return o.states.Get(4*id+StateMaxFSL) == sim.DisabledCell
}

// SetBoundary sets the dense boundary forcing value of one cell
func (o *Domain) SetBoundary(id int, v float64) {
	o.checkCell(id)
	if o.sparse {
		chk.Panic("invalid state: domain uses sparse coupling; call SetCoupling")
	}
	o.boundary.Set(id, sim.Round(v, sim.RoundDecimals))
}

// SetCoupling sets entry i of the compact coupling list to (cell, value)
func (o *Domain) SetCoupling(i, id int, v float64) {
	o.checkCell(id)
	if !o.sparse {
		chk.Panic("invalid state: domain uses dense boundary forcing; call SetBoundary")
	}
	if i < 0 || i >= o.couplingSize {
		chk.Panic("coupling index %d out of bounds [0,%d)", i, o.couplingSize)
	}
	o.cplIDs[i] = uint64(id)
	o.cplVals.Set(i, sim.Round(v, sim.RoundDecimals))
}

// SetPoleniX enables the weir-flow correction across the eastern face of a
// cell. The western flag of the eastern neighbour is set as well so the
// scheme reads a consistent flag from either owner. Requests on the eastern
// border are ignored: the outward neighbour lies outside the grid.
func (o *Domain) SetPoleniX(id int, on bool) {
	o.checkCell(id)
	if !on {
		return
	}
	x, _ := o.CellIndices(id)
	if x >= o.cols-1 {
		return
	}
	o.poleni[id] |= PoleniE
	o.poleni[id+1] |= PoleniW
}

// SetPoleniY enables the weir-flow correction across the northern face of a
// cell and the southern flag of the northern neighbour. Requests on the
// northern border are ignored.
func (o *Domain) SetPoleniY(id int, on bool) {
	o.checkCell(id)
	if !on {
		return
	}
	_, y := o.CellIndices(id)
	if y >= o.rows-1 {
		return
	}
	o.poleni[id] |= PoleniN
	o.poleni[id+o.cols] |= PoleniS
}

// SetPoleniParamX sets the crest elevation and discharge coefficient for
// weir flow across the x faces of one cell
func (o *Domain) SetPoleniParamX(id int, zmax, c float64) {
	o.checkCell(id)
	o.zxmax.Set(id, sim.Round(zmax, sim.RoundDecimals))
	o.cx.Set(id, sim.Round(c, sim.RoundDecimals))
}

// SetPoleniParamY sets the crest elevation and discharge coefficient for
// weir flow across the y faces of one cell
func (o *Domain) SetPoleniParamY(id int, zmax, c float64) {
	o.checkCell(id)
	o.zymax.Set(id, sim.Round(zmax, sim.RoundDecimals))
	o.cy.Set(id, sim.Round(c, sim.RoundDecimals))
}

// PoleniFlags returns the four face flags of one cell
func (o *Domain) PoleniFlags(id int) (n, e, s, w bool) {
	o.checkCell(id)
	f := o.poleni[id]
	return f&PoleniN != 0, f&PoleniE != 0, f&PoleniS != 0, f&PoleniW != 0
}

// GetState returns one component of the cell state from the current buffer
func (o *Domain) GetState(id, index int) float64 {
	o.checkCell(id)
	if index < 0 || index > 3 {
		chk.Panic("state index %d out of bounds [0,4)", index)
	}
	return o.states.Get(4*id + index)
}

// GetBed returns the bed elevation of one cell
func (o *Domain) GetBed(id int) float64 {
	o.checkCell(id)
	return o.bed.Get(id)
}

// GetManning returns the Manning coefficient of one cell
func (o *Domain) GetManning(id int) float64 {
	o.checkCell(id)
	return o.manning.Get(id)
}

// GetBoundary returns the dense boundary forcing value of one cell
func (o *Domain) GetBoundary(id int) float64 {
	o.checkCell(id)
	return o.boundary.Get(id)
}

// Depth returns the derived water depth max(0, η − z) of one cell
func (o *Domain) Depth(id int) float64 {
	o.checkCell(id)
	return math.Max(0, o.states.Get(4*id+StateFSL)-o.bed.Get(id))
}

// TotalVolume sums h·Δx·Δy over all active cells
func (o *Domain) TotalVolume() float64 {
	if !o.prepared {
		chk.Panic("invalid state: domain is not prepared")
	}
	hs := make([]float64, 0, o.cellCount)
	for id := 0; id < o.cellCount; id++ {
		if o.states.Get(4*id+StateMaxFSL) == sim.DisabledCell {
			continue
		}
		hs = append(hs, math.Max(0, o.states.Get(4*id+StateFSL)-o.bed.Get(id)))
	}
	return floats.Sum(hs) * o.dx * o.dy
}

// ImportStatistics returns the extrema tracked while ingesting initial
// conditions: bed, free-surface level and depth
func (o *Domain) ImportStatistics() (minTopo, maxTopo, minFSL, maxFSL, minDepth, maxDepth float64) {
	return o.minTopo, o.maxTopo, o.minFSL, o.maxFSL, o.minDepth, o.maxDepth
}

// ReadDepth refreshes the host state and fills out with per-cell depths in
// row-major order. Blocks until the device queue drains.
func (o *Domain) ReadDepth(out []float64) error {
	if err := o.refresh(); err != nil {
		return err
	}
	for id := 0; id < o.cellCount && id < len(out); id++ {
		out[id] = math.Max(0, o.states.Get(4*id+StateFSL)-o.bed.Get(id))
	}
	return nil
}

// ReadVelocityX refreshes the host state and fills out with x velocities
func (o *Domain) ReadVelocityX(out []float64) error {
	if err := o.refresh(); err != nil {
		return err
	}
	for id := 0; id < o.cellCount && id < len(out); id++ {
		out[id] = o.velocity(id, StateQx)
	}
	return nil
}

// ReadVelocityY refreshes the host state and fills out with y velocities
func (o *Domain) ReadVelocityY(out []float64) error {
	if err := o.refresh(); err != nil {
		return err
	}
	for id := 0; id < o.cellCount && id < len(out); id++ {
		out[id] = o.velocity(id, StateQy)
	}
	return nil
}

// ReadAll refreshes the host state once and fills depth and velocity fields
func (o *Domain) ReadAll(outH, outVx, outVy []float64) error {
	if len(outH) < o.cellCount || len(outVx) < o.cellCount || len(outVy) < o.cellCount {
		return chk.Err("output buffers must hold %d cells", o.cellCount)
	}
	if err := o.refresh(); err != nil {
		return err
	}
	for id := 0; id < o.cellCount; id++ {
		outH[id] = math.Max(0, o.states.Get(4*id+StateFSL)-o.bed.Get(id))
		outVx[id] = o.velocity(id, StateQx)
		outVy[id] = o.velocity(id, StateQy)
	}
	return nil
}

func (o *Domain) velocity(id, qIndex int) float64 {
	h := o.states.Get(4*id+StateFSL) - o.bed.Get(id)
	if h <= 1e-8 {
		return 0
	}
	return o.states.Get(4*id+qIndex) / h
}

func (o *Domain) refresh() error {
	if !o.prepared {
		return chk.Err("invalid state: domain is not prepared")
	}
	if o.reader == nil {
		return nil
	}
	return o.reader.ReadBack()
}

// raw array accessors used by the scheme to back device buffers

// States returns the 4-per-cell state array
func (o *Domain) States() *Array { return o.states }

// Bed returns the bed elevation array
func (o *Domain) Bed() *Array { return o.bed }

// Manning returns the roughness array
func (o *Domain) Manning() *Array { return o.manning }

// Boundary returns the dense boundary forcing array (nil in sparse mode)
func (o *Domain) Boundary() *Array { return o.boundary }

// PoleniBytes returns the per-cell face flag array
func (o *Domain) PoleniBytes() []byte { return o.poleni }

// ZxMax returns the x-axis crest elevation array
func (o *Domain) ZxMax() *Array { return o.zxmax }

// Cx returns the x-axis weir discharge coefficient array
func (o *Domain) Cx() *Array { return o.cx }

// ZyMax returns the y-axis crest elevation array
func (o *Domain) ZyMax() *Array { return o.zymax }

// Cy returns the y-axis weir discharge coefficient array
func (o *Domain) Cy() *Array { return o.cy }

// CouplingIDs returns the sparse coupling cell-ID list (nil in dense mode)
func (o *Domain) CouplingIDs() []uint64 { return o.cplIDs }

// CouplingIDBytes returns the coupling ID list as a buffer backing block
func (o *Domain) CouplingIDBytes() []byte {
	if len(o.cplIDs) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&o.cplIDs[0])), 8*len(o.cplIDs))
}

// CouplingValues returns the sparse coupling value array (nil in dense mode)
func (o *Domain) CouplingValues() *Array { return o.cplVals }
