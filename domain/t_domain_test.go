// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package domain

import (
	"testing"

	"github.com/alaamroue/src-pro-gpu/sim"
	"github.com/cpmech/gosl/chk"
)

func prepared(tst *testing.T, rows, cols int) *Domain {
	o := New(nil)
	if err := o.SetResolution(1, 1); err != nil {
		tst.Fatalf("SetResolution failed:\n%v", err)
	}
	if err := o.SetExtent(rows, cols); err != nil {
		tst.Fatalf("SetExtent failed:\n%v", err)
	}
	if err := o.Prepare(sim.Double); err != nil {
		tst.Fatalf("Prepare failed:\n%v", err)
	}
	return o
}

func Test_domain01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("domain01. geometry, cell IDs and neighbours")

	o := prepared(tst, 4, 5)

	// id <-> indices round trip over the whole grid
	for id := 0; id < o.CellCount(); id++ {
		x, y := o.CellIndices(id)
		chk.Int(tst, "cellId(cellIndices(id))", o.CellID(x, y), id)
	}

	// neighbour arithmetic
	n, err := o.Neighbour(o.CellID(2, 1), North)
	if err != nil {
		tst.Errorf("north neighbour failed:\n%v", err)
	}
	chk.Int(tst, "north", n, o.CellID(2, 2))
	n, _ = o.Neighbour(o.CellID(2, 1), East)
	chk.Int(tst, "east", n, o.CellID(3, 1))
	n, _ = o.Neighbour(o.CellID(2, 1), South)
	chk.Int(tst, "south", n, o.CellID(2, 0))
	n, _ = o.Neighbour(o.CellID(2, 1), West)
	chk.Int(tst, "west", n, o.CellID(1, 1))

	// border faces have no neighbour
	if _, err := o.Neighbour(o.CellID(4, 1), East); err == nil {
		tst.Errorf("eastern border must have no eastern neighbour")
	}
	if _, err := o.Neighbour(o.CellID(0, 0), South); err == nil {
		tst.Errorf("southern border must have no southern neighbour")
	}

	// geometry is frozen after Prepare
	if err := o.SetResolution(2, 2); err == nil {
		tst.Errorf("resolution change after Prepare must fail")
	}
	if err := o.SetExtent(2, 2); err == nil {
		tst.Errorf("extent change after Prepare must fail")
	}
	if err := o.UseSparseCoupling(true); err == nil {
		tst.Errorf("coupling mode change after Prepare must fail")
	}
}

func Test_domain02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("domain02. setters, rounding and derived values")

	o := prepared(tst, 3, 3)
	id := o.CellID(1, 1)

	// values are rounded to 5 decimals
	o.SetBedElevation(id, 1.0000061)
	chk.Float64(tst, "bed rounding", 1e-12, o.GetBed(id), 1.00001)

	o.SetFSL(id, 2.123456789)
	chk.Float64(tst, "fsl rounding", 1e-12, o.GetState(id, StateFSL), 2.12346)
	chk.Float64(tst, "max fsl follows", 1e-12, o.GetState(id, StateMaxFSL), 2.12346)

	// derived setters
	o.SetDepth(id, 0.5)
	chk.Float64(tst, "depth setter", 1e-12, o.Depth(id), 0.5)
	o.SetVelocityX(id, 2.0)
	chk.Float64(tst, "velocity to discharge", 1e-12, o.GetState(id, StateQx), 1.0)

	// total volume over active cells
	o2 := prepared(tst, 2, 2)
	for i := 0; i < 4; i++ {
		o2.SetBedElevation(i, 0)
		o2.SetFSL(i, 1)
	}
	o2.SetDisabled(3)
	chk.Float64(tst, "total volume skips disabled", 1e-12, o2.TotalVolume(), 3.0)
	if !o2.Disabled(3) {
		tst.Errorf("cell 3 must be disabled")
	}
}

func Test_domain03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("domain03. Poleni flag symmetry")

	o := prepared(tst, 3, 3)

	// east flag implies the neighbour's west flag
	a := o.CellID(0, 1)
	b := o.CellID(1, 1)
	o.SetPoleniX(a, true)
	_, ea, _, _ := o.PoleniFlags(a)
	_, _, _, wb := o.PoleniFlags(b)
	if !ea || !wb {
		tst.Errorf("east/west Poleni symmetry broken: e(a)=%v w(b)=%v", ea, wb)
	}

	// north flag implies the neighbour's south flag
	c := o.CellID(1, 0)
	d := o.CellID(1, 1)
	o.SetPoleniY(c, true)
	nc, _, _, _ := o.PoleniFlags(c)
	_, _, sd, _ := o.PoleniFlags(d)
	if !nc || !sd {
		tst.Errorf("north/south Poleni symmetry broken: n(c)=%v s(d)=%v", nc, sd)
	}

	// requests whose outward neighbour is outside the grid are ignored
	e := o.CellID(2, 1)
	o.SetPoleniX(e, true)
	_, ee, _, _ := o.PoleniFlags(e)
	if ee {
		tst.Errorf("Poleni on the eastern border face must be ignored")
	}

	o.SetPoleniParamX(b, 1.23456, 0.577)
	chk.Float64(tst, "crest elevation", 1e-12, o.ZxMax().Get(b), 1.23456)
	chk.Float64(tst, "weir coefficient", 1e-15, o.Cx().Get(b), 0.577)
}

func Test_domain04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("domain04. sparse coupling list")

	o := New(nil)
	o.SetResolution(1, 1)
	o.SetExtent(4, 4)
	o.UseSparseCoupling(true)
	if err := o.Prepare(sim.Double); err == nil {
		tst.Errorf("sparse coupling without a size must fail to prepare")
	}
	o.SetSparseCouplingSize(3)
	if err := o.Prepare(sim.Double); err != nil {
		tst.Errorf("Prepare failed:\n%v", err)
		return
	}

	o.SetCoupling(0, 5, 0.001)
	o.SetCoupling(1, 6, 0.002)
	chk.Int(tst, "coupling id", int(o.CouplingIDs()[1]), 6)
	chk.Float64(tst, "coupling value", 1e-15, o.CouplingValues().Get(0), 0.001)

	// dense setter is rejected in sparse mode
	defer func() {
		if recover() == nil {
			tst.Errorf("SetBoundary in sparse mode must panic")
		}
	}()
	o.SetBoundary(0, 1)
}

func Test_domain05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("domain05. precision-tagged arrays")

	a := NewArray(sim.Single, 8)
	a.Set(2, 1.5)
	chk.Float64(tst, "single get", 1e-7, a.Get(2), 1.5)
	if len(a.Bytes()) != 32 {
		tst.Errorf("single array must back 4 bytes per element")
	}

	b := NewArray(sim.Double, 8)
	b.Set(2, 1.0000001)
	chk.Float64(tst, "double get", 1e-15, b.Get(2), 1.0000001)
	if len(b.Bytes()) != 64 {
		tst.Errorf("double array must back 8 bytes per element")
	}
}
