// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheme

import (
	"math"
	"testing"

	"github.com/alaamroue/src-pro-gpu/domain"
	"github.com/alaamroue/src-pro-gpu/sim"
	"github.com/cpmech/gosl/chk"
)

func Test_inertial01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("inertial01. still lake stays still under the inertial update")

	set := Settings{Variant: sim.Inertial, TimestepMode: sim.TimestepCFL, Courant: 0.5, FrictionEffects: true}
	dom, dev, sch := testScheme(tst, set, 8, 8, 1, 1, 0)
	defer dev.Close()
	defer sch.Cleanup()

	for id := 0; id < dom.CellCount(); id++ {
		dom.SetBedElevation(id, 0)
		dom.SetFSL(id, 1)
		dom.SetManning(id, 0.03)
	}
	if err := sch.Prepare(); err != nil {
		tst.Fatalf("Prepare failed:\n%v", err)
	}
	drive(tst, sch, 5.0)
	if err := sch.ReadBack(); err != nil {
		tst.Fatalf("ReadBack failed:\n%v", err)
	}
	for id := 0; id < dom.CellCount(); id++ {
		if q := math.Hypot(dom.GetState(id, domain.StateQx), dom.GetState(id, domain.StateQy)); q > 1e-9 {
			tst.Errorf("cell %d: residual momentum %g", id, q)
		}
		chk.Float64(tst, "level preserved", 1e-9, dom.GetState(id, domain.StateFSL), 1)
	}
}

func Test_inertial02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("inertial02. inertial relaxation conserves mass")

	set := Settings{Variant: sim.Inertial, TimestepMode: sim.TimestepCFL, Courant: 0.5, FrictionEffects: true}
	dom, dev, sch := testScheme(tst, set, 1, 40, 1, 1, 0)
	defer dev.Close()
	defer sch.Cleanup()

	for id := 0; id < 40; id++ {
		dom.SetBedElevation(id, 0)
		dom.SetManning(id, 0.05)
		if id < 20 {
			dom.SetFSL(id, 1.2)
		} else {
			dom.SetFSL(id, 1.0)
		}
	}
	if err := sch.Prepare(); err != nil {
		tst.Fatalf("Prepare failed:\n%v", err)
	}
	v0 := dom.TotalVolume()
	drive(tst, sch, 10.0)
	if err := sch.ReadBack(); err != nil {
		tst.Fatalf("ReadBack failed:\n%v", err)
	}
	v1 := dom.TotalVolume()
	if math.Abs(v1-v0) > 1e-6*v0 {
		tst.Errorf("mass not conserved: V0=%g V1=%g", v0, v1)
	}

	// the step must have relaxed toward a level surface: the two cells on
	// either side of it now sit on the same middle plateau (the end cells
	// are still sloshing in the basin seiche at t=10)
	spread := dom.GetState(19, domain.StateFSL) - dom.GetState(20, domain.StateFSL)
	if math.Abs(spread) >= 0.19 {
		tst.Errorf("surface did not relax: spread=%g", spread)
	}
}

func Test_muscl01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("muscl01. still lake stays still at second order")

	set := Settings{Variant: sim.MUSCLHancock, TimestepMode: sim.TimestepCFL, Courant: 0.4}
	dom, dev, sch := testScheme(tst, set, 8, 8, 1, 1, 0)
	defer dev.Close()
	defer sch.Cleanup()

	flatPond(dom, 0, 1)
	if err := sch.Prepare(); err != nil {
		tst.Fatalf("Prepare failed:\n%v", err)
	}
	drive(tst, sch, 5.0)
	if err := sch.ReadBack(); err != nil {
		tst.Fatalf("ReadBack failed:\n%v", err)
	}
	for id := 0; id < dom.CellCount(); id++ {
		if q := math.Hypot(dom.GetState(id, domain.StateQx), dom.GetState(id, domain.StateQy)); q > 1e-9 {
			tst.Errorf("cell %d: residual momentum %g", id, q)
		}
		chk.Float64(tst, "level preserved", 1e-9, dom.GetState(id, domain.StateFSL), 1)
	}
}

func Test_muscl02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("muscl02. second-order dam break conserves mass")

	set := Settings{Variant: sim.MUSCLHancock, TimestepMode: sim.TimestepCFL, Courant: 0.4}
	dom, dev, sch := testScheme(tst, set, 1, 100, 1, 1, 0)
	defer dev.Close()
	defer sch.Cleanup()

	for id := 0; id < 100; id++ {
		dom.SetBedElevation(id, 0)
		if id < 50 {
			dom.SetFSL(id, 2.0)
		} else {
			dom.SetFSL(id, 0.1)
		}
	}
	if err := sch.Prepare(); err != nil {
		tst.Fatalf("Prepare failed:\n%v", err)
	}
	v0 := dom.TotalVolume()
	drive(tst, sch, 3.0)
	if err := sch.ReadBack(); err != nil {
		tst.Fatalf("ReadBack failed:\n%v", err)
	}
	v1 := dom.TotalVolume()
	if math.Abs(v1-v0) > 1e-6*v0 {
		tst.Errorf("mass not conserved: V0=%g V1=%g", v0, v1)
	}

	// the bore reached into the shallow side
	h := make([]float64, 100)
	dom.ReadDepth(h)
	if h[60] < 0.15 {
		tst.Errorf("no bore at x=60: h=%g", h[60])
	}
}
