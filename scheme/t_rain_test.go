// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheme

import (
	"math"
	"testing"

	"github.com/alaamroue/src-pro-gpu/sim"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func Test_rain01(tst *testing.T) {

	if testing.Short() {
		tst.Skip("one hour of simulated rainfall; skipped in short mode")
	}

	//verbose()
	chk.PrintTitle("rain01. rain on a tilted plane balances the water budget")

	set := Settings{Variant: sim.Godunov, TimestepMode: sim.TimestepCFL, Courant: 0.5, FrictionEffects: true}
	dom, dev, sch := testScheme(tst, set, 20, 20, 1, 1, 0)
	defer dev.Close()
	defer sch.Cleanup()

	rate := 1e-4 // m/s
	for id := 0; id < dom.CellCount(); id++ {
		x, _ := dom.CellIndices(id)
		z := 0.01 * float64(x)
		dom.SetBedElevation(id, z)
		dom.SetFSL(id, z) // initially dry
		dom.SetManning(id, 0.03)
		dom.SetBoundary(id, rate)
	}
	if err := sch.Prepare(); err != nil {
		tst.Fatalf("Prepare failed:\n%v", err)
	}

	drive(tst, sch, 3600.0)
	if err := sch.ReadBack(); err != nil {
		tst.Fatalf("ReadBack failed:\n%v", err)
	}

	input := rate * 3600 * float64(dom.CellCount()) // Δx=Δy=1
	volume := dom.TotalVolume()
	outflow := input - volume // walls are closed, so nothing leaves
	io.Pforan("volume=%.4f input=%.4f residual=%.2e\n", volume, input, outflow)
	if math.Abs(volume+outflow-input) > 0.01*input {
		tst.Errorf("water budget off by more than 1%%: V=%g B=%g", volume, input)
	}
	if math.Abs(outflow) > 0.01*input {
		tst.Errorf("closed domain lost mass: %g of %g", outflow, input)
	}

	// the low (western) edge carries the deepest water
	hw := dom.Depth(dom.CellID(0, 10))
	he := dom.Depth(dom.CellID(19, 10))
	if hw <= he {
		tst.Errorf("water did not pool downslope: h(west)=%g h(east)=%g", hw, he)
	}
}

func Test_rain02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("rain02. sparse coupling list and mid-run import")

	// fixed dt kept under the Courant limit of a 1 m deep pond (√(g·h)·dt/Δx ≈ 0.31)
	set := Settings{Variant: sim.Godunov, TimestepMode: sim.TimestepFixed, Timestep: 0.1, QueueMode: sim.QueueFixed, QueueSize: 4}
	dom, dev, sch := testScheme(tst, set, 5, 5, 1, 1, 3)
	defer dev.Close()
	defer sch.Cleanup()

	for id := 0; id < dom.CellCount(); id++ {
		dom.SetBedElevation(id, 0)
		dom.SetFSL(id, 1) // a pond, so injected volume just adds up
	}
	rate := 1e-3
	dom.SetCoupling(0, 6, rate)
	dom.SetCoupling(1, 12, rate)
	dom.SetCoupling(2, 18, rate)
	if err := sch.Prepare(); err != nil {
		tst.Fatalf("Prepare failed:\n%v", err)
	}
	v0 := dom.TotalVolume()

	drive(tst, sch, 10.0)

	// refresh the coupling values between batches and double the rate
	dom.SetCoupling(0, 6, 2*rate)
	dom.SetCoupling(1, 12, 2*rate)
	dom.SetCoupling(2, 18, 2*rate)
	sch.ImportBoundaries()
	drive(tst, sch, 20.0)

	if err := sch.ReadBack(); err != nil {
		tst.Fatalf("ReadBack failed:\n%v", err)
	}
	want := v0 + 3*rate*10 + 3*2*rate*10
	chk.Float64(tst, "injected volume", 1e-6*want, dom.TotalVolume(), want)
}
