// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package scheme implements the numerical schemes: the first-order
// Godunov-type core with the HLLC Riemann solver and Poleni weir faces,
// the simplified inertial variant and the second-order MUSCL-Hancock
// variant. One scheme drives one domain on one device.
package scheme

import (
	"github.com/alaamroue/src-pro-gpu/device"
	"github.com/alaamroue/src-pro-gpu/domain"
	"github.com/alaamroue/src-pro-gpu/sim"
	"github.com/cpmech/gosl/chk"
)

// Settings holds the configuration of a scheme instance
type Settings struct {
	Variant             sim.Variant
	Precision           sim.Precision
	TimestepMode        sim.TimestepMode
	Timestep            float64 // initial (dynamic) or fixed timestep [s]
	MaxTimestep         float64 // upper bound on the dynamic timestep [s]
	Courant             float64
	DryThreshold        float64
	FrictionEffects     bool
	ReductionWavefronts int
	QueueMode           sim.QueueMode
	QueueSize           int // initial (auto) or fixed batch size
	CacheMode           sim.CacheMode
	CacheConstraints    sim.CacheConstraints
	WorkGroupSize       [2]int // zero means derive from device limits
}

// Default fills unset fields with their default values
func (o *Settings) Default() {
	if o.Timestep == 0 {
		o.Timestep = 0.01
	}
	if o.MaxTimestep == 0 {
		o.MaxTimestep = 60.0
	}
	if o.Courant == 0 {
		o.Courant = sim.DefaultCourant
	}
	if o.DryThreshold == 0 {
		o.DryThreshold = sim.VerySmall
	}
	if o.ReductionWavefronts == 0 {
		o.ReductionWavefronts = sim.DefaultWavefronts
	}
	if o.QueueSize == 0 {
		o.QueueSize = 1
	}
}

// Validate reports configuration errors
func (o *Settings) Validate() error {
	if o.Courant <= 0 || o.Courant > 1 {
		return chk.Err("Courant number must lie in (0,1]; got %g", o.Courant)
	}
	if o.Timestep <= 0 {
		return chk.Err("timestep must be positive; got %g", o.Timestep)
	}
	if o.DryThreshold <= 0 {
		return chk.Err("dry threshold must be positive; got %g", o.DryThreshold)
	}
	if o.QueueSize < 1 {
		return chk.Err("queue size must be at least 1; got %d", o.QueueSize)
	}
	return nil
}

// Progress carries the telemetry of the most recent batch
type Progress struct {
	CurrentTime     float64
	CurrentTimestep float64
	AverageTimestep float64
	BatchSize       int
	BatchSuccessful int
	BatchSkipped    int
	TotalIterations int
	TotalSuccessful int
	TotalSkipped    int
}

// Scheme advances one domain through batches of device iterations
type Scheme interface {

	// Prepare compiles the program, allocates device buffers and uploads
	// the host arrays once
	Prepare() error

	// RunBatch schedules up to Q iterations toward the target time and
	// returns once the batch completion marker has resolved
	RunBatch(target float64) error

	// ImportBoundaries flags new boundary/coupling data for upload at the
	// start of the next batch
	ImportBoundaries()

	// ReadBack pulls the current cell-state buffer into the domain's host
	// arrays; only valid between batches
	ReadBack() error

	// Cleanup releases device resources; idempotent, safe after failure
	Cleanup()

	Ready() bool
	Halted() bool
	CurrentTime() float64
	CurrentTimestep() float64
	Progress() Progress
}

// allocators holds the available scheme variants
var allocators = make(map[sim.Variant]func(set Settings, dom *domain.Domain, dev device.Device, log sim.Logger, prof sim.Profiler) Scheme)

// New creates a scheme of the requested variant. The kernel set is fixed by
// the variant and immutable afterwards.
func New(set Settings, dom *domain.Domain, dev device.Device, log sim.Logger, prof sim.Profiler) (Scheme, error) {
	set.Default()
	if err := set.Validate(); err != nil {
		return nil, err
	}
	alloc, ok := allocators[set.Variant]
	if !ok {
		return nil, chk.Err("cannot find scheme variant %v", set.Variant)
	}
	return alloc(set, dom, dev, log, prof), nil
}
