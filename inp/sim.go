// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data read from a (.sim) JSON file
package inp

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/alaamroue/src-pro-gpu/sim"
	"github.com/cpmech/gosl/chk"
)

// SimulationData holds the run-level configuration
type SimulationData struct {
	Length       float64 `json:"length"`       // total simulated time [s]
	OutputFreq   float64 `json:"outputfreq"`   // output interval [s]; 0 disables clamping
	Precision    string  `json:"precision"`    // "single" or "double"
	Device       int     `json:"device"`       // index into the device list
	ShowProgress bool    `json:"showprogress"` // terminal progress bar
}

// DomainData holds the grid definition
type DomainData struct {
	ResolutionX    float64 `json:"resx"`         // cell size in x [m]
	ResolutionY    float64 `json:"resy"`         // cell size in y [m]
	Rows           int     `json:"rows"`         // number of rows
	Cols           int     `json:"cols"`         // number of columns
	SparseCoupling bool    `json:"sparse"`       // use the compact coupling list
	CouplingSize   int     `json:"couplingsize"` // number of coupling entries K
}

// SchemeData holds the numerical scheme configuration
type SchemeData struct {
	Variant             string  `json:"variant"`      // godunov, inertial, musclhancock
	RiemannSolver       string  `json:"riemann"`      // hllc
	TimestepMode        string  `json:"tsmode"`       // cfl or fixed
	Timestep            float64 `json:"timestep"`     // initial or fixed timestep [s]
	MaxTimestep         float64 `json:"maxtimestep"`  // dynamic timestep upper bound [s]
	Courant             float64 `json:"courant"`      // Courant number in (0,1]
	DryThreshold        float64 `json:"drythreshold"` // dry-cell depth [m]
	FrictionEffects     bool    `json:"friction"`     // Manning friction
	ReductionWavefronts int     `json:"wavefronts"`   // timestep reduction divisions
	QueueMode           string  `json:"queuemode"`    // auto or fixed
	QueueSize           int     `json:"queuesize"`    // initial or fixed batch size
	CacheMode           string  `json:"cachemode"`    // none, prediction, maximum
	CacheConstraints    string  `json:"cachelimits"`  // actual, oversize, undersize
	WorkGroupSizeX      int     `json:"wgsizex"`      // 0 derives from device limits
	WorkGroupSizeY      int     `json:"wgsizey"`
}

// Settings holds all input data for one simulation
type Settings struct {
	Desc       string         `json:"desc"`   // description of simulation
	DirOut     string         `json:"dirout"` // directory for output
	Simulation SimulationData `json:"simulation"`
	Domain     DomainData     `json:"domain"`
	Scheme     SchemeData     `json:"scheme"`
}

// ReadSettings reads the settings from a JSON file
func ReadSettings(path string) (o *Settings, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, chk.Err("cannot read settings file %q:\n%v", path, err)
	}
	o = new(Settings)
	if err = json.Unmarshal(b, o); err != nil {
		return nil, chk.Err("cannot parse settings file %q:\n%v", path, err)
	}
	if err = o.Validate(); err != nil {
		return nil, err
	}
	return
}

// Validate reports configuration errors that would only surface mid-run
func (o *Settings) Validate() error {
	if o.Simulation.Length <= 0 {
		return chk.Err("simulation length must be positive; got %g", o.Simulation.Length)
	}
	if o.Domain.Rows < 1 || o.Domain.Cols < 1 {
		return chk.Err("domain extent must be at least 1x1; got %dx%d", o.Domain.Rows, o.Domain.Cols)
	}
	if o.Domain.ResolutionX <= 0 || o.Domain.ResolutionY <= 0 {
		return chk.Err("cell resolution must be positive; got (%g, %g)", o.Domain.ResolutionX, o.Domain.ResolutionY)
	}
	if o.Scheme.RiemannSolver != "" && !strings.EqualFold(o.Scheme.RiemannSolver, "hllc") {
		return chk.Err("unknown Riemann solver %q (only hllc is available)", o.Scheme.RiemannSolver)
	}
	if _, err := ParseVariant(o.Scheme.Variant); err != nil {
		return err
	}
	return nil
}

// Precision returns the parsed float precision (default double)
func (o *Settings) Precision() sim.Precision {
	if strings.EqualFold(o.Simulation.Precision, "single") {
		return sim.Single
	}
	return sim.Double
}

// ParseVariant converts a variant name to its enum (default godunov)
func ParseVariant(s string) (sim.Variant, error) {
	switch strings.ToLower(s) {
	case "", "godunov":
		return sim.Godunov, nil
	case "inertial":
		return sim.Inertial, nil
	case "musclhancock", "muscl-hancock":
		return sim.MUSCLHancock, nil
	}
	return sim.Godunov, chk.Err("unknown scheme variant %q", s)
}

// ParseTimestepMode converts a timestep mode name to its enum (default cfl)
func ParseTimestepMode(s string) (sim.TimestepMode, error) {
	switch strings.ToLower(s) {
	case "", "cfl", "dynamic":
		return sim.TimestepCFL, nil
	case "fixed":
		return sim.TimestepFixed, nil
	}
	return sim.TimestepCFL, chk.Err("unknown timestep mode %q", s)
}

// ParseQueueMode converts a queue mode name to its enum (default auto)
func ParseQueueMode(s string) (sim.QueueMode, error) {
	switch strings.ToLower(s) {
	case "", "auto", "automatic":
		return sim.QueueAuto, nil
	case "fixed":
		return sim.QueueFixed, nil
	}
	return sim.QueueAuto, chk.Err("unknown queue mode %q", s)
}

// ParseCacheMode converts a cache mode name to its enum (default none)
func ParseCacheMode(s string) (sim.CacheMode, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return sim.CacheNone, nil
	case "prediction":
		return sim.CachePrediction, nil
	case "maximum":
		return sim.CacheMaximum, nil
	}
	return sim.CacheNone, chk.Err("unknown cache mode %q", s)
}

// ParseCacheConstraints converts a cache constraint name to its enum
func ParseCacheConstraints(s string) (sim.CacheConstraints, error) {
	switch strings.ToLower(s) {
	case "", "actual":
		return sim.CacheActual, nil
	case "oversize":
		return sim.CacheAllowOversize, nil
	case "undersize":
		return sim.CacheAllowUndersize, nil
	}
	return sim.CacheActual, chk.Err("unknown cache constraint %q", s)
}
