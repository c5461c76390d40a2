// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import "github.com/cpmech/gosl/chk"

// Kernel holds one kernel body with a fixed-length argument list, a local
// work-group shape and a global work shape. Arguments are *Buffer references
// or scalar values.
type Kernel struct {
	name   string
	fn     KernelFunc
	args   []interface{}
	local  [3]int
	global [3]int
}

// Name returns the kernel name
func (o *Kernel) Name() string { return o.name }

// SetArg binds one argument slot
func (o *Kernel) SetArg(i int, v interface{}) error {
	if i < 0 || i >= len(o.args) {
		return chk.Err("kernel %q: argument index %d out of range (nargs=%d)", o.name, i, len(o.args))
	}
	o.args[i] = v
	return nil
}

// AssignArgs binds the whole argument list in order
func (o *Kernel) AssignArgs(vals ...interface{}) error {
	if len(vals) != len(o.args) {
		return chk.Err("kernel %q: %d arguments given but %d expected", o.name, len(vals), len(o.args))
	}
	copy(o.args, vals)
	return nil
}

// SetGroupSize sets the local work-group shape
func (o *Kernel) SetGroupSize(x, y, z int) {
	o.local = [3]int{max1(x), max1(y), max1(z)}
}

// SetGlobalSize sets the global work shape
func (o *Kernel) SetGlobalSize(x, y, z int) {
	o.global = [3]int{max1(x), max1(y), max1(z)}
}

// GroupSize returns the local work-group shape
func (o *Kernel) GroupSize() [3]int { return o.local }

// GlobalSize returns the global work shape
func (o *Kernel) GlobalSize() [3]int { return o.global }

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
