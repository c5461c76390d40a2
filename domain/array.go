// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package domain

import (
	"unsafe"

	"github.com/alaamroue/src-pro-gpu/sim"
)

// Array is a host-side value array allocated at the precision shared with
// the device. A single typed allocation replaces the float/double pointer
// aliasing of older solvers; element width follows the precision tag.
type Array struct {
	prec sim.Precision
	f32  []float32
	f64  []float64
}

// NewArray allocates a zeroed array of n elements at the given precision
func NewArray(prec sim.Precision, n int) *Array {
	o := &Array{prec: prec}
	if prec == sim.Double {
		o.f64 = make([]float64, n)
	} else {
		o.f32 = make([]float32, n)
	}
	return o
}

// Len returns the number of elements
func (o *Array) Len() int {
	if o.prec == sim.Double {
		return len(o.f64)
	}
	return len(o.f32)
}

// Get returns element i as a double
func (o *Array) Get(i int) float64 {
	if o.prec == sim.Double {
		return o.f64[i]
	}
	return float64(o.f32[i])
}

// Set stores v into element i at the array's precision
func (o *Array) Set(i int, v float64) {
	if o.prec == sim.Double {
		o.f64[i] = v
		return
	}
	o.f32[i] = float32(v)
}

// Fill sets every element to v
func (o *Array) Fill(v float64) {
	for i := 0; i < o.Len(); i++ {
		o.Set(i, v)
	}
}

// Bytes returns the raw allocation, used as a device buffer backing block
func (o *Array) Bytes() []byte {
	if o.prec == sim.Double {
		if len(o.f64) == 0 {
			return nil
		}
		return unsafe.Slice((*byte)(unsafe.Pointer(&o.f64[0])), 8*len(o.f64))
	}
	if len(o.f32) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&o.f32[0])), 4*len(o.f32))
}
