// Copyright 2024 The src-pro-gpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheme

import (
	"math"

	"github.com/alaamroue/src-pro-gpu/sim"
)

// queueController adapts the number of iterations submitted per batch so a
// batch occupies roughly one second of device time. In fixed mode the size
// never changes.
type queueController struct {
	mode sim.QueueMode
	size int
}

func newQueueController(mode sim.QueueMode, initial int) *queueController {
	if initial < 1 {
		initial = 1
	}
	return &queueController{mode: mode, size: initial}
}

// update records the outcome of the last batch: r successful iterations
// over d seconds of wall-clock time
func (o *queueController) update(r int, d float64) {
	if o.mode == sim.QueueFixed {
		return
	}
	if d <= 0 {
		return
	}
	// iterations per second at the observed per-iteration cost
	n := int(math.Ceil(1.0 / (d / float64(o.size))))
	if hi := 3 * r; n > hi {
		n = hi
	}
	// growth is capped at 2x once the queue is already long
	if o.size > 40 && n > 2*o.size {
		n = 2 * o.size
	}
	if n < 1 {
		n = 1
	}
	o.size = n
}
