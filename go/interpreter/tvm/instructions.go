// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tvm

import (
	"fmt"

	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
)

// --- Gas ---

func opAccept(c *context) error {
	return c.gas.setLimit(tosca.GasInfinity)
}

func opSetGasLimit(c *context) error {
	x, err := c.stack.popIntFinite()
	if err != nil {
		return err
	}
	limit := tosca.GasInfinity
	if x.Sign() > 0 && x.BitLen() <= 63 {
		limit = tosca.Gas(x.Int64())
	}
	return c.gas.setLimit(limit)
}

// --- Configuration ---

// opGetParam pushes the element at the given index of the environment tuple,
// which is the first element of c7.
func opGetParam(c *context, index int) error {
	if len(c.registers.c7) == 0 {
		return fmt.Errorf("%w: c7 is empty", errRangeCheck)
	}
	params, ok := c.registers.c7[0].(tosca.Tuple)
	if !ok {
		return fmt.Errorf("%w: c7[0] is not a tuple: %s", errTypeCheck, tosca.FormatEntry(c.registers.c7[0]))
	}
	if index >= len(params) {
		return fmt.Errorf("%w: environment index %d out of range [0, %d)", errRangeCheck, index, len(params))
	}
	c.stack.push(params[index])
	return nil
}
