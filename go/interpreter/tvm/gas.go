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

const (
	basicGasPrice    tosca.Gas = 10  // Paid for every executed instruction.
	gasPerOpCodeBit  tosca.Gas = 1   // Paid for every bit of the instruction encoding.
	cellCreateGas    tosca.Gas = 500 // Paid for every cell finalized by an instruction.
	opCodeBits                 = 16  // All instructions of this set are encoded using 16 bits.
	staticGasPerStep           = basicGasPrice + opCodeBits*gasPerOpCodeBit
)

// gasLimits tracks the gas consumed by an execution against its current
// limit. The consumed amount never decreases and the limit is never set
// below it.
type gasLimits struct {
	consumed tosca.Gas
	limit    tosca.Gas
}

// consume charges the given amount. Once the consumed gas exceeds the limit,
// errOutOfGas is returned and the execution has to be aborted.
func (g *gasLimits) consume(amount tosca.Gas) error {
	if amount < 0 {
		return fmt.Errorf("%w: negative gas amount %d", errOutOfGas, amount)
	}
	if amount > tosca.GasInfinity-g.consumed {
		g.consumed = tosca.GasInfinity
	} else {
		g.consumed += amount
	}
	if g.consumed > g.limit {
		return fmt.Errorf("%w: consumed %d, limit %d", errOutOfGas, g.consumed, g.limit)
	}
	return nil
}

// setLimit replaces the gas limit. Limits below the already consumed gas are
// rejected with errOutOfGas.
func (g *gasLimits) setLimit(limit tosca.Gas) error {
	if limit < g.consumed {
		return fmt.Errorf("%w: new limit %d below consumed gas %d", errOutOfGas, limit, g.consumed)
	}
	g.limit = limit
	return nil
}

// used returns the consumed gas, capped by the limit.
func (g *gasLimits) used() tosca.Gas {
	return min(g.consumed, g.limit)
}
