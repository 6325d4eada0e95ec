// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package examples

import (
	"fmt"
	"math/big"

	"github.com/Fantom-foundation/Tosca-TVM/go/interpreter/tvm"
	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// GetGramsExample stores 2^x-1 nanograms into an empty builder and reports
// the number of bits the encoding occupies.
func GetGramsExample() Example {
	return exampleSpec{
		Name: "grams",
		ops:  []tvm.OpCode{tvm.STGRAMS},
		input: func(x int) []tosca.Entry {
			amount := new(big.Int).Lsh(big.NewInt(1), uint(x%64))
			amount.Sub(amount, big.NewInt(1))
			return []tosca.Entry{cell.BeginCell(), amount}
		},
		output:    builderSize,
		reference: gramsSize,
	}.build()
}

// gramsSize is the size of the signed 4-bit length encoding of 2^(x%64)-1.
func gramsSize(x int) int {
	n := x % 64
	if n == 0 {
		return 4
	}
	return 4 + 8*((n+8)/8)
}

func builderSize(res tosca.Result) (int, error) {
	if len(res.Stack) != 1 {
		return 0, fmt.Errorf("unexpected result stack size %d", len(res.Stack))
	}
	b, ok := res.Stack[0].(*cell.Builder)
	if !ok {
		return 0, fmt.Errorf("unexpected result %v", tosca.FormatEntry(res.Stack[0]))
	}
	return int(b.BitsUsed()), nil
}
