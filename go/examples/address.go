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

// GetAddressExample parses a standard address in workchain x%256-128 and
// reports the workchain of the result.
func GetAddressExample() Example {
	return exampleSpec{
		Name: "address",
		ops:  []tvm.OpCode{tvm.PARSEMSGADDR},
		input: func(x int) []tosca.Entry {
			return []tosca.Entry{stdAddress(int64(addressWorkchain(x)), byte(x))}
		},
		output:    parsedWorkchain,
		reference: addressWorkchain,
	}.build()
}

func addressWorkchain(x int) int {
	return x%256 - 128
}

// stdAddress serializes addr_std$10 without anycast.
func stdAddress(workchain int64, fill byte) *cell.Slice {
	account := make([]byte, 32)
	for i := range account {
		account[i] = fill + byte(i)
	}
	b := cell.BeginCell()
	if err := b.StoreUInt(0b100, 3); err != nil {
		panic(err)
	}
	if err := b.StoreInt(workchain, 8); err != nil {
		panic(err)
	}
	if err := b.StoreSlice(account, 256); err != nil {
		panic(err)
	}
	return b.EndCell().BeginParse()
}

func parsedWorkchain(res tosca.Result) (int, error) {
	if len(res.Stack) != 1 {
		return 0, fmt.Errorf("unexpected result stack size %d", len(res.Stack))
	}
	addr, ok := res.Stack[0].(tosca.Tuple)
	if !ok || len(addr) != 4 {
		return 0, fmt.Errorf("unexpected result %v", tosca.FormatEntry(res.Stack[0]))
	}
	workchain, ok := addr[2].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected workchain %v", tosca.FormatEntry(addr[2]))
	}
	return int(workchain.Int64()), nil
}
