// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package tosca

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Entry is a value held by the operand stack or by a tuple. Valid dynamic
// types are:
//
//   - *big.Int for finite integers in the signed 257-bit range,
//   - NaN for the non-finite integer sentinel,
//   - Null for the null value,
//   - *cell.Cell, *cell.Slice and *cell.Builder for cell values,
//   - Tuple for ordered sequences of entries.
//
// Cells are immutable and may be shared freely. Slices and builders pushed
// to a stack must not be modified afterwards; instructions copy them before
// advancing or extending them.
type Entry = any

// Tuple is an ordered sequence of stack entries.
type Tuple []Entry

// Null is the null stack value.
type Null struct{}

// NaN is the non-finite integer value.
type NaN struct{}

// Hash is a 256-bit cell representation hash.
type Hash [32]byte

func (h Hash) String() string {
	return fmt.Sprintf("0x%x", h[:])
}

// FormatEntry produces a short human-readable representation of a stack
// entry as it is used in traces and tool outputs.
func FormatEntry(e Entry) string {
	switch v := e.(type) {
	case nil, Null:
		return "(null)"
	case NaN:
		return "NaN"
	case *big.Int:
		return v.String()
	case *cell.Cell:
		return fmt.Sprintf("C{%X}", v.Hash())
	case *cell.Slice:
		return fmt.Sprintf("CS{%d bits, %d refs}", v.BitsLeft(), v.RefsNum())
	case *cell.Builder:
		return fmt.Sprintf("BC{%d bits, %d refs}", v.BitsUsed(), v.RefsUsed())
	case Tuple:
		parts := make([]string, 0, len(v))
		for _, cur := range v {
			parts = append(parts, FormatEntry(cur))
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return fmt.Sprintf("%v", e)
}

// contractInfoTag is the leading element of the SmartContractInfo tuple.
const contractInfoTag = 0x076ef1ea

// ContractInfo summarizes the environment of a contract execution. Its
// Environment() is the value expected in the control register c7.
type ContractInfo struct {
	Now          uint32      // current unix time
	BlockLt      uint64      // logical time at the start of the block
	Lt           uint64      // logical time of the current transaction
	RandSeed     *big.Int    // random seed of the block, 0 if nil
	Balance      *big.Int    // remaining balance in nanograms, 0 if nil
	Address      *cell.Slice // the serialized address of the contract, null if nil
	GlobalConfig *cell.Cell  // the root of the global configuration, null if nil
}

// Environment produces the environment tuple holding a single
// SmartContractInfo tuple. The indices of the inner tuple are the ones used
// by the GETPARAM family of instructions: 3 = NOW, 4 = BLOCKLT, 5 = LTIME,
// 6 = RANDSEED, 7 = BALANCE, 8 = MYADDR and 9 = CONFIGROOT.
func (i ContractInfo) Environment() Tuple {
	orZero := func(v *big.Int) *big.Int {
		if v == nil {
			return new(big.Int)
		}
		return new(big.Int).Set(v)
	}
	var address Entry = Null{}
	if i.Address != nil {
		address = i.Address
	}
	var config Entry = Null{}
	if i.GlobalConfig != nil {
		config = i.GlobalConfig
	}
	info := Tuple{
		big.NewInt(contractInfoTag),
		big.NewInt(0), // actions
		big.NewInt(0), // msgs_sent
		new(big.Int).SetUint64(uint64(i.Now)),
		new(big.Int).SetUint64(i.BlockLt),
		new(big.Int).SetUint64(i.Lt),
		orZero(i.RandSeed),
		Tuple{orZero(i.Balance), Null{}},
		address,
		config,
	}
	return Tuple{info}
}
