// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/Fantom-foundation/Tosca-TVM/go/interpreter/tvm"
	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// loadCode obtains the code cell either from a hex encoded bag of cells or
// from a list of instruction names. Exactly one of both must be provided.
func loadCode(boc, asm string) (*cell.Cell, error) {
	switch {
	case boc != "" && asm != "":
		return nil, fmt.Errorf("--code and --asm are mutually exclusive")
	case boc != "":
		return decodeBoc(boc)
	case asm != "":
		return assemble(asm)
	}
	return nil, fmt.Errorf("no code provided, use --code or --asm")
}

func decodeBoc(boc string) (*cell.Cell, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(boc), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid hex encoding of code: %w", err)
	}
	code, err := cell.FromBOC(data)
	if err != nil {
		return nil, fmt.Errorf("invalid bag of cells: %w", err)
	}
	return code, nil
}

// assemble encodes a comma separated list of instruction names into a code
// cell.
func assemble(asm string) (*cell.Cell, error) {
	b := cell.BeginCell()
	for _, name := range strings.Split(asm, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		op, err := tvm.ParseOpCode(name)
		if err != nil {
			return nil, err
		}
		if err := b.StoreUInt(uint64(op), 16); err != nil {
			return nil, fmt.Errorf("code does not fit into a single cell: %w", err)
		}
	}
	return b.EndCell(), nil
}

// parseStack converts the textual integer arguments into stack entries,
// bottom element first.
func parseStack(values []string) ([]tosca.Entry, error) {
	res := make([]tosca.Entry, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if strings.EqualFold(value, "nan") {
			res = append(res, tosca.NaN{})
			continue
		}
		v, ok := new(big.Int).SetString(value, 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", value)
		}
		res = append(res, v)
	}
	return res, nil
}

// formatStack renders the stack with the top element first.
func formatStack(stack []tosca.Entry) string {
	var b strings.Builder
	for i := len(stack) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "    [%4d] %s\n", i, tosca.FormatEntry(stack[i]))
	}
	return b.String()
}
