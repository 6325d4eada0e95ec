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
)

// GetReserveExample reserves x*1000 nanograms and reports the amount recorded
// in the output action list.
func GetReserveExample() Example {
	return exampleSpec{
		Name: "reserve",
		ops:  []tvm.OpCode{tvm.RESERVERAW},
		input: func(x int) []tosca.Entry {
			return []tosca.Entry{big.NewInt(int64(x) * 1000), big.NewInt(0)}
		},
		output:    reservedAmount,
		reference: func(x int) int { return x * 1000 },
	}.build()
}

func reservedAmount(res tosca.Result) (int, error) {
	actions, err := tvm.ParseOutputActions(res.Actions)
	if err != nil {
		return 0, err
	}
	if len(actions) != 1 || actions[0].Kind != tvm.ActionReserveCurrency || actions[0].Amount == nil {
		return 0, fmt.Errorf("unexpected output actions %v", actions)
	}
	return int(actions[0].Amount.Int64()), nil
}
