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
	"log"
	"math/big"

	"github.com/Fantom-foundation/Tosca-TVM/go/interpreter/tvm"
	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Example is an executable description of a contract fragment computing an
// (int)->int function.
type Example struct {
	exampleSpec
	code *cell.Cell // the assembled code cell
}

// exampleSpec specifies a contract fragment with an (int)->int signature.
type exampleSpec struct {
	Name      string
	ops       []tvm.OpCode                    // the instructions of the fragment
	input     func(int) []tosca.Entry         // the initial stack for an argument
	output    func(tosca.Result) (int, error) // extracts the result of a run
	reference func(int) int                   // a reference function computing the same function
}

func (s exampleSpec) build() Example {
	b := cell.BeginCell()
	for _, op := range s.ops {
		if err := b.StoreUInt(uint64(op), 16); err != nil {
			log.Fatalf("Unable to assemble %s example: %v", s.Name, err)
		}
	}
	return Example{
		exampleSpec: s,
		code:        b.EndCell(),
	}
}

type Result struct {
	Result  int
	UsedGas tosca.Gas
}

const initialGas = 1_000_000

// RunOn runs this example on the given interpreter, using the given argument.
func (e *Example) RunOn(interpreter tosca.Interpreter, argument int) (Result, error) {
	params := tosca.Parameters{
		Code:        e.code,
		GasLimit:    initialGas,
		Stack:       e.input(argument),
		Environment: tosca.ContractInfo{Now: 1_700_000_000}.Environment(),
	}

	res, err := interpreter.Run(params)
	if err != nil {
		return Result{}, err
	}
	if !res.Success {
		return Result{}, fmt.Errorf("execution failed with exit code %d (%v)", int(res.ExitCode), res.ExitCode)
	}

	result, err := e.output(res)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Result:  result,
		UsedGas: res.GasUsed,
	}, nil
}

// RunReference runs the reference function of this example to produce the
// expected result.
func (e *Example) RunReference(argument int) int {
	return e.reference(argument)
}

// topInt extracts the integer on top of the final stack.
func topInt(res tosca.Result) (int, error) {
	if len(res.Stack) == 0 {
		return 0, fmt.Errorf("empty result stack")
	}
	v, ok := res.Stack[len(res.Stack)-1].(*big.Int)
	if !ok || !v.IsInt64() {
		return 0, fmt.Errorf("unexpected result %v", tosca.FormatEntry(res.Stack[len(res.Stack)-1]))
	}
	return int(v.Int64()), nil
}
