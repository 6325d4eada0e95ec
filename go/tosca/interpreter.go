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
	"math"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Interpreter is a component capable of executing TVM byte-code under gas
// metering. To obtain an Interpreter instance, client code should use
// NewInterpreter() provided by the registry file in this package.
type Interpreter interface {
	// Run executes the code provided by the parameters and returns the
	// processing result. The resulting error is nil whenever the code was
	// correctly executed, even if the execution was aborted due to a
	// code-internal issue like running out of gas; such failures are reported
	// through the exit code of the result. The error is not nil if some
	// problem within the interpreter caused the execution to fail to
	// correctly process the provided program. In such a case the result is
	// undefined. Interpreters are required to be thread-safe. Thus, multiple
	// runs may be conducted in parallel.
	Run(Parameters) (Result, error)
}

// ProfilingInterpreter is an optional extension to the Interpreter interface
// above which may be implemented by interpreters collecting statistical data
// on their executions.
type ProfilingInterpreter interface {
	Interpreter

	// ResetProfile resets the operation statistic collected by the underlying
	// Interpreter implementation. It should not be called while running
	// operations on the Interpreter in parallel.
	ResetProfile()

	// DumpProfile returns a snapshot of the profiling data collected since the
	// last reset in a human-readable form.
	DumpProfile() string
}

// Parameters summarizes the list of input parameters required for executing code.
type Parameters struct {
	Code        *cell.Cell // < the code cell, a sequence of 16-bit opcodes
	GasLimit    Gas        // < the initial gas limit
	Stack       []Entry    // < the initial operand stack, bottom element first
	Data        *cell.Cell // < persistent contract data (c4), empty cell if nil
	Actions     *cell.Cell // < initial output action list (c5), empty cell if nil
	Environment Tuple      // < environment tuple (c7), see ContractInfo
}

// Result summarizes the result of a code execution.
type Result struct {
	Success  bool     // true if the execution terminated with ExitOk
	ExitCode ExitCode // the reason for the termination
	GasUsed  Gas      // gas consumed, never more than the final gas limit
	GasLimit Gas      // the final gas limit, GasInfinity after ACCEPT
	Steps    int      // number of executed instructions
	Stack    []Entry  // the operand stack at termination, bottom element first
	Actions  *cell.Cell
}

// Gas represents the type used to represent the Gas values.
type Gas int64

// GasInfinity is the gas limit sentinel meaning "no limit". Being the largest
// representable value, no amount of consumed gas can ever exceed it.
const GasInfinity Gas = math.MaxInt64

// ExitCode is the numeric termination code of an execution. Except for
// ExitOk, the values are the exception numbers shared by all TVM
// implementations and must not be changed.
type ExitCode int

const (
	ExitOk              ExitCode = 0
	ExitStackUnderflow  ExitCode = 2
	ExitIntegerOverflow ExitCode = 4
	ExitRangeCheck      ExitCode = 5
	ExitInvalidOpCode   ExitCode = 6
	ExitTypeCheck       ExitCode = 7
	ExitCellOverflow    ExitCode = 8
	ExitCellUnderflow   ExitCode = 9
	ExitUnknown         ExitCode = 11
	ExitOutOfGas        ExitCode = 13
)

func (e ExitCode) String() string {
	switch e {
	case ExitOk:
		return "ok"
	case ExitStackUnderflow:
		return "stack underflow"
	case ExitIntegerOverflow:
		return "integer overflow"
	case ExitRangeCheck:
		return "range check error"
	case ExitInvalidOpCode:
		return "invalid opcode"
	case ExitTypeCheck:
		return "type check error"
	case ExitCellOverflow:
		return "cell overflow"
	case ExitCellUnderflow:
		return "cell underflow"
	case ExitUnknown:
		return "unknown error"
	case ExitOutOfGas:
		return "out of gas"
	}
	return fmt.Sprintf("exit code %d", int(e))
}
