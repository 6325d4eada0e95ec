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
	"errors"

	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
)

const (
	errCellOverflow    = tosca.ConstError("cell overflow")
	errCellUnderflow   = tosca.ConstError("cell underflow")
	errIntegerOverflow = tosca.ConstError("integer overflow")
	errInvalidOpCode   = tosca.ConstError("invalid opcode")
	errOutOfGas        = tosca.ConstError("out of gas")
	errRangeCheck      = tosca.ConstError("range check error")
	errStackUnderflow  = tosca.ConstError("stack underflow")
	errTypeCheck       = tosca.ConstError("type check error")
)

// exitCodes maps the execution errors to the exit codes reported to callers.
var exitCodes = []struct {
	err  error
	code tosca.ExitCode
}{
	{errStackUnderflow, tosca.ExitStackUnderflow},
	{errIntegerOverflow, tosca.ExitIntegerOverflow},
	{errRangeCheck, tosca.ExitRangeCheck},
	{errInvalidOpCode, tosca.ExitInvalidOpCode},
	{errTypeCheck, tosca.ExitTypeCheck},
	{errCellOverflow, tosca.ExitCellOverflow},
	{errCellUnderflow, tosca.ExitCellUnderflow},
	{errOutOfGas, tosca.ExitOutOfGas},
}

// toExitCode returns the exit code for the given execution error. A nil
// error is a successful execution.
func toExitCode(err error) tosca.ExitCode {
	if err == nil {
		return tosca.ExitOk
	}
	for _, cur := range exitCodes {
		if errors.Is(err, cur.err) {
			return cur.code
		}
	}
	return tosca.ExitUnknown
}
