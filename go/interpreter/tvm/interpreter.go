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
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// status is enumeration of the execution state of an interpreter run.
type status byte

const (
	statusRunning status = iota // < all fine, ops are processed
	statusStopped               // < execution stopped at the end of the code
	statusFailed                // < execution stopped with an exception
)

// controlRegisters holds the control registers accessed by this instruction
// set. Registers not listed here are not used by any of its instructions.
type controlRegisters struct {
	c4 *cell.Cell  // < persistent contract data
	c5 *cell.Cell  // < head of the output action list
	c7 tosca.Tuple // < environment tuple
}

// context is the execution environment of an interpreter run. It contains all
// the necessary state to execute a contract, including input parameters, the
// contract code, and internal execution state such as the program counter,
// the stack, the gas limits, and the control registers. For each contract
// execution, a new context is created.
type context struct {
	// Inputs
	code     Code
	verifier SignatureVerifier

	// Execution state
	pc        int32
	steps     int
	gas       gasLimits
	stack     *stack
	registers controlRegisters

	// The error terminating the execution, if any.
	err error
}

// useGas charges the given amount of gas. If the limit is exceeded the
// execution has to be stopped with the returned error.
func (c *context) useGas(amount tosca.Gas) error {
	return c.gas.consume(amount)
}

// finalize turns a builder into a cell, charging the cell creation costs.
func (c *context) finalize(b *cell.Builder) (*cell.Cell, error) {
	if err := c.useGas(cellCreateGas); err != nil {
		return nil, err
	}
	return b.EndCell(), nil
}

// --- Interpreter ---

type runner interface {
	// run executes the contract code in the given context.
	// It returns the status of the execution:
	// - Any exception in the contract execution shall return statusFailed
	//   and record the exception in the context.
	// - error is reserved to return runtime errors, which are not valid states
	// and may not be recoverable.
	run(*context) (status, error)
}

type interpreterConfig struct {
	verifier SignatureVerifier
	runner   runner
}

func run(
	config interpreterConfig,
	params tosca.Parameters,
	code Code,
) (tosca.Result, error) {
	// Set up execution context.
	var ctxt = context{
		code:     code,
		verifier: config.verifier,
		gas:      gasLimits{limit: params.GasLimit},
		stack:    NewStack(),
		registers: controlRegisters{
			c4: params.Data,
			c5: params.Actions,
			c7: params.Environment,
		},
	}
	defer ReturnStack(ctxt.stack)

	if ctxt.verifier == nil {
		ctxt.verifier = ed25519Verifier{}
	}
	if ctxt.registers.c4 == nil {
		ctxt.registers.c4 = newEmptyCell()
	}
	if ctxt.registers.c5 == nil {
		ctxt.registers.c5 = newEmptyCell()
	}
	for _, entry := range params.Stack {
		ctxt.stack.push(entry)
	}

	if config.runner == nil {
		config.runner = vanillaRunner{}
	}
	status, err := config.runner.run(&ctxt)
	if err != nil {
		return tosca.Result{}, err
	}

	return generateResult(status, &ctxt)
}

func generateResult(status status, ctxt *context) (tosca.Result, error) {
	res := tosca.Result{
		GasUsed:  ctxt.gas.used(),
		GasLimit: ctxt.gas.limit,
		Steps:    ctxt.steps,
		Stack:    ctxt.stack.entries(),
		Actions:  ctxt.registers.c5,
	}
	switch status {
	case statusStopped:
		res.Success = true
		res.ExitCode = tosca.ExitOk
		return res, nil
	case statusFailed:
		res.ExitCode = toExitCode(ctxt.err)
		return res, nil
	default:
		return tosca.Result{}, fmt.Errorf("unexpected error in interpreter, unknown status: %v", status)
	}
}

// --- Runners ---

// vanillaRunner is the default runner that executes the contract code without
// any additional features.
type vanillaRunner struct{}

func (r vanillaRunner) run(c *context) (status, error) {
	return execute(c, false), nil
}

// --- Execution ---

// execute runs the contract code in the given context. If oneStepOnly is true,
// only the instruction pointed to by the program counter will be executed.
// If the contract execution yields any exception (i.e. out of gas, cell
// underflow, etc), the function returns statusFailed and records the
// exception in the context.
func execute(c *context, oneStepOnly bool) status {
	status, err := steps(c, oneStepOnly)
	if err != nil {
		c.err = err
		return statusFailed
	}
	return status
}

// step executes a single instruction.
func step(c *context) status {
	return execute(c, true)
}

// steps executes the contract code in the given context.
// If oneStepOnly is true, only the instruction pointed to by the program
// counter will be executed.
// steps returns the status of the execution and an error if the contract
// execution yields any exception.
func steps(c *context, oneStepOnly bool) (status, error) {
	status := statusRunning
	for status == statusRunning {
		if int(c.pc) >= len(c.code) {
			return statusStopped, nil
		}

		op := c.code[c.pc]

		// Consume static gas price for instruction before execution
		if err := c.useGas(staticGasPerStep); err != nil {
			return status, err
		}
		c.steps++

		// Check stack boundary for every instruction
		if err := checkStackLimits(c.stack.len(), op); err != nil {
			return status, fmt.Errorf("%w: %v", err, op)
		}

		var err error

		// Execute instruction
		switch op {
		case ACCEPT:
			err = opAccept(c)
		case SETGASLIMIT:
			err = opSetGasLimit(c)
		case HASHCU:
			err = opHashCell(c)
		case HASHSU:
			err = opHashSlice(c)
		case SHA256U:
			err = opSha256(c)
		case CHKSIGNU:
			err = opCheckSignature(c, false)
		case CHKSIGNS:
			err = opCheckSignature(c, true)
		case LDGRAMS:
			err = opLoadVarInteger(c, 4, true, false)
		case LDVARINT16:
			err = opLoadVarInteger(c, 4, false, false)
		case STGRAMS:
			err = opStoreVarInteger(c, 4, true, false)
		case STVARINT16:
			err = opStoreVarInteger(c, 4, false, false)
		case LDVARUINT32:
			err = opLoadVarInteger(c, 5, false, false)
		case LDVARINT32:
			err = opLoadVarInteger(c, 5, true, false)
		case STVARUINT32:
			err = opStoreVarInteger(c, 5, false, false)
		case STVARINT32:
			err = opStoreVarInteger(c, 5, true, false)
		case LDMSGADDR:
			err = opLoadMessageAddr(c, false)
		case LDMSGADDRQ:
			err = opLoadMessageAddr(c, true)
		case PARSEMSGADDR:
			err = opParseMessageAddr(c, false)
		case PARSEMSGADDRQ:
			err = opParseMessageAddr(c, true)
		case SENDRAWMSG:
			err = opSendRawMessage(c)
		case RESERVERAW:
			err = opReserveRaw(c, false)
		case RESERVERAWX:
			err = opReserveRaw(c, true)
		case SETCODE:
			err = opSetCode(c)
		default:
			if op.isGetParam() {
				err = opGetParam(c, op.paramIndex())
			} else {
				err = fmt.Errorf("%w: %v", errInvalidOpCode, op)
			}
		}

		if err != nil {
			return status, err
		}

		c.pc++

		if oneStepOnly {
			return status, nil
		}
	}
	return status, nil
}
