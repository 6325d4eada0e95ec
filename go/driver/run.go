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
	"fmt"
	"io"
	"os"

	cliUtils "github.com/Fantom-foundation/Tosca-TVM/go/driver/cli"
	"github.com/Fantom-foundation/Tosca-TVM/go/interpreter/tvm"
	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
	"github.com/urfave/cli/v2"
)

var RunCmd = cliUtils.AddCommonFlags(cli.Command{
	Action: doRun,
	Name:   "run",
	Usage:  "Executes code once and prints the result",
	Flags: []cli.Flag{
		cliUtils.CodeFlag,
		cliUtils.AsmFlag,
		cliUtils.VmFlag,
		cliUtils.GasLimitFlag,
		cliUtils.StackFlag,
		cliUtils.NowFlag,
		cliUtils.LtFlag,
		cliUtils.TraceFlag,
	},
})

func doRun(context *cli.Context) error {
	code, err := loadCode(cliUtils.CodeFlag.Fetch(context), cliUtils.AsmFlag.Fetch(context))
	if err != nil {
		return err
	}
	stack, err := parseStack(cliUtils.StackFlag.Fetch(context))
	if err != nil {
		return err
	}
	now, err := cliUtils.NowFlag.Fetch(context)
	if err != nil {
		return err
	}
	lt := cliUtils.LtFlag.Fetch(context)

	var interpreter tosca.Interpreter
	if cliUtils.TraceFlag.Fetch(context) {
		interpreter, err = tvm.NewVm(tvm.NewLoggingConfig(os.Stderr))
	} else {
		interpreter, err = tosca.NewInterpreter(cliUtils.VmFlag.Fetch(context))
	}
	if err != nil {
		return err
	}

	params := tosca.Parameters{
		Code:     code,
		GasLimit: tosca.Gas(cliUtils.GasLimitFlag.Fetch(context)),
		Stack:    stack,
		Environment: tosca.ContractInfo{
			Now:     now,
			BlockLt: lt - lt%1_000_000,
			Lt:      lt,
		}.Environment(),
	}
	result, err := interpreter.Run(params)
	if err != nil {
		return fmt.Errorf("interpreter failure: %w", err)
	}

	return printResult(os.Stdout, result)
}

func printResult(out io.Writer, result tosca.Result) error {
	actions, err := tvm.ParseOutputActions(result.Actions)
	if err != nil {
		return fmt.Errorf("invalid output actions: %w", err)
	}
	fmt.Fprintf(out, "Exit code: %d (%v)\n", int(result.ExitCode), result.ExitCode)
	fmt.Fprintf(out, "Steps:     %d\n", result.Steps)
	fmt.Fprintf(out, "Gas used:  %d\n", result.GasUsed)
	if result.GasLimit == tosca.GasInfinity {
		fmt.Fprintf(out, "Gas limit: unlimited\n")
	} else {
		fmt.Fprintf(out, "Gas limit: %d\n", result.GasLimit)
	}
	fmt.Fprintf(out, "Stack:\n%s", formatStack(result.Stack))
	fmt.Fprintf(out, "Actions:\n")
	for i, action := range actions {
		fmt.Fprintf(out, "    %d: %v\n", i, action)
	}
	return nil
}
