// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cliUtils

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/urfave/cli/v2"
)

type codeFlagType struct {
	cli.StringFlag
}

var CodeFlag = &codeFlagType{
	cli.StringFlag{
		Name:    "code",
		Aliases: []string{"c"},
		Usage:   "the code cell as hex encoded bag of cells",
	},
}

func (f *codeFlagType) Fetch(context *cli.Context) string {
	return context.String(f.Name)
}

type asmFlagType struct {
	cli.StringFlag
}

var AsmFlag = &asmFlagType{
	cli.StringFlag{
		Name:    "asm",
		Aliases: []string{"a"},
		Usage:   "the code as comma separated list of instruction names, alternative to --code",
	},
}

func (f *asmFlagType) Fetch(context *cli.Context) string {
	return context.String(f.Name)
}

type vmFlagType struct {
	cli.StringFlag
}

var VmFlag = &vmFlagType{
	cli.StringFlag{
		Name:  "vm",
		Usage: "the name of the interpreter configuration to use",
		Value: "tvm",
	},
}

func (f *vmFlagType) Fetch(context *cli.Context) string {
	return context.String(f.Name)
}

type gasLimitFlagType struct {
	cli.Int64Flag
}

var GasLimitFlag = &gasLimitFlagType{
	cli.Int64Flag{
		Name:  "gas-limit",
		Usage: "the initial gas limit of the execution",
		Value: 1_000_000,
	},
}

func (f *gasLimitFlagType) Fetch(context *cli.Context) int64 {
	return context.Int64(f.Name)
}

type stackFlagType struct {
	cli.StringSliceFlag
}

var StackFlag = &stackFlagType{
	cli.StringSliceFlag{
		Name:  "int",
		Usage: "integer pushed to the initial stack, may be repeated; NaN is accepted",
	},
}

func (f *stackFlagType) Fetch(context *cli.Context) []string {
	return context.StringSlice(f.Name)
}

type nowFlagType struct {
	cli.Uint64Flag
}

var NowFlag = &nowFlagType{
	cli.Uint64Flag{
		Name:  "now",
		Usage: "the unix time reported by NOW",
	},
}

func (f *nowFlagType) Fetch(context *cli.Context) (uint32, error) {
	now := context.Uint64(f.Name)
	if now > 1<<32-1 {
		return 0, fmt.Errorf("--%s exceeds 32 bits: %d", f.Name, now)
	}
	return uint32(now), nil
}

type ltFlagType struct {
	cli.Uint64Flag
}

var LtFlag = &ltFlagType{
	cli.Uint64Flag{
		Name:  "lt",
		Usage: "the logical time reported by LTIME; BLOCKLT is derived from it",
	},
}

func (f *ltFlagType) Fetch(context *cli.Context) uint64 {
	return context.Uint64(f.Name)
}

type traceFlagType struct {
	cli.BoolFlag
}

var TraceFlag = &traceFlagType{
	cli.BoolFlag{
		Name:  "trace",
		Usage: "print every executed instruction to stderr",
	},
}

func (f *traceFlagType) Fetch(context *cli.Context) bool {
	return context.Bool(f.Name)
}

type iterationsFlagType struct {
	cli.IntFlag
}

var IterationsFlag = &iterationsFlagType{
	cli.IntFlag{
		Name:    "iterations",
		Aliases: []string{"n"},
		Usage:   "number of runs per job",
		Value:   100_000,
	},
}

func (f *iterationsFlagType) Fetch(context *cli.Context) int {
	return context.Int(f.Name)
}

type jobsFlagType struct {
	cli.IntFlag
}

var JobsFlag = &jobsFlagType{
	cli.IntFlag{
		Name:    "jobs",
		Aliases: []string{"j"},
		Usage:   "number of jobs run simultaneously",
		Value:   runtime.NumCPU(),
	},
}

func (f *jobsFlagType) Fetch(context *cli.Context) int {
	jobs := context.Int(f.Name)
	if jobs <= 0 {
		return runtime.NumCPU()
	}
	return jobs
}

var cpuProfileFlag = &cli.StringFlag{
	Name:      "cpuprofile",
	Usage:     "store CPU profile in the provided filename",
	TakesFile: true,
}

// AddCommonFlags adds the flags shared by all commands and wraps the action
// of the command to handle them.
func AddCommonFlags(command cli.Command) cli.Command {
	command.Flags = append(command.Flags, cpuProfileFlag)

	action := command.Action
	command.Action = func(ctx *cli.Context) (err error) {
		if cpuprofileFilename := ctx.String(cpuProfileFlag.Name); cpuprofileFilename != "" {
			f, err := os.Create(cpuprofileFilename)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		return action(ctx)
	}
	return command
}
