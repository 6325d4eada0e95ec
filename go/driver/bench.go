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
	"sync"
	"sync/atomic"
	"time"

	cliUtils "github.com/Fantom-foundation/Tosca-TVM/go/driver/cli"
	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
	"github.com/dsnet/golib/unitconv"
	"github.com/urfave/cli/v2"
)

var BenchCmd = cliUtils.AddCommonFlags(cli.Command{
	Action: doBench,
	Name:   "bench",
	Usage:  "Executes code repeatedly and reports the instruction throughput",
	Flags: []cli.Flag{
		cliUtils.CodeFlag,
		cliUtils.AsmFlag,
		cliUtils.VmFlag,
		cliUtils.GasLimitFlag,
		cliUtils.StackFlag,
		cliUtils.IterationsFlag,
		cliUtils.JobsFlag,
	},
})

func doBench(context *cli.Context) error {
	code, err := loadCode(cliUtils.CodeFlag.Fetch(context), cliUtils.AsmFlag.Fetch(context))
	if err != nil {
		return err
	}
	stack, err := parseStack(cliUtils.StackFlag.Fetch(context))
	if err != nil {
		return err
	}
	interpreter, err := tosca.NewInterpreter(cliUtils.VmFlag.Fetch(context))
	if err != nil {
		return err
	}

	params := tosca.Parameters{
		Code:        code,
		GasLimit:    tosca.Gas(cliUtils.GasLimitFlag.Fetch(context)),
		Stack:       stack,
		Environment: tosca.ContractInfo{}.Environment(),
	}
	iterations := cliUtils.IterationsFlag.Fetch(context)
	jobs := cliUtils.JobsFlag.Fetch(context)

	fmt.Printf("Running %d iterations using %d jobs ...\n", iterations, jobs)
	res, err := benchmark(interpreter, params, jobs, iterations)
	if err != nil {
		return err
	}
	fmt.Printf(
		"Executed %d runs with %d instructions in %v, ~%s instructions per second\n",
		res.runs, res.steps, res.duration.Round(time.Millisecond),
		unitconv.FormatPrefix(res.rate(), unitconv.SI, 2),
	)

	if profiling, ok := interpreter.(tosca.ProfilingInterpreter); ok {
		fmt.Print(profiling.DumpProfile())
	}
	return nil
}

type benchmarkResult struct {
	runs     int64
	steps    int64
	duration time.Duration
}

// rate returns the number of executed instructions per second.
func (r benchmarkResult) rate() float64 {
	if r.duration <= 0 {
		return 0
	}
	return float64(r.steps) / r.duration.Seconds()
}

// benchmark runs the given parameters repeatedly on the given number of
// parallel jobs. The first interpreter failure aborts the benchmark.
func benchmark(interpreter tosca.Interpreter, params tosca.Parameters, jobs, iterations int) (benchmarkResult, error) {
	var steps, runs atomic.Int64
	var errOnce sync.Once
	var firstErr error

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				res, err := interpreter.Run(params)
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					return
				}
				steps.Add(int64(res.Steps))
				runs.Add(1)
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return benchmarkResult{}, fmt.Errorf("interpreter failure: %w", firstErr)
	}
	return benchmarkResult{
		runs:     runs.Load(),
		steps:    steps.Load(),
		duration: time.Since(start),
	}, nil
}
