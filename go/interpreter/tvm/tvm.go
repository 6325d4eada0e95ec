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
	"io"
	"os"

	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
)

// Registers the TVM instruction layer as interpreter implementation.
func init() {
	variants := []struct {
		name        string
		description string
		config      Config
	}{
		{"tvm", "production configuration", Config{}},
		{"tvm-logging", "traces every executed instruction to stderr", Config{runner: loggingRunner{log: os.Stderr}}},
		{"tvm-stats", "collects instruction statistics, see DumpProfile", Config{runner: &statisticRunner{stats: newStatistics()}}},
		{"tvm-no-code-cache", "decodes the code cell on every run", Config{ConversionConfig: ConversionConfig{CacheSize: -1}}},
	}

	for _, variant := range variants {
		err := tosca.RegisterInterpreter(tosca.InterpreterVariant{
			Name:        variant.name,
			Description: variant.description,
			Factory:     newFactory(variant.config),
		})
		if err != nil {
			panic(fmt.Sprintf("failed to register interpreter %q: %v", variant.name, err))
		}
	}
}

// newFactory creates instances using defaults unless a Config is passed in.
// A passed Config keeps the runner of the defaults.
func newFactory(defaults Config) tosca.InterpreterFactory {
	return func(config any) (tosca.Interpreter, error) {
		switch c := config.(type) {
		case nil:
			return NewVm(defaults)
		case Config:
			c.runner = defaults.runner
			return NewVm(c)
		default:
			return nil, fmt.Errorf("unsupported configuration type %T", config)
		}
	}
}

// Config summarizes the configuration options of a TVM instance.
type Config struct {
	ConversionConfig
	// Verifier checks signatures for CHKSIGNU and CHKSIGNS. If nil, Ed25519
	// signatures are verified.
	Verifier SignatureVerifier
	runner   runner
}

// NewLoggingConfig returns a configuration tracing every executed
// instruction to the given writer.
func NewLoggingConfig(log io.Writer) Config {
	return Config{runner: newLogger(log)}
}

type tvm struct {
	config    Config
	converter *Converter
}

func NewVm(config Config) (*tvm, error) {
	converter, err := NewConverter(config.ConversionConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create converter: %v", err)
	}
	return &tvm{config: config, converter: converter}, nil
}

func (v *tvm) Run(params tosca.Parameters) (tosca.Result, error) {
	if params.Code == nil {
		return tosca.Result{}, fmt.Errorf("no code cell provided")
	}

	converted := v.converter.Convert(params.Code)

	config := interpreterConfig{
		verifier: v.config.Verifier,
		runner:   v.config.runner,
	}

	return run(config, params, converted)
}

func (v *tvm) DumpProfile() string {
	if statsRunner, ok := v.config.runner.(*statisticRunner); ok {
		return statsRunner.getSummary()
	}
	return ""
}

func (v *tvm) ResetProfile() {
	if statsRunner, ok := v.config.runner.(*statisticRunner); ok {
		statsRunner.reset()
	}
}
