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

	cliUtils "github.com/Fantom-foundation/Tosca-TVM/go/driver/cli"
	"github.com/Fantom-foundation/Tosca-TVM/go/interpreter/tvm"
	"github.com/urfave/cli/v2"
)

var DisasmCmd = cliUtils.AddCommonFlags(cli.Command{
	Action: doDisasm,
	Name:   "disasm",
	Usage:  "Prints the instructions of a code cell",
	Flags: []cli.Flag{
		cliUtils.CodeFlag,
		cliUtils.AsmFlag,
	},
})

func doDisasm(context *cli.Context) error {
	code, err := loadCode(cliUtils.CodeFlag.Fetch(context), cliUtils.AsmFlag.Fetch(context))
	if err != nil {
		return err
	}
	converter, err := tvm.NewConverter(tvm.ConversionConfig{CacheSize: -1})
	if err != nil {
		return err
	}
	fmt.Print(converter.Convert(code))
	return nil
}
