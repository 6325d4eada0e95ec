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

	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
	"github.com/urfave/cli/v2"
)

var ListCmd = cli.Command{
	Action: doList,
	Name:   "list",
	Usage:  "List all interpreter variants usable with --vm",
}

func doList(context *cli.Context) error {
	return listVariants(context.App.Writer, tosca.GetAllRegisteredInterpreters())
}

func listVariants(out io.Writer, variants []tosca.InterpreterVariant) error {
	for _, variant := range variants {
		if _, err := fmt.Fprintf(out, "%-20s %s\n", variant.Name, variant.Description); err != nil {
			return err
		}
	}
	return nil
}
