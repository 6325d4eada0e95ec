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
	"crypto/sha256"
	"math/big"

	"github.com/Fantom-foundation/Tosca-TVM/go/interpreter/tvm"
	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"golang.org/x/crypto/ed25519"
)

var signingKey = ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))

// GetSignatureExample checks an Ed25519 signature of the hash of x. The
// signature is tampered with for odd arguments, so the result is -1 for even
// and 0 for odd arguments.
func GetSignatureExample() Example {
	return exampleSpec{
		Name: "signature",
		ops:  []tvm.OpCode{tvm.CHKSIGNU},
		input: func(x int) []tosca.Entry {
			hash := sha256.Sum256(big.NewInt(int64(x)).Bytes())
			signature := ed25519.Sign(signingKey, hash[:])
			if x%2 == 1 {
				signature[0] ^= 0x01
			}
			sig := cell.BeginCell()
			if err := sig.StoreSlice(signature, 512); err != nil {
				panic(err)
			}
			publicKey := signingKey.Public().(ed25519.PublicKey)
			return []tosca.Entry{
				new(big.Int).SetBytes(hash[:]),
				sig.EndCell().BeginParse(),
				new(big.Int).SetBytes(publicKey),
			}
		},
		output: topInt,
		reference: func(x int) int {
			if x%2 == 1 {
				return 0
			}
			return -1
		},
	}.build()
}
