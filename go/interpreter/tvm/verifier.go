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

import "golang.org/x/crypto/ed25519"

//go:generate mockgen -source verifier.go -destination verifier_mock.go -package tvm

// SignatureVerifier checks signatures for the CHKSIGNU and CHKSIGNS
// instructions. Implementations must be deterministic and thread-safe, and
// must report invalid inputs as a failed verification instead of panicking.
type SignatureVerifier interface {
	// Verify reports whether signature is a valid signature of message by
	// the owner of the given public key.
	Verify(publicKey [32]byte, message []byte, signature [64]byte) bool
}

// ed25519Verifier is the default verifier checking Ed25519 signatures.
type ed25519Verifier struct{}

func (ed25519Verifier) Verify(publicKey [32]byte, message []byte, signature [64]byte) bool {
	return ed25519.Verify(publicKey[:], message, signature[:])
}
