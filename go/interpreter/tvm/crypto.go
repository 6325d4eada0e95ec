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
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

func opHashCell(c *context) error {
	cl, err := c.stack.popCell()
	if err != nil {
		return err
	}
	return c.stack.pushInt(hashToInt(cl.Hash()))
}

// opHashSlice hashes the cell made of the remaining content of a slice.
func opHashSlice(c *context) error {
	s, err := c.stack.popSlice()
	if err != nil {
		return err
	}
	b := cell.BeginCell()
	if err := appendSlice(b, s); err != nil {
		return err
	}
	cl, err := c.finalize(b)
	if err != nil {
		return err
	}
	return c.stack.pushInt(hashToInt(cl.Hash()))
}

func opSha256(c *context) error {
	s, err := c.stack.popSlice()
	if err != nil {
		return err
	}
	data, err := sliceBytes(s)
	if err != nil {
		return err
	}
	hash := sha256.Sum256(data)
	return c.stack.pushInt(hashToInt(hash[:]))
}

// opCheckSignature implements CHKSIGNU and CHKSIGNS. The operands are popped
// in the order key, signature, message. The message is a 256-bit hash for
// CHKSIGNU and the data bits of a slice for CHKSIGNS.
func opCheckSignature(c *context, sliceMessage bool) error {
	if err := c.stack.checkUnderflow(3); err != nil {
		return err
	}
	key, err := c.stack.popInt()
	if err != nil {
		return err
	}
	signature, err := c.stack.popSlice()
	if err != nil {
		return err
	}

	var message []byte
	if sliceMessage {
		data, err := c.stack.popSlice()
		if err != nil {
			return err
		}
		if message, err = sliceBytes(data); err != nil {
			return err
		}
	} else {
		hash, err := c.stack.popInt()
		if err != nil {
			return err
		}
		hashBytes, err := toBytes32(hash)
		if err != nil {
			return err
		}
		message = hashBytes[:]
	}

	sigBytes, err := prefetchBytes(signature, 64)
	if err != nil {
		return err
	}
	keyBytes, err := toBytes32(key)
	if err != nil {
		return err
	}

	var sig [64]byte
	copy(sig[:], sigBytes)
	c.stack.pushBool(c.verifier.Verify(keyBytes, message, sig))
	return nil
}

// hashToInt interprets a 32-byte hash as unsigned big-endian integer.
func hashToInt(hash []byte) *big.Int {
	var value uint256.Int
	value.SetBytes(hash)
	return value.ToBig()
}

// toBytes32 converts an integer to its 32-byte big-endian representation. The
// value has to be in the unsigned 256-bit range; NaN (nil) never is.
func toBytes32(v *big.Int) ([32]byte, error) {
	if v == nil {
		return [32]byte{}, fmt.Errorf("%w: NaN is not an unsigned 256-bit integer", errRangeCheck)
	}
	value, overflow := uint256.FromBig(v)
	if v.Sign() < 0 || overflow {
		return [32]byte{}, fmt.Errorf("%w: %v is not an unsigned 256-bit integer", errRangeCheck, v)
	}
	return value.Bytes32(), nil
}

// sliceBytes returns the data bits of s as bytes. The number of bits has to be
// a multiple of 8.
func sliceBytes(s *cell.Slice) ([]byte, error) {
	if s.BitsLeft()%8 != 0 {
		return nil, fmt.Errorf("%w: slice of %d bits does not consist of whole bytes", errCellUnderflow, s.BitsLeft())
	}
	return prefetchBytes(s, s.BitsLeft()/8)
}
