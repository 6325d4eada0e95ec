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
	"errors"
	"fmt"
	"math/big"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Variable-length integers are encoded as a len_bits wide unsigned byte
// count L followed by an integer of exactly 8*L bits:
//
//	var_uint$_ {n:#} len:(#< n) value:(uint (len * 8)) = VarUInteger n;
//	var_int$_ {n:#} len:(#< n) value:(int (len * 8)) = VarInteger n;

// loadVarInteger reads a variable-length integer from s, advancing it.
func loadVarInteger(s *cell.Slice, lenBits uint, signed bool) (*big.Int, error) {
	length, err := fetchUint(s, lenBits)
	if err != nil {
		return nil, err
	}
	return fetchBigInt(s, uint(length)*8, signed)
}

// storeVarInteger appends v as variable-length integer to b. Values needing
// more than 2^lenBits-1 bytes fail with errRangeCheck, a builder without
// enough free bits fails with errCellOverflow.
func storeVarInteger(b *cell.Builder, v *big.Int, lenBits uint, signed bool) error {
	length := (bitSize(v, signed) + 7) / 8
	if length >= 1<<lenBits {
		if v == nil {
			return fmt.Errorf("%w: cannot encode NaN as variable-length integer", errRangeCheck)
		}
		return fmt.Errorf("%w: %v requires %d bytes, at most %d allowed", errRangeCheck, v, length, 1<<lenBits-1)
	}
	if bitsLeft(b) < lenBits+8*length {
		return fmt.Errorf("%w: variable-length integer of %d bits does not fit", errCellOverflow, lenBits+8*length)
	}
	if err := storeUint(b, uint64(length), lenBits); err != nil {
		return err
	}
	return storeBigInt(b, v, 8*length, signed)
}

// storeGrams appends a non-negative currency amount using the unsigned
// 4-bit length encoding. Amounts which can not be encoded are reported as
// errCellOverflow.
func storeGrams(b *cell.Builder, amount *big.Int) error {
	if err := storeVarInteger(b, amount, 4, false); err != nil {
		if errors.Is(err, errRangeCheck) {
			return fmt.Errorf("%w: cannot serialize currency amount %v", errCellOverflow, amount)
		}
		return err
	}
	return nil
}

// opLoadVarInteger pops a slice and pushes the decoded integer followed by
// the remainder of the slice. Quiet variants report a malformed encoding by
// pushing false and push true on success.
func opLoadVarInteger(c *context, lenBits uint, signed, quiet bool) error {
	s, err := c.stack.popSlice()
	if err != nil {
		return err
	}
	v, err := loadVarInteger(s, lenBits, signed)
	if err != nil {
		if quiet {
			c.stack.pushBool(false)
			return nil
		}
		return fmt.Errorf("%w: cannot deserialize a variable-length integer", err)
	}
	c.stack.push(v)
	c.stack.push(s)
	if quiet {
		c.stack.pushBool(true)
	}
	return nil
}

// opStoreVarInteger pops an integer and a builder and pushes the extended
// builder. Quiet variants report an exhausted builder by pushing false; the
// byte count limit is enforced by both variants.
func opStoreVarInteger(c *context, lenBits uint, signed, quiet bool) error {
	v, err := c.stack.popInt()
	if err != nil {
		return err
	}
	b, err := c.stack.popBuilder()
	if err != nil {
		return err
	}
	if err := storeVarInteger(b, v, lenBits, signed); err != nil {
		if quiet && errors.Is(err, errCellOverflow) {
			c.stack.pushBool(false)
			return nil
		}
		return err
	}
	c.stack.push(b)
	if quiet {
		c.stack.pushBool(true)
	}
	return nil
}
