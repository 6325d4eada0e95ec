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
	"math"
	"math/big"
	"math/bits"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// This file adapts the cell library to the narrow cursor interface used by
// the instructions. All functions report missing data as errCellUnderflow
// and exhausted builder capacity as errCellOverflow. Functions advancing a
// slice or extending a builder modify their argument; callers are required to
// operate on private copies (see stack.popSlice and stack.popBuilder).

const (
	maxCellBits = 1023 // < maximum number of data bits of a cell
	maxCellRefs = 4    // < maximum number of references of a cell
)

// newEmptyCell returns a cell without data bits and references.
func newEmptyCell() *cell.Cell {
	return cell.BeginCell().EndCell()
}

// --- reading ---

// fetchUint reads n <= 64 bits as an unsigned integer.
func fetchUint(s *cell.Slice, n uint) (uint64, error) {
	if n == 0 {
		return 0, nil
	}
	if s.BitsLeft() < n {
		return 0, fmt.Errorf("%w: %d bits required, %d available", errCellUnderflow, n, s.BitsLeft())
	}
	res, err := s.LoadUInt(n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errCellUnderflow, err)
	}
	return res, nil
}

// fetchInt reads n <= 64 bits as a two's complement signed integer.
func fetchInt(s *cell.Slice, n uint) (int64, error) {
	res, err := fetchUint(s, n)
	if err != nil || n == 0 || n == 64 {
		return int64(res), err
	}
	if res>>(n-1) != 0 {
		return int64(res) - int64(1)<<n, nil
	}
	return int64(res), nil
}

// fetchUintLeq reads an unsigned integer in the range [0, bound] using the
// minimal number of bits required to represent bound.
func fetchUintLeq(s *cell.Slice, bound uint64) (uint64, error) {
	res, err := fetchUint(s, uint(bits.Len64(bound)))
	if err != nil {
		return 0, err
	}
	if res > bound {
		return 0, fmt.Errorf("%w: value %d exceeds bound %d", errCellUnderflow, res, bound)
	}
	return res, nil
}

// fetchBigInt reads an integer of exactly n bits, interpreted as a two's
// complement value if signed is set. The width must not exceed 256 bits.
func fetchBigInt(s *cell.Slice, n uint, signed bool) (*big.Int, error) {
	if n == 0 {
		return new(big.Int), nil
	}
	if s.BitsLeft() < n {
		return nil, fmt.Errorf("%w: %d bits required, %d available", errCellUnderflow, n, s.BitsLeft())
	}
	res, err := s.LoadBigUInt(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errCellUnderflow, err)
	}
	if signed && res.Bit(int(n-1)) == 1 {
		res.Sub(res, new(big.Int).Lsh(big.NewInt(1), n))
	}
	return res, nil
}

// fetchSubslice moves the next n bits of s into a new, independent slice.
func fetchSubslice(s *cell.Slice, n uint) (*cell.Slice, error) {
	if n == 0 {
		return newEmptyCell().BeginParse(), nil
	}
	if s.BitsLeft() < n {
		return nil, fmt.Errorf("%w: %d bits required, %d available", errCellUnderflow, n, s.BitsLeft())
	}
	data, err := s.LoadSlice(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errCellUnderflow, err)
	}
	b := cell.BeginCell()
	if err := b.StoreSlice(data, n); err != nil {
		return nil, fmt.Errorf("%w: %v", errCellOverflow, err)
	}
	return b.EndCell().BeginParse(), nil
}

// advance skips the next n bits of s.
func advance(s *cell.Slice, n uint) error {
	if n == 0 {
		return nil
	}
	if s.BitsLeft() < n {
		return fmt.Errorf("%w: cannot skip %d bits, %d available", errCellUnderflow, n, s.BitsLeft())
	}
	if _, err := s.LoadSlice(n); err != nil {
		return fmt.Errorf("%w: %v", errCellUnderflow, err)
	}
	return nil
}

// prefetchBytes reads the next n bytes of s without advancing it.
func prefetchBytes(s *cell.Slice, n uint) ([]byte, error) {
	if s.BitsLeft() < 8*n {
		return nil, fmt.Errorf("%w: %d bytes required, %d bits available", errCellUnderflow, n, s.BitsLeft())
	}
	if n == 0 {
		return []byte{}, nil
	}
	res, err := s.Copy().LoadSlice(8 * n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errCellUnderflow, err)
	}
	return res, nil
}

// isEmpty is true iff neither data bits nor references remain in s.
func isEmpty(s *cell.Slice) bool {
	return s.BitsLeft() == 0 && s.RefsNum() == 0
}

// cutPrefix returns a new slice covering the bits and references of
// original which are not part of rest. The rest has to be a tail of the
// original slice, typically obtained by advancing a copy of it.
func cutPrefix(original, rest *cell.Slice) (*cell.Slice, error) {
	if rest.BitsLeft() > original.BitsLeft() || rest.RefsNum() > original.RefsNum() {
		return nil, fmt.Errorf("%w: remainder is not a tail of the slice", errCellUnderflow)
	}
	prefix := original.Copy()
	b := cell.BeginCell()
	if err := moveSlice(b, prefix, original.BitsLeft()-rest.BitsLeft(), original.RefsNum()-rest.RefsNum()); err != nil {
		return nil, err
	}
	return b.EndCell().BeginParse(), nil
}

// --- writing ---

func bitsLeft(b *cell.Builder) uint {
	return maxCellBits - b.BitsUsed()
}

func refsLeft(b *cell.Builder) int {
	return maxCellRefs - b.RefsUsed()
}

// storeUint writes the lowest n <= 64 bits of v.
func storeUint(b *cell.Builder, v uint64, n uint) error {
	if n == 0 {
		return nil
	}
	if bitsLeft(b) < n {
		return fmt.Errorf("%w: %d bits required, %d available", errCellOverflow, n, bitsLeft(b))
	}
	if err := b.StoreUInt(v, n); err != nil {
		return fmt.Errorf("%w: %v", errCellOverflow, err)
	}
	return nil
}

// storeBigInt writes v using exactly n bits, as two's complement value if
// signed is set. The value must be representable in the given width, which
// must not exceed 256 bits.
func storeBigInt(b *cell.Builder, v *big.Int, n uint, signed bool) error {
	if n == 0 {
		if v.Sign() != 0 {
			return fmt.Errorf("%w: %v does not fit into 0 bits", errRangeCheck, v)
		}
		return nil
	}
	if bitSize(v, signed) > n {
		return fmt.Errorf("%w: %v does not fit into %d bits", errRangeCheck, v, n)
	}
	if bitsLeft(b) < n {
		return fmt.Errorf("%w: %d bits required, %d available", errCellOverflow, n, bitsLeft(b))
	}
	raw := v
	if v.Sign() < 0 {
		raw = new(big.Int).Add(v, new(big.Int).Lsh(big.NewInt(1), n))
	}
	if err := b.StoreBigUInt(raw, n); err != nil {
		return fmt.Errorf("%w: %v", errCellOverflow, err)
	}
	return nil
}

// storeRef adds a reference to the given cell.
func storeRef(b *cell.Builder, c *cell.Cell) error {
	if c == nil {
		return fmt.Errorf("%w: cannot store a null reference", errCellOverflow)
	}
	if refsLeft(b) < 1 {
		return fmt.Errorf("%w: no reference slot left", errCellOverflow)
	}
	if err := b.StoreRef(c); err != nil {
		return fmt.Errorf("%w: %v", errCellOverflow, err)
	}
	return nil
}

// appendSlice appends all remaining bits and references of s to b. The
// slice itself is not modified.
func appendSlice(b *cell.Builder, s *cell.Slice) error {
	return moveSlice(b, s.Copy(), s.BitsLeft(), s.RefsNum())
}

// moveSlice transfers the given number of bits and references from s to b.
func moveSlice(b *cell.Builder, s *cell.Slice, numBits uint, numRefs int) error {
	if bitsLeft(b) < numBits || refsLeft(b) < numRefs {
		return fmt.Errorf("%w: cannot append %d bits and %d refs", errCellOverflow, numBits, numRefs)
	}
	if numBits > 0 {
		data, err := s.LoadSlice(numBits)
		if err != nil {
			return fmt.Errorf("%w: %v", errCellUnderflow, err)
		}
		if err := b.StoreSlice(data, numBits); err != nil {
			return fmt.Errorf("%w: %v", errCellOverflow, err)
		}
	}
	for i := 0; i < numRefs; i++ {
		ref, err := s.LoadRefCell()
		if err != nil {
			return fmt.Errorf("%w: %v", errCellUnderflow, err)
		}
		if err := storeRef(b, ref); err != nil {
			return err
		}
	}
	return nil
}

// copyBuilder creates an independent copy of the given builder.
func copyBuilder(b *cell.Builder) *cell.Builder {
	res := cell.BeginCell()
	if err := res.StoreBuilder(b); err != nil {
		// a fresh builder always has room for the content of another builder
		panic(fmt.Sprintf("failed to copy builder: %v", err))
	}
	return res
}

// sliceToCell copies the remaining content of s into a new cell.
func sliceToCell(s *cell.Slice) (*cell.Cell, error) {
	b := cell.BeginCell()
	if err := appendSlice(b, s); err != nil {
		return nil, err
	}
	return b.EndCell(), nil
}

// bitSize returns the minimal number of bits required to represent v, as
// two's complement value if signed is set. Negative values have no unsigned
// representation; for those and NaN (nil) math.MaxInt32 is returned.
func bitSize(v *big.Int, signed bool) uint {
	if v == nil {
		return math.MaxInt32
	}
	switch v.Sign() {
	case 0:
		return 0
	case 1:
		if signed {
			return uint(v.BitLen()) + 1
		}
		return uint(v.BitLen())
	}
	if !signed {
		return math.MaxInt32
	}
	// -v-1 has the same number of significant bits as v in two's complement
	return uint(new(big.Int).Not(v).BitLen()) + 1
}
