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
	"math/big"
	"testing"

	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
	"github.com/xssnick/tonutils-go/tvm/cell"
	"pgregory.net/rand"
)

// randomInt produces a value using at most bits bits in the given signedness.
func randomInt(rnd *rand.Rand, bits int, signed bool) *big.Int {
	if bits == 0 {
		return new(big.Int)
	}
	buffer := make([]byte, (bits+7)/8)
	rnd.Read(buffer)
	res := new(big.Int).SetBytes(buffer)
	magnitude := bits
	if signed {
		magnitude--
	}
	res.Rsh(res, uint(8*len(buffer)-magnitude))
	if signed && rnd.Intn(2) == 0 {
		res.Not(res) // -res-1 stays within the signed range
	}
	return res
}

var varIntegerCodecs = []struct {
	name    string
	lenBits uint
	signed  bool
}{
	{"grams", 4, true},
	{"varint16", 4, false},
	{"varuint32", 5, false},
	{"varint32", 5, true},
}

func TestVarInteger_RoundTrip(t *testing.T) {
	rnd := rand.New(0)
	for _, codec := range varIntegerCodecs {
		maxBits := 8 * (1<<codec.lenBits - 1)
		for _, quiet := range []bool{false, true} {
			for i := 0; i < 200; i++ {
				value := randomInt(rnd, rnd.Intn(maxBits+1), codec.signed)

				c := newTestContext(cell.BeginCell(), value)
				if err := opStoreVarInteger(c, codec.lenBits, codec.signed, quiet); err != nil {
					t.Fatalf("%s: failed to store %v: %v", codec.name, value, err)
				}
				if quiet {
					if ok, _ := c.stack.pop(); !isInt(-1)(ok) {
						t.Fatalf("%s: quiet store should push true, got %v", codec.name, tosca.FormatEntry(ok))
					}
				}
				b, err := c.stack.popBuilder()
				if err != nil {
					t.Fatalf("%s: expected builder: %v", codec.name, err)
				}

				c = newTestContext(b.EndCell().BeginParse())
				if err := opLoadVarInteger(c, codec.lenBits, codec.signed, quiet); err != nil {
					t.Fatalf("%s: failed to load %v: %v", codec.name, value, err)
				}
				if quiet {
					if ok, _ := c.stack.pop(); !isInt(-1)(ok) {
						t.Fatalf("%s: quiet load should push true, got %v", codec.name, tosca.FormatEntry(ok))
					}
				}
				rest, err := c.stack.popSlice()
				if err != nil {
					t.Fatalf("%s: expected remaining slice: %v", codec.name, err)
				}
				got, err := c.stack.popIntFinite()
				if err != nil {
					t.Fatalf("%s: expected integer: %v", codec.name, err)
				}
				if got.Cmp(value) != 0 {
					t.Errorf("%s: round trip of %v produced %v", codec.name, value, got)
				}
				if !isEmpty(rest) {
					t.Errorf("%s: load should consume the full encoding of %v", codec.name, value)
				}
			}
		}
	}
}

func TestVarInteger_EncodingOfOneBillion(t *testing.T) {
	c := newTestContext(cell.BeginCell(), big.NewInt(1000000000))
	if err := opStoreVarInteger(c, 4, true, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok, _ := c.stack.pop(); !isInt(-1)(ok) {
		t.Fatalf("expected success flag")
	}
	b, _ := c.stack.popBuilder()
	want := newTestBuilder(t).bits("0100").uint(1000000000, 32)
	if b.BitsUsed() != 36 {
		t.Fatalf("unexpected encoding length %d", b.BitsUsed())
	}
	if !sameContent(t, want.slice(), b.EndCell().BeginParse()) {
		t.Errorf("unexpected encoding")
	}

	c = newTestContext(b.EndCell().BeginParse())
	if err := opLoadVarInteger(c, 4, true, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := c.stack.entries()
	if len(entries) != 3 || !isInt(1000000000)(entries[0]) || !isInt(-1)(entries[2]) {
		t.Errorf("unexpected load result %v", tosca.Tuple(entries))
	}
}

func TestVarInteger_LengthPrefixOverflowIsRangeCheckEvenWhenQuiet(t *testing.T) {
	for _, codec := range varIntegerCodecs {
		maxBytes := int(1<<codec.lenBits - 1)
		// the smallest positive value needing one byte more than allowed
		value := new(big.Int).Lsh(big.NewInt(1), uint(8*maxBytes))
		if codec.signed {
			value.Rsh(value, 1)
		}
		for _, quiet := range []bool{false, true} {
			c := newTestContext(cell.BeginCell(), value)
			if err := opStoreVarInteger(c, codec.lenBits, codec.signed, quiet); !errors.Is(err, errRangeCheck) {
				t.Errorf("%s, quiet=%t: expected range check for %v, got %v", codec.name, quiet, value, err)
			}
		}
		c := newTestContext(cell.BeginCell(), new(big.Int).Sub(value, big.NewInt(1)))
		if err := opStoreVarInteger(c, codec.lenBits, codec.signed, false); err != nil {
			t.Errorf("%s: largest value should be encodable, got %v", codec.name, err)
		}
	}
}

func TestVarInteger_NegativeValuesRequireSignedCodec(t *testing.T) {
	c := newTestContext(cell.BeginCell(), big.NewInt(-1))
	if err := opStoreVarInteger(c, 4, false, true); !errors.Is(err, errRangeCheck) {
		t.Errorf("expected range check, got %v", err)
	}
	c = newTestContext(cell.BeginCell(), tosca.NaN{})
	if err := opStoreVarInteger(c, 4, true, true); !errors.Is(err, errRangeCheck) {
		t.Errorf("expected range check for NaN, got %v", err)
	}
}

func TestVarInteger_CapacityOverflowIsGatedByQuietFlag(t *testing.T) {
	full := func() *cell.Builder {
		b := cell.BeginCell()
		for b.BitsUsed() < maxCellBits-10 {
			if err := storeUint(b, 0, 1); err != nil {
				t.Fatalf("failed to fill builder: %v", err)
			}
		}
		return b
	}
	value := big.NewInt(1 << 20)

	c := newTestContext(full(), value)
	if err := opStoreVarInteger(c, 4, false, false); !errors.Is(err, errCellOverflow) {
		t.Errorf("expected cell overflow, got %v", err)
	}

	c = newTestContext(full(), value)
	if err := opStoreVarInteger(c, 4, false, true); err != nil {
		t.Fatalf("quiet store must not fail, got %v", err)
	}
	if entries := c.stack.entries(); len(entries) != 1 || !isInt(0)(entries[0]) {
		t.Errorf("quiet store should push false, got %v", tosca.Tuple(entries))
	}
}

func TestVarInteger_MalformedEncodings(t *testing.T) {
	tests := map[string]*cell.Slice{
		"empty":            newTestBuilder(t).slice(),
		"truncated prefix": newTestBuilder(t).bits("01").slice(),
		"truncated value":  newTestBuilder(t).bits("0010").uint(1, 8).slice(),
	}
	for name, s := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestContext(s)
			if err := opLoadVarInteger(c, 4, true, false); !errors.Is(err, errCellUnderflow) {
				t.Errorf("expected cell underflow, got %v", err)
			}

			c = newTestContext(s)
			if err := opLoadVarInteger(c, 4, true, true); err != nil {
				t.Fatalf("quiet load must not fail, got %v", err)
			}
			if entries := c.stack.entries(); len(entries) != 1 || !isInt(0)(entries[0]) {
				t.Errorf("quiet load should push false, got %v", tosca.Tuple(entries))
			}
		})
	}
}

func TestVarInteger_ZeroIsEncodedAsEmptyLength(t *testing.T) {
	b := cell.BeginCell()
	if err := storeVarInteger(b, big.NewInt(0), 4, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.BitsUsed() != 4 {
		t.Errorf("zero should be encoded in the prefix only, got %d bits", b.BitsUsed())
	}
}

func TestVarInteger_StoreGramsRejectsLargeAmountsAsOverflow(t *testing.T) {
	if err := storeGrams(cell.BeginCell(), new(big.Int).Lsh(big.NewInt(1), 120)); !errors.Is(err, errCellOverflow) {
		t.Errorf("expected cell overflow, got %v", err)
	}
	if err := storeGrams(cell.BeginCell(), new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 120), big.NewInt(1))); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
