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
	"bytes"
	"crypto/sha256"
	"errors"
	"math/big"
	"testing"

	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/ed25519"
)

func TestHash_CellHashIsPushedAsUnsignedInteger(t *testing.T) {
	cl := newTestBuilder(t).bytes([]byte("hello")).cell()
	c := newTestContext(cl)
	if err := opHashCell(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := c.stack.peek().(*big.Int)
	if !ok {
		t.Fatalf("expected an integer, got %v", tosca.FormatEntry(c.stack.peek()))
	}
	if want := new(big.Int).SetBytes(cl.Hash()); want.Cmp(got) != 0 {
		t.Errorf("unexpected hash, wanted %x, got %x", want, got)
	}
	if got.Sign() < 0 {
		t.Errorf("hash must be unsigned")
	}
}

func TestHash_SliceIsHashedAsCellOfRemainingContent(t *testing.T) {
	ref := newTestBuilder(t).bits("1").cell()
	full := newTestBuilder(t).bytes([]byte{0xAB, 0xCD}).ref(ref).slice()
	if err := advance(full, 8); err != nil {
		t.Fatalf("failed to advance: %v", err)
	}
	expected := newTestBuilder(t).bytes([]byte{0xCD}).ref(ref).cell()

	c := newTestContext(full)
	if err := opHashSlice(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := c.stack.peek().(*big.Int)
	if want := new(big.Int).SetBytes(expected.Hash()); want.Cmp(got) != 0 {
		t.Errorf("unexpected hash, wanted %x, got %x", want, got)
	}
	if c.gas.consumed != cellCreateGas {
		t.Errorf("hashing a slice should charge the cell creation, got %d", c.gas.consumed)
	}
	if full.BitsLeft() != 8 {
		t.Errorf("hashing must not consume the slice on the stack")
	}
}

func TestHash_Sha256OfSliceData(t *testing.T) {
	data := []byte("abc")
	c := newTestContext(newTestBuilder(t).bytes(data).slice())
	if err := opSha256(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hash := sha256.Sum256(data)
	if want, got := new(big.Int).SetBytes(hash[:]), c.stack.peek().(*big.Int); want.Cmp(got) != 0 {
		t.Errorf("unexpected hash, wanted %x, got %x", want, got)
	}

	c = newTestContext(newTestBuilder(t).bits("101").slice())
	if err := opSha256(c); !errors.Is(err, errCellUnderflow) {
		t.Errorf("expected cell underflow for incomplete bytes, got %v", err)
	}
}

func TestCheckSignature_PassesOperandsToVerifier(t *testing.T) {
	var key [32]byte
	var sig [64]byte
	var hash [32]byte
	for i := range key {
		key[i] = byte(i)
		hash[i] = byte(0xff - i)
	}
	for i := range sig {
		sig[i] = byte(3 * i)
	}

	for _, valid := range []bool{true, false} {
		ctrl := gomock.NewController(t)
		verifier := NewMockSignatureVerifier(ctrl)
		verifier.EXPECT().Verify(key, hash[:], sig).Return(valid)

		c := newTestContext(
			new(big.Int).SetBytes(hash[:]),
			newTestBuilder(t).bytes(sig[:]).bits("1").slice(),
			new(big.Int).SetBytes(key[:]),
		)
		c.verifier = verifier
		if err := opCheckSignature(c, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.stack.len() != 1 {
			t.Fatalf("expected a single result, got %d", c.stack.len())
		}
		want := int64(0)
		if valid {
			want = -1
		}
		if !isInt(want)(c.stack.peek()) {
			t.Errorf("unexpected result %v for valid=%t", tosca.FormatEntry(c.stack.peek()), valid)
		}
	}
}

func TestCheckSignature_VerifiesEd25519Signatures(t *testing.T) {
	private := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{7}, ed25519.SeedSize))
	public := private.Public().(ed25519.PublicKey)
	hash := sha256.Sum256([]byte("message"))
	signature := ed25519.Sign(private, hash[:])

	tests := map[string]struct {
		hash []byte
		want int64
	}{
		"valid":    {hash: hash[:], want: -1},
		"tampered": {hash: append([]byte{hash[0] ^ 1}, hash[1:]...), want: 0},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			res := runCode(t, 1000, Code{CHKSIGNU},
				new(big.Int).SetBytes(test.hash),
				newTestBuilder(t).bytes(signature).slice(),
				new(big.Int).SetBytes(public),
			)
			if res.ExitCode != tosca.ExitOk {
				t.Fatalf("unexpected exit code %v", res.ExitCode)
			}
			if len(res.Stack) != 1 || !isInt(test.want)(res.Stack[0]) {
				t.Errorf("unexpected result %v", res.Stack)
			}
		})
	}
}

func TestCheckSignature_SliceMessage(t *testing.T) {
	private := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{9}, ed25519.SeedSize))
	public := private.Public().(ed25519.PublicKey)
	message := []byte("arbitrary data")
	signature := ed25519.Sign(private, message)

	res := runCode(t, 1000, Code{CHKSIGNS},
		newTestBuilder(t).bytes(message).slice(),
		newTestBuilder(t).bytes(signature).slice(),
		new(big.Int).SetBytes(public),
	)
	if res.ExitCode != tosca.ExitOk {
		t.Fatalf("unexpected exit code %v", res.ExitCode)
	}
	if len(res.Stack) != 1 || !isInt(-1)(res.Stack[0]) {
		t.Errorf("unexpected result %v", res.Stack)
	}
}

func TestCheckSignature_ReportsInvalidOperands(t *testing.T) {
	tooLarge := new(big.Int).Lsh(big.NewInt(1), 256)
	validSig := newTestBuilder(t).bytes(make([]byte, 64)).slice()

	tests := map[string]struct {
		stack []tosca.Entry
		want  error
	}{
		"missing operand": {
			stack: []tosca.Entry{validSig, big.NewInt(1)},
			want:  errStackUnderflow,
		},
		"negative hash": {
			stack: []tosca.Entry{big.NewInt(-1), validSig, big.NewInt(1)},
			want:  errRangeCheck,
		},
		"hash exceeding 256 bits": {
			stack: []tosca.Entry{tooLarge, validSig, big.NewInt(1)},
			want:  errRangeCheck,
		},
		"short signature": {
			stack: []tosca.Entry{big.NewInt(1), newTestBuilder(t).bytes(make([]byte, 63)).slice(), big.NewInt(1)},
			want:  errCellUnderflow,
		},
		"key exceeding 256 bits": {
			stack: []tosca.Entry{big.NewInt(1), validSig, tooLarge},
			want:  errRangeCheck,
		},
		"signature not a slice": {
			stack: []tosca.Entry{big.NewInt(1), big.NewInt(2), big.NewInt(1)},
			want:  errTypeCheck,
		},
		"nan hash": {
			stack: []tosca.Entry{tosca.NaN{}, validSig, big.NewInt(1)},
			want:  errRangeCheck,
		},
		"nan key": {
			stack: []tosca.Entry{big.NewInt(1), validSig, tosca.NaN{}},
			want:  errRangeCheck,
		},
		"signature checked before nan key": {
			stack: []tosca.Entry{big.NewInt(1), newTestBuilder(t).bits("1").slice(), tosca.NaN{}},
			want:  errCellUnderflow,
		},
		"hash checked before signature": {
			stack: []tosca.Entry{big.NewInt(-1), newTestBuilder(t).bits("1").slice(), big.NewInt(1)},
			want:  errRangeCheck,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			c := newTestContext(test.stack...)
			c.verifier = NewMockSignatureVerifier(ctrl)
			if err := opCheckSignature(c, false); !errors.Is(err, test.want) {
				t.Errorf("expected %v, got %v", test.want, err)
			}
		})
	}
}
