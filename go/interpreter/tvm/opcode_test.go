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
	"testing"
)

func TestOpCode_String(t *testing.T) {
	tests := []struct {
		name   string
		opcode OpCode
	}{
		{"ACCEPT", ACCEPT},
		{"NOW", NOW},
		{"GETPARAM 0", GETPARAM},
		{"GETPARAM 15", GETPARAM + 15},
		{"PARSEMSGADDRQ", PARSEMSGADDRQ},
		{"INVALID", INVALID},
		{"0xf830", OpCode(0xf830)},
		{"0x0000", OpCode(0)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.opcode.String(); got != test.name {
				t.Errorf("expected %s, got %s", test.name, got)
			}
		})
	}
}

func TestOpCode_EncodingsArePreserved(t *testing.T) {
	tests := map[OpCode]uint16{
		ACCEPT:        0xf800,
		SETGASLIMIT:   0xf801,
		NOW:           0xf823,
		BLOCKLT:       0xf824,
		LTIME:         0xf825,
		HASHCU:        0xf900,
		HASHSU:        0xf901,
		CHKSIGNU:      0xf910,
		LDGRAMS:       0xfa00,
		LDVARINT16:    0xfa01,
		STGRAMS:       0xfa02,
		STVARINT16:    0xfa03,
		LDMSGADDR:     0xfa40,
		LDMSGADDRQ:    0xfa41,
		PARSEMSGADDR:  0xfa42,
		PARSEMSGADDRQ: 0xfa43,
		SENDRAWMSG:    0xfb00,
		RESERVERAW:    0xfb02,
		RESERVERAWX:   0xfb03,
	}
	for op, want := range tests {
		if uint16(op) != want {
			t.Errorf("encoding of %v changed, wanted 0x%04x, got 0x%04x", op, want, uint16(op))
		}
	}
}

func TestOpCode_GetParamFamily(t *testing.T) {
	for i := 0; i < numGetParamOpCodes; i++ {
		op := GETPARAM + OpCode(i)
		if !op.isGetParam() {
			t.Errorf("%v should be part of the GETPARAM family", op)
		}
		if got := op.paramIndex(); got != i {
			t.Errorf("unexpected index of %v, wanted %d, got %d", op, i, got)
		}
	}
	if (GETPARAM + numGetParamOpCodes).isGetParam() {
		t.Errorf("GETPARAM family must be limited to %d members", numGetParamOpCodes)
	}
	if (GETPARAM - 1).isGetParam() {
		t.Errorf("SETGASLIMIT range must not be part of the GETPARAM family")
	}
}

func TestOpCode_AllOpCodesAreValid(t *testing.T) {
	ops := allOpCodes()
	if want, got := len(opCodeNames)-1-7+numGetParamOpCodes, len(ops); want != got {
		t.Errorf("unexpected number of opcodes, wanted %d, got %d", want, got)
	}
	for _, op := range ops {
		if !op.isValid() {
			t.Errorf("%v should be valid", op)
		}
	}
	if INVALID.isValid() {
		t.Errorf("INVALID must not be valid")
	}
}

func TestOpCode_ParseOpCodeInvertsString(t *testing.T) {
	for _, op := range allOpCodes() {
		got, err := ParseOpCode(op.String())
		if err != nil {
			t.Fatalf("failed to parse %v: %v", op, err)
		}
		if got != op {
			t.Errorf("parsing %v produced %v", op, got)
		}
	}
	if got, err := ParseOpCode(" accept "); err != nil || got != ACCEPT {
		t.Errorf("names should be case-insensitive, got %v, %v", got, err)
	}
	for _, name := range []string{"", "INVALID", "GETPARAM 16", "GETPARAM -1", "NOP"} {
		if _, err := ParseOpCode(name); err == nil {
			t.Errorf("parsing %q should fail", name)
		}
	}
}
