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
	"errors"
	"math/big"
	"testing"

	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

func TestOutputActions_SendRawMessageInstallsNewHead(t *testing.T) {
	msg := newTestBuilder(t).bytes([]byte("message")).cell()
	c := newTestContext(msg, big.NewInt(3))
	oldHead := c.registers.c5
	if err := opSendRawMessage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.stack.len() != 0 {
		t.Errorf("SENDRAWMSG should not push results")
	}

	want := newTestBuilder(t).ref(oldHead).uint(0x0ec3c86d, 32).uint(3, 8).ref(msg).cell()
	if !bytes.Equal(want.Hash(), c.registers.c5.Hash()) {
		t.Errorf("unexpected action node")
	}
	if c.gas.consumed != cellCreateGas {
		t.Errorf("creating the action node should cost %d, got %d", cellCreateGas, c.gas.consumed)
	}
}

func TestOutputActions_ReserveRawEncodesAmount(t *testing.T) {
	c := newTestContext(big.NewInt(1000000000), big.NewInt(2))
	oldHead := c.registers.c5
	if err := opReserveRaw(c, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := newTestBuilder(t).ref(oldHead).uint(0x36e6b809, 32).uint(2, 8).
		bits("0100").uint(1000000000, 32).bits("0").cell()
	if !bytes.Equal(want.Hash(), c.registers.c5.Hash()) {
		t.Errorf("unexpected action node")
	}
}

func TestOutputActions_ReserveRawExtendedAppendsCurrency(t *testing.T) {
	extra := newTestBuilder(t).bits("1").cell()
	currency := newTestBuilder(t).bits("0001 00000101 1").ref(extra).slice()
	c := newTestContext(currency, big.NewInt(1))
	oldHead := c.registers.c5
	if err := opReserveRaw(c, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := newTestBuilder(t).ref(oldHead).uint(0x36e6b809, 32).uint(1, 8).slices(currency).cell()
	if !bytes.Equal(want.Hash(), c.registers.c5.Hash()) {
		t.Errorf("unexpected action node")
	}
	if currency.BitsLeft() != 13 || currency.RefsNum() != 1 {
		t.Errorf("stack entry was modified")
	}
}

func TestOutputActions_InvalidOperands(t *testing.T) {
	msg := newEmptyCell()
	tests := map[string]struct {
		op    func(*context) error
		stack []tosca.Entry
		want  error
	}{
		"send mode too large": {
			op:    opSendRawMessage,
			stack: []tosca.Entry{msg, big.NewInt(256)},
			want:  errRangeCheck,
		},
		"send mode negative": {
			op:    opSendRawMessage,
			stack: []tosca.Entry{msg, big.NewInt(-1)},
			want:  errRangeCheck,
		},
		"send message not a cell": {
			op:    opSendRawMessage,
			stack: []tosca.Entry{newEmptyCell().BeginParse(), big.NewInt(0)},
			want:  errTypeCheck,
		},
		"reserve mode too large": {
			op:    func(c *context) error { return opReserveRaw(c, false) },
			stack: []tosca.Entry{big.NewInt(1), big.NewInt(4)},
			want:  errRangeCheck,
		},
		"reserve negative amount": {
			op:    func(c *context) error { return opReserveRaw(c, false) },
			stack: []tosca.Entry{big.NewInt(-1), big.NewInt(0)},
			want:  errRangeCheck,
		},
		"reserve NaN amount": {
			op:    func(c *context) error { return opReserveRaw(c, false) },
			stack: []tosca.Entry{tosca.NaN{}, big.NewInt(0)},
			want:  errIntegerOverflow,
		},
		"reserve amount too large": {
			op:    func(c *context) error { return opReserveRaw(c, false) },
			stack: []tosca.Entry{new(big.Int).Lsh(big.NewInt(1), 120), big.NewInt(0)},
			want:  errCellOverflow,
		},
		"reserve extended with integer": {
			op:    func(c *context) error { return opReserveRaw(c, true) },
			stack: []tosca.Entry{big.NewInt(1), big.NewInt(0)},
			want:  errTypeCheck,
		},
		"set code not a cell": {
			op:    opSetCode,
			stack: []tosca.Entry{big.NewInt(1)},
			want:  errTypeCheck,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestContext(test.stack...)
			oldHead := c.registers.c5
			if err := test.op(c); !errors.Is(err, test.want) {
				t.Errorf("expected %v, got %v", test.want, err)
			}
			if c.registers.c5 != oldHead {
				t.Errorf("failed instruction must not install an action")
			}
		})
	}
}

func TestOutputActions_OversizedCurrencyIsCellOverflow(t *testing.T) {
	tb := newTestBuilder(t)
	for i := 0; i < maxCellBits-20; i++ {
		tb.bits("1")
	}
	c := newTestContext(tb.slice(), big.NewInt(0))
	if err := opReserveRaw(c, true); !errors.Is(err, errCellOverflow) {
		t.Errorf("expected cell overflow, got %v", err)
	}
}

func TestOutputActions_PreviousHeadsRemainValid(t *testing.T) {
	c := newTestContext()
	var heads []*cell.Cell
	var hashes [][]byte
	for i := 0; i < 5; i++ {
		heads = append(heads, c.registers.c5)
		hashes = append(hashes, c.registers.c5.Hash())
		msg := newTestBuilder(t).uint(uint64(i), 8).cell()
		c.stack.push(msg)
		c.stack.pushSmallInt(int64(i))
		if err := opSendRawMessage(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	for i, head := range heads {
		if !bytes.Equal(head.Hash(), hashes[i]) {
			t.Errorf("head %d changed after installing further actions", i)
		}
		actions, err := ParseOutputActions(head)
		if err != nil {
			t.Fatalf("failed to parse head %d: %v", i, err)
		}
		if len(actions) != i {
			t.Errorf("head %d should hold %d actions, got %d", i, i, len(actions))
		}
	}
}

func TestOutputActions_ParseReturnsActionsInInstallationOrder(t *testing.T) {
	msg := newTestBuilder(t).bits("1").cell()
	code := newTestBuilder(t).uint(0xf800, 16).cell()
	currency := newTestBuilder(t).bits("0001 00000111 1").ref(newEmptyCell()).slice()

	params := tosca.Parameters{
		GasLimit: tosca.GasInfinity,
		Stack: []tosca.Entry{
			code,
			currency, big.NewInt(1),
			big.NewInt(42), big.NewInt(0),
			msg, big.NewInt(64),
		},
	}
	res, err := run(interpreterConfig{}, params, Code{SENDRAWMSG, RESERVERAW, RESERVERAWX, SETCODE})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ExitCode != tosca.ExitOk {
		t.Fatalf("unexpected exit code %v", res.ExitCode)
	}

	actions, err := ParseOutputActions(res.Actions)
	if err != nil {
		t.Fatalf("failed to parse actions: %v", err)
	}
	if len(actions) != 4 {
		t.Fatalf("expected 4 actions, got %d", len(actions))
	}
	if a := actions[0]; a.Kind != ActionSendMessage || a.Mode != 64 || !bytes.Equal(a.Message.Hash(), msg.Hash()) {
		t.Errorf("unexpected first action %v", a)
	}
	if a := actions[1]; a.Kind != ActionReserveCurrency || a.Mode != 0 || a.Amount == nil || a.Amount.Int64() != 42 {
		t.Errorf("unexpected second action %v", a)
	}
	if a := actions[2]; a.Kind != ActionReserveCurrency || a.Mode != 1 || a.Amount != nil || a.Currency == nil {
		t.Errorf("unexpected third action %v", a)
	}
	if a := actions[3]; a.Kind != ActionSetCode || !bytes.Equal(a.Code.Hash(), code.Hash()) {
		t.Errorf("unexpected fourth action %v", a)
	}
	if want := 4*staticGasPerStep + 4*cellCreateGas; res.GasUsed != want {
		t.Errorf("unexpected gas usage, wanted %d, got %d", want, res.GasUsed)
	}
}

func TestOutputActions_ParseRejectsUnknownActions(t *testing.T) {
	head := newTestBuilder(t).ref(newEmptyCell()).uint(0x12345678, 32).cell()
	if _, err := ParseOutputActions(head); err == nil {
		t.Errorf("expected an error for an unknown action")
	}
	head = newTestBuilder(t).uint(0x0ec3c86d, 32).cell()
	if _, err := ParseOutputActions(head); !errors.Is(err, errCellUnderflow) {
		t.Errorf("expected cell underflow for a node without predecessor, got %v", err)
	}
}

func TestOutputActions_ParseKeepsArbitraryExtendedCurrency(t *testing.T) {
	tests := map[string]*cell.Slice{
		"empty":          newTestBuilder(t).slice(),
		"truncated len":  newTestBuilder(t).bits("01").slice(),
		"missing amount": newTestBuilder(t).bits("0010 0000").slice(),
	}
	for name, currency := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestContext(currency, big.NewInt(2))
			if err := opReserveRaw(c, true); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			actions, err := ParseOutputActions(c.registers.c5)
			if err != nil {
				t.Fatalf("failed to parse actions: %v", err)
			}
			if len(actions) != 1 {
				t.Fatalf("unexpected number of actions, wanted 1, got %d", len(actions))
			}
			got := actions[0]
			if got.Kind != ActionReserveCurrency || got.Mode != 2 {
				t.Errorf("unexpected action %v", got)
			}
			if got.Amount != nil {
				t.Errorf("unexpected amount %v", got.Amount)
			}
			if got.Currency == nil || got.Currency.BitsLeft() != currency.BitsLeft() {
				t.Errorf("currency was not kept as raw bits")
			}
		})
	}
}
