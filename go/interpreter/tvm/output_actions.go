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
	"math/big"

	"github.com/xssnick/tonutils-go/tvm/cell"
)

// The output actions of a contract are a list kept in c5, newest first:
//
//	out_list_empty$_ = OutList 0;
//	out_list$_ {n:#} prev:^(OutList n) action:OutAction = OutList (n + 1);
//	action_send_msg#0ec3c86d mode:(## 8) out_msg:^(MessageRelaxed Any) = OutAction;
//	action_set_code#ad4de08e new_code:^Cell = OutAction;
//	action_reserve_currency#36e6b809 mode:(## 8) currency:CurrencyCollection = OutAction;
//
// Nodes are immutable cells; installing an action creates a new head
// referencing the previous one.

const (
	actionTagSendMsg         = 0x0ec3c86d
	actionTagSetCode         = 0xad4de08e
	actionTagReserveCurrency = 0x36e6b809
)

// ActionKind enumerates the supported output actions.
type ActionKind int

const (
	ActionSendMessage ActionKind = iota
	ActionReserveCurrency
	ActionSetCode
)

func (k ActionKind) String() string {
	switch k {
	case ActionSendMessage:
		return "send_msg"
	case ActionReserveCurrency:
		return "reserve_currency"
	case ActionSetCode:
		return "set_code"
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// OutputAction is a decoded node of an output action list.
type OutputAction struct {
	Kind ActionKind
	Mode uint8
	// Message is the outbound message of a send action.
	Message *cell.Cell
	// Amount is the reserved amount if the currency collection carries no
	// extra currencies, otherwise Currency holds the raw encoding.
	Amount   *big.Int
	Currency *cell.Slice
	// Code is the new contract code of a set code action.
	Code *cell.Cell
}

func (a OutputAction) String() string {
	switch a.Kind {
	case ActionSendMessage:
		return fmt.Sprintf("%v(mode=%d, msg=%X)", a.Kind, a.Mode, a.Message.Hash())
	case ActionReserveCurrency:
		if a.Amount != nil {
			return fmt.Sprintf("%v(mode=%d, amount=%v)", a.Kind, a.Mode, a.Amount)
		}
		return fmt.Sprintf("%v(mode=%d, currency=%d bits)", a.Kind, a.Mode, a.Currency.BitsLeft())
	case ActionSetCode:
		return fmt.Sprintf("%v(code=%X)", a.Kind, a.Code.Hash())
	}
	return a.Kind.String()
}

// actionWriter serializes an action node, keeping the first error.
type actionWriter struct {
	b   *cell.Builder
	err error
}

func newActionWriter(prev *cell.Cell, tag uint64) *actionWriter {
	w := &actionWriter{b: cell.BeginCell()}
	w.ref(prev)
	w.uint(tag, 32)
	return w
}

func (w *actionWriter) uint(v uint64, n uint) {
	if w.err == nil {
		w.err = storeUint(w.b, v, n)
	}
}

func (w *actionWriter) ref(c *cell.Cell) {
	if w.err == nil {
		w.err = storeRef(w.b, c)
	}
}

func (w *actionWriter) grams(amount *big.Int) {
	if w.err == nil {
		w.err = storeGrams(w.b, amount)
	}
}

func (w *actionWriter) slice(s *cell.Slice) {
	if w.err == nil {
		w.err = appendSlice(w.b, s)
	}
}

// installOutputAction finalizes the node built by w and makes it the new
// head of the output action list.
func installOutputAction(c *context, w *actionWriter, what string) error {
	if w.err != nil {
		return fmt.Errorf("%w: cannot serialize %s into an output action cell", errCellOverflow, what)
	}
	head, err := c.finalize(w.b)
	if err != nil {
		return err
	}
	c.registers.c5 = head
	return nil
}

func opSendRawMessage(c *context) error {
	mode, err := c.stack.popSmallIntRange(255)
	if err != nil {
		return err
	}
	msg, err := c.stack.popCell()
	if err != nil {
		return err
	}
	w := newActionWriter(c.registers.c5, actionTagSendMsg)
	w.uint(uint64(mode), 8)
	w.ref(msg)
	return installOutputAction(c, w, "raw output message")
}

// opReserveRaw implements RESERVERAW and RESERVERAWX. The extended variant
// takes a pre-encoded currency collection as slice instead of an amount.
func opReserveRaw(c *context, extended bool) error {
	mode, err := c.stack.popSmallIntRange(3)
	if err != nil {
		return err
	}
	var amount *big.Int
	var currency *cell.Slice
	if extended {
		if currency, err = c.stack.popSlice(); err != nil {
			return err
		}
	} else {
		if amount, err = c.stack.popIntFinite(); err != nil {
			return err
		}
		if amount.Sign() < 0 {
			return fmt.Errorf("%w: reserved amount must be non-negative, got %v", errRangeCheck, amount)
		}
	}
	w := newActionWriter(c.registers.c5, actionTagReserveCurrency)
	w.uint(uint64(mode), 8)
	if extended {
		w.slice(currency)
	} else {
		w.grams(amount)
		w.uint(0, 1) // no extra currencies
	}
	return installOutputAction(c, w, "raw reserved currency amount")
}

func opSetCode(c *context) error {
	code, err := c.stack.popCell()
	if err != nil {
		return err
	}
	w := newActionWriter(c.registers.c5, actionTagSetCode)
	w.ref(code)
	return installOutputAction(c, w, "new code")
}

// ParseOutputActions decodes the output action list with the given head.
// The actions are returned in the order they were installed.
func ParseOutputActions(head *cell.Cell) ([]OutputAction, error) {
	var res []OutputAction
	for cur := head; ; {
		s := cur.BeginParse()
		if isEmpty(s) {
			break
		}
		prev, err := s.LoadRefCell()
		if err != nil {
			return nil, fmt.Errorf("%w: action list node without predecessor", errCellUnderflow)
		}
		action, err := parseOutputAction(s)
		if err != nil {
			return nil, fmt.Errorf("invalid output action %d from the end: %w", len(res), err)
		}
		res = append(res, action)
		cur = prev
	}
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res, nil
}

func parseOutputAction(s *cell.Slice) (OutputAction, error) {
	tag, err := fetchUint(s, 32)
	if err != nil {
		return OutputAction{}, err
	}
	switch tag {
	case actionTagSendMsg:
		mode, err := fetchUint(s, 8)
		if err != nil {
			return OutputAction{}, err
		}
		msg, err := s.LoadRefCell()
		if err != nil {
			return OutputAction{}, fmt.Errorf("%w: %v", errCellUnderflow, err)
		}
		return OutputAction{Kind: ActionSendMessage, Mode: uint8(mode), Message: msg}, nil
	case actionTagReserveCurrency:
		mode, err := fetchUint(s, 8)
		if err != nil {
			return OutputAction{}, err
		}
		res := OutputAction{Kind: ActionReserveCurrency, Mode: uint8(mode), Currency: s.Copy()}
		// RESERVERAWX accepts arbitrary currency slices, so only well-formed
		// plain amounts are decoded.
		amount, err := loadVarInteger(s, 4, false)
		if err != nil {
			return res, nil
		}
		if extra, err := fetchUint(s, 1); err == nil && extra == 0 && isEmpty(s) {
			res.Amount = amount
		}
		return res, nil
	case actionTagSetCode:
		code, err := s.LoadRefCell()
		if err != nil {
			return OutputAction{}, fmt.Errorf("%w: %v", errCellUnderflow, err)
		}
		return OutputAction{Kind: ActionSetCode, Code: code}, nil
	}
	return OutputAction{}, fmt.Errorf("unknown action tag 0x%08x", tag)
}
