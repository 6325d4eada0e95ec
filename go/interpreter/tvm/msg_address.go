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

	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Message addresses follow the TL-B schema
//
//	anycast_info$_ depth:(#<= 30) { depth >= 1 } rewrite_pfx:(bits depth) = Anycast;
//	addr_none$00 = MsgAddressExt;
//	addr_extern$01 len:(## 9) external_address:(bits len) = MsgAddressExt;
//	addr_std$10 anycast:(Maybe Anycast) workchain_id:int8 address:bits256 = MsgAddressInt;
//	addr_var$11 anycast:(Maybe Anycast) addr_len:(## 9) workchain_id:int32 address:(bits addr_len) = MsgAddressInt;

const (
	addrTagNone   = 0
	addrTagExtern = 1
	addrTagStd    = 2
	addrTagVar    = 3

	maxAnycastDepth = 30
)

// skipMaybeAnycast advances s over an optional anycast prefix.
func skipMaybeAnycast(s *cell.Slice) error {
	_, err := parseMaybeAnycast(s, false)
	return err
}

// skipMessageAddr advances s over a message address, checking its structure
// without decoding the field values.
func skipMessageAddr(s *cell.Slice) error {
	tag, err := fetchUint(s, 2)
	if err != nil {
		return err
	}
	switch tag {
	case addrTagNone:
		return nil
	case addrTagExtern:
		length, err := fetchUint(s, 9)
		if err != nil {
			return err
		}
		return advance(s, uint(length))
	case addrTagStd:
		if err := skipMaybeAnycast(s); err != nil {
			return err
		}
		return advance(s, 8+256)
	default:
		if err := skipMaybeAnycast(s); err != nil {
			return err
		}
		length, err := fetchUint(s, 9)
		if err != nil {
			return err
		}
		return advance(s, 32+uint(length))
	}
}

// parseMaybeAnycast reads an optional anycast prefix. The result is the
// rewrite prefix as slice or Null if there is none. The prefix is only
// extracted if keep is set.
func parseMaybeAnycast(s *cell.Slice, keep bool) (tosca.Entry, error) {
	present, err := fetchUint(s, 1)
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return tosca.Null{}, nil
	}
	depth, err := fetchUintLeq(s, maxAnycastDepth)
	if err != nil {
		return nil, err
	}
	if depth < 1 {
		return nil, fmt.Errorf("%w: anycast depth must be positive", errCellUnderflow)
	}
	if !keep {
		return tosca.Null{}, advance(s, uint(depth))
	}
	return fetchSubslice(s, uint(depth))
}

// parseMessageAddr decodes a message address into a tuple of the form
//
//	(0)                                  for addr_none
//	(1, address)                         for addr_extern
//	(2, anycast, workchain, address)     for addr_std
//	(3, anycast, workchain, address)     for addr_var
//
// where address and anycast are slices and anycast may be Null.
func parseMessageAddr(s *cell.Slice) (tosca.Tuple, error) {
	tag, err := fetchUint(s, 2)
	if err != nil {
		return nil, err
	}
	switch tag {
	case addrTagNone:
		return tosca.Tuple{big.NewInt(addrTagNone)}, nil
	case addrTagExtern:
		length, err := fetchUint(s, 9)
		if err != nil {
			return nil, err
		}
		addr, err := fetchSubslice(s, uint(length))
		if err != nil {
			return nil, err
		}
		return tosca.Tuple{big.NewInt(addrTagExtern), addr}, nil
	case addrTagStd:
		anycast, err := parseMaybeAnycast(s, true)
		if err != nil {
			return nil, err
		}
		workchain, err := fetchInt(s, 8)
		if err != nil {
			return nil, err
		}
		addr, err := fetchSubslice(s, 256)
		if err != nil {
			return nil, err
		}
		return tosca.Tuple{big.NewInt(addrTagStd), anycast, big.NewInt(workchain), addr}, nil
	default:
		anycast, err := parseMaybeAnycast(s, true)
		if err != nil {
			return nil, err
		}
		length, err := fetchUint(s, 9)
		if err != nil {
			return nil, err
		}
		workchain, err := fetchInt(s, 32)
		if err != nil {
			return nil, err
		}
		addr, err := fetchSubslice(s, uint(length))
		if err != nil {
			return nil, err
		}
		return tosca.Tuple{big.NewInt(addrTagVar), anycast, big.NewInt(workchain), addr}, nil
	}
}

// opLoadMessageAddr splits a slice into a leading message address and the
// remainder, pushing both. On a malformed address the quiet variant pushes
// the unchanged slice and false.
func opLoadMessageAddr(c *context, quiet bool) error {
	s, err := c.stack.popSlice()
	if err != nil {
		return err
	}
	rest := s.Copy()
	err = skipMessageAddr(rest)
	var addr *cell.Slice
	if err == nil {
		addr, err = cutPrefix(s, rest)
	}
	if err != nil {
		if quiet {
			c.stack.push(s)
			c.stack.pushBool(false)
			return nil
		}
		return fmt.Errorf("%w: cannot load a MsgAddress", err)
	}
	c.stack.push(addr)
	c.stack.push(rest)
	if quiet {
		c.stack.pushBool(true)
	}
	return nil
}

// opParseMessageAddr decodes a slice holding exactly one message address into
// a tuple. The quiet variant pushes false instead of failing.
func opParseMessageAddr(c *context, quiet bool) error {
	s, err := c.stack.popSlice()
	if err != nil {
		return err
	}
	res, err := parseMessageAddr(s)
	if err == nil && !isEmpty(s) {
		err = fmt.Errorf("%w: %d bits and %d refs remain after the address", errCellUnderflow, s.BitsLeft(), s.RefsNum())
	}
	if err != nil {
		if quiet {
			c.stack.pushBool(false)
			return nil
		}
		return fmt.Errorf("%w: cannot parse a MsgAddress", err)
	}
	c.stack.push(res)
	if quiet {
		c.stack.pushBool(true)
	}
	return nil
}
