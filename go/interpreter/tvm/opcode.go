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
	"strings"
)

// OpCode is the 16-bit encoding of an instruction. The encodings are the
// externally visible contract of this instruction set and must not change.
type OpCode uint16

const (
	// Gas
	ACCEPT      OpCode = 0xf800
	SETGASLIMIT OpCode = 0xf801

	// Configuration; NOW to CONFIGROOT are named members of the GETPARAM family.
	GETPARAM   OpCode = 0xf820
	NOW        OpCode = 0xf823
	BLOCKLT    OpCode = 0xf824
	LTIME      OpCode = 0xf825
	RANDSEED   OpCode = 0xf826
	BALANCE    OpCode = 0xf827
	MYADDR     OpCode = 0xf828
	CONFIGROOT OpCode = 0xf829

	// Crypto
	HASHCU   OpCode = 0xf900
	HASHSU   OpCode = 0xf901
	SHA256U  OpCode = 0xf902
	CHKSIGNU OpCode = 0xf910
	CHKSIGNS OpCode = 0xf911

	// Currency and addresses
	LDGRAMS       OpCode = 0xfa00
	LDVARINT16    OpCode = 0xfa01
	STGRAMS       OpCode = 0xfa02
	STVARINT16    OpCode = 0xfa03
	LDVARUINT32   OpCode = 0xfa04
	LDVARINT32    OpCode = 0xfa05
	STVARUINT32   OpCode = 0xfa06
	STVARINT32    OpCode = 0xfa07
	LDMSGADDR     OpCode = 0xfa40
	LDMSGADDRQ    OpCode = 0xfa41
	PARSEMSGADDR  OpCode = 0xfa42
	PARSEMSGADDRQ OpCode = 0xfa43

	// Output actions
	SENDRAWMSG  OpCode = 0xfb00
	RESERVERAW  OpCode = 0xfb02
	RESERVERAWX OpCode = 0xfb03
	SETCODE     OpCode = 0xfb04

	// INVALID marks undecodable trailing code bits.
	INVALID OpCode = 0xffff
)

// numGetParamOpCodes is the number of indices addressable by GETPARAM.
const numGetParamOpCodes = 16

var opCodeNames = map[OpCode]string{
	ACCEPT:        "ACCEPT",
	SETGASLIMIT:   "SETGASLIMIT",
	NOW:           "NOW",
	BLOCKLT:       "BLOCKLT",
	LTIME:         "LTIME",
	RANDSEED:      "RANDSEED",
	BALANCE:       "BALANCE",
	MYADDR:        "MYADDR",
	CONFIGROOT:    "CONFIGROOT",
	HASHCU:        "HASHCU",
	HASHSU:        "HASHSU",
	SHA256U:       "SHA256U",
	CHKSIGNU:      "CHKSIGNU",
	CHKSIGNS:      "CHKSIGNS",
	LDGRAMS:       "LDGRAMS",
	LDVARINT16:    "LDVARINT16",
	STGRAMS:       "STGRAMS",
	STVARINT16:    "STVARINT16",
	LDVARUINT32:   "LDVARUINT32",
	LDVARINT32:    "LDVARINT32",
	STVARUINT32:   "STVARUINT32",
	STVARINT32:    "STVARINT32",
	LDMSGADDR:     "LDMSGADDR",
	LDMSGADDRQ:    "LDMSGADDRQ",
	PARSEMSGADDR:  "PARSEMSGADDR",
	PARSEMSGADDRQ: "PARSEMSGADDRQ",
	SENDRAWMSG:    "SENDRAWMSG",
	RESERVERAW:    "RESERVERAW",
	RESERVERAWX:   "RESERVERAWX",
	SETCODE:       "SETCODE",
	INVALID:       "INVALID",
}

// isGetParam is true for all members of the GETPARAM family.
func (op OpCode) isGetParam() bool {
	return GETPARAM <= op && op < GETPARAM+numGetParamOpCodes
}

// paramIndex is the environment index read by a GETPARAM instruction.
func (op OpCode) paramIndex() int {
	return int(op - GETPARAM)
}

// isValid is true for all opcodes of this instruction set except INVALID.
func (op OpCode) isValid() bool {
	if op.isGetParam() {
		return true
	}
	_, found := opCodeNames[op]
	return found && op != INVALID
}

func (op OpCode) String() string {
	if name, found := opCodeNames[op]; found {
		return name
	}
	if op.isGetParam() {
		return fmt.Sprintf("GETPARAM %d", op.paramIndex())
	}
	return fmt.Sprintf("0x%04x", uint16(op))
}

// allOpCodes returns all valid opcodes in ascending order.
func allOpCodes() []OpCode {
	res := []OpCode{}
	for i := 0; i <= 0xffff; i++ {
		if op := OpCode(i); op.isValid() {
			res = append(res, op)
		}
	}
	return res
}

// ParseOpCode returns the opcode with the given name. Members of the
// GETPARAM family without a dedicated name are written as "GETPARAM <i>".
func ParseOpCode(name string) (OpCode, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for op, cur := range opCodeNames {
		if cur == name && op != INVALID {
			return op, nil
		}
	}
	var index int
	if _, err := fmt.Sscanf(name, "GETPARAM %d", &index); err == nil {
		if index >= 0 && index < numGetParamOpCodes {
			return GETPARAM + OpCode(index), nil
		}
	}
	return INVALID, fmt.Errorf("unknown instruction %q", name)
}
