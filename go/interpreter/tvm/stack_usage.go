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

// stackUsage summarizes the stack effect of an instruction on success.
type stackUsage struct {
	pops   int // < number of entries required and removed
	pushes int // < maximum number of entries added
}

// computeStackUsage returns the stack usage of the given opcode. Quiet
// instructions report the pushes of the success path, which is the maximum.
func computeStackUsage(op OpCode) stackUsage {
	if op.isGetParam() {
		return stackUsage{0, 1}
	}
	switch op {
	case ACCEPT:
		return stackUsage{0, 0}
	case SETGASLIMIT:
		return stackUsage{1, 0}
	case HASHCU, HASHSU, SHA256U:
		return stackUsage{1, 1}
	case CHKSIGNU, CHKSIGNS:
		return stackUsage{3, 1}
	case LDGRAMS, LDVARINT16, LDVARUINT32, LDVARINT32:
		return stackUsage{1, 2}
	case STGRAMS, STVARINT16, STVARUINT32, STVARINT32:
		return stackUsage{2, 1}
	case LDMSGADDR:
		return stackUsage{1, 2}
	case LDMSGADDRQ:
		return stackUsage{1, 3}
	case PARSEMSGADDR:
		return stackUsage{1, 1}
	case PARSEMSGADDRQ:
		return stackUsage{1, 2}
	case SENDRAWMSG, RESERVERAW, RESERVERAWX:
		return stackUsage{2, 0}
	case SETCODE:
		return stackUsage{1, 0}
	}
	return stackUsage{0, 0}
}

var _precomputedStackUsage = func() map[OpCode]stackUsage {
	res := map[OpCode]stackUsage{}
	for _, op := range allOpCodes() {
		res[op] = computeStackUsage(op)
	}
	return res
}()

// checkStackLimits checks that the opcode finds all of its operands on a
// stack of the given size.
func checkStackLimits(stackLen int, op OpCode) error {
	if stackLen < _precomputedStackUsage[op].pops {
		return errStackUnderflow
	}
	return nil
}
