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
	"strings"
	"sync"

	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// stack is the operand stack of the VM. Entries are tosca.Entry values; the
// pop functions check the presence and the type of the requested operand and
// report errStackUnderflow or errTypeCheck otherwise.
//
// Stacks are obtained from a pool to reuse their backing arrays. To obtain an
// empty stack use NewStack(), to return a stack use ReturnStack(s).
//
// The stack is not thread-safe. NewStack() and ReturnStack() are thread-safe.
type stack struct {
	data []tosca.Entry
}

// len returns the number of elements on the stack.
func (s *stack) len() int {
	return len(s.data)
}

// checkUnderflow fails if the stack holds less than n elements.
func (s *stack) checkUnderflow(n int) error {
	if len(s.data) < n {
		return fmt.Errorf("%w: %d entries required, %d present", errStackUnderflow, n, len(s.data))
	}
	return nil
}

func (s *stack) push(e tosca.Entry) {
	s.data = append(s.data, e)
}

// pushInt adds an integer to the stack. Values outside the signed 257-bit
// range are rejected.
func (s *stack) pushInt(v *big.Int) error {
	if bitSize(v, true) > 257 {
		return fmt.Errorf("%w: %v exceeds 257 bits", errIntegerOverflow, v)
	}
	s.push(v)
	return nil
}

// pushSmallInt adds an integer known to be within range.
func (s *stack) pushSmallInt(v int64) {
	s.push(big.NewInt(v))
}

// pushBool adds -1 for true and 0 for false.
func (s *stack) pushBool(v bool) {
	if v {
		s.pushSmallInt(-1)
	} else {
		s.pushSmallInt(0)
	}
}

// pop removes the top element of the stack.
func (s *stack) pop() (tosca.Entry, error) {
	if len(s.data) == 0 {
		return nil, fmt.Errorf("%w: empty stack", errStackUnderflow)
	}
	res := s.data[len(s.data)-1]
	s.data[len(s.data)-1] = nil
	s.data = s.data[:len(s.data)-1]
	return res, nil
}

// peek returns the top element without removing it. The stack must not be empty.
func (s *stack) peek() tosca.Entry {
	return s.data[len(s.data)-1]
}

// popInt removes an integer from the top of the stack. The result is nil if
// the integer is NaN.
func (s *stack) popInt() (*big.Int, error) {
	e, err := s.pop()
	if err != nil {
		return nil, err
	}
	switch v := e.(type) {
	case *big.Int:
		return v, nil
	case tosca.NaN:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: expected an integer, got %s", errTypeCheck, tosca.FormatEntry(e))
}

// popIntFinite removes an integer from the top of the stack, failing for NaN.
func (s *stack) popIntFinite() (*big.Int, error) {
	res, err := s.popInt()
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("%w: expected a finite integer", errIntegerOverflow)
	}
	return res, nil
}

// popSmallIntRange removes an integer in the range [0, max] from the top of
// the stack. Other values, including NaN, cause a range check error.
func (s *stack) popSmallIntRange(max int64) (int64, error) {
	res, err := s.popInt()
	if err != nil {
		return 0, err
	}
	if res == nil || !res.IsInt64() || res.Int64() < 0 || res.Int64() > max {
		return 0, fmt.Errorf("%w: expected integer in range [0, %d]", errRangeCheck, max)
	}
	return res.Int64(), nil
}

func (s *stack) popCell() (*cell.Cell, error) {
	e, err := s.pop()
	if err != nil {
		return nil, err
	}
	if res, ok := e.(*cell.Cell); ok && res != nil {
		return res, nil
	}
	return nil, fmt.Errorf("%w: expected a cell, got %s", errTypeCheck, tosca.FormatEntry(e))
}

// popSlice removes a slice from the top of the stack and returns a private
// copy of it which may be advanced by the caller.
func (s *stack) popSlice() (*cell.Slice, error) {
	e, err := s.pop()
	if err != nil {
		return nil, err
	}
	if res, ok := e.(*cell.Slice); ok && res != nil {
		return res.Copy(), nil
	}
	return nil, fmt.Errorf("%w: expected a slice, got %s", errTypeCheck, tosca.FormatEntry(e))
}

// popBuilder removes a builder from the top of the stack and returns a
// private copy of it which may be extended by the caller.
func (s *stack) popBuilder() (*cell.Builder, error) {
	e, err := s.pop()
	if err != nil {
		return nil, err
	}
	if res, ok := e.(*cell.Builder); ok && res != nil {
		return copyBuilder(res), nil
	}
	return nil, fmt.Errorf("%w: expected a builder, got %s", errTypeCheck, tosca.FormatEntry(e))
}

// entries returns a copy of the stack content, bottom element first.
func (s *stack) entries() []tosca.Entry {
	return append([]tosca.Entry(nil), s.data...)
}

func (s *stack) String() string {
	b := strings.Builder{}
	for i := len(s.data) - 1; i >= 0; i-- {
		b.WriteString(fmt.Sprintf("    [%4d] %v\n", i, tosca.FormatEntry(s.data[i])))
	}
	return b.String()
}

// ------------------ Stack Pool ------------------

var stackPool = sync.Pool{
	New: func() interface{} {
		return &stack{data: make([]tosca.Entry, 0, 32)}
	},
}

// NewStack returns a new, empty stack instance from a reuse pool.
// This function is thread-safe.
func NewStack() *stack {
	return stackPool.Get().(*stack)
}

// ReturnStack returns the stack to the reuse pool. Any stack may only be
// returned once to avoid concurrent re-use. This is not checked internally.
// This function is thread-safe.
func ReturnStack(s *stack) {
	clear(s.data)
	s.data = s.data[:0]
	stackPool.Put(s)
}
