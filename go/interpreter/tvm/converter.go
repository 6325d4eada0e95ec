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

	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

// Code is the decoded instruction sequence of a code cell.
type Code []OpCode

func (c Code) String() string {
	var b strings.Builder
	for i, op := range c {
		fmt.Fprintf(&b, "%4d: %v\n", i, op)
	}
	return b.String()
}

// ConversionConfig contains a set of configuration options for the code conversion.
type ConversionConfig struct {
	// CacheSize is the maximum number of code cells kept in the conversion
	// cache. If set to 0, a default size is used. If negative, no cache is
	// used.
	CacheSize int
}

const defaultCacheSize = 1 << 16

// Converter decodes code cells into instruction sequences.
type Converter struct {
	cache *lru.Cache[tosca.Hash, Code]
}

// NewConverter creates a new code converter with the provided configuration.
func NewConverter(config ConversionConfig) (*Converter, error) {
	if config.CacheSize == 0 {
		config.CacheSize = defaultCacheSize
	}

	var cache *lru.Cache[tosca.Hash, Code]
	if config.CacheSize > 0 {
		var err error
		cache, err = lru.New[tosca.Hash, Code](config.CacheSize)
		if err != nil {
			return nil, err
		}
	}
	return &Converter{cache: cache}, nil
}

// Convert decodes the given code cell. Results are cached by the hash of the
// cell; the returned code must not be modified.
func (c *Converter) Convert(code *cell.Cell) Code {
	if c.cache == nil {
		return convert(code)
	}

	var key tosca.Hash
	copy(key[:], code.Hash())
	res, exists := c.cache.Get(key)
	if exists {
		return res
	}

	res = convert(code)
	c.cache.Add(key, res)
	return res
}

// convert reads the data bits of the code cell as a sequence of 16-bit
// opcodes. Unknown opcodes and incomplete trailing bits are decoded as
// INVALID, the latter ending the sequence.
func convert(code *cell.Cell) Code {
	s := code.BeginParse()
	res := make(Code, 0, s.BitsLeft()/opCodeBits+1)
	for s.BitsLeft() >= opCodeBits {
		word, err := fetchUint(s, opCodeBits)
		if err != nil {
			break
		}
		op := OpCode(word)
		if !op.isValid() {
			op = INVALID
		}
		res = append(res, op)
	}
	if s.BitsLeft() > 0 {
		res = append(res, INVALID)
	}
	return res
}
