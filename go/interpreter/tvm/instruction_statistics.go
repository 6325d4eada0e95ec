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
	"sync"

	"github.com/Fantom-foundation/Tosca-TVM/go/tosca"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// statisticRunner is a runner that collects statistics about the instruction
// sequences of the executed code and the exit codes of the runs.
type statisticRunner struct {
	mutex sync.Mutex
	stats *statistics
}

func (s *statisticRunner) run(c *context) (status, error) {
	collector := statsCollector{stats: newStatistics()}
	status := statusRunning
	for status == statusRunning {
		if c.pc < int32(len(c.code)) {
			collector.nextOp(c.code[c.pc])
		}
		status = step(c)
	}
	collector.stats.exitCodes[toExitCode(c.err)]++

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.stats == nil {
		s.stats = newStatistics()
	}
	s.stats.insert(collector.stats)
	return status, nil
}

// getSummary returns a summary of the collected statistics in a human-readable
// format.
func (s *statisticRunner) getSummary() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.stats == nil {
		s.stats = newStatistics()
	}
	return s.stats.print()
}

// reset clears the collected statistics.
func (s *statisticRunner) reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.stats = newStatistics()
}

// statistics counts executed instructions and instruction sequences of up
// to four elements. Sequences are keyed by their opcodes packed into 16-bit
// groups, the most recent instruction in the lowest bits.
type statistics struct {
	count       uint64
	singleCount map[uint64]uint64
	pairCount   map[uint64]uint64
	tripleCount map[uint64]uint64
	quadCount   map[uint64]uint64
	exitCodes   map[tosca.ExitCode]uint64
}

func newStatistics() *statistics {
	return &statistics{
		singleCount: map[uint64]uint64{},
		pairCount:   map[uint64]uint64{},
		tripleCount: map[uint64]uint64{},
		quadCount:   map[uint64]uint64{},
		exitCodes:   map[tosca.ExitCode]uint64{},
	}
}

func mergeCounts[K comparable](dst, src map[K]uint64) {
	for k, v := range src {
		dst[k] += v
	}
}

// insert adds the counts of the given statistics to this instance.
func (s *statistics) insert(src *statistics) {
	s.count += src.count
	mergeCounts(s.singleCount, src.singleCount)
	mergeCounts(s.pairCount, src.pairCount)
	mergeCounts(s.tripleCount, src.tripleCount)
	mergeCounts(s.quadCount, src.quadCount)
	mergeCounts(s.exitCodes, src.exitCodes)
}

// topN returns the n most frequent keys of data, ties broken by key.
func topN(data map[uint64]uint64, n int) []uint64 {
	keys := maps.Keys(data)
	slices.SortFunc(keys, func(a, b uint64) int {
		if data[a] != data[b] {
			if data[a] > data[b] {
				return -1
			}
			return 1
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	if len(keys) < n {
		return keys
	}
	return keys[:n]
}

// formatSequence renders a packed sequence of the given length.
func formatSequence(key uint64, length int) string {
	var b strings.Builder
	for i := length - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%-16v", OpCode(key>>(16*i)))
	}
	return b.String()
}

// print returns a human-readable summary of the collected statistics.
func (s *statistics) print() string {
	builder := strings.Builder{}
	write := func(format string, args ...any) {
		builder.WriteString(fmt.Sprintf(format, args...))
	}
	percent := func(count uint64) float32 {
		return float32(count*100) / float32(s.count)
	}

	write("\n----- Statistics ------\n")
	write("\nSteps: %d\n", s.count)
	sections := []struct {
		title  string
		length int
		data   map[uint64]uint64
	}{
		{"Singles", 1, s.singleCount},
		{"Pairs", 2, s.pairCount},
		{"Triples", 3, s.tripleCount},
		{"Quads", 4, s.quadCount},
	}
	for _, section := range sections {
		write("\n%s:\n", section.title)
		for _, key := range topN(section.data, 5) {
			count := section.data[key]
			write("\t%s: %d (%.2f%%)\n", formatSequence(key, section.length), count, percent(count))
		}
	}

	write("\nExit codes:\n")
	codes := maps.Keys(s.exitCodes)
	slices.Sort(codes)
	for _, code := range codes {
		write("\t%-20v: %d\n", code, s.exitCodes[code])
	}
	write("\n")

	return builder.String()
}

// statsCollector keeps track of the recent history of instructions executed
// by the VM to collect instruction sequence statistics.
type statsCollector struct {
	stats *statistics

	last       uint64
	secondLast uint64
	thirdLast  uint64
}

func (s *statsCollector) nextOp(op OpCode) {
	cur := uint64(op)
	s.stats.count++
	s.stats.singleCount[cur]++
	if s.stats.count >= 2 {
		s.stats.pairCount[s.last<<16|cur]++
	}
	if s.stats.count >= 3 {
		s.stats.tripleCount[s.secondLast<<32|s.last<<16|cur]++
	}
	if s.stats.count >= 4 {
		s.stats.quadCount[s.thirdLast<<48|s.secondLast<<32|s.last<<16|cur]++
	}
	s.last, s.secondLast, s.thirdLast = cur, s.last, s.secondLast
}
