// lcdmon
// Copyright (c) 2026 The lcdmon Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of lcdmon.
//
// lcdmon is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// lcdmon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with lcdmon.  If not, see <http://www.gnu.org/licenses/>.

package codec

import "fmt"

// FastLZ level 1 byte stream, as consumed by the display firmware:
//
//	literal run:  opcode L-1 (0..31), then L literal bytes
//	short match:  ((len-2)<<5 | dist>>8), dist&0xFF          len 3..8
//	long match:   (7<<5 | dist>>8), len-9, dist&0xFF         len 9..264
//
// where dist is the stored distance (actual distance minus one, 0..8191).
const (
	flzMaxLiteralRun = 32
	flzMinMatch      = 3
	flzMaxMatch      = 264
	flzMaxDistance   = 8192

	flzHashLog  = 13
	flzHashSize = 1 << flzHashLog
)

func flzHash(a, b, c byte) uint32 {
	v := uint32(a) | uint32(b)<<8 | uint32(c)<<16
	return (v * 2654435769) >> (32 - flzHashLog)
}

// Compress compresses src with FastLZ level 1. The output of Compress always
// begins with a literal run, matching the reference encoder.
func Compress(src []byte) []byte {
	out := make([]byte, 0, len(src)+len(src)/32+8)
	n := len(src)
	if n == 0 {
		return out
	}

	// Positions stored offset by one so the zero value means empty.
	var htab [flzHashSize]int

	anchor := 0
	ip := 0
	for ip+flzMinMatch <= n {
		h := flzHash(src[ip], src[ip+1], src[ip+2])
		ref := htab[h] - 1
		htab[h] = ip + 1

		if ref >= 0 && ip-ref <= flzMaxDistance &&
			src[ref] == src[ip] && src[ref+1] == src[ip+1] && src[ref+2] == src[ip+2] {
			length := flzMinMatch
			for ip+length < n && length < flzMaxMatch && src[ref+length] == src[ip+length] {
				length++
			}

			out = appendLiterals(out, src[anchor:ip])
			out = appendMatch(out, length, ip-ref)
			ip += length
			anchor = ip
			continue
		}

		ip++
	}

	return appendLiterals(out, src[anchor:])
}

func appendLiterals(out, lit []byte) []byte {
	for len(lit) > 0 {
		run := len(lit)
		if run > flzMaxLiteralRun {
			run = flzMaxLiteralRun
		}
		out = append(out, byte(run-1))
		out = append(out, lit[:run]...)
		lit = lit[run:]
	}
	return out
}

func appendMatch(out []byte, length, distance int) []byte {
	stored := distance - 1
	if length <= 8 {
		return append(out, byte((length-2)<<5|stored>>8), byte(stored))
	}
	return append(out, byte(7<<5|stored>>8), byte(length-9), byte(stored))
}

// Decompress expands a FastLZ level 1 stream. expectedLen is the declared
// uncompressed size; a mismatch is a framing error.
func Decompress(src []byte, expectedLen int) ([]byte, error) {
	out := make([]byte, 0, expectedLen)
	i := 0
	for i < len(src) {
		op := src[i]
		i++

		if op < flzMaxLiteralRun {
			run := int(op) + 1
			if i+run > len(src) {
				return nil, fmt.Errorf("%w: literal run past end", ErrCorrupt)
			}
			out = append(out, src[i:i+run]...)
			i += run
			continue
		}

		length := int(op >> 5)
		if length == 7 {
			if i >= len(src) {
				return nil, fmt.Errorf("%w: truncated long match", ErrCorrupt)
			}
			length += int(src[i])
			i++
		}
		length += 2

		if i >= len(src) {
			return nil, fmt.Errorf("%w: truncated match distance", ErrCorrupt)
		}
		distance := int(op&31)<<8 | int(src[i])
		i++
		distance++

		pos := len(out) - distance
		if pos < 0 {
			return nil, fmt.Errorf("%w: match distance %d before window start", ErrCorrupt, distance)
		}
		// Byte-at-a-time: matches may overlap their own output.
		for k := 0; k < length; k++ {
			out = append(out, out[pos+k])
		}
	}

	if len(out) != expectedLen {
		return nil, fmt.Errorf("%w: decompressed %d bytes, declared %d",
			ErrLengthMismatch, len(out), expectedLen)
	}
	return out, nil
}
