// Copyright (c) 2026 The cash2 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuild

import (
	"encoding/binary"

	"github.com/DCL2019/cash2/core"
)

// EncodeMessages appends each TransactionMessage as a length-prefixed
// (address, message) pair to extra, returning the combined extra buffer.
// Recovered from the original wallet core's per-destination memo feature
// (see SPEC_FULL.md §12). Only the framing happens here, and nothing in
// the send path encrypts the memo: address and message bytes are written
// into extra as given.
func EncodeMessages(extra []byte, messages []core.TransactionMessage) []byte {
	out := append([]byte(nil), extra...)
	for _, m := range messages {
		out = appendLengthPrefixed(out, []byte(m.Address))
		out = appendLengthPrefixed(out, []byte(m.Message))
	}
	return out
}

func appendLengthPrefixed(buf []byte, field []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(field)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, field...)
	return buf
}
