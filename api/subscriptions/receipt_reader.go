// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/pkg/errors"

	"github.com/vechain/stakepool/builtin/protocol"
)

// receiptReader reads committed receipts in sequence order, optionally only those of some ops.
type receiptReader struct {
	pool  *protocol.Pool
	after uint64
	ops   map[string]bool
}

func newReceiptReader(p *protocol.Pool, after uint64, ops map[string]bool) *receiptReader {
	return &receiptReader{pool: p, after: after, ops: ops}
}

func (r *receiptReader) Read() ([]any, error) {
	receipts := r.pool.Receipts(r.after)
	if len(receipts) == 0 {
		return nil, nil
	}
	// a reader falling behind the cache would skip operations silently
	if receipts[0].Seq != r.after+1 {
		return nil, errors.Errorf("receipts after %d evicted", r.after)
	}
	r.after = receipts[len(receipts)-1].Seq

	msgs := make([]any, 0, len(receipts))
	for _, receipt := range receipts {
		if len(r.ops) > 0 && !r.ops[receipt.Op] {
			continue
		}
		msgs = append(msgs, receipt)
	}
	return msgs, nil
}
