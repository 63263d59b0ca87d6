// Copyright (c) 2019 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv is the storage contract of the pool. Module state and the chain head
// window are written through it, and lvldb provides the durable implementation.
package kv

import "github.com/syndtr/goleveldb/leveldb/util"

// Getter reads single keys. A missing key is an error recognized by IsNotFound.
type Getter interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool
}

// Putter writes single keys.
type Putter interface {
	Put(key, val []byte) error
	Delete(key []byte) error
}

// Bulk batches writes. Nothing is visible until Write returns, and a failed Write applies nothing.
type Bulk interface {
	Putter
	Len() int
	Write() error
}

// Iterator walks a Range in ascending key order. Release must be called when done.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

// Range selects keys in [Start, Limit). A nil Limit is unbounded.
type Range struct {
	Start []byte
	Limit []byte
}

// PrefixRange selects every key starting with prefix.
func PrefixRange(prefix []byte) Range {
	r := util.BytesPrefix(prefix)
	return Range{Start: r.Start, Limit: r.Limit}
}

// Store is a complete key value store.
type Store interface {
	Getter
	Putter

	Bulk() Bulk
	Iterate(r Range) Iterator
}
