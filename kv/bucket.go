// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket is a key prefix carving a namespace out of a store. Keys seen through a
// bucket view never carry the prefix.
type Bucket string

func (b Bucket) key(key []byte) []byte {
	k := make([]byte, 0, len(b)+len(key))
	return append(append(k, b...), key...)
}

// NewStore returns the view of src restricted to the bucket.
func (b Bucket) NewStore(src Store) Store {
	return &bucketStore{bucket: b, src: src}
}

// NewPutter returns a putter writing into the bucket through src, typically a Bulk
// shared with other buckets.
func (b Bucket) NewPutter(src Putter) Putter {
	return &bucketPutter{bucket: b, src: src}
}

type bucketPutter struct {
	bucket Bucket
	src    Putter
}

func (p *bucketPutter) Put(key, val []byte) error { return p.src.Put(p.bucket.key(key), val) }
func (p *bucketPutter) Delete(key []byte) error   { return p.src.Delete(p.bucket.key(key)) }

type bucketStore struct {
	bucket Bucket
	src    Store
}

func (s *bucketStore) Get(key []byte) ([]byte, error) { return s.src.Get(s.bucket.key(key)) }
func (s *bucketStore) Has(key []byte) (bool, error)   { return s.src.Has(s.bucket.key(key)) }
func (s *bucketStore) IsNotFound(err error) bool      { return s.src.IsNotFound(err) }
func (s *bucketStore) Put(key, val []byte) error      { return s.src.Put(s.bucket.key(key), val) }
func (s *bucketStore) Delete(key []byte) error        { return s.src.Delete(s.bucket.key(key)) }

func (s *bucketStore) Bulk() Bulk {
	return &bucketBulk{bucket: s.bucket, Bulk: s.src.Bulk()}
}

// Iterate walks r inside the bucket. An empty Limit stops at the end of the bucket.
func (s *bucketStore) Iterate(r Range) Iterator {
	inner := Range{Start: s.bucket.key(r.Start)}
	if len(r.Limit) == 0 {
		inner.Limit = PrefixRange([]byte(s.bucket)).Limit
	} else {
		inner.Limit = s.bucket.key(r.Limit)
	}
	return &bucketIterator{prefixLen: len(s.bucket), Iterator: s.src.Iterate(inner)}
}

type bucketBulk struct {
	bucket Bucket
	Bulk
}

func (b *bucketBulk) Put(key, val []byte) error { return b.Bulk.Put(b.bucket.key(key), val) }
func (b *bucketBulk) Delete(key []byte) error   { return b.Bulk.Delete(b.bucket.key(key)) }

type bucketIterator struct {
	prefixLen int
	Iterator
}

func (it *bucketIterator) Key() []byte { return it.Iterator.Key()[it.prefixLen:] }
