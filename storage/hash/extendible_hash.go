package hash

import (
	"sync"

	"github.com/zhukovaskychina/xmysql-storage/storage/common"
	"github.com/zhukovaskychina/xmysql-storage/util"
)

// Hasher maps a key to the bit string the directory indexes with.
type Hasher[K comparable] func(key K) uint64

// PageIDHasher hashes a page id through xxhash over its byte encoding.
func PageIDHasher(pageID common.PageID) uint64 {
	return util.HashCode(util.ConvertInt4Bytes(int32(pageID)))
}

// IntHasher hashes an integer key by identity, so the low bits of the key
// are the low bits the directory sees.
func IntHasher(key int) uint64 {
	return uint64(key)
}

// bucket 哈希桶
type bucket[K comparable, V any] struct {
	localDepth int
	items      map[K]V
}

func newBucket[K comparable, V any](depth int) *bucket[K, V] {
	return &bucket[K, V]{
		localDepth: depth,
		items:      make(map[K]V),
	}
}

// ExtendibleHash is a key/value table that grows by splitting buckets.
// The directory has 2^globalDepth slots; slots agreeing in the low
// localDepth bits share a bucket. Buckets split on overflow, the directory
// doubles when a full-depth bucket splits, and nothing ever shrinks.
type ExtendibleHash[K comparable, V any] struct {
	mu sync.Mutex

	globalDepth int
	bucketSize  int
	hasher      Hasher[K]
	directory   []*bucket[K, V]
}

// NewExtendibleHash creates a table with a single depth-0 bucket holding at
// most bucketSize entries.
func NewExtendibleHash[K comparable, V any](bucketSize int, hasher Hasher[K]) *ExtendibleHash[K, V] {
	if bucketSize <= 0 {
		bucketSize = common.BucketSize
	}
	return &ExtendibleHash[K, V]{
		globalDepth: 0,
		bucketSize:  bucketSize,
		hasher:      hasher,
		directory:   []*bucket[K, V]{newBucket[K, V](0)},
	}
}

// bucketIndex 计算键所属的目录槽位
func (h *ExtendibleHash[K, V]) bucketIndex(key K) uint64 {
	return h.hasher(key) & ((1 << uint(h.globalDepth)) - 1)
}

// Find looks the key up in its addressed bucket.
func (h *ExtendibleHash[K, V]) Find(key K) (V, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	v, ok := h.directory[h.bucketIndex(key)].items[key]
	return v, ok
}

// Insert puts the key/value pair into the table. An existing key is
// overwritten in place; an overflowing bucket is split.
func (h *ExtendibleHash[K, V]) Insert(key K, value V) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b := h.directory[h.bucketIndex(key)]
	if _, ok := b.items[key]; ok {
		b.items[key] = value
		return
	}

	b.items[key] = value
	if len(b.items) <= h.bucketSize {
		return
	}
	h.splitBucket(b)
}

// Remove deletes the key from its addressed bucket.
func (h *ExtendibleHash[K, V]) Remove(key K) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	b := h.directory[h.bucketIndex(key)]
	if _, ok := b.items[key]; !ok {
		return false
	}
	delete(b.items, key)
	return true
}

// splitBucket splits the overflowing bucket, doubling the directory first
// when the bucket already uses every directory bit. Keys are only re-hashed
// here, on the mutation path; a stable table never moves entries.
func (h *ExtendibleHash[K, V]) splitBucket(b *bucket[K, V]) {
	if b.localDepth == h.globalDepth {
		// Double the directory: each new upper slot mirrors the slot
		// that differs only in the new top bit.
		h.globalDepth++
		size := 1 << uint(h.globalDepth)
		grown := make([]*bucket[K, V], size)
		copy(grown, h.directory)
		for i := size / 2; i < size; i++ {
			grown[i] = grown[i^(size/2)]
		}
		h.directory = grown
	}

	depth := b.localDepth + 1
	splitBit := uint64(1) << uint(depth-1)
	b0 := newBucket[K, V](depth)
	b1 := newBucket[K, V](depth)

	for k, v := range b.items {
		if h.hasher(k)&splitBit != 0 {
			b1.items[k] = v
		} else {
			b0.items[k] = v
		}
	}

	for i := range h.directory {
		if h.directory[i] != b {
			continue
		}
		if uint64(i)&splitBit != 0 {
			h.directory[i] = b1
		} else {
			h.directory[i] = b0
		}
	}

	// One side can still overflow when the hash bits refuse to spread;
	// split again, biggest first.
	if len(b0.items) > h.bucketSize || len(b1.items) > h.bucketSize {
		next := b0
		if len(b1.items) > len(b0.items) {
			next = b1
		}
		h.splitBucket(next)
	}
}

// GlobalDepth returns the number of low hash bits the directory indexes by.
func (h *ExtendibleHash[K, V]) GlobalDepth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.globalDepth
}

// LocalDepth returns the depth of the bucket at the given directory slot.
func (h *ExtendibleHash[K, V]) LocalDepth(slot int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.directory[slot].localDepth
}

// NumBuckets returns the directory length, 2^globalDepth.
func (h *ExtendibleHash[K, V]) NumBuckets() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.directory)
}

// Size returns the number of stored entries.
func (h *ExtendibleHash[K, V]) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[*bucket[K, V]]struct{}, len(h.directory))
	total := 0
	for _, b := range h.directory {
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		total += len(b.items)
	}
	return total
}

// Validate checks the directory sharing invariants: every bucket's local
// depth is bounded by the global depth, and all slots pointing at one
// bucket agree in their low localDepth bits.
func (h *ExtendibleHash[K, V]) Validate() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	low := make(map[*bucket[K, V]]uint64)
	for i, b := range h.directory {
		if b.localDepth > h.globalDepth {
			return errLocalDepthTooDeep
		}
		mask := uint64(1)<<uint(b.localDepth) - 1
		bits := uint64(i) & mask
		if prev, ok := low[b]; ok && prev != bits {
			return errDirectorySharing
		}
		low[b] = bits
	}
	return nil
}
