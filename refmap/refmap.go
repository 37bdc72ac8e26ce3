// Package refmap implements the per-seqset-entry reference-placement
// bitmap (spec.md §3.5, §4.3): for every seqset entry, whether it also
// occurs in the reference, in which orientation(s), and how many times.
package refmap

import (
	"sync"

	"github.com/grailbio/base/traverse"

	"github.com/grailbio/biograph/reference"
	"github.com/grailbio/biograph/seqset"
)

const (
	// KMinChunkSize is the minimum length of a reference chunk processed by
	// one parallel worker (spec.md §4.3 step 1).
	KMinChunkSize = 1 << 16
	// KNumFlushBuckets partitions the seqset index space into
	// independently-locked buckets (spec.md §4.3 step 3).
	KNumFlushBuckets = 32
	// KFlushBucketSize bounds how many updates a worker batches locally
	// before flushing to a shared bucket.
	KFlushBucketSize = 1024

	maxCount = 63
)

const (
	fwdBit = 1 << 6
	revBit = 1 << 7
	// bits 0-5 hold count, saturating at maxCount.
	countMask = 0x3f
)

// RefMap is the packed byte-per-seqset-entry bitmap.
type RefMap struct {
	bytes []byte
}

// Entry is the decoded view of one RefMap byte.
type Entry struct {
	FwdMatch bool
	RevMatch bool
	Count    int
}

// New allocates a zeroed RefMap sized for a seqset of the given size.
func New(seqsetSize int) *RefMap {
	return &RefMap{bytes: make([]byte, seqsetSize)}
}

// Bytes returns the packed byte-per-entry representation, for a caller
// that wants to persist a RefMap (e.g. --ref-map's on-disk cache) rather
// than rebuild it from the reference every run.
func (rm *RefMap) Bytes() []byte { return rm.bytes }

// FromBytes wraps an already-decoded packed byte slice as a RefMap. The
// caller is responsible for having produced b from Bytes of a RefMap built
// against a seqset of the matching size; FromBytes does no validation of
// its own.
func FromBytes(b []byte) *RefMap {
	return &RefMap{bytes: b}
}

// Get decodes the entry for a seqset_id.
func (rm *RefMap) Get(id int) Entry {
	b := rm.bytes[id]
	return Entry{
		FwdMatch: b&fwdBit != 0,
		RevMatch: b&revBit != 0,
		Count:    int(b & countMask),
	}
}

// valid reports whether e records at least one reference placement.
// RefMap stores only orientation bits and a count per entry, not
// positions, so this package has no lookup of where a uniquely-placed
// entry (Count==1) lies in the reference.
func (e Entry) valid() bool { return e.Count > 0 && (e.FwdMatch || e.RevMatch) }

// or atomically ORs flag bits into byte id and bumps its saturating count
// by one, used while walking the reference under a per-bucket lock.
func (rm *RefMap) or(id int, fwd, rev bool) {
	b := rm.bytes[id]
	count := int(b & countMask)
	if count < maxCount {
		count++
	}
	var flags byte
	if fwd || b&fwdBit != 0 {
		flags |= fwdBit
	}
	if rev || b&revBit != 0 {
		flags |= revBit
	}
	rm.bytes[id] = flags | byte(count)
}

type bucketLocks struct {
	mu [KNumFlushBuckets]sync.Mutex
}

func (bl *bucketLocks) bucketFor(id, seqsetSize int) int {
	if seqsetSize == 0 {
		return 0
	}
	return (id * KNumFlushBuckets) / (seqsetSize + 1)
}

type pendingUpdate struct {
	id  int
	rev bool
}

// Build scans every scaffold of ref against ss, walking push_front_drop
// forward and reverse-complement-wise, and marking every seqset id touched
// along the way (spec.md §4.3). Chunks of at least KMinChunkSize bases are
// processed in parallel via traverse.Each, each worker batching up to
// KFlushBucketSize updates before flushing into one of KNumFlushBuckets
// sharded locks — the same traverse.Each + sharded-lock idiom
// fusion/kmer_index.go uses to build its own parallel hash table.
func Build(ss *seqset.Seqset, ref *reference.Reference) (*RefMap, error) {
	rm := New(ss.Size())
	locks := &bucketLocks{}

	type chunk struct {
		scaffold   reference.ScaffoldInfo
		start, end int // scaffold-local bounds
	}
	var chunks []chunk
	for _, sc := range ref.Scaffolds {
		for start := 0; start < sc.Length; start += KMinChunkSize {
			end := start + KMinChunkSize
			if end > sc.Length {
				end = sc.Length
			}
			chunks = append(chunks, chunk{scaffold: sc, start: start, end: end})
		}
	}

	flush := func(pending map[int][]pendingUpdate) {
		for bucket, ups := range pending {
			locks.mu[bucket].Lock()
			for _, u := range ups {
				rm.or(u.id, !u.rev, u.rev)
			}
			locks.mu[bucket].Unlock()
		}
	}

	err := traverse.Each(len(chunks), func(ci int) error {
		c := chunks[ci]
		pending := make(map[int][]pendingUpdate)
		markRange := func(r seqset.Range, rev bool) {
			if !r.Valid() {
				return
			}
			for id := r.Begin(); id < r.End(); id++ {
				b := locks.bucketFor(id, ss.Size())
				pending[b] = append(pending[b], pendingUpdate{id: id, rev: rev})
				if len(pending[b]) >= KFlushBucketSize {
					locks.mu[b].Lock()
					for _, u := range pending[b] {
						rm.or(u.id, !u.rev, u.rev)
					}
					locks.mu[b].Unlock()
					pending[b] = pending[b][:0]
				}
			}
		}

		walk(ss, c.scaffold, c.start, c.end, markRange)
		flush(pending)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rm, nil
}

// walk performs the forward and reverse-complement push_front_drop scans
// over scaffold[start:end], calling mark(range,reverse) at every position
// whose resulting range is non-trivial.
//
// Restarting at an N (spec.md §4.3 step 2) is handled by operating
// directly on ScaffoldInfo.Extents rather than the padded Scaffold view:
// Build chunks scaffolds at KMinChunkSize boundaries, not extent
// boundaries, so walk clips each extent to [start,end) and starts a fresh
// context at every extent.
func walk(ss *seqset.Seqset, sc reference.ScaffoldInfo, start, end int, mark func(seqset.Range, bool)) {
	for _, ext := range sc.Extents {
		lo := max(ext.Start, start)
		hi := min(ext.End, end)
		if lo >= hi {
			continue
		}
		seq := ext.Seq[lo-ext.Start : hi-ext.Start]

		fwd := ss.CtxBegin()
		rev := ss.CtxBegin()
		for _, b := range seq {
			fwd = fwd.PushFrontDrop(b)
			mark(fwd, false)
			rev = rev.PushFrontDrop(b.Complement())
			mark(rev, true)
		}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
