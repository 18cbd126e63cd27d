package sync

import (
	"encoding/binary"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring consistently hashes keys onto the stripe indices [0, size)
type ring struct {
	points *treemap.Map

	// first caches the stripe at the lowest point, where keys hashing past
	// the last point wrap around to.
	first int
}

// newRing places replicationFactor points on the ring for each stripe
func newRing(size int, replicationFactor uint) *ring {
	points := treemap.NewWith(utils.Int64Comparator)

	point := make([]byte, 12)
	for stripe := 0; stripe < size; stripe++ {
		binary.LittleEndian.PutUint64(point, uint64(stripe))
		for replica := uint(0); replica < replicationFactor; replica++ {
			binary.LittleEndian.PutUint32(point[8:], uint32(replica))
			points.Put(int64(murmur3.Sum64(point)), stripe)
		}
	}

	r := &ring{points: points}
	if _, stripe := points.Min(); stripe != nil {
		r.first = stripe.(int)
	}
	return r
}

// stripe returns the stripe owning the first point at or after the key's hash
func (r *ring) stripe(key []byte) int {
	_, stripe := r.points.Ceiling(int64(murmur3.Sum64(key)))
	if stripe == nil {
		return r.first
	}
	return stripe.(int)
}
