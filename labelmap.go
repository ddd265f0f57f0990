package bisim

import "math/bits"

const (
	DEFAULT_EXPECTED_ELEMENTS = 4
	DEFAULT_LOAD_FACTOR       = 0.75
	MIN_HASH_ARRAY_LENGTH     = 4
	MAX_HASH_ARRAY_LENGTH     = 1 << 30
)

// pairKey packs two non-negative indices, such as a block and a label, into
// a single map key.
func pairKey(x, y int) uint64 {
	return uint64(uint32(x))<<32 | uint64(uint32(y))
}

// pairMap is an open-addressing map from packed index pairs to ints, with
// linear probing and backward-shift deletion. The zero key lives in an extra
// slot behind the table. Tables only grow, so a map that is emptied with
// Remove is reused without allocating.
type pairMap struct {
	keys   []uint64
	values []int

	assigned    int
	mask        uint64  // Mask for slot scans in keys.
	resizeAt    int     // Expand (rehash) keys when assigned hits this value.
	hasEmptyKey bool    // Special treatment for the "empty slot" key marker.
	loadFactor  float64 // The load factor for keys.
}

func newPairMap(expectedElements int) *pairMap {
	m := &pairMap{loadFactor: DEFAULT_LOAD_FACTOR}
	m.allocateBuffers(minBufferSize(expectedElements, m.loadFactor))
	return m
}

func (m *pairMap) Get(key uint64) (int, bool) {
	idx, ok := m.indexOf(key)
	if !ok {
		return 0, false
	}
	return m.values[idx], true
}

// Put inserts or replaces the value stored under key.
func (m *pairMap) Put(key uint64, value int) {
	idx, ok := m.indexOf(key)
	if ok {
		m.values[idx] = value
		return
	}
	if key == 0 {
		m.hasEmptyKey = true
		m.values[idx] = value
		return
	}
	if m.assigned == m.resizeAt {
		m.allocateThenInsertThenRehash(idx, key, value)
	} else {
		m.keys[idx] = key
		m.values[idx] = value
	}
	m.assigned++
}

// Remove deletes key and reports whether it was present.
func (m *pairMap) Remove(key uint64) bool {
	idx, ok := m.indexOf(key)
	if !ok {
		return false
	}
	if key == 0 {
		m.hasEmptyKey = false
		m.values[idx] = 0
		return true
	}
	m.shiftConflictingKeys(idx)
	return true
}

func (m *pairMap) Size() int {
	if m.hasEmptyKey {
		return m.assigned + 1
	}
	return m.assigned
}

func (m *pairMap) indexOf(key uint64) (int, bool) {
	if key == 0 {
		return int(m.mask + 1), m.hasEmptyKey
	}

	slot := m.hashKey(key) & m.mask
	for existing := m.keys[slot]; existing != 0; existing = m.keys[slot] {
		if existing == key {
			return int(slot), true
		}
		slot = (slot + 1) & m.mask
	}
	return int(slot), false
}

func (m *pairMap) shiftConflictingKeys(gapSlot int) {
	keys := m.keys
	values := m.values
	mask := int(m.mask)

	// Perform shifts of conflicting keys to fill in the gap.
	distance := 0
	for {
		distance++
		slot := (gapSlot + distance) & mask
		existing := keys[slot]
		if existing == 0 {
			break
		}

		idealSlot := int(m.hashKey(existing) & m.mask)
		shift := (slot - idealSlot) & mask
		if shift >= distance {
			// Entry at this position was originally at or before the gap slot.
			// Move the conflict-shifted entry to the gap's position and repeat the procedure
			// for any entries to the right of the current position, treating it
			// as the new gap.
			keys[gapSlot] = existing
			values[gapSlot] = values[slot]
			gapSlot = slot
			distance = 0
		}
	}

	// Mark the last found gap slot without a conflict as empty.
	keys[gapSlot] = 0
	values[gapSlot] = 0
	m.assigned--
}

func (m *pairMap) allocateThenInsertThenRehash(slot int, pendingKey uint64, pendingValue int) {
	prevKeys, prevValues := m.keys, m.values
	m.allocateBuffers(nextBufferSize(int(m.mask+1), m.Size(), m.loadFactor))

	// The pending element is placed into the old table and moved along with the rest.
	prevKeys[slot] = pendingKey
	prevValues[slot] = pendingValue
	m.rehash(prevKeys, prevValues)
}

func (m *pairMap) allocateBuffers(arraySize int) {
	// One extra slot for the empty key.
	m.keys = make([]uint64, arraySize+1)
	m.values = make([]int, arraySize+1)
	m.mask = uint64(arraySize - 1)
	m.resizeAt = expandAtCount(arraySize, m.loadFactor)
}

func (m *pairMap) rehash(fromKeys []uint64, fromValues []int) {
	last := len(fromKeys) - 1
	for i := 0; i < last; i++ {
		key := fromKeys[i]
		if key == 0 {
			continue
		}
		slot := m.hashKey(key) & m.mask
		for m.keys[slot] != 0 {
			slot = (slot + 1) & m.mask
		}
		m.keys[slot] = key
		m.values[slot] = fromValues[i]
	}
	m.values[m.mask+1] = fromValues[last]
}

func (m *pairMap) hashKey(key uint64) uint64 {
	return mixPhi(key)
}

func minBufferSize(elements int, loadFactor float64) int {
	if elements < DEFAULT_EXPECTED_ELEMENTS {
		elements = DEFAULT_EXPECTED_ELEMENTS
	}
	length := int(float64(elements)/loadFactor + 0.5)
	if length == elements {
		length++
	}
	length = max(MIN_HASH_ARRAY_LENGTH, nextPowerOfTwo(length))
	if length > MAX_HASH_ARRAY_LENGTH {
		panic("bisim: block label map too large")
	}
	return length
}

func nextBufferSize(arraySize, elements int, loadFactor float64) int {
	if arraySize >= MAX_HASH_ARRAY_LENGTH {
		panic("bisim: block label map too large")
	}
	return arraySize << 1
}

func expandAtCount(arraySize int, loadFactor float64) int {
	return min(arraySize-1, int(float64(arraySize)*loadFactor+0.999))
}

func nextPowerOfTwo(v int) int {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(v-1))
}
