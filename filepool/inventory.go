package filepool

import "sync"

// idKind selects which of the two deques an operation applies to.
type idKind int

const (
	dirtyKind idKind = iota
	cleanKind
)

// InventoryState is a point-in-time snapshot of an Inventory's counters.
type InventoryState struct {
	ChunkSize    uint32
	MetaPageSize uint32
	BlockSize    uint32

	DirtyLeft        uint64
	CleanLeft        uint64
	PreallocatedLeft uint64

	FailedAllocations     uint64
	SuccessfulAllocations uint64
	FailedCleans          uint64
	SuccessfulCleans      uint64

	FormatProgressNumerator   uint64
	FormatProgressDenominator uint64
}

// Inventory holds the two id deques, the allocation high-water mark, and
// aggregate counters, all serialized by a single mutex. No Inventory
// operation blocks on I/O; every method here touches memory only.
type Inventory struct {
	mu sync.Mutex

	dirty  []uint64
	clean  []uint64
	nextID uint64

	chunkSize    uint32
	metaPageSize uint32
	blockSize    uint32

	failedAllocations     uint64
	successfulAllocations uint64
	failedCleans          uint64
	successfulCleans      uint64

	progressNumerator   uint64
	progressDenominator uint64
}

// NewInventory returns an empty Inventory describing chunk files of the
// given geometry.
func NewInventory(chunkSize, metaPageSize, blockSize uint32) *Inventory {
	return &Inventory{
		chunkSize:    chunkSize,
		metaPageSize: metaPageSize,
		blockSize:    blockSize,
		nextID:       1,
	}
}

func (inv *Inventory) deque(kind idKind) *[]uint64 {
	if kind == dirtyKind {
		return &inv.dirty
	}
	return &inv.clean
}

// Pop removes and returns the top of the dirty or clean deque.
func (inv *Inventory) Pop(kind idKind) (uint64, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	stack := inv.deque(kind)
	n := len(*stack)
	if n == 0 {
		return 0, false
	}
	id := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return id, true
}

// Push adds id to the dirty or clean deque, bumping nextID if necessary
// so that nextID stays greater than every id ever tracked.
func (inv *Inventory) Push(kind idKind, id uint64) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	stack := inv.deque(kind)
	*stack = append(*stack, id)
	if id >= inv.nextID {
		inv.nextID = id + 1
	}
}

// BumpNextID returns the current nextID, then increments it.
func (inv *Inventory) BumpNextID() uint64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	id := inv.nextID
	inv.nextID++
	return id
}

// SetNextID raises nextID to id if id is larger; it never lowers it. Used
// by the Scanner once it knows the largest id observed on disk.
func (inv *Inventory) SetNextID(id uint64) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if id > inv.nextID {
		inv.nextID = id
	}
}

// AllIDs returns a copy of every id currently tracked, in no particular
// order. Used by the Formatter to validate Scanner results before
// allocating new ids.
func (inv *Inventory) AllIDs() []uint64 {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	ids := make([]uint64, 0, len(inv.dirty)+len(inv.clean))
	ids = append(ids, inv.dirty...)
	ids = append(ids, inv.clean...)
	return ids
}

// RecordAllocation updates the allocation success/failure counters.
func (inv *Inventory) RecordAllocation(success bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if success {
		inv.successfulAllocations++
	} else {
		inv.failedAllocations++
	}
}

// RecordClean updates the clean success/failure counters.
func (inv *Inventory) RecordClean(success bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if success {
		inv.successfulCleans++
	} else {
		inv.failedCleans++
	}
}

// SetProgress sets the Formatter's progress numerator and denominator, in
// bytes. Both are zeroed once formatting completes.
func (inv *Inventory) SetProgress(numerator, denominator uint64) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.progressNumerator = numerator
	inv.progressDenominator = denominator
}

// AddProgress adds delta bytes to the Formatter's progress numerator.
func (inv *Inventory) AddProgress(delta uint64) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.progressNumerator += delta
}

// Snapshot returns a copy of the Inventory's counters.
func (inv *Inventory) Snapshot() InventoryState {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	return InventoryState{
		ChunkSize:    inv.chunkSize,
		MetaPageSize: inv.metaPageSize,
		BlockSize:    inv.blockSize,

		DirtyLeft:        uint64(len(inv.dirty)),
		CleanLeft:        uint64(len(inv.clean)),
		PreallocatedLeft: uint64(len(inv.dirty) + len(inv.clean)),

		FailedAllocations:     inv.failedAllocations,
		SuccessfulAllocations: inv.successfulAllocations,
		FailedCleans:          inv.failedCleans,
		SuccessfulCleans:      inv.successfulCleans,

		FormatProgressNumerator:   inv.progressNumerator,
		FormatProgressDenominator: inv.progressDenominator,
	}
}

// Clear empties both deques. Used by UnInitialize; the caller must have
// already stopped the Cleaner.
func (inv *Inventory) Clear() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.dirty = nil
	inv.clean = nil
}
