package store

import (
	"io"
	"sync"
)

// HashIndex maps each key to the byte offset of its most recent record in
// the log. It is a derived structure: always reconstructable by a forward
// scan, and the sole authority consulted by Get.
type HashIndex struct {
	entries map[string]int64
	mutex   sync.RWMutex
}

// NewHashIndex creates a new, empty hash index
func NewHashIndex() *HashIndex {
	return &HashIndex{
		entries: make(map[string]int64),
	}
}

// Put adds or updates the offset for a key
func (idx *HashIndex) Put(key []byte, offset int64) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries[string(key)] = offset
}

// Get retrieves the offset for a key
func (idx *HashIndex) Get(key []byte) (int64, bool) {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	offset, exists := idx.entries[string(key)]
	return offset, exists
}

// Delete removes a key from the index. The core read and write paths never
// call this; it exists for the index snapshot tooling, which strips its
// own sentinel entry before serializing.
func (idx *HashIndex) Delete(key []byte) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	delete(idx.entries, string(key))
}

// Size returns the number of keys in the index
func (idx *HashIndex) Size() int {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	return len(idx.entries)
}

// Clear removes all entries from the index
func (idx *HashIndex) Clear() {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries = make(map[string]int64)
}

// Keys returns all keys in the index
func (idx *HashIndex) Keys() []string {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	keys := make([]string, 0, len(idx.entries))
	for key := range idx.entries {
		keys = append(keys, key)
	}
	return keys
}

// Snapshot returns a copy of the current mapping
func (idx *HashIndex) Snapshot() map[string]int64 {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	entries := make(map[string]int64, len(idx.entries))
	for key, offset := range idx.entries {
		entries[key] = offset
	}
	return entries
}

// Replace swaps the whole mapping in one step
func (idx *HashIndex) Replace(entries map[string]int64) {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.entries = entries
}

// BuildFromLog scans the log from offset 0 and rebuilds the index. A record
// at a higher offset for the same key supersedes any earlier one, so every
// key ends up mapped to its last occurrence. On corruption the existing
// mapping is left untouched and the error is returned; a partial scan must
// never be applied.
func (idx *HashIndex) BuildFromLog(reader *LogReader) error {
	if err := reader.Seek(0); err != nil {
		return err
	}

	entries := make(map[string]int64)
	for {
		offset := reader.Offset()

		record, err := reader.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		entries[string(record.Key)] = offset
	}

	idx.Replace(entries)
	return nil
}
