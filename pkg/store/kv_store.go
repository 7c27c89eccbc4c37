package store

import (
	"bytes"
	"io"
	"sync"
	"time"
)

// Store is the public engine: an append-only log plus the in-memory index
// built over it. One Store instance exclusively owns the data file for its
// lifetime, and a mutex serializes all operations (single writer, with
// positional reads that reposition independently).
//
// A Store has two states. After Open the index is empty and lookups give
// false negatives; after Load the index is authoritative. There is no way
// back to the unloaded state short of reopening.
type Store struct {
	config Config
	writer *LogWriter
	reader *LogReader
	index  *HashIndex
	mutex  sync.Mutex
	isOpen bool
	loaded bool
}

// NewStore creates a new store instance for the given configuration. No
// file is touched until Open.
func NewStore(config Config) (*Store, error) {
	if config.DataFile == "" {
		return nil, &KVError{"data file path is required"}
	}

	return &Store{
		config: config,
		index:  NewHashIndex(),
	}, nil
}

// Open opens the data file for read and append access, creating it if
// absent. It reads no content: the index stays empty until Load, so the
// caller controls when the recovery scan happens.
func (s *Store) Open() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isOpen {
		return nil
	}

	writer, err := NewLogWriter(LogWriterConfig{
		FilePath:      s.config.DataFile,
		FsyncInterval: s.config.FsyncInterval,
	})
	if err != nil {
		return err
	}

	reader, err := NewLogReader(LogReaderConfig{FilePath: s.config.DataFile})
	if err != nil {
		writer.Close()
		return err
	}

	s.writer = writer
	s.reader = reader
	s.isOpen = true
	s.loaded = false
	return nil
}

// Load rebuilds the index with a full forward scan of the log. On
// corruption the scan is not partially applied: the previous index stays
// in place and the CorruptionError is returned. The engine must not index
// past a corrupt record.
func (s *Store) Load() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	start := time.Now()
	err := s.loadLocked()
	metrics.observeOp("load", start, err)
	return err
}

func (s *Store) loadLocked() error {
	if !s.isOpen {
		return ErrNotOpen
	}

	if err := s.index.BuildFromLog(s.reader); err != nil {
		return err
	}

	s.loaded = true
	metrics.setStoreStats(s.index.Size(), s.writer.Size())
	return nil
}

// Get returns the value most recently written for key. The index supplies
// the offset; one positional read and decode does the rest. A key deleted
// with Delete reads back as a present, empty value, not as a miss. A decode
// failure here means the index and the file disagree and is returned as-is.
func (s *Store) Get(key []byte) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	start := time.Now()
	value, err := s.getLocked(key)
	metrics.observeOp("get", start, err)
	return value, err
}

func (s *Store) getLocked(key []byte) ([]byte, error) {
	if !s.isOpen {
		return nil, ErrNotOpen
	}

	offset, exists := s.index.Get(key)
	if !exists {
		return nil, ErrKeyNotFound
	}

	record, err := s.reader.ReadAt(offset)
	if err != nil {
		return nil, err
	}

	return record.Value, nil
}

// GetAt reads the record starting at offset, bypassing the index. It fails
// if offset does not point at a valid record header.
func (s *Store) GetAt(offset int64) (*KeyValuePair, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return nil, ErrNotOpen
	}

	record, err := s.reader.ReadAt(offset)
	if err != nil {
		if err == io.EOF {
			return nil, &KVError{"no record at offset"}
		}
		return nil, err
	}

	return &KeyValuePair{Key: record.Key, Value: record.Value}, nil
}

// Find scans the whole log from offset 0 and returns the offset and value
// of the last record whose key equals the target. It never consults the
// index, which makes it a linear-cost cross-check of Get: on a correct
// index the two agree by construction. Absence is reported as
// ErrKeyNotFound; corruption anywhere in the log aborts the scan.
func (s *Store) Find(key []byte) (int64, []byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	start := time.Now()
	offset, value, err := s.findLocked(key)
	metrics.observeOp("find", start, err)
	return offset, value, err
}

func (s *Store) findLocked(key []byte) (int64, []byte, error) {
	if !s.isOpen {
		return 0, nil, ErrNotOpen
	}

	if err := s.reader.Seek(0); err != nil {
		return 0, nil, err
	}

	var (
		found       bool
		foundOffset int64
		foundValue  []byte
	)

	for {
		offset := s.reader.Offset()

		record, err := s.reader.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, nil, err
		}

		if bytes.Equal(record.Key, key) {
			// Keep going: a later record for the same key supersedes
			// this one.
			found = true
			foundOffset = offset
			foundValue = record.Value
		}
	}

	if !found {
		return 0, nil, ErrKeyNotFound
	}
	return foundOffset, foundValue, nil
}

// Insert appends a record for the pair and points the index at it. The
// index is only updated after the append succeeds, so it never references
// a partially written record.
func (s *Store) Insert(key, value []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	start := time.Now()
	err := s.insertLocked(key, value)
	metrics.observeOp("insert", start, err)
	return err
}

func (s *Store) insertLocked(key, value []byte) error {
	if !s.isOpen {
		return ErrNotOpen
	}

	offset, err := s.writer.Append(key, value)
	if err != nil {
		return err
	}

	s.index.Put(key, offset)
	metrics.setStoreStats(s.index.Size(), s.writer.Size())
	return nil
}

// Update is identical to Insert; the log format has no notion of updating
// in place.
func (s *Store) Update(key, value []byte) error {
	return s.Insert(key, value)
}

// Delete appends an empty-value record for the key. Nothing is removed
// from the index or the file: a subsequent Get returns an empty value
// rather than ErrKeyNotFound.
func (s *Store) Delete(key []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	start := time.Now()
	err := s.insertLocked(key, nil)
	metrics.observeOp("delete", start, err)
	return err
}

// Keys returns every key currently present in the index, except the
// reserved index-snapshot sentinel.
func (s *Store) Keys() ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return nil, ErrNotOpen
	}

	keys := s.index.Keys()
	filtered := keys[:0]
	for _, key := range keys {
		if key != string(indexSnapshotKey) {
			filtered = append(filtered, key)
		}
	}
	return filtered, nil
}

// Sync flushes and fsyncs the log
func (s *Store) Sync() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return ErrNotOpen
	}
	return s.writer.Sync()
}

// Loaded reports whether the index has been built since Open
func (s *Store) Loaded() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.loaded
}

// Close shuts down the store. The index is discarded with the handle; the
// next Open starts unloaded and rebuilds it by scan.
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return nil
	}

	s.isOpen = false
	s.loaded = false

	if err := s.writer.Close(); err != nil {
		s.reader.Close()
		return err
	}

	return s.reader.Close()
}

// StoreStats holds statistics about the store
type StoreStats struct {
	Keys     int
	DataSize int64
	Loaded   bool
}

// Stats returns store statistics
func (s *Store) Stats() *StoreStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isOpen {
		return &StoreStats{}
	}

	return &StoreStats{
		Keys:     s.index.Size(),
		DataSize: s.writer.Size(),
		Loaded:   s.loaded,
	}
}
