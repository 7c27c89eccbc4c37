package store

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// indexSnapshotKey is the reserved key under which a serialized index is
// stored in the log. The framing NUL bytes keep it out of the space of
// keys the CLI can produce; programs writing raw binary keys must avoid
// it.
var indexSnapshotKey = []byte("\x00munin:index\x00")

// snapshotEntry is one key-to-offset pair in a serialized index. JSON
// base64-encodes []byte, which keeps arbitrary binary keys intact.
type snapshotEntry struct {
	Key    []byte `json:"key"`
	Offset int64  `json:"offset"`
}

// indexSnapshot is the payload stored under the sentinel key. LogSize is
// the offset of the snapshot record itself, i.e. the size of the log at
// the moment the snapshot was taken; everything at or after that offset is
// not covered by Entries.
type indexSnapshot struct {
	SavedAt time.Time       `json:"saved_at"`
	LogSize int64           `json:"log_size"`
	Entries []snapshotEntry `json:"entries"`
}

func (s *Store) hintPath() string {
	return s.config.DataFile + ".hint"
}

// SaveIndexSnapshot serializes the current index and appends it to the log
// under the reserved sentinel key, then records the snapshot record's
// offset in a sidecar hint file. The snapshot is a best-effort accelerator
// for LoadCached; the full scan in Load remains the ground truth and never
// consults it.
func (s *Store) SaveIndexSnapshot() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	start := time.Now()
	err := s.saveIndexSnapshotLocked()
	metrics.observeOp("snapshot_save", start, err)
	return err
}

func (s *Store) saveIndexSnapshotLocked() error {
	if !s.isOpen {
		return ErrNotOpen
	}

	entries := s.index.Snapshot()
	delete(entries, string(indexSnapshotKey)) // never snapshot the snapshot

	snapshot := indexSnapshot{
		SavedAt: time.Now().UTC(),
		LogSize: s.writer.Size(),
		Entries: make([]snapshotEntry, 0, len(entries)),
	}
	for key, offset := range entries {
		snapshot.Entries = append(snapshot.Entries, snapshotEntry{Key: []byte(key), Offset: offset})
	}

	blob, err := json.Marshal(&snapshot)
	if err != nil {
		return err
	}

	offset, err := s.writer.Append(indexSnapshotKey, blob)
	if err != nil {
		return err
	}
	s.index.Put(indexSnapshotKey, offset)

	return writeFileAtomic(s.hintPath(), []byte(strconv.FormatInt(offset, 10)+"\n"))
}

// LoadCached tries to seed the index from the most recent snapshot instead
// of a full scan: it follows the sidecar hint to the snapshot record,
// validates it, installs its entries, and then scans only the log suffix
// written after the snapshot. Any validation failure silently falls back
// to the authoritative full Load; a stale snapshot must never diverge from
// the scan-derived truth. The returned bool reports whether the snapshot
// was actually used.
func (s *Store) LoadCached() (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	start := time.Now()
	fromSnapshot, err := s.loadCachedLocked()
	metrics.observeOp("load_cached", start, err)
	return fromSnapshot, err
}

func (s *Store) loadCachedLocked() (bool, error) {
	if !s.isOpen {
		return false, ErrNotOpen
	}

	snapshot, offset, ok := s.readSnapshot()
	if !ok {
		return false, s.loadLocked()
	}

	entries := make(map[string]int64, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		entries[string(entry.Key)] = entry.Offset
	}

	// Catch up on everything written at or after the snapshot record,
	// including the snapshot record itself.
	if err := s.reader.Seek(offset); err != nil {
		return false, err
	}
	for {
		recordOffset := s.reader.Offset()

		record, err := s.reader.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			// The suffix is corrupt; the snapshot cannot be trusted
			// to paper over it. Surface it exactly like Load would.
			return false, err
		}

		entries[string(record.Key)] = recordOffset
	}

	s.index.Replace(entries)
	s.loaded = true
	metrics.setStoreStats(s.index.Size(), s.writer.Size())
	return true, nil
}

// readSnapshot locates and validates the latest snapshot record. ok is
// false whenever anything about the hint or the record is off; the callers
// then ignore the snapshot entirely.
func (s *Store) readSnapshot() (*indexSnapshot, int64, bool) {
	raw, err := os.ReadFile(s.hintPath())
	if err != nil {
		return nil, 0, false
	}

	offset, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil || offset < 0 || offset >= s.writer.Size() {
		return nil, 0, false
	}

	record, err := s.reader.ReadAt(offset)
	if err != nil {
		return nil, 0, false
	}
	if !bytes.Equal(record.Key, indexSnapshotKey) {
		return nil, 0, false
	}

	var snapshot indexSnapshot
	if err := json.Unmarshal(record.Value, &snapshot); err != nil {
		return nil, 0, false
	}

	// The snapshot must have been taken exactly at its own offset;
	// anything else means the hint points at an older snapshot of a
	// different file generation.
	if snapshot.LogSize != offset {
		return nil, 0, false
	}

	return &snapshot, offset, true
}

// writeFileAtomic writes via a temp file and rename so a crash never
// leaves a half-written hint.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
