package store

import (
	"time"

	"github.com/munindb/munin/pkg/codec"
)

// LogWriterConfig holds configuration for the log writer
type LogWriterConfig struct {
	FilePath      string        // Path to the data file
	FsyncInterval time.Duration // How often to fsync (0 = every append)
	BufferSize    int           // Write buffer size
}

// LogReaderConfig holds configuration for the log reader
type LogReaderConfig struct {
	FilePath    string // Path to the data file
	StartOffset int64  // Offset to start reading from
}

// Config holds configuration for the key-value store
type Config struct {
	DataFile      string        // Path to the single log file
	FsyncInterval time.Duration // Fsync interval for durability
}

// RecordIterator provides streaming access to records
type RecordIterator interface {
	Next() bool
	Record() *codec.Record
	Err() error
}

// KeyValuePair is the decoded form of a record's payload, without the header
type KeyValuePair struct {
	Key   []byte
	Value []byte
}

// Errors
var (
	ErrKeyNotFound = &KVError{"key not found"}
	ErrNotOpen     = &KVError{"store is not open"}
)

// KVError represents a key-value store error
type KVError struct {
	Message string
}

func (e *KVError) Error() string {
	return e.Message
}
