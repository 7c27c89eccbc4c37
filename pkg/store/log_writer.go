package store

import (
	"bufio"
	"os"
	"sync"
	"time"

	"github.com/munindb/munin/pkg/codec"
)

// LogWriter handles append-only writes to the data file
type LogWriter struct {
	file       *os.File
	writer     *bufio.Writer
	codec      *codec.RecordCodec
	fsyncTimer *time.Timer
	config     LogWriterConfig
	mutex      sync.Mutex
	offset     int64 // Logical end of the file, the offset of the next append
}

// NewLogWriter creates a new log writer with the given configuration.
// The file is created if absent and opened in append mode, so every write
// lands at the logical end of the file regardless of any shared cursor.
func NewLogWriter(config LogWriterConfig) (*LogWriter, error) {
	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	bufferSize := config.BufferSize
	if bufferSize <= 0 {
		bufferSize = 64 * 1024
	}

	writer := &LogWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, bufferSize),
		codec:  codec.NewRecordCodec(),
		config: config,
		offset: stat.Size(),
	}

	if config.FsyncInterval > 0 {
		writer.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			writer.mutex.Lock()
			defer writer.mutex.Unlock()
			writer.sync() //nolint:errcheck // best effort in timer callback
		})
	}

	return writer, nil
}

// Append encodes a key-value pair, writes it at the end of the log as one
// contiguous record, and returns the offset at which the record begins.
// The buffer is flushed before returning so an interleaved positional read
// at the returned offset observes the record.
func (w *LogWriter) Append(key, value []byte) (int64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	data, err := w.codec.Encode(key, value)
	if err != nil {
		return 0, err
	}

	recordOffset := w.offset

	if _, err := w.writer.Write(data); err != nil {
		return 0, err
	}
	if err := w.writer.Flush(); err != nil {
		return 0, err
	}

	w.offset += int64(len(data))

	if w.config.FsyncInterval == 0 {
		if err := w.file.Sync(); err != nil {
			return 0, err
		}
	} else if w.fsyncTimer != nil {
		w.fsyncTimer.Reset(w.config.FsyncInterval)
	}

	return recordOffset, nil
}

// Sync forces an fsync to disk
func (w *LogWriter) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.sync()
}

func (w *LogWriter) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	return w.file.Sync()
}

// Truncate cuts the file down to size bytes. This is repair tooling, not a
// normal-operation path; the log is otherwise append-only.
func (w *LogWriter) Truncate(size int64) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if err := w.writer.Flush(); err != nil {
		return err
	}
	if err := w.file.Truncate(size); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return err
	}

	w.offset = size
	return nil
}

// Close closes the log writer and ensures all data is synced
func (w *LogWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}

	if err := w.sync(); err != nil {
		w.file.Close()
		return err
	}

	return w.file.Close()
}

// Size returns the current size of the log file
func (w *LogWriter) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Path returns the file path
func (w *LogWriter) Path() string {
	return w.config.FilePath
}
