package store

import (
	"bufio"
	"io"
	"math"
	"os"

	"github.com/munindb/munin/pkg/codec"
)

// LogReader provides access to records in a log file: a buffered sequential
// cursor for scans, and positional reads that never touch that cursor.
type LogReader struct {
	file   *os.File
	reader *bufio.Reader
	codec  *codec.RecordCodec
	offset int64
	config LogReaderConfig
}

// NewLogReader creates a new log reader for the specified file
func NewLogReader(config LogReaderConfig) (*LogReader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			file.Close()
			return nil, err
		}
	}

	return &LogReader{
		file:   file,
		reader: bufio.NewReader(file),
		codec:  codec.NewRecordCodec(),
		offset: config.StartOffset,
		config: config,
	}, nil
}

// ReadNext reads the record at the sequential cursor and advances past it.
// io.EOF marks the clean end of the log; corruption errors are annotated
// with the offset at which the bad record starts.
func (r *LogReader) ReadNext() (*codec.Record, error) {
	start := r.offset

	record, err := r.codec.Decode(r.reader)
	if err != nil {
		if corruption, ok := err.(*codec.CorruptionError); ok {
			corruption.Offset = start
		}
		return nil, err
	}

	r.offset += int64(record.Size())
	return record, nil
}

// ReadAt reads the record starting at the given offset. The read goes
// through an io.SectionReader over the shared file handle, so it positions
// itself independently and interleaves safely with sequential scans and
// appends.
func (r *LogReader) ReadAt(offset int64) (*codec.Record, error) {
	section := io.NewSectionReader(r.file, offset, math.MaxInt64-offset)

	record, err := r.codec.Decode(section)
	if err != nil {
		if corruption, ok := err.(*codec.CorruptionError); ok {
			corruption.Offset = offset
		}
		return nil, err
	}

	return record, nil
}

// Seek moves the sequential cursor
func (r *LogReader) Seek(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	r.reader.Reset(r.file) // discard buffered bytes from the old position
	r.offset = offset
	return nil
}

// Offset returns the current sequential cursor position
func (r *LogReader) Offset() int64 {
	return r.offset
}

// Iterator returns a streaming iterator over records from the current
// cursor position
func (r *LogReader) Iterator() RecordIterator {
	return &logRecordIterator{reader: r}
}

// Close closes the log reader
func (r *LogReader) Close() error {
	return r.file.Close()
}

// logRecordIterator implements RecordIterator for streaming access
type logRecordIterator struct {
	reader *LogReader
	record *codec.Record
	err    error
}

func (it *logRecordIterator) Next() bool {
	it.record, it.err = it.reader.ReadNext()
	return it.err == nil
}

func (it *logRecordIterator) Record() *codec.Record {
	return it.record
}

// Err returns the error that stopped iteration, or nil if the log ended
// cleanly.
func (it *logRecordIterator) Err() error {
	if it.err == io.EOF {
		return nil
	}
	return it.err
}
