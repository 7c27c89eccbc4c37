package store

import (
	"errors"
	"io"
	"time"

	"github.com/munindb/munin/pkg/codec"
)

// RecoveryResult describes the outcome of a Verify or Repair pass
type RecoveryResult struct {
	RecordsValidated int64
	CorruptOffset    int64 // offset of the first bad record, -1 if the log is clean
	Truncated        bool  // whether Repair cut the file at CorruptOffset
	FileSizeBefore   int64
	FileSizeAfter    int64
	RecoveryTime     time.Duration
}

// Clean reports whether the scan reached the end of the log without
// finding corruption
func (r *RecoveryResult) Clean() bool {
	return r.CorruptOffset < 0
}

// Verify scans the log from offset 0 and reports how far it stays
// decodable. Unlike Load, a corrupt record is a finding, not a failure:
// it is reported in the result rather than returned as an error. Only
// real I/O errors fail the call. The file is not modified.
func (s *Store) Verify() (*RecoveryResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	start := time.Now()
	result, err := s.verifyLocked()
	metrics.observeOp("verify", start, err)
	if err == nil {
		result.RecoveryTime = time.Since(start)
		if !result.Clean() {
			metrics.corruptionTotal.Inc()
		}
	}
	return result, err
}

func (s *Store) verifyLocked() (*RecoveryResult, error) {
	if !s.isOpen {
		return nil, ErrNotOpen
	}

	size := s.writer.Size()
	result := &RecoveryResult{
		CorruptOffset:  -1,
		FileSizeBefore: size,
		FileSizeAfter:  size,
	}

	if err := s.reader.Seek(0); err != nil {
		return nil, err
	}

	for {
		offset := s.reader.Offset()

		_, err := s.reader.ReadNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			var corruption *codec.CorruptionError
			if errors.As(err, &corruption) {
				result.CorruptOffset = offset
				break
			}
			return nil, err
		}

		result.RecordsValidated++
	}

	return result, nil
}

// Repair runs Verify and, if the scan stopped at a corrupt record,
// truncates the file at that record's starting offset so that only the
// valid prefix remains. The index is rebuilt afterwards when the store had
// already been loaded, since entries may point past the cut. This is the
// one operation that shortens the log; everything else only appends.
func (s *Store) Repair() (*RecoveryResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	start := time.Now()
	result, err := s.repairLocked()
	metrics.observeOp("repair", start, err)
	if err == nil {
		result.RecoveryTime = time.Since(start)
	}
	return result, err
}

func (s *Store) repairLocked() (*RecoveryResult, error) {
	result, err := s.verifyLocked()
	if err != nil {
		return nil, err
	}

	if result.Clean() {
		return result, nil
	}

	if err := s.writer.Truncate(result.CorruptOffset); err != nil {
		return nil, err
	}
	result.Truncated = true
	result.FileSizeAfter = result.CorruptOffset

	if s.loaded {
		if err := s.index.BuildFromLog(s.reader); err != nil {
			return nil, err
		}
		metrics.setStoreStats(s.index.Size(), s.writer.Size())
	}

	return result, nil
}
