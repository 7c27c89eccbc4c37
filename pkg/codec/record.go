package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/snksoft/crc"
)

// HeaderSize is the fixed size of the record header in bytes:
// Checksum(4) + KeySize(4) + ValueSize(4).
const HeaderSize = 12

// cksumParams is the CRC-32/CKSUM parameter set (poly 0x04C11DB7, init 0,
// non-reflected, final xor 0xFFFFFFFF). The stdlib hash/crc32 only
// implements reflected CRC-32 variants, so the checksum comes from the
// parameterizable snksoft/crc package instead.
var cksumParams = &crc.Parameters{
	Width:      32,
	Polynomial: 0x04C11DB7,
	Init:       0x00000000,
	ReflectIn:  false,
	ReflectOut: false,
	FinalXor:   0xFFFFFFFF,
}

var cksumTable = crc.NewTable(cksumParams)

// Record represents one key-value entry as stored on disk
type Record struct {
	Checksum  uint32 // CRC-32/CKSUM over key followed by value
	KeySize   uint32 // Size of the key in bytes
	ValueSize uint32 // Size of the value in bytes
	Key       []byte // Key data
	Value     []byte // Value data
}

// Size returns the total size of the record when encoded
func (r *Record) Size() int {
	return HeaderSize + len(r.Key) + len(r.Value)
}

// Checksum computes the CRC-32/CKSUM digest over key followed by value,
// without concatenating the two slices.
func Checksum(key, value []byte) uint32 {
	state := cksumTable.InitCrc()
	state = cksumTable.UpdateCrc(state, key)
	state = cksumTable.UpdateCrc(state, value)
	return uint32(cksumTable.CRC(state))
}

// CorruptionError reports a record that cannot be trusted: either its
// payload ended before the declared length (truncation) or the stored
// checksum does not match the one recomputed over the payload.
type CorruptionError struct {
	Offset    int64 // starting offset of the record, -1 if unknown
	Stored    uint32
	Computed  uint32
	Truncated bool
}

func (e *CorruptionError) Error() string {
	if e.Truncated {
		if e.Offset >= 0 {
			return fmt.Sprintf("data corruption at offset %d: truncated record payload", e.Offset)
		}
		return "data corruption: truncated record payload"
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("data corruption at offset %d: checksum mismatch (stored %08x, computed %08x)",
			e.Offset, e.Stored, e.Computed)
	}
	return fmt.Sprintf("data corruption: checksum mismatch (stored %08x, computed %08x)", e.Stored, e.Computed)
}

// RecordCodec handles serialization and deserialization of records
type RecordCodec struct{}

// NewRecordCodec creates a new record codec instance
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{}
}

// Encode serializes a key-value pair into the binary record format
// Format: [Checksum(4)][KeySize(4)][ValueSize(4)][Key][Value]
func (c *RecordCodec) Encode(key, value []byte) ([]byte, error) {
	if uint64(len(key)) > math.MaxUint32 {
		return nil, fmt.Errorf("key length %d exceeds uint32 range", len(key))
	}
	if uint64(len(value)) > math.MaxUint32 {
		return nil, fmt.Errorf("value length %d exceeds uint32 range", len(value))
	}

	buf := make([]byte, HeaderSize+len(key)+len(value))

	binary.LittleEndian.PutUint32(buf[0:], Checksum(key, value))
	binary.LittleEndian.PutUint32(buf[4:], uint32(len(key)))
	binary.LittleEndian.PutUint32(buf[8:], uint32(len(value)))
	copy(buf[HeaderSize:], key)
	copy(buf[HeaderSize+len(key):], value)

	return buf, nil
}

// Decode reads one record from r.
//
// A source exhausted before the full header has been read signals the clean
// end of the log and is reported as io.EOF. A payload shorter than the
// header declares, or a checksum mismatch, is reported as *CorruptionError.
func (c *RecordCodec) Decode(r io.Reader) (*Record, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}

	rec := &Record{
		Checksum:  binary.LittleEndian.Uint32(header[0:4]),
		KeySize:   binary.LittleEndian.Uint32(header[4:8]),
		ValueSize: binary.LittleEndian.Uint32(header[8:12]),
	}

	// Grow the payload buffer as bytes arrive rather than trusting the
	// declared lengths up front; a truncated record with an absurd length
	// field must not drive a giant allocation.
	dataLen := int64(rec.KeySize) + int64(rec.ValueSize)
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, dataLen); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &CorruptionError{Offset: -1, Stored: rec.Checksum, Truncated: true}
		}
		return nil, err
	}

	payload := buf.Bytes()
	rec.Key = payload[:rec.KeySize]
	rec.Value = payload[rec.KeySize:]

	if computed := Checksum(rec.Key, rec.Value); computed != rec.Checksum {
		return nil, &CorruptionError{Offset: -1, Stored: rec.Checksum, Computed: computed}
	}

	return rec, nil
}
