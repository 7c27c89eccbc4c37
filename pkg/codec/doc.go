// Package codec provides record serialization and deserialization for Munin.
//
// The codec package implements the binary record format for storing
// key-value pairs with integrity checking. This is the foundation for
// Munin's log-structured storage engine.
//
// # Record Format
//
// Records are serialized in a binary format with the following structure:
//
//	[Checksum(4)][KeySize(4)][ValueSize(4)][Key][Value]
//
// Fields:
//   - Checksum: 32-bit CRC checksum for integrity validation (little-endian)
//   - KeySize: 32-bit unsigned integer indicating key length in bytes (little-endian)
//   - ValueSize: 32-bit unsigned integer indicating value length in bytes (little-endian)
//   - Key: Variable-length key data
//   - Value: Variable-length value data
//
// The total record size is: 12 bytes (header) + len(key) + len(value).
// Payload bytes follow the header immediately, with no padding, and a log
// file is nothing but a flat sequence of these records. There is no
// file-level header or trailer; end of valid data is end of file.
//
// # Checksum
//
// The checksum is CRC-32 with the "CKSUM" parameter set (polynomial
// 0x04C11DB7, zero init, non-reflected, final xor 0xFFFFFFFF), computed
// over the key bytes followed by the value bytes. The header integers are
// not covered; corruption there surfaces as a truncation or a mismatch
// over the misread payload.
//
// # Error Handling
//
// Decode distinguishes three outcomes besides success:
//   - io.EOF: the source ended before a full header was available. This is
//     the normal end-of-log signal during a scan, not an error.
//   - *CorruptionError: the payload was shorter than the header declared,
//     or the recomputed checksum differs from the stored one. The error
//     carries both checksums for diagnostics.
//   - any other I/O error from the underlying reader, passed through.
//
// Keys and values are unconstrained byte sequences; empty keys and empty
// values round-trip like any other.
package codec
