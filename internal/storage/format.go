package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"svtk/internal/domain"
)

// Magic identifies an SVTK container file.
var Magic = [4]byte{'S', 'V', 'T', 'K'}

const (
	// CurrentVersion is the newest file format version this build writes.
	CurrentVersion uint16 = 1

	// MinHeaderSize is the fixed header length:
	// magic(4) + version(2) + kdf params(12) + salt(16) + nonce(12) + ciphertext len(8).
	MinHeaderSize = 54
)

// KDF sanity gates. A crafted header must not be able to make the
// reader allocate gigabytes or spin for minutes before the password is
// even checked.
const (
	minMemoryCost  = 8
	maxMemoryCost  = 1048576 // 1 GiB in KiB
	minTimeCost    = 1
	maxTimeCost    = 20
	minParallelism = 1
	maxParallelism = 16
)

// FileHeader is the parsed header of an .svtk file.
type FileHeader struct {
	Version       uint16
	KDFParams     KDFParams
	Salt          [SaltSize]byte
	Nonce         [NonceSize]byte
	CiphertextLen uint64
}

// WriteFile assembles a complete container file.
//
// Layout (little-endian):
//
//	[SVTK: 4B] [version: 2B] [memory_cost: 4B] [time_cost: 4B]
//	[parallelism: 4B] [salt: 16B] [nonce: 12B] [ciphertext_len: 8B]
//	[ciphertext: variable, includes GCM tag]
func WriteFile(version uint16, params KDFParams, salt [SaltSize]byte, nonce [NonceSize]byte, ciphertext []byte) []byte {
	buf := make([]byte, 0, MinHeaderSize+len(ciphertext))
	buf = append(buf, Magic[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, version)
	buf = binary.LittleEndian.AppendUint32(buf, params.MemoryCost)
	buf = binary.LittleEndian.AppendUint32(buf, params.TimeCost)
	buf = binary.LittleEndian.AppendUint32(buf, params.Parallelism)
	buf = append(buf, salt[:]...)
	buf = append(buf, nonce[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(ciphertext)))
	buf = append(buf, ciphertext...)
	return buf
}

// ReadFile parses and bounds-checks the header, returning it together
// with the ciphertext slice. Bytes past the declared ciphertext length
// are ignored.
func ReadFile(data []byte) (FileHeader, []byte, error) {
	var header FileHeader

	if len(data) < MinHeaderSize {
		return header, nil, &domain.InvalidFileFormatError{Reason: "file too small to be a valid SVTK file"}
	}
	if !bytes.Equal(data[0:4], Magic[:]) {
		return header, nil, &domain.InvalidFileFormatError{Reason: "invalid magic bytes, not an SVTK file"}
	}

	header.Version = binary.LittleEndian.Uint16(data[4:6])
	if header.Version == 0 || header.Version > CurrentVersion {
		return header, nil, &domain.UnsupportedVersionError{Version: header.Version}
	}

	header.KDFParams.MemoryCost = binary.LittleEndian.Uint32(data[6:10])
	header.KDFParams.TimeCost = binary.LittleEndian.Uint32(data[10:14])
	header.KDFParams.Parallelism = binary.LittleEndian.Uint32(data[14:18])

	if header.KDFParams.MemoryCost < minMemoryCost || header.KDFParams.MemoryCost > maxMemoryCost {
		return header, nil, &domain.InvalidFileFormatError{Reason: fmt.Sprintf(
			"KDF memory_cost out of safe range: %d KiB (expected %d..%d)",
			header.KDFParams.MemoryCost, minMemoryCost, maxMemoryCost)}
	}
	if header.KDFParams.TimeCost < minTimeCost || header.KDFParams.TimeCost > maxTimeCost {
		return header, nil, &domain.InvalidFileFormatError{Reason: fmt.Sprintf(
			"KDF time_cost out of safe range: %d (expected %d..%d)",
			header.KDFParams.TimeCost, minTimeCost, maxTimeCost)}
	}
	if header.KDFParams.Parallelism < minParallelism || header.KDFParams.Parallelism > maxParallelism {
		return header, nil, &domain.InvalidFileFormatError{Reason: fmt.Sprintf(
			"KDF parallelism out of safe range: %d (expected %d..%d)",
			header.KDFParams.Parallelism, minParallelism, maxParallelism)}
	}

	copy(header.Salt[:], data[18:34])
	copy(header.Nonce[:], data[34:46])
	header.CiphertextLen = binary.LittleEndian.Uint64(data[46:54])

	available := uint64(len(data) - MinHeaderSize)
	if header.CiphertextLen > available {
		return header, nil, &domain.InvalidFileFormatError{Reason: fmt.Sprintf(
			"file truncated: expected %d bytes of ciphertext, got %d",
			header.CiphertextLen, available)}
	}

	ciphertext := data[MinHeaderSize : MinHeaderSize+int(header.CiphertextLen)]
	return header, ciphertext, nil
}
