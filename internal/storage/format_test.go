package storage

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svtk/internal/domain"
)

func testHeaderBytes(t *testing.T) []byte {
	t.Helper()
	salt, err := GenerateSalt()
	require.NoError(t, err)
	nonce, err := GenerateNonce()
	require.NoError(t, err)
	return WriteFile(CurrentVersion, DefaultKDFParams(), salt, nonce, []byte("ciphertext-bytes"))
}

func TestWriteReadRoundTrip(t *testing.T) {
	salt := [SaltSize]byte{1, 2, 3}
	nonce := [NonceSize]byte{4, 5, 6}
	ciphertext := []byte("hello sealed world")

	data := WriteFile(CurrentVersion, DefaultKDFParams(), salt, nonce, ciphertext)
	require.Len(t, data, MinHeaderSize+len(ciphertext))

	header, ct, err := ReadFile(data)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, header.Version)
	assert.Equal(t, DefaultKDFParams(), header.KDFParams)
	assert.Equal(t, salt, header.Salt)
	assert.Equal(t, nonce, header.Nonce)
	assert.Equal(t, ciphertext, ct)
}

func TestReadFileTooSmall(t *testing.T) {
	_, _, err := ReadFile([]byte("SVTK"))
	var formatErr *domain.InvalidFileFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Contains(t, formatErr.Reason, "too small")
}

func TestReadFileBadMagic(t *testing.T) {
	data := testHeaderBytes(t)
	data[0] = 'X'

	_, _, err := ReadFile(data)
	var formatErr *domain.InvalidFileFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Contains(t, formatErr.Reason, "magic")
}

func TestReadFileUnsupportedVersion(t *testing.T) {
	for _, version := range []uint16{0, CurrentVersion + 1, 999} {
		data := testHeaderBytes(t)
		binary.LittleEndian.PutUint16(data[4:6], version)

		_, _, err := ReadFile(data)
		var versionErr *domain.UnsupportedVersionError
		require.ErrorAs(t, err, &versionErr, "version %d", version)
		assert.Equal(t, version, versionErr.Version)
	}
}

func TestReadFileKDFGates(t *testing.T) {
	tests := []struct {
		name    string
		offset  int
		value   uint32
		wantMsg string
	}{
		{"memory too low", 6, 4, "memory_cost"},
		{"memory too high", 6, 2 << 20, "memory_cost"},
		{"time zero", 10, 0, "time_cost"},
		{"time too high", 10, 50, "time_cost"},
		{"parallelism zero", 14, 0, "parallelism"},
		{"parallelism too high", 14, 64, "parallelism"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := testHeaderBytes(t)
			binary.LittleEndian.PutUint32(data[tt.offset:tt.offset+4], tt.value)

			_, _, err := ReadFile(data)
			var formatErr *domain.InvalidFileFormatError
			require.ErrorAs(t, err, &formatErr)
			assert.Contains(t, formatErr.Reason, tt.wantMsg)
		})
	}
}

func TestReadFileTruncatedCiphertext(t *testing.T) {
	data := testHeaderBytes(t)
	data = data[:len(data)-4]

	_, _, err := ReadFile(data)
	var formatErr *domain.InvalidFileFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Contains(t, formatErr.Reason, "truncated")
}

func TestReadFileIgnoresTrailingBytes(t *testing.T) {
	data := testHeaderBytes(t)
	data = append(data, []byte("trailing garbage")...)

	header, ct, err := ReadFile(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(len("ciphertext-bytes")), header.CiphertextLen)
	assert.Equal(t, []byte("ciphertext-bytes"), ct)
}
