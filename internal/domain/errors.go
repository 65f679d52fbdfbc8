package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrDecryption is returned whenever decryption fails. A wrong password,
// tampered data and a truncated ciphertext are deliberately
// indistinguishable so the error cannot be used as an oracle.
var ErrDecryption = errors.New("decryption failed: wrong password or corrupted file")

// InvalidFileFormatError reports a structurally broken container file.
type InvalidFileFormatError struct {
	Reason string
}

func (e *InvalidFileFormatError) Error() string {
	return fmt.Sprintf("invalid file format: %s", e.Reason)
}

// UnsupportedVersionError reports a container version this build cannot read.
type UnsupportedVersionError struct {
	Version uint16
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported file version: %d", e.Version)
}

// EncryptionError reports a failure while deriving keys or encrypting.
type EncryptionError struct {
	Reason string
}

func (e *EncryptionError) Error() string {
	return fmt.Sprintf("encryption failed: %s", e.Reason)
}

// SerializationError reports a failure encoding in-memory state.
type SerializationError struct {
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error: %s", e.Reason)
}

// DeserializationError reports a failure decoding persisted state.
type DeserializationError struct {
	Reason string
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("deserialization error: %s", e.Reason)
}

// FileIOError reports a filesystem failure in the thin file wrappers.
type FileIOError struct {
	Reason string
}

func (e *FileIOError) Error() string {
	return fmt.Sprintf("file I/O error: %s", e.Reason)
}

// APIError reports a provider-specific failure (bad payload, missing
// data, exceeded quota).
type APIError struct {
	Provider string
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%s): %s", e.Provider, e.Message)
}

// NetworkError reports a transport-level failure. The message is
// sanitized: anything at and after the first '?' of an embedded URL is
// redacted so API keys never leak into logs or UI.
type NetworkError struct {
	Reason string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s", e.Reason)
}

// NewNetworkError wraps a transport error, redacting query strings.
func NewNetworkError(err error) *NetworkError {
	return &NetworkError{Reason: RedactQuery(err.Error())}
}

// RedactQuery strips everything at and after the first '?' in a message.
func RedactQuery(msg string) string {
	if idx := strings.IndexByte(msg, '?'); idx >= 0 {
		return msg[:idx] + "?<query redacted>"
	}
	return msg
}

// NoProviderError reports that no registered provider supports an asset type.
type NoProviderError struct {
	AssetType AssetType
}

func (e *NoProviderError) Error() string {
	return fmt.Sprintf("no provider available for asset type: %s", e.AssetType)
}

// ValidationError reports a business-rule violation. The portfolio is
// left untouched whenever one is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("event validation failed: %s", e.Reason)
}

// EventNotFoundError reports a lookup for an id not present in the log.
type EventNotFoundError struct {
	ID uuid.UUID
}

func (e *EventNotFoundError) Error() string {
	return fmt.Sprintf("event not found: %s", e.ID)
}

// PriceNotAvailableError reports that no provider had a price for the
// requested (symbol, currency, date).
type PriceNotAvailableError struct {
	Symbol   string
	Currency string
	Date     string
}

func (e *PriceNotAvailableError) Error() string {
	return fmt.Sprintf("price not available for %s in %s on %s", e.Symbol, e.Currency, e.Date)
}
