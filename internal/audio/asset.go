// Package audio defines the immutable audio asset descriptor and the
// content fingerprint used as the transcription cache key.
package audio

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Format identifies the container/codec of an inbound audio clip.
type Format string

const (
	FormatMP3   Format = "mp3"
	FormatWAV   Format = "wav"
	FormatWebM  Format = "webm"
	FormatOGG   Format = "ogg"
	FormatOther Format = "other"
)

// ParseFormat maps a user-supplied format name or file extension to a
// Format. Unknown values degrade to FormatOther rather than failing.
func ParseFormat(value string) Format {
	value = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(value, ".")))
	switch value {
	case "mp3":
		return FormatMP3
	case "wav", "wave":
		return FormatWAV
	case "webm":
		return FormatWebM
	case "ogg", "oga", "opus":
		return FormatOGG
	default:
		return FormatOther
	}
}

// FormatFromContentType maps an HTTP Content-Type to a Format.
func FormatFromContentType(contentType string) Format {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	switch contentType {
	case "audio/mpeg", "audio/mp3":
		return FormatMP3
	case "audio/wav", "audio/x-wav", "audio/wave":
		return FormatWAV
	case "audio/webm", "video/webm":
		return FormatWebM
	case "audio/ogg", "application/ogg", "audio/opus":
		return FormatOGG
	default:
		return FormatOther
	}
}

// Extension returns the file extension used when handing the clip to
// the transcription backend.
func (f Format) Extension() string {
	switch f {
	case FormatMP3, FormatWAV, FormatWebM, FormatOGG:
		return string(f)
	default:
		return "mp3"
	}
}

// Asset is an immutable descriptor of a raw audio clip. It carries the
// byte size and declared format only; duration is estimated downstream.
type Asset struct {
	SizeBytes int64
	Format    Format
}

// NewAsset builds an asset descriptor for a raw clip.
func NewAsset(sizeBytes int64, format Format) Asset {
	return Asset{SizeBytes: sizeBytes, Format: format}
}

// Fingerprint returns the hex SHA-256 digest of the raw audio bytes.
// Keys are derived from the pre-optimization content so re-encoding
// settings cannot fragment the cache.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
