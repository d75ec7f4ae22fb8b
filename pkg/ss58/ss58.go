// Package ss58 implements the SS58 account address format and holds the
// process-wide default address format.
package ss58

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// Format is a network address format identifier.
type Format uint16

const (
	// Generic is the format used when a chain declares none.
	Generic Format = 42
	// MaxEncodable is the largest format that fits the two-byte prefix.
	MaxEncodable Format = 16383
	// PropertyKey is the chain-spec property carrying the format.
	PropertyKey = "ss58Format"

	checksumLength  = 2
	publicKeyLength = 32
)

var checksumPrefix = []byte("SS58PRE")

var (
	ErrInvalidProperty = errors.New("invalid ss58 format property")
	ErrBadChecksum     = errors.New("invalid ss58 checksum")
	ErrBadLength       = errors.New("invalid ss58 address length")
	ErrFormatTooLarge  = errors.New("ss58 format not encodable")
)

var defaultFormat atomic.Uint32

func init() {
	defaultFormat.Store(uint32(Generic))
}

// SetDefault replaces the process-wide default format.
func SetDefault(f Format) {
	defaultFormat.Store(uint32(f))
}

// Default returns the process-wide default format.
func Default() Format {
	return Format(defaultFormat.Load())
}

// FormatFromProperty converts a chain-spec property value into a Format. The
// value must be a non-negative integer no larger than 65535.
func FormatFromProperty(v any) (Format, error) {
	var n uint64
	switch x := v.(type) {
	case json.Number:
		u, err := parseNumber(x)
		if err != nil {
			return 0, err
		}
		n = u
	case float64:
		if x < 0 || x != math.Trunc(x) || x > math.MaxUint16 {
			return 0, fmt.Errorf("%w: %v", ErrInvalidProperty, x)
		}
		n = uint64(x)
	case int:
		if x < 0 {
			return 0, fmt.Errorf("%w: %d is negative", ErrInvalidProperty, x)
		}
		n = uint64(x)
	case int64:
		if x < 0 {
			return 0, fmt.Errorf("%w: %d is negative", ErrInvalidProperty, x)
		}
		n = uint64(x)
	case uint64:
		n = x
	case uint32:
		n = uint64(x)
	case uint16:
		n = uint64(x)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidProperty, v)
	}

	if n > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d does not fit in 16 bits", ErrInvalidProperty, n)
	}
	return Format(n), nil
}

func parseNumber(n json.Number) (uint64, error) {
	if i, err := n.Int64(); err == nil {
		if i < 0 {
			return 0, fmt.Errorf("%w: %d is negative", ErrInvalidProperty, i)
		}
		return uint64(i), nil
	}
	f, err := n.Float64()
	if err != nil || f < 0 || f != math.Trunc(f) || f > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidProperty, n.String())
	}
	return uint64(f), nil
}

// Encode returns the SS58 address of a 32-byte public key.
func Encode(pub []byte, f Format) (string, error) {
	if len(pub) != publicKeyLength {
		return "", fmt.Errorf("%w: public key is %d bytes", ErrBadLength, len(pub))
	}
	prefix, err := encodePrefix(f)
	if err != nil {
		return "", err
	}

	body := append(prefix, pub...)
	sum := checksum(body)
	return base58.Encode(append(body, sum[:checksumLength]...)), nil
}

// Decode parses an address and returns its public key and format.
func Decode(addr string) ([]byte, Format, error) {
	data, err := base58.Decode(addr)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid base58: %w", err)
	}
	if len(data) < 2 {
		return nil, 0, ErrBadLength
	}

	var (
		f         Format
		prefixLen int
	)
	switch {
	case data[0] < 64:
		f, prefixLen = Format(data[0]), 1
	case data[0] < 128:
		lower := (data[0] << 2) | (data[1] >> 6)
		upper := data[1] & 0b0011_1111
		f, prefixLen = Format(lower)|Format(upper)<<8, 2
	default:
		return nil, 0, fmt.Errorf("%w: reserved prefix byte %d", ErrBadLength, data[0])
	}

	if len(data) != prefixLen+publicKeyLength+checksumLength {
		return nil, 0, fmt.Errorf("%w: %d bytes", ErrBadLength, len(data))
	}

	body := data[:prefixLen+publicKeyLength]
	sum := checksum(body)
	if !bytes.Equal(sum[:checksumLength], data[len(body):]) {
		return nil, 0, ErrBadChecksum
	}

	pub := make([]byte, publicKeyLength)
	copy(pub, data[prefixLen:])
	return pub, f, nil
}

func encodePrefix(f Format) ([]byte, error) {
	switch {
	case f < 64:
		return []byte{byte(f)}, nil
	case f <= MaxEncodable:
		first := byte((f&0b0000_0000_1111_1100)>>2) | 0b0100_0000
		second := byte(f>>8) | byte((f&0b0000_0000_0000_0011)<<6)
		return []byte{first, second}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrFormatTooLarge, f)
	}
}

func checksum(body []byte) [blake2b.Size]byte {
	data := make([]byte, 0, len(checksumPrefix)+len(body))
	data = append(data, checksumPrefix...)
	data = append(data, body...)
	return blake2b.Sum512(data)
}
