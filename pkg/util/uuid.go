package util

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// UUID is a 128-bit Bluetooth UUID. Two UUIDs are equal iff their 128-bit values are equal,
// so a UUID can be compared with == and used as a map key.
type UUID uuid.UUID

// ShortUUID is the 16 or 32-bit alias of a UUID that lies in the Bluetooth base range.
// It is kept as its own type: a UUID is never shortened or widened implicitly.
type ShortUUID uint32

// BaseUUID is the Bluetooth base UUID that short UUIDs are merged into
var BaseUUID = UUID(uuid.MustParse(BaseUUIDString))

// UUID16 merges a 16-bit short UUID into the Bluetooth base UUID.
func UUID16(v uint16) UUID { return ShortUUID(v).UUID() }

// UUID32 merges a 32-bit short UUID into the Bluetooth base UUID.
func UUID32(v uint32) UUID { return ShortUUID(v).UUID() }

// ParseUUID accepts 4 hex digits (16-bit short form), 8 hex digits (32-bit short form)
// or any full textual form understood by github.com/google/uuid.
func ParseUUID(s string) (UUID, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	switch len(trimmed) {
	case 4, 8:
		v, err := strconv.ParseUint(trimmed, 16, 32)
		if err != nil {
			return UUID{}, errors.Wrapf(err, "invalid short uuid %q", s)
		}
		return ShortUUID(v).UUID(), nil
	}
	u, err := uuid.Parse(trimmed)
	if err != nil {
		return UUID{}, errors.Wrapf(err, "invalid uuid %q", s)
	}
	return UUID(u), nil
}

// MustParseUUID is like ParseUUID but panics if s cannot be parsed.
func MustParseUUID(s string) UUID {
	u, err := ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// String returns the canonical upper case form, e.g. 0000180A-0000-1000-8000-00805F9B34FB.
func (u UUID) String() string {
	return strings.ToUpper(uuid.UUID(u).String())
}

// IsZero reports whether u is the nil UUID.
func (u UUID) IsZero() bool { return u == UUID{} }

// Short returns the short form of u when u lies in the Bluetooth base range.
func (u UUID) Short() (ShortUUID, bool) {
	if [12]byte(u[4:]) != [12]byte(BaseUUID[4:]) {
		return 0, false
	}
	return ShortUUID(binary.BigEndian.Uint32(u[:4])), true
}

// WireLen is the number of bytes u occupies in an advertising packet:
// 2 for 16-bit short UUIDs, 4 for 32-bit short UUIDs and 16 otherwise.
func (u UUID) WireLen() int {
	s, ok := u.Short()
	if !ok {
		return 16
	}
	return s.Len()
}

// Bytes returns the big endian (textual order) bytes of u.
func (u UUID) Bytes() []byte {
	b := make([]byte, 16)
	copy(b, u[:])
	return b
}

// UUID merges s into the Bluetooth base UUID.
func (s ShortUUID) UUID() UUID {
	u := BaseUUID
	binary.BigEndian.PutUint32(u[:4], uint32(s))
	return u
}

// Len is 2 for values that fit in 16 bits and 4 otherwise.
func (s ShortUUID) Len() int {
	if s <= 0xFFFF {
		return 2
	}
	return 4
}

func (s ShortUUID) String() string {
	if s.Len() == 2 {
		return fmt.Sprintf("%04X", uint32(s))
	}
	return fmt.Sprintf("%08X", uint32(s))
}
