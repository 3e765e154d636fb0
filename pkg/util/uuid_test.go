package util

import (
	"bytes"
	"testing"

	"gotest.tools/assert"
)

func TestUUID16(t *testing.T) {
	u := UUID16(0x180A)
	assert.Equal(t, u.String(), "0000180A-0000-1000-8000-00805F9B34FB")
	assert.Equal(t, u, MustParseUUID("0000180a-0000-1000-8000-00805f9b34fb"))
	assert.Equal(t, u, MustParseUUID("180A"))
	assert.Equal(t, u.WireLen(), 2)
}

func TestUUID32(t *testing.T) {
	u := UUID32(0xC000180A)
	assert.Equal(t, u.String(), "C000180A-0000-1000-8000-00805F9B34FB")
	assert.Equal(t, u, MustParseUUID("C000180A"))
	s, ok := u.Short()
	assert.Assert(t, ok)
	assert.Equal(t, s, ShortUUID(0xC000180A))
	assert.Equal(t, s.Len(), 4)
	assert.Equal(t, u.WireLen(), 4)
}

func TestShortAndFullStayDistinct(t *testing.T) {
	custom := MustParseUUID("12345678-0000-1000-1996-00805F9B34FB")
	_, ok := custom.Short()
	assert.Assert(t, !ok)
	assert.Equal(t, custom.WireLen(), 16)

	s, ok := UUID16(0x180F).Short()
	assert.Assert(t, ok)
	assert.Equal(t, s.String(), "180F")
	assert.Equal(t, s.UUID(), UUID16(0x180F))
	assert.Assert(t, UUID16(0x180F) != UUID16(0x180A))
}

func TestParseUUIDErrors(t *testing.T) {
	_, err := ParseUUID("zz0A")
	assert.ErrorContains(t, err, "invalid short uuid")
	for _, malformed := range []string{"12zz", "180G", "1234567z", "+18A", "0x12 4"} {
		_, err = ParseUUID(malformed)
		assert.ErrorContains(t, err, "invalid short uuid", malformed)
	}
	_, err = ParseUUID("not-a-uuid")
	assert.ErrorContains(t, err, "invalid uuid")
	assert.Assert(t, UUID{}.IsZero())
	assert.Assert(t, !BaseUUID.IsZero())
	assert.Equal(t, BaseUUID.String(), BaseUUIDString)
}

func TestReverse(t *testing.T) {
	cases := []struct {
		fwd  []byte
		back []byte
	}{
		{fwd: []byte{0, 1}, back: []byte{1, 0}},
		{fwd: []byte{0, 1, 2}, back: []byte{2, 1, 0}},
		{fwd: []byte{0, 1, 2, 3}, back: []byte{3, 2, 1, 0}},
	}
	for _, tt := range cases {
		got := Reverse(tt.fwd)
		if !bytes.Equal(got, tt.back) {
			t.Errorf("Reverse(%x): got %x want %x", tt.fwd, got, tt.back)
		}
	}
}

func TestNormalizeAddr(t *testing.T) {
	assert.Equal(t, NormalizeAddr("aa:bb:cc:dd:ee:ff"), "AA:BB:CC:DD:EE:FF")
}
