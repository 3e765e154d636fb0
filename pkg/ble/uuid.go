package ble

import (
	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"github.com/go-ble/ble"
)

// toBleUUID converts u into the little endian go-ble form. UUIDs in the base range
// keep their short form so they cost 2 or 4 bytes in the advertising packet.
func toBleUUID(u util.UUID) ble.UUID {
	if s, ok := u.Short(); ok {
		if s.Len() == 2 {
			return ble.UUID16(uint16(s))
		}
		b := u.Bytes()[:4]
		return ble.UUID(util.Reverse(b))
	}
	return ble.UUID(util.Reverse(u.Bytes()))
}

func toBleUUIDs(uuids []util.UUID) []ble.UUID {
	out := make([]ble.UUID, 0, len(uuids))
	for _, u := range uuids {
		out = append(out, toBleUUID(u))
	}
	return out
}
