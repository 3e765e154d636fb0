package util

import "strings"

// NormalizeAddr returns the upper case form of a bluetooth address
func NormalizeAddr(a string) string {
	return strings.ToUpper(a)
}

// Reverse returns a reversed copy of b. Bluetooth stacks keep UUIDs in little endian order.
func Reverse(b []byte) []byte {
	r := make([]byte, len(b))
	for i, v := range b {
		r[len(b)-1-i] = v
	}
	return r
}
