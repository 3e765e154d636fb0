package util

import "time"

const (
	// BaseUUIDString is the Bluetooth base UUID that 16 and 32-bit short UUIDs are merged into
	BaseUUIDString = "00000000-0000-1000-8000-00805F9B34FB"
	// MaxLegacyAdvertisingPayload is the size ceiling of a legacy advertising packet in bytes
	MaxLegacyAdvertisingPayload = 31
	// AdvertisingFlagsLen is the size of the flags field every advertising packet starts with
	AdvertisingFlagsLen = 3
	// DefaultStartTimeout bounds the wait for the radio to confirm advertising has started
	DefaultStartTimeout = 5 * time.Second
	// DefaultStopTimeout bounds the wait for the radio to acknowledge advertising has stopped
	DefaultStopTimeout = 5 * time.Second
	// DefaultHandlerBudget is the latency a read or write handler is expected to stay within
	DefaultHandlerBudget = 50 * time.Millisecond
	// DefaultATTMTU is the minimum ATT MTU every central supports
	DefaultATTMTU = 23
)
