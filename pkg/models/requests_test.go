package models

import (
	"testing"

	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"gotest.tools/assert"
)

func TestSliceFrom(t *testing.T) {
	payload := []byte("S21_OF_MINE")
	assert.DeepEqual(t, SliceFrom(payload, 0), payload)
	assert.DeepEqual(t, SliceFrom(payload, 4), []byte("OF_MINE"))
	assert.DeepEqual(t, SliceFrom(payload, uint(len(payload))), []byte{})
	assert.DeepEqual(t, SliceFrom(payload, 100), []byte{})
	assert.DeepEqual(t, SliceFrom(nil, 1), []byte{})
}

func TestFailedShapes(t *testing.T) {
	assert.DeepEqual(t, ReadFailed(), ReadResult{Success: false, Payload: []byte{}})
	r := WriteFailed()
	assert.Assert(t, !r.Success)
	assert.Assert(t, r.Notify == nil)
}

func TestAdvertisingResultTruncated(t *testing.T) {
	r := AdvertisingResult{Advertised: []util.UUID{util.UUID16(0x180A)}}
	assert.Assert(t, !r.Truncated())
	r.Dropped = []util.UUID{util.UUID16(0x180F)}
	assert.Assert(t, r.Truncated())
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, NotifyQueued.String(), "Queued")
	assert.Equal(t, NotifyCoalesced.String(), "Coalesced")
	assert.Equal(t, NotifyNoSubscribers.String(), "NoSubscribers")
	assert.Equal(t, PermissionGranted.String(), "Granted")
	assert.Equal(t, PermissionDenied.String(), "Denied")
}
