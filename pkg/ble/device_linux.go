package ble

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
)

func newDevice(hci int) (ble.Device, error) {
	return linux.NewDevice(ble.OptDeviceID(hci))
}
