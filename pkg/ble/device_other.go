//go:build !linux && !darwin

package ble

import (
	"runtime"

	"github.com/go-ble/ble"
	"github.com/pkg/errors"
)

func newDevice(int) (ble.Device, error) {
	return nil, errors.Errorf("no bluetooth support on %s", runtime.GOOS)
}
