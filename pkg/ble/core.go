package ble

import (
	"context"

	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"github.com/go-ble/ble"
)

// coreMethods is the part of a go-ble device the radio drives
type coreMethods interface {
	SetServices([]*ble.Service) error
	RemoveAllServices() error
	AdvertiseNameAndServices(context.Context, string, ...ble.UUID) error
	Stop() error
}

// realCoreMethods shields callers from panics raised inside the platform stack
type realCoreMethods struct {
	device ble.Device
}

func (m *realCoreMethods) SetServices(svcs []*ble.Service) error {
	return util.CatchErrs(func() error {
		return m.device.SetServices(svcs)
	})
}

func (m *realCoreMethods) RemoveAllServices() error {
	return util.CatchErrs(m.device.RemoveAllServices)
}

func (m *realCoreMethods) AdvertiseNameAndServices(ctx context.Context, name string, uuids ...ble.UUID) error {
	return util.CatchErrs(func() error {
		return m.device.AdvertiseNameAndServices(ctx, name, uuids...)
	})
}

func (m *realCoreMethods) Stop() error {
	return util.CatchErrs(m.device.Stop)
}
