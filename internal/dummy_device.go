package internal

import (
	"context"
	"sync"

	"github.com/go-ble/ble"
)

// DummyDevice stands in for a go-ble device in adapter tests
type DummyDevice struct {
	SetServicesErr error
	// AdvertiseErr, when set, is returned right away by AdvertiseNameAndServices
	AdvertiseErr error

	mu         sync.Mutex
	services   []*ble.Service
	advertised []ble.UUID
	name       string
	advertises int
	removes    int
	stopped    bool
}

func NewDummyDevice() *DummyDevice { return &DummyDevice{} }

func (d *DummyDevice) SetServices(svcs []*ble.Service) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SetServicesErr != nil {
		return d.SetServicesErr
	}
	d.services = svcs
	return nil
}

func (d *DummyDevice) RemoveAllServices() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removes++
	d.services = nil
	return nil
}

// AdvertiseNameAndServices blocks until ctx is done, like a real device
func (d *DummyDevice) AdvertiseNameAndServices(ctx context.Context, name string, uuids ...ble.UUID) error {
	d.mu.Lock()
	d.advertises++
	d.name = name
	d.advertised = uuids
	err := d.AdvertiseErr
	d.mu.Unlock()
	if err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

func (d *DummyDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	return nil
}

func (d *DummyDevice) Services() []*ble.Service {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.services
}

func (d *DummyDevice) Advertised() (string, []ble.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name, d.advertised
}

func (d *DummyDevice) Removes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.removes
}

func (d *DummyDevice) Stopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}
