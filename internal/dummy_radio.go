package internal

import (
	"context"
	"sync"

	"github.com/Krajiyah/ble-peripheral/pkg/models"
	"github.com/Krajiyah/ble-peripheral/pkg/util"
)

// Notification is one payload handed to DummyRadio.SendNotification
type Notification struct {
	UUID    util.UUID
	Payload []byte
}

// RadioCalls counts the calls a DummyRadio received
type RadioCalls struct {
	Init, Apply, Start, Stop, Send int
}

// DummyRadio is an in-memory models.RadioAdapter. Block channels, when set, hold the
// matching call until they are closed or the call's context ends.
type DummyRadio struct {
	InitErr  error
	ApplyErr error
	StartErr error
	StopErr  error
	SendErr  error

	StartBlock chan struct{}
	StopBlock  chan struct{}
	SendBlock  chan struct{}

	// StartIgnoresCancel makes StartAdvertising wait for StartBlock even after its context ends
	StartIgnoresCancel bool

	// Sent receives every notification as SendNotification starts handling it
	Sent chan Notification

	mu          sync.Mutex
	sink        models.RequestSink
	calls       RadioCalls
	tables      []models.ServiceTable
	options     []models.AdvertisingOptions
	subscribers map[util.UUID]bool
	advertising bool
}

// NewDummyRadio returns a radio where every characteristic has a subscriber
func NewDummyRadio() *DummyRadio {
	return &DummyRadio{Sent: make(chan Notification, 64)}
}

func wait(ctx context.Context, block chan struct{}) error {
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *DummyRadio) InitializeRadio(ctx context.Context, sink models.RequestSink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls.Init++
	if r.InitErr != nil {
		return r.InitErr
	}
	r.sink = sink
	return nil
}

func (r *DummyRadio) ApplyServiceTable(ctx context.Context, table models.ServiceTable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls.Apply++
	r.tables = append(r.tables, table)
	return r.ApplyErr
}

func (r *DummyRadio) StartAdvertising(ctx context.Context, opts models.AdvertisingOptions) error {
	r.mu.Lock()
	r.calls.Start++
	r.options = append(r.options, opts)
	r.mu.Unlock()
	waitCtx := ctx
	if r.StartIgnoresCancel {
		waitCtx = context.Background()
	}
	if err := wait(waitCtx, r.StartBlock); err != nil {
		return err
	}
	if r.StartErr != nil {
		return r.StartErr
	}
	r.mu.Lock()
	r.advertising = true
	r.mu.Unlock()
	return nil
}

func (r *DummyRadio) StopAdvertising(ctx context.Context) error {
	r.mu.Lock()
	r.calls.Stop++
	r.mu.Unlock()
	if err := wait(ctx, r.StopBlock); err != nil {
		return err
	}
	if r.StopErr != nil {
		return r.StopErr
	}
	r.mu.Lock()
	r.advertising = false
	r.mu.Unlock()
	return nil
}

// Advertising reports whether the last successful start was not followed by a successful stop
func (r *DummyRadio) Advertising() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.advertising
}

func (r *DummyRadio) SendNotification(ctx context.Context, uuid util.UUID, payload []byte) error {
	r.mu.Lock()
	r.calls.Send++
	r.mu.Unlock()
	r.Sent <- Notification{UUID: uuid, Payload: payload}
	if err := wait(ctx, r.SendBlock); err != nil {
		return err
	}
	return r.SendErr
}

// Subscribed is true unless SetSubscribed(uuid, false) was called
func (r *DummyRadio) Subscribed(uuid util.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	subscribed, ok := r.subscribers[uuid]
	return !ok || subscribed
}

func (r *DummyRadio) SetSubscribed(uuid util.UUID, subscribed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.subscribers == nil {
		r.subscribers = map[util.UUID]bool{}
	}
	r.subscribers[uuid] = subscribed
}

func (r *DummyRadio) Calls() RadioCalls {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *DummyRadio) Sink() models.RequestSink {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sink
}

func (r *DummyRadio) Tables() []models.ServiceTable {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ServiceTable{}, r.tables...)
}

func (r *DummyRadio) Options() []models.AdvertisingOptions {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AdvertisingOptions{}, r.options...)
}
