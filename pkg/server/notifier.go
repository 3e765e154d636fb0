package server

import (
	"context"
	"sync"

	"github.com/Krajiyah/ble-peripheral/pkg/models"
	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type notifySlot struct {
	pending []byte
	full    bool
	running bool
}

// Emitter delivers notifications through the radio adapter. Every characteristic has a
// single pending slot: a payload offered while another one waits replaces it.
// One goroutine per characteristic drains its slot while there is work.
// A payload already handed to the adapter is not recalled by later offers.
type Emitter struct {
	adapter models.RadioAdapter
	logger  *logrus.Entry
	onError func(error)

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	slots  map[util.UUID]*notifySlot
	closed bool
	wg     sync.WaitGroup
}

// NewEmitter returns an emitter sending through adapter. onError receives delivery failures.
func NewEmitter(adapter models.RadioAdapter, logger *logrus.Logger, onError func(error)) *Emitter {
	ctx, cancel := context.WithCancel(context.Background())
	if onError == nil {
		onError = func(error) {}
	}
	return &Emitter{
		adapter: adapter,
		logger:  logger.WithField("component", "emitter"),
		onError: onError,
		ctx:     ctx,
		cancel:  cancel,
		slots:   map[util.UUID]*notifySlot{},
	}
}

// Offer places payload in the slot of uuid and starts delivery if none is running.
// A closed emitter discards payload.
func (e *Emitter) Offer(uuid util.UUID, payload []byte) models.NotifyStatus {
	data := append([]byte{}, payload...)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return models.NotifyNoSubscribers
	}
	slot, ok := e.slots[uuid]
	if !ok {
		slot = &notifySlot{}
		e.slots[uuid] = slot
	}
	status := models.NotifyQueued
	if slot.full {
		status = models.NotifyCoalesced
	}
	slot.pending = data
	slot.full = true
	if !slot.running {
		slot.running = true
		e.wg.Add(1)
		go e.deliver(e.ctx, uuid, slot)
	}
	return status
}

func (e *Emitter) deliver(ctx context.Context, uuid util.UUID, slot *notifySlot) {
	defer e.wg.Done()
	log := e.logger.WithField("uuid", uuid)
	for {
		e.mu.Lock()
		if !slot.full || ctx.Err() != nil {
			slot.running = false
			e.mu.Unlock()
			return
		}
		payload := slot.pending
		slot.pending = nil
		slot.full = false
		e.mu.Unlock()

		err := e.adapter.SendNotification(ctx, uuid, payload)
		switch {
		case err == nil:
		case errors.Cause(err) == models.ErrNotSubscribed:
			log.Debug("notification dropped, no central subscribed")
		case ctx.Err() != nil:
			log.Debug("notification abandoned on reset")
		default:
			err = errors.Wrapf(err, "SendNotification issue for %s", uuid)
			log.WithError(err).Error("notification delivery failed")
			e.onError(err)
		}
	}
}

// Open lets a closed emitter accept offers again
func (e *Emitter) Open() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = false
}

// Reset drops pending payloads, cancels deliveries in flight and closes the emitter
func (e *Emitter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.cancel()
	for _, slot := range e.slots {
		slot.pending = nil
		slot.full = false
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.slots = map[util.UUID]*notifySlot{}
}

// Wait blocks until every delivery goroutine has drained its slot
func (e *Emitter) Wait() {
	e.wg.Wait()
}
