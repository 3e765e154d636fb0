package ble

import (
	"context"
	"sync"
	"time"

	"github.com/Krajiyah/ble-peripheral/pkg/models"
	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"github.com/go-ble/ble"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultSettle is how long advertising must run without error before a start counts as confirmed
	DefaultSettle = 200 * time.Millisecond

	userDescriptionUUID = 0x2901
)

var errNotOpened = errors.New("bluetooth device not opened")

// Radio is a models.RadioAdapter over a go-ble device
type Radio struct {
	hci     int
	settle  time.Duration
	logger  *logrus.Entry
	methods coreMethods

	mu        sync.Mutex
	sink      models.RequestSink
	notifiers map[util.UUID]map[string]ble.Notifier
	advCancel context.CancelFunc
	advDone   chan error
}

// NewRadio returns a radio that opens the hci device (ignored on darwin) on initialization
func NewRadio(hci int, logger *logrus.Logger) *Radio {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Radio{
		hci:       hci,
		settle:    DefaultSettle,
		logger:    logger.WithField("component", "radio"),
		notifiers: map[util.UUID]map[string]ble.Notifier{},
	}
}

// InitializeRadio opens the device and keeps sink for incoming requests
func (r *Radio) InitializeRadio(ctx context.Context, sink models.RequestSink) error {
	r.mu.Lock()
	r.sink = sink
	opened := r.methods != nil
	r.mu.Unlock()
	if opened {
		return nil
	}
	var device ble.Device
	err := retry(ctx, r.logger, "newDevice", func() error {
		d, err := newDevice(r.hci)
		device = d
		return err
	})
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.methods = &realCoreMethods{device}
	r.mu.Unlock()
	r.logger.WithField("hci", r.hci).Info("bluetooth device opened")
	return nil
}

// ApplyServiceTable replaces the services the device exposes
func (r *Radio) ApplyServiceTable(ctx context.Context, table models.ServiceTable) error {
	svcs := make([]*ble.Service, 0, len(table))
	for _, svc := range table {
		s := ble.NewService(toBleUUID(svc.UUID))
		for _, c := range svc.Characteristics {
			s.AddCharacteristic(r.newCharacteristic(c))
		}
		svcs = append(svcs, s)
	}
	core := r.core()
	if core == nil {
		return errNotOpened
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "service table abandoned")
	}
	if err := core.SetServices(svcs); err != nil {
		return errors.Wrap(err, "SetServices issue: ")
	}
	return nil
}

func (r *Radio) newCharacteristic(c models.Characteristic) *ble.Characteristic {
	bc := ble.NewCharacteristic(toBleUUID(c.UUID))
	if c.Properties.Readable() {
		bc.HandleRead(ble.ReadHandlerFunc(r.readHandler(c.UUID)))
	}
	if c.Properties.Writable() {
		bc.HandleWrite(ble.WriteHandlerFunc(r.writeHandler(c.UUID, !c.Properties.Has(models.PropWrite))))
	}
	if c.Properties.Has(models.PropNotify) {
		bc.HandleNotify(ble.NotifyHandlerFunc(r.notifyHandler(c.UUID)))
	}
	if c.Properties.Has(models.PropIndicate) {
		bc.HandleIndicate(ble.NotifyHandlerFunc(r.notifyHandler(c.UUID)))
	}
	// the Handle* helpers widen the property bits
	bc.Property = ble.Property(c.Properties)
	if c.Name != "" {
		bc.NewDescriptor(ble.UUID16(userDescriptionUUID)).SetValue([]byte(c.Name))
	}
	return bc
}

func (r *Radio) currentSink() models.RequestSink {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sink
}

func (r *Radio) core() coreMethods {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.methods
}

func (r *Radio) readHandler(uuid util.UUID) func(ble.Request, ble.ResponseWriter) {
	return func(req ble.Request, rsp ble.ResponseWriter) {
		offset := req.Offset()
		if offset < 0 {
			offset = 0
		}
		sink := r.currentSink()
		if sink == nil {
			rsp.SetStatus(ble.ErrAttrNotFound)
			return
		}
		res := sink.DispatchRead(models.ReadRequest{CharacteristicUUID: uuid, Offset: uint(offset)})
		if !res.Success {
			rsp.SetStatus(ble.ErrAttrNotFound)
			return
		}
		payload := res.Payload
		if c := rsp.Cap(); len(payload) > c {
			payload = payload[:c]
		}
		rsp.Write(payload)
	}
}

func (r *Radio) writeHandler(uuid util.UUID, withoutResponse bool) func(ble.Request, ble.ResponseWriter) {
	return func(req ble.Request, rsp ble.ResponseWriter) {
		sink := r.currentSink()
		if sink == nil {
			rsp.SetStatus(ble.ErrWriteNotPerm)
			return
		}
		res := sink.DispatchWrite(models.WriteRequest{
			CharacteristicUUID: uuid,
			Payload:            append([]byte{}, req.Data()...),
			WithoutResponse:    withoutResponse,
		})
		if !res.Success {
			rsp.SetStatus(ble.ErrWriteNotPerm)
		}
	}
}

func remoteKey(req ble.Request) string {
	if req.Conn() == nil {
		return ""
	}
	return util.NormalizeAddr(req.Conn().RemoteAddr().String())
}

// notifyHandler keeps the central's notifier registered until it unsubscribes or disconnects
func (r *Radio) notifyHandler(uuid util.UUID) func(ble.Request, ble.Notifier) {
	return func(req ble.Request, n ble.Notifier) {
		addr := remoteKey(req)
		log := r.logger.WithFields(logrus.Fields{"uuid": uuid, "central": addr})
		r.mu.Lock()
		if r.notifiers[uuid] == nil {
			r.notifiers[uuid] = map[string]ble.Notifier{}
		}
		r.notifiers[uuid][addr] = n
		r.mu.Unlock()
		log.Info("central subscribed")

		<-n.Context().Done()

		r.mu.Lock()
		if r.notifiers[uuid][addr] == n {
			delete(r.notifiers[uuid], addr)
		}
		r.mu.Unlock()
		log.Info("central unsubscribed")
	}
}

// Subscribed reports whether any central listens to uuid
func (r *Radio) Subscribed(uuid util.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notifiers[uuid]) > 0
}

// SendNotification writes payload to every subscribed central, cut to what each one accepts
func (r *Radio) SendNotification(ctx context.Context, uuid util.UUID, payload []byte) error {
	r.mu.Lock()
	notifiers := make([]ble.Notifier, 0, len(r.notifiers[uuid]))
	for _, n := range r.notifiers[uuid] {
		notifiers = append(notifiers, n)
	}
	r.mu.Unlock()
	if len(notifiers) == 0 {
		return errors.Wrapf(models.ErrNotSubscribed, "notify %s", uuid)
	}
	var lastErr error
	delivered := 0
	for _, n := range notifiers {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		data := payload
		if c := n.Cap(); c > 0 && len(data) > c {
			data = data[:c]
		}
		if _, err := n.Write(data); err != nil {
			r.logger.WithError(err).WithField("uuid", uuid).Warn("notification write failed")
			lastErr = err
			continue
		}
		delivered++
	}
	if delivered == 0 && lastErr != nil {
		return errors.Wrap(lastErr, "Notifier.Write issue: ")
	}
	return nil
}

// StartAdvertising starts advertising in the background. It fails if the device reports
// an error within the settle window.
func (r *Radio) StartAdvertising(ctx context.Context, opts models.AdvertisingOptions) error {
	core := r.core()
	if core == nil {
		return errNotOpened
	}
	uuids := toBleUUIDs(opts.ServiceUUIDs)
	advCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- core.AdvertiseNameAndServices(advCtx, opts.LocalName, uuids...)
	}()
	r.mu.Lock()
	r.advCancel = cancel
	r.advDone = done
	r.mu.Unlock()

	timer := time.NewTimer(r.settle)
	defer timer.Stop()
	select {
	case <-timer.C:
		r.logger.WithFields(logrus.Fields{"name": opts.LocalName, "services": len(uuids)}).Info("advertising")
		return nil
	case err := <-done:
		r.clearAdvertising(cancel)
		if err == nil {
			err = errors.New("advertising ended right after start")
		}
		return errors.Wrap(err, "AdvertiseNameAndServices issue: ")
	case <-ctx.Done():
		r.clearAdvertising(cancel)
		return ctx.Err()
	}
}

func (r *Radio) clearAdvertising(cancel context.CancelFunc) {
	cancel()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advCancel = nil
	r.advDone = nil
}

// StopAdvertising cancels advertising, forgets subscribers and removes all services
func (r *Radio) StopAdvertising(ctx context.Context) error {
	r.mu.Lock()
	cancel, done := r.advCancel, r.advDone
	r.advCancel = nil
	r.advDone = nil
	r.notifiers = map[util.UUID]map[string]ble.Notifier{}
	core := r.methods
	r.mu.Unlock()
	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if core == nil {
		return nil
	}
	if err := core.RemoveAllServices(); err != nil {
		return errors.Wrap(err, "RemoveAllServices issue: ")
	}
	return nil
}

// Close releases the device
func (r *Radio) Close() error {
	core := r.core()
	if core == nil {
		return nil
	}
	return core.Stop()
}
