package server

import (
	"time"

	"github.com/Krajiyah/ble-peripheral/pkg/models"
	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Dispatcher bridges requests arriving from the radio to the installed handlers.
// It is the models.RequestSink handed to the radio adapter on initialization.
type Dispatcher struct {
	server   *GattServer
	handlers *handlerSlots
	logger   *logrus.Entry
}

func newDispatcher(server *GattServer, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		server:   server,
		handlers: newHandlerSlots(),
		logger:   logger.WithField("component", "dispatcher"),
	}
}

// DispatchRead answers a read. Unknown or unreadable characteristics get the failure shape.
func (d *Dispatcher) DispatchRead(req models.ReadRequest) models.ReadResult {
	res, err := d.read(req)
	if err != nil {
		d.report(err)
	}
	return res
}

func (d *Dispatcher) read(req models.ReadRequest) (models.ReadResult, error) {
	s := d.server
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := d.logger.WithField("uuid", req.CharacteristicUUID)
	char, service, ok := s.registry.Characteristic(req.CharacteristicUUID)
	if !ok {
		log.Debug("read of unknown characteristic")
		return models.ReadFailed(), nil
	}
	if !char.Properties.Readable() {
		log.WithField("properties", char.Properties).Debug("read of characteristic without Read")
		return models.ReadFailed(), nil
	}
	req.ServiceUUID = service
	handler := d.handlers.reader()
	var res models.ReadResult
	err := d.timed(log, "read", func() error {
		res = handler.HandleRead(req)
		return nil
	})
	if err != nil {
		return models.ReadFailed(), errors.Wrapf(err, "read handler issue for %s", req.CharacteristicUUID)
	}
	return models.ReadResult{Success: res.Success, Payload: models.SliceFrom(res.Payload, req.Offset)}, nil
}

// DispatchWrite answers a write. A result naming a notify target enqueues a notification
// without waiting for its delivery.
func (d *Dispatcher) DispatchWrite(req models.WriteRequest) models.WriteResult {
	res, err := d.write(req)
	if err != nil {
		d.report(err)
	}
	return res
}

func (d *Dispatcher) write(req models.WriteRequest) (models.WriteResult, error) {
	s := d.server
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := d.logger.WithField("uuid", req.CharacteristicUUID)
	char, service, ok := s.registry.Characteristic(req.CharacteristicUUID)
	if !ok {
		log.Debug("write to unknown characteristic")
		return models.WriteFailed(), nil
	}
	if !char.Properties.Writable() {
		log.WithField("properties", char.Properties).Debug("write to characteristic without Write")
		return models.WriteFailed(), nil
	}
	req.ServiceUUID = service
	handler := d.handlers.writer()
	var res models.WriteResult
	err := d.timed(log, "write", func() error {
		res = handler.HandleWrite(req)
		return nil
	})
	if err != nil {
		return models.WriteFailed(), errors.Wrapf(err, "write handler issue for %s", req.CharacteristicUUID)
	}
	if res.Notify == nil {
		return res, nil
	}
	payload := res.NotifyPayload
	if payload == nil {
		payload = req.Payload
	}
	status, err := s.notify(s.registry, s.state, *res.Notify, payload)
	if err != nil {
		log.WithError(err).WithField("target", *res.Notify).Warn("dropping notification requested by write")
		return res, nil
	}
	log.WithFields(logrus.Fields{"target": *res.Notify, "status": status}).Debug("notification requested by write")
	return res, nil
}

// timed runs fn with panic recovery and logs it when it exceeds the handler budget
func (d *Dispatcher) timed(log *logrus.Entry, op string, fn func() error) error {
	start := time.Now()
	err := util.CatchErrs(fn)
	if elapsed := time.Since(start); elapsed > d.server.config.HandlerBudget {
		log.WithFields(logrus.Fields{"op": op, "elapsed": elapsed, "budget": d.server.config.HandlerBudget}).Warn("handler exceeded its budget")
	}
	return err
}

func (d *Dispatcher) report(err error) {
	d.logger.WithError(err).Error("handler failed")
	d.server.config.Listener.OnInternalError(err)
}
