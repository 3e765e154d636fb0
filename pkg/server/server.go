package server

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Krajiyah/ble-peripheral/pkg/models"
	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// GattServer is a peripheral role gatt server. It owns the service registry, drives the
// advertising lifecycle of a radio adapter and answers the requests the radio delivers.
//
// Control operations take mu exclusively and dispatch takes it shared. State, Services and
// Notify read the view published on every change instead, so handlers may call them.
type GattServer struct {
	mu          sync.RWMutex
	state       ServerState
	initialized bool
	registry    *Registry
	advertised  models.AdvertisingResult
	attempt     uint64
	confirmed   uint64
	withdrawing int
	cancelStart context.CancelFunc

	view      atomic.Pointer[serverView]
	callbacks *callbackQueue

	adapter    models.RadioAdapter
	gate       models.PermissionGate
	dispatcher *Dispatcher
	emitter    *Emitter
	config     Config
	logger     *logrus.Entry
}

// serverView is an immutable copy of the state and registry
type serverView struct {
	state    ServerState
	registry *Registry
}

// NewGattServer returns an Idle server driving adapter once gate allows it
func NewGattServer(adapter models.RadioAdapter, gate models.PermissionGate, config Config) *GattServer {
	config = config.withDefaults()
	s := &GattServer{
		state:     Idle,
		registry:  NewRegistry(),
		callbacks: newCallbackQueue(),
		adapter:   adapter,
		gate:      gate,
		config:    config,
		logger:    config.Logger.WithField("component", "server"),
	}
	s.dispatcher = newDispatcher(s, config.Logger)
	s.emitter = NewEmitter(adapter, config.Logger, config.Listener.OnInternalError)
	s.publishLocked()
	return s
}

// State returns the current lifecycle state
func (s *GattServer) State() ServerState {
	return s.view.Load().state
}

// Services returns a snapshot of the registered services
func (s *GattServer) Services() models.ServiceTable {
	return s.view.Load().registry.Snapshot()
}

// Dispatcher returns the request sink the radio adapter delivers to
func (s *GattServer) Dispatcher() *Dispatcher { return s.dispatcher }

// HandleRead installs the read handler for every characteristic
func (s *GattServer) HandleRead(h ReadHandler) *Registration { return s.dispatcher.handlers.setRead(h) }

// HandleWrite installs the write handler for every characteristic
func (s *GattServer) HandleWrite(h WriteHandler) *Registration {
	return s.dispatcher.handlers.setWrite(h)
}

// publishLocked requires s.mu to be held exclusively
func (s *GattServer) publishLocked() {
	s.view.Store(&serverView{state: s.state, registry: s.registry.clone()})
}

// setStateLocked moves to state and returns the ticket its listener callback runs under
func (s *GattServer) setStateLocked(state ServerState) uint64 {
	s.state = state
	s.publishLocked()
	return s.callbacks.ticket()
}

func (s *GattServer) stateChanged(ticket uint64, state ServerState, err error) {
	s.callbacks.run(ticket, func() {
		log := s.logger.WithField("state", state)
		if err != nil {
			log.WithError(err).Warn("server state changed")
		} else {
			log.Info("server state changed")
		}
		s.config.Listener.OnServerStateChanged(state, err)
	})
}

// Initialize checks permissions and the radio, then hands the dispatcher to the adapter.
// Calling it on an initialized server is a no-op.
func (s *GattServer) Initialize(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil
	}
	if s.state == Initializing {
		s.mu.Unlock()
		return errors.Wrap(models.ErrInvalidState, "initialization already running")
	}
	ticket := s.setStateLocked(Initializing)
	s.mu.Unlock()
	s.stateChanged(ticket, Initializing, nil)

	err := s.initialize(ctx)

	s.mu.Lock()
	next := Idle
	switch {
	case err == nil:
		s.initialized = true
		next = Ready
	case errors.Cause(err) == models.ErrRadioUnavailable:
		next = Faulted
	}
	ticket = s.setStateLocked(next)
	s.mu.Unlock()
	s.stateChanged(ticket, next, err)
	return err
}

func (s *GattServer) initialize(ctx context.Context) error {
	res, err := s.gate.CheckAndRequestPermissions(ctx)
	if err != nil {
		if isTaxonomy(err) {
			return err
		}
		return errors.Wrapf(models.ErrPermissionDenied, "permission check issue: %v", err)
	}
	if res != models.PermissionGranted {
		return errors.Wrap(models.ErrPermissionDenied, "bluetooth permissions refused")
	}
	enabled, err := s.gate.IsRadioEnabled(ctx)
	if err != nil {
		if isTaxonomy(err) {
			return err
		}
		return errors.Wrapf(models.ErrRadioDisabled, "radio state issue: %v", err)
	}
	if !enabled {
		s.logger.Info("bluetooth is off, requesting activation")
		if err := s.gate.RequestRadioActivation(ctx); err != nil {
			return errors.Wrapf(models.ErrRadioDisabled, "radio activation issue: %v", err)
		}
		if enabled, err = s.gate.IsRadioEnabled(ctx); err != nil || !enabled {
			return errors.Wrap(models.ErrRadioDisabled, "radio still disabled after activation request")
		}
	}
	if err := s.adapter.InitializeRadio(ctx, s.dispatcher); err != nil {
		return errors.Wrapf(models.ErrRadioUnavailable, "InitializeRadio issue: %v", err)
	}
	return nil
}

func isTaxonomy(err error) bool {
	switch errors.Cause(err) {
	case models.ErrPermissionDenied, models.ErrRadioDisabled, models.ErrRadioUnavailable:
		return true
	}
	return false
}

// AddService registers svc. Services cannot change while advertising is starting,
// running or stopping.
func (s *GattServer) AddService(svc models.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return errors.Wrapf(models.ErrNotInitialized, "cannot add service %s", svc.UUID)
	}
	if s.state.registryLocked() {
		return errors.Wrapf(models.ErrRegistryLocked, "cannot add service %s while %s", svc.UUID, s.state)
	}
	if err := s.registry.AddService(svc); err != nil {
		return err
	}
	s.publishLocked()
	s.logger.WithFields(logrus.Fields{"uuid": svc.UUID, "name": svc.Name, "characteristics": len(svc.Characteristics)}).Debug("service registered")
	return nil
}

// StartAdvertising applies the registered services to the radio and starts advertising.
// While already advertising it returns the result of the start that got there.
// A truncated advertising payload is reported in the result's Warning, never as an error.
func (s *GattServer) StartAdvertising(ctx context.Context, opts models.AdvertisingOptions) (models.AdvertisingResult, error) {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return models.AdvertisingResult{}, errors.Wrap(models.ErrNotInitialized, "cannot start advertising")
	}
	switch s.state {
	case Advertising:
		res := s.advertised
		s.mu.Unlock()
		return res, nil
	case Starting, Stopping:
		state := s.state
		s.mu.Unlock()
		return models.AdvertisingResult{}, errors.Wrapf(models.ErrInvalidState, "cannot start advertising while %s", state)
	}
	if s.withdrawing > 0 {
		s.mu.Unlock()
		return models.AdvertisingResult{}, errors.Wrap(models.ErrInvalidState, "radio is still withdrawing an abandoned start")
	}
	if err := s.registry.Validate(); err != nil {
		s.mu.Unlock()
		return models.AdvertisingResult{}, err
	}
	uuids := opts.ServiceUUIDs
	if len(uuids) == 0 {
		uuids = s.registry.ServiceUUIDs()
	}
	result := fitAdvertisingPayload(uuids, s.config.MaxAdvertisingPayload)
	table := s.registry.Snapshot()
	chars := s.registry.SortedCharacteristicUUIDs()
	s.attempt++
	attempt := s.attempt
	startCtx, cancel := context.WithCancel(ctx)
	s.cancelStart = cancel
	ticket := s.setStateLocked(Starting)
	s.mu.Unlock()
	defer cancel()
	s.stateChanged(ticket, Starting, nil)

	if result.Truncated() {
		s.logger.WithFields(logrus.Fields{"advertised": result.Advertised, "dropped": result.Dropped}).Warn(result.Warning)
	}
	s.logger.WithFields(logrus.Fields{"services": len(table), "characteristics": chars}).Debug("applying service table")
	advOpts := models.AdvertisingOptions{LocalName: opts.LocalName, ServiceUUIDs: result.Advertised}
	err := util.Timeout(startCtx, s.config.StartTimeout, func(ctx context.Context) error {
		if err := s.adapter.ApplyServiceTable(ctx, table); err != nil {
			return errors.Wrap(err, "ApplyServiceTable issue: ")
		}
		if err := s.adapter.StartAdvertising(ctx, advOpts); err != nil {
			return errors.Wrap(err, "StartAdvertising issue: ")
		}
		s.settleStart(attempt)
		return nil
	})
	if errors.Cause(err) == util.ErrTimeout {
		err = errors.Wrapf(models.ErrAdvertisingTimeout, "no confirmation within %s", s.config.StartTimeout)
	}

	s.mu.Lock()
	if s.attempt != attempt {
		s.mu.Unlock()
		s.logger.WithField("attempt", attempt).Info("advertising start cancelled by stop")
		return models.AdvertisingResult{}, errors.Wrap(models.ErrAdvertisingCancelled, "stopped while starting")
	}
	s.cancelStart = nil
	if s.confirmed == attempt {
		err = nil
	}
	if err != nil {
		ticket = s.setStateLocked(Faulted)
		s.mu.Unlock()
		s.stateChanged(ticket, Faulted, err)
		return models.AdvertisingResult{}, err
	}
	s.emitter.Open()
	s.advertised = result
	ticket = s.setStateLocked(Advertising)
	s.mu.Unlock()
	s.stateChanged(ticket, Advertising, nil)
	return result, nil
}

// settleStart runs once the radio confirmed the start of attempt. A confirmation arriving
// after its start was cancelled or timed out is withdrawn, unless a newer start owns the radio.
func (s *GattServer) settleStart(attempt uint64) {
	s.mu.Lock()
	if s.attempt == attempt && s.state == Starting {
		s.confirmed = attempt
		s.mu.Unlock()
		return
	}
	if s.attempt != attempt && (s.state == Starting || s.state == Advertising) {
		s.mu.Unlock()
		return
	}
	s.withdrawing++
	s.mu.Unlock()

	log := s.logger.WithField("attempt", attempt)
	if err := util.Timeout(context.Background(), s.config.StopTimeout, s.adapter.StopAdvertising); err != nil {
		log.WithError(err).Warn("could not withdraw advertising confirmed after its start was abandoned")
	} else {
		log.Info("withdrew advertising confirmed after its start was abandoned")
	}
	s.mu.Lock()
	s.withdrawing--
	s.mu.Unlock()
}

// StopAdvertising stops advertising, clears the registry and drops pending notifications.
// A stop during a start cancels that start. If the radio does not acknowledge within the
// stop timeout the server moves to Stopped anyway.
func (s *GattServer) StopAdvertising(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case Starting:
		s.attempt++
		s.cancelStart()
		s.cancelStart = nil
	case Advertising:
	case Faulted:
		if !s.initialized {
			s.mu.Unlock()
			return nil
		}
		s.registry.RemoveAll()
		ticket := s.setStateLocked(Stopped)
		s.mu.Unlock()
		s.emitter.Reset()
		s.stateChanged(ticket, Stopped, nil)
		return nil
	default:
		s.mu.Unlock()
		return nil
	}
	ticket := s.setStateLocked(Stopping)
	s.mu.Unlock()
	s.emitter.Reset()
	s.stateChanged(ticket, Stopping, nil)

	if err := util.Timeout(ctx, s.config.StopTimeout, s.adapter.StopAdvertising); err != nil {
		s.logger.WithError(err).WithField("timeout", s.config.StopTimeout).Warn("radio did not acknowledge stop, forcing Stopped")
	}

	s.mu.Lock()
	s.registry.RemoveAll()
	s.advertised = models.AdvertisingResult{}
	ticket = s.setStateLocked(Stopped)
	s.mu.Unlock()
	s.stateChanged(ticket, Stopped, nil)
	return nil
}

// Notify sends payload to the centrals subscribed to the characteristic uuid.
// Without subscribers, or while not advertising, the payload is discarded.
func (s *GattServer) Notify(uuid util.UUID, payload []byte) (models.NotifyStatus, error) {
	v := s.view.Load()
	return s.notify(v.registry, v.state, uuid, payload)
}

// notify requires registry and state to be read together, from the view or under s.mu
func (s *GattServer) notify(registry *Registry, state ServerState, uuid util.UUID, payload []byte) (models.NotifyStatus, error) {
	char, _, ok := registry.Characteristic(uuid)
	if !ok {
		return models.NotifyNoSubscribers, errors.Wrapf(models.ErrUnknownCharacteristic, "notify %s", uuid)
	}
	if !char.Properties.Notifiable() {
		return models.NotifyNoSubscribers, errors.Wrapf(models.ErrNotifyNotSupported, "notify %s with properties %s", uuid, char.Properties)
	}
	if state != Advertising {
		return models.NotifyNoSubscribers, nil
	}
	if r, ok := s.adapter.(models.SubscriptionReporter); ok && !r.Subscribed(uuid) {
		return models.NotifyNoSubscribers, nil
	}
	return s.emitter.Offer(uuid, payload), nil
}
