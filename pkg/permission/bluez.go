package permission

import (
	"context"
	"strings"
	"sync"

	"github.com/Krajiyah/ble-peripheral/pkg/models"
	"github.com/bradfitz/slice"
	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	bluezBusName      = "org.bluez"
	adapterInterface  = "org.bluez.Adapter1"
	poweredProperty   = "Powered"
	getManagedObjects = "org.freedesktop.DBus.ObjectManager.GetManagedObjects"
	propertiesGet     = "org.freedesktop.DBus.Properties.Get"
	propertiesSet     = "org.freedesktop.DBus.Properties.Set"
)

var deniedErrors = map[string]bool{
	"org.freedesktop.DBus.Error.AccessDenied": true,
	"org.bluez.Error.NotAuthorized":           true,
	"org.bluez.Error.NotPermitted":            true,
}

type managedObjects = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// busClient is the part of the system bus the gate talks to
type busClient interface {
	ManagedObjects(ctx context.Context) (managedObjects, error)
	GetProperty(ctx context.Context, path dbus.ObjectPath, iface, name string) (dbus.Variant, error)
	SetProperty(ctx context.Context, path dbus.ObjectPath, iface, name string, value dbus.Variant) error
}

type systemBus struct {
	conn *dbus.Conn
}

func (b *systemBus) ManagedObjects(ctx context.Context) (managedObjects, error) {
	var objects managedObjects
	err := b.conn.Object(bluezBusName, "/").CallWithContext(ctx, getManagedObjects, 0).Store(&objects)
	return objects, err
}

func (b *systemBus) GetProperty(ctx context.Context, path dbus.ObjectPath, iface, name string) (dbus.Variant, error) {
	var v dbus.Variant
	err := b.conn.Object(bluezBusName, path).CallWithContext(ctx, propertiesGet, 0, iface, name).Store(&v)
	return v, err
}

func (b *systemBus) SetProperty(ctx context.Context, path dbus.ObjectPath, iface, name string, value dbus.Variant) error {
	return b.conn.Object(bluezBusName, path).CallWithContext(ctx, propertiesSet, 0, iface, name, value).Err
}

// BlueZGate checks radio access through BlueZ on the system bus
type BlueZGate struct {
	bus     busClient
	adapter string
	logger  *logrus.Entry

	mu   sync.Mutex
	path dbus.ObjectPath
}

// NewBlueZGate connects to the system bus. adapter names the controller (e.g. hci0);
// empty picks the first one.
func NewBlueZGate(adapter string, logger *logrus.Logger) (*BlueZGate, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, errors.Wrap(err, "SystemBus issue: ")
	}
	return newBlueZGate(&systemBus{conn}, adapter, logger), nil
}

func newBlueZGate(bus busClient, adapter string, logger *logrus.Logger) *BlueZGate {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BlueZGate{bus: bus, adapter: adapter, logger: logger.WithField("component", "bluez")}
}

func isDenied(err error) bool {
	switch e := errors.Cause(err).(type) {
	case dbus.Error:
		return deniedErrors[e.Name]
	case *dbus.Error:
		return deniedErrors[e.Name]
	}
	return false
}

// CheckAndRequestPermissions resolves the adapter object. Being refused by the bus
// policy is a denial; having no adapter means there is no radio.
func (g *BlueZGate) CheckAndRequestPermissions(ctx context.Context) (models.PermissionResult, error) {
	objects, err := g.bus.ManagedObjects(ctx)
	if err != nil {
		if isDenied(err) {
			g.logger.WithError(err).Warn("access to bluez denied")
			return models.PermissionDenied, nil
		}
		return models.PermissionDenied, errors.Wrapf(models.ErrRadioUnavailable, "GetManagedObjects issue: %v", err)
	}
	paths := []dbus.ObjectPath{}
	for path, ifaces := range objects {
		if _, ok := ifaces[adapterInterface]; ok {
			paths = append(paths, path)
		}
	}
	slice.Sort(paths, func(i, j int) bool { return paths[i] < paths[j] })
	path, ok := g.pick(paths)
	if !ok {
		return models.PermissionDenied, errors.Wrapf(models.ErrRadioUnavailable, "no bluetooth adapter %q", g.adapter)
	}
	g.mu.Lock()
	g.path = path
	g.mu.Unlock()
	g.logger.WithField("adapter", path).Debug("bluetooth adapter found")
	return models.PermissionGranted, nil
}

func (g *BlueZGate) pick(paths []dbus.ObjectPath) (dbus.ObjectPath, bool) {
	for _, p := range paths {
		if g.adapter == "" || strings.HasSuffix(string(p), "/"+g.adapter) {
			return p, true
		}
	}
	return "", false
}

func (g *BlueZGate) adapterPath(ctx context.Context) (dbus.ObjectPath, error) {
	g.mu.Lock()
	path := g.path
	g.mu.Unlock()
	if path != "" {
		return path, nil
	}
	res, err := g.CheckAndRequestPermissions(ctx)
	if err != nil {
		return "", err
	}
	if res != models.PermissionGranted {
		return "", errors.Wrap(models.ErrPermissionDenied, "bluez refused access")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.path, nil
}

// IsRadioEnabled reads the Powered property of the adapter
func (g *BlueZGate) IsRadioEnabled(ctx context.Context) (bool, error) {
	path, err := g.adapterPath(ctx)
	if err != nil {
		return false, err
	}
	v, err := g.bus.GetProperty(ctx, path, adapterInterface, poweredProperty)
	if err != nil {
		return false, errors.Wrap(err, "Get Powered issue: ")
	}
	powered, ok := v.Value().(bool)
	if !ok {
		return false, errors.Errorf("unexpected Powered value %v", v)
	}
	return powered, nil
}

// RequestRadioActivation powers the adapter on. A refused write means activation was declined.
func (g *BlueZGate) RequestRadioActivation(ctx context.Context) error {
	path, err := g.adapterPath(ctx)
	if err != nil {
		return err
	}
	if err := g.bus.SetProperty(ctx, path, adapterInterface, poweredProperty, dbus.MakeVariant(true)); err != nil {
		if isDenied(err) {
			return errors.Wrapf(models.ErrRadioDisabled, "powering %s refused: %v", path, err)
		}
		return errors.Wrap(err, "Set Powered issue: ")
	}
	g.logger.WithField("adapter", path).Info("bluetooth adapter powered on")
	return nil
}
