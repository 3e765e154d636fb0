package permission

import (
	"context"
	"testing"

	"github.com/Krajiyah/ble-peripheral/pkg/models"
	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"gotest.tools/assert"
)

type mockBus struct {
	mock.Mock
}

func (m *mockBus) ManagedObjects(ctx context.Context) (managedObjects, error) {
	args := m.Called(ctx)
	objects, _ := args.Get(0).(managedObjects)
	return objects, args.Error(1)
}

func (m *mockBus) GetProperty(ctx context.Context, path dbus.ObjectPath, iface, name string) (dbus.Variant, error) {
	args := m.Called(ctx, path, iface, name)
	return args.Get(0).(dbus.Variant), args.Error(1)
}

func (m *mockBus) SetProperty(ctx context.Context, path dbus.ObjectPath, iface, name string, value dbus.Variant) error {
	args := m.Called(ctx, path, iface, name, value)
	return args.Error(0)
}

func adapters(paths ...dbus.ObjectPath) managedObjects {
	objects := managedObjects{
		"/org/bluez": {"org.bluez.AgentManager1": {}},
	}
	for _, p := range paths {
		objects[p] = map[string]map[string]dbus.Variant{
			adapterInterface: {"Address": dbus.MakeVariant("00:11:22:33:44:55")},
		}
	}
	return objects
}

var ctx = context.Background()

func TestCheckPicksFirstSortedAdapter(t *testing.T) {
	bus := &mockBus{}
	bus.On("ManagedObjects", ctx).Return(adapters("/org/bluez/hci1", "/org/bluez/hci0"), nil)
	bus.On("GetProperty", ctx, dbus.ObjectPath("/org/bluez/hci0"), adapterInterface, poweredProperty).Return(dbus.MakeVariant(true), nil)
	g := newBlueZGate(bus, "", logrus.New())

	res, err := g.CheckAndRequestPermissions(ctx)
	assert.NilError(t, err)
	assert.Equal(t, res, models.PermissionGranted)
	enabled, err := g.IsRadioEnabled(ctx)
	assert.NilError(t, err)
	assert.Assert(t, enabled)
	bus.AssertExpectations(t)
}

func TestCheckNamedAdapter(t *testing.T) {
	bus := &mockBus{}
	bus.On("ManagedObjects", ctx).Return(adapters("/org/bluez/hci0", "/org/bluez/hci1"), nil)
	bus.On("GetProperty", ctx, dbus.ObjectPath("/org/bluez/hci1"), adapterInterface, poweredProperty).Return(dbus.MakeVariant(false), nil)
	g := newBlueZGate(bus, "hci1", nil)

	enabled, err := g.IsRadioEnabled(ctx)
	assert.NilError(t, err)
	assert.Assert(t, !enabled)
	bus.AssertExpectations(t)
}

func TestCheckWithoutAdapter(t *testing.T) {
	bus := &mockBus{}
	bus.On("ManagedObjects", ctx).Return(adapters(), nil)
	g := newBlueZGate(bus, "", nil)

	_, err := g.CheckAndRequestPermissions(ctx)
	assert.Equal(t, errors.Cause(err), models.ErrRadioUnavailable)
}

func TestCheckAccessDenied(t *testing.T) {
	bus := &mockBus{}
	denied := dbus.Error{Name: "org.freedesktop.DBus.Error.AccessDenied"}
	bus.On("ManagedObjects", ctx).Return(nil, denied)
	g := newBlueZGate(bus, "", nil)

	res, err := g.CheckAndRequestPermissions(ctx)
	assert.NilError(t, err)
	assert.Equal(t, res, models.PermissionDenied)

	_, err = g.IsRadioEnabled(ctx)
	assert.Equal(t, errors.Cause(err), models.ErrPermissionDenied)
}

func TestCheckBusFailure(t *testing.T) {
	bus := &mockBus{}
	bus.On("ManagedObjects", ctx).Return(nil, errors.New("org.bluez was not provided by any .service files"))
	g := newBlueZGate(bus, "", nil)

	_, err := g.CheckAndRequestPermissions(ctx)
	assert.Equal(t, errors.Cause(err), models.ErrRadioUnavailable)
}

func TestRequestRadioActivation(t *testing.T) {
	bus := &mockBus{}
	path := dbus.ObjectPath("/org/bluez/hci0")
	bus.On("ManagedObjects", ctx).Return(adapters(path), nil)
	bus.On("SetProperty", ctx, path, adapterInterface, poweredProperty, dbus.MakeVariant(true)).Return(nil).Once()
	g := newBlueZGate(bus, "", nil)

	assert.NilError(t, g.RequestRadioActivation(ctx))
	bus.AssertExpectations(t)

	bus.On("SetProperty", ctx, path, adapterInterface, poweredProperty, dbus.MakeVariant(true)).
		Return(&dbus.Error{Name: "org.bluez.Error.NotAuthorized"})
	err := g.RequestRadioActivation(ctx)
	assert.Equal(t, errors.Cause(err), models.ErrRadioDisabled)
}

func TestStaticGate(t *testing.T) {
	g := NewStaticGate(false)
	res, err := g.CheckAndRequestPermissions(ctx)
	assert.NilError(t, err)
	assert.Equal(t, res, models.PermissionGranted)
	enabled, _ := g.IsRadioEnabled(ctx)
	assert.Assert(t, !enabled)
	assert.NilError(t, g.RequestRadioActivation(ctx))
	enabled, _ = g.IsRadioEnabled(ctx)
	assert.Assert(t, enabled)

	g = NewStaticGate(false)
	g.Activatable = false
	assert.Equal(t, errors.Cause(g.RequestRadioActivation(ctx)), models.ErrRadioDisabled)
}
