package server

import (
	"context"
	"testing"
	"time"

	. "github.com/Krajiyah/ble-peripheral/internal"
	"github.com/Krajiyah/ble-peripheral/pkg/models"
	"github.com/Krajiyah/ble-peripheral/pkg/permission"
	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"gotest.tools/assert"
)

var (
	ctx            = context.Background()
	disUUID        = util.UUID16(0x180A)
	batteryUUID    = util.UUID16(0x180F)
	customUUID     = util.MustParseUUID("12345678-0000-1000-1996-00805F9B34FB")
	customCharUUID = util.MustParseUUID("CC3456CC-0000-1000-1996-00805F9B34FB")
	echoUUID       = util.MustParseUUID("CC3456CD-0000-1000-1996-00805F9B34FB")
)

type mockListener struct {
	mock.Mock
}

func (l *mockListener) OnServerStateChanged(state ServerState, err error) { l.Called(state, err) }
func (l *mockListener) OnInternalError(err error)                         { l.Called(err) }

func newMockListener() *mockListener {
	l := &mockListener{}
	l.On("OnServerStateChanged", mock.Anything, mock.Anything).Return()
	l.On("OnInternalError", mock.Anything).Return()
	return l
}

func disService() models.Service {
	return *models.NewService("Device info", disUUID,
		models.NewCharacteristic("Information", disUUID, models.PropRead))
}

func batteryService() models.Service {
	return *models.NewService("Battery info", batteryUUID,
		models.NewCharacteristic("Battery level", batteryUUID, models.PropRead))
}

func customService() models.Service {
	return *models.NewService("Custom", customUUID,
		models.NewCharacteristic("Custom value", customCharUUID, models.PropRead),
		models.NewCharacteristic("Echo", echoUUID, models.PropWrite|models.PropNotify))
}

func testConfig(l Listener) Config {
	logger, _ := test.NewNullLogger()
	return Config{Logger: logger, Listener: l}
}

// newTestServer returns an initialized server on a dummy radio
func newTestServer(t *testing.T, cfg Config) (*GattServer, *DummyRadio) {
	radio := NewDummyRadio()
	s := NewGattServer(radio, permission.NewStaticGate(true), cfg)
	assert.NilError(t, s.Initialize(ctx))
	return s, radio
}

func startedServer(t *testing.T, cfg Config, svcs ...models.Service) (*GattServer, *DummyRadio) {
	radio := NewDummyRadio()
	return startedServerOn(t, radio, cfg, svcs...), radio
}

// startedServerOn returns a server advertising svcs on radio
func startedServerOn(t *testing.T, radio *DummyRadio, cfg Config, svcs ...models.Service) *GattServer {
	s := NewGattServer(radio, permission.NewStaticGate(true), cfg)
	assert.NilError(t, s.Initialize(ctx))
	for _, svc := range svcs {
		assert.NilError(t, s.AddService(svc))
	}
	_, err := s.StartAdvertising(ctx, models.AdvertisingOptions{LocalName: "MICHELE_DEVICE"})
	assert.NilError(t, err)
	return s
}

func waitFor(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
