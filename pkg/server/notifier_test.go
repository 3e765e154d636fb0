package server

import (
	"testing"

	. "github.com/Krajiyah/ble-peripheral/internal"
	"github.com/Krajiyah/ble-peripheral/pkg/models"
	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"gotest.tools/assert"
)

func TestNotifyRejects(t *testing.T) {
	s, radio := startedServer(t, testConfig(nil), customService())

	_, err := s.Notify(util.UUID16(0x2A19), []byte("x"))
	assert.Equal(t, errors.Cause(err), models.ErrUnknownCharacteristic)

	status, err := s.Notify(customCharUUID, []byte("x"))
	assert.Equal(t, errors.Cause(err), models.ErrNotifyNotSupported)
	assert.Equal(t, status, models.NotifyNoSubscribers)
	assert.Equal(t, radio.Calls().Send, 0)
}

func TestNotifyWithoutSubscribers(t *testing.T) {
	s, radio := newTestServer(t, testConfig(nil))
	assert.NilError(t, s.AddService(customService()))
	status, err := s.Notify(echoUUID, []byte("x"))
	assert.NilError(t, err)
	assert.Equal(t, status, models.NotifyNoSubscribers)

	_, err = s.StartAdvertising(ctx, models.AdvertisingOptions{})
	assert.NilError(t, err)
	radio.SetSubscribed(echoUUID, false)
	status, err = s.Notify(echoUUID, []byte("x"))
	assert.NilError(t, err)
	assert.Equal(t, status, models.NotifyNoSubscribers)
	assert.Equal(t, radio.Calls().Send, 0)
}

func TestNotifyCoalescesToLatest(t *testing.T) {
	radio := NewDummyRadio()
	block := make(chan struct{})
	radio.SendBlock = block
	s := startedServerOn(t, radio, testConfig(nil), customService())

	status, err := s.Notify(echoUUID, []byte("1"))
	assert.NilError(t, err)
	assert.Equal(t, status, models.NotifyQueued)
	assert.DeepEqual(t, (<-radio.Sent).Payload, []byte("1"))

	status, _ = s.Notify(echoUUID, []byte("2"))
	assert.Equal(t, status, models.NotifyQueued)
	status, _ = s.Notify(echoUUID, []byte("3"))
	assert.Equal(t, status, models.NotifyCoalesced)

	close(block)
	assert.DeepEqual(t, (<-radio.Sent).Payload, []byte("3"))
	s.emitter.Wait()
	select {
	case n := <-radio.Sent:
		t.Fatalf("unexpected notification %q", n.Payload)
	default:
	}
	assert.Equal(t, radio.Calls().Send, 2)
}

func TestEmitterReportsDeliveryErrors(t *testing.T) {
	logger, _ := test.NewNullLogger()
	radio := NewDummyRadio()
	var reported []error
	e := NewEmitter(radio, logger, func(err error) { reported = append(reported, err) })

	radio.SendErr = errors.Wrap(models.ErrNotSubscribed, "central left")
	e.Offer(echoUUID, []byte("a"))
	<-radio.Sent
	e.Wait()
	assert.Equal(t, len(reported), 0)

	radio.SendErr = errors.New("link lost")
	e.Offer(echoUUID, []byte("b"))
	<-radio.Sent
	e.Wait()
	assert.Equal(t, len(reported), 1)
	assert.ErrorContains(t, reported[0], "link lost")
}

func TestEmitterResetDropsPending(t *testing.T) {
	logger, _ := test.NewNullLogger()
	radio := NewDummyRadio()
	radio.SendBlock = make(chan struct{})
	var reported []error
	e := NewEmitter(radio, logger, func(err error) { reported = append(reported, err) })

	e.Offer(echoUUID, []byte("in flight"))
	<-radio.Sent
	assert.Equal(t, e.Offer(echoUUID, []byte("pending")), models.NotifyQueued)
	e.Reset()
	e.Wait()
	assert.Equal(t, radio.Calls().Send, 1)
	assert.Equal(t, len(reported), 0)

	assert.Equal(t, e.Offer(echoUUID, []byte("after reset")), models.NotifyNoSubscribers)
	e.Open()
	assert.Equal(t, e.Offer(echoUUID, []byte("reopened")), models.NotifyQueued)
	assert.DeepEqual(t, (<-radio.Sent).Payload, []byte("reopened"))
	e.Reset()
	e.Wait()

	radio2 := NewDummyRadio()
	e2 := NewEmitter(radio2, logger, nil)
	assert.Equal(t, e2.Offer(echoUUID, []byte("fresh")), models.NotifyQueued)
	assert.DeepEqual(t, (<-radio2.Sent).Payload, []byte("fresh"))
	e2.Wait()
}

func TestStopDropsPendingNotifications(t *testing.T) {
	l := newMockListener()
	radio := NewDummyRadio()
	radio.SendBlock = make(chan struct{})
	s := startedServerOn(t, radio, testConfig(l), customService())

	s.Notify(echoUUID, []byte("in flight"))
	<-radio.Sent
	s.Notify(echoUUID, []byte("pending"))
	assert.NilError(t, s.StopAdvertising(ctx))
	s.emitter.Wait()
	assert.Equal(t, radio.Calls().Send, 1)
	l.AssertNotCalled(t, "OnInternalError", mock.Anything)
}
