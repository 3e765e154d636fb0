package internal

import (
	"context"
	"sync"

	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"github.com/go-ble/ble"
)

type DummyAddr struct {
	Address string
}

func (addr DummyAddr) String() string { return addr.Address }

// DummyConn is a ble.Conn to a central at Address
type DummyConn struct {
	Address string
	ctx     context.Context
}

func (c *DummyConn) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}
func (c *DummyConn) SetContext(ctx context.Context)    { c.ctx = ctx }
func (c *DummyConn) LocalAddr() ble.Addr               { return DummyAddr{"00:00:00:00:00:00"} }
func (c *DummyConn) RemoteAddr() ble.Addr              { return DummyAddr{c.Address} }
func (c *DummyConn) RxMTU() int                        { return util.DefaultATTMTU }
func (c *DummyConn) SetRxMTU(mtu int)                  {}
func (c *DummyConn) TxMTU() int                        { return util.DefaultATTMTU }
func (c *DummyConn) SetTxMTU(mtu int)                  {}
func (c *DummyConn) ReadRSSI() int                     { return 0 }
func (c *DummyConn) Disconnected() <-chan struct{}     { return make(chan struct{}) }
func (c *DummyConn) Read(p []byte) (n int, err error)  { return 0, nil }
func (c *DummyConn) Write(p []byte) (n int, err error) { return len(p), nil }
func (c *DummyConn) Close() error                      { return nil }

// DummyRequest is a ble.Request from Conn
type DummyRequest struct {
	Connection ble.Conn
	Payload    []byte
	At         int
}

func (r DummyRequest) Conn() ble.Conn { return r.Connection }
func (r DummyRequest) Data() []byte   { return r.Payload }
func (r DummyRequest) Offset() int    { return r.At }

// DummyResponseWriter records what a handler answered
type DummyResponseWriter struct {
	Capacity int
	Written  []byte
	status   ble.ATTError
}

func NewDummyResponseWriter(capacity int) *DummyResponseWriter {
	return &DummyResponseWriter{Capacity: capacity, Written: []byte{}, status: ble.ErrSuccess}
}

func (w *DummyResponseWriter) Write(b []byte) (int, error) {
	w.Written = append(w.Written, b...)
	return len(b), nil
}
func (w *DummyResponseWriter) Status() ble.ATTError          { return w.status }
func (w *DummyResponseWriter) SetStatus(status ble.ATTError) { w.status = status }
func (w *DummyResponseWriter) Len() int                      { return len(w.Written) }
func (w *DummyResponseWriter) Cap() int                      { return w.Capacity }

// DummyNotifier is the ble.Notifier of one subscribed central
type DummyNotifier struct {
	Capacity int

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	writes [][]byte
}

func NewDummyNotifier(capacity int) *DummyNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	return &DummyNotifier{Capacity: capacity, ctx: ctx, cancel: cancel}
}

func (n *DummyNotifier) Context() context.Context { return n.ctx }
func (n *DummyNotifier) Cap() int                 { return n.Capacity }
func (n *DummyNotifier) Close() error {
	n.cancel()
	return nil
}
func (n *DummyNotifier) Write(b []byte) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.writes = append(n.writes, append([]byte{}, b...))
	return len(b), nil
}

func (n *DummyNotifier) Writes() [][]byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([][]byte{}, n.writes...)
}
