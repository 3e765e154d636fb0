package server

import (
	"sync"

	"github.com/Krajiyah/ble-peripheral/pkg/models"
)

// ReadHandler answers reads of registered, readable characteristics. It returns the
// whole value; the offset of the request is applied by the dispatcher.
// Handlers run while stops and registrations wait for them. They may call State, Services
// and Notify, never AddService, StartAdvertising or StopAdvertising.
type ReadHandler interface {
	HandleRead(req models.ReadRequest) models.ReadResult
}

// ReadHandlerFunc is an adapter to allow the use of ordinary functions as ReadHandler
type ReadHandlerFunc func(req models.ReadRequest) models.ReadResult

// HandleRead calls f(req)
func (f ReadHandlerFunc) HandleRead(req models.ReadRequest) models.ReadResult { return f(req) }

// WriteHandler answers writes to registered, writable characteristics
type WriteHandler interface {
	HandleWrite(req models.WriteRequest) models.WriteResult
}

// WriteHandlerFunc is an adapter to allow the use of ordinary functions as WriteHandler
type WriteHandlerFunc func(req models.WriteRequest) models.WriteResult

// HandleWrite calls f(req)
func (f WriteHandlerFunc) HandleWrite(req models.WriteRequest) models.WriteResult { return f(req) }

var (
	defaultReadHandler  = ReadHandlerFunc(func(models.ReadRequest) models.ReadResult { return models.ReadFailed() })
	defaultWriteHandler = WriteHandlerFunc(func(models.WriteRequest) models.WriteResult { return models.WriteFailed() })
)

// Registration is returned when a handler is installed
type Registration struct {
	once    sync.Once
	release func()
}

// Release restores the default handler unless another handler replaced this one meanwhile
func (r *Registration) Release() {
	if r == nil || r.release == nil {
		return
	}
	r.once.Do(r.release)
}

type handlerSlots struct {
	mu       sync.Mutex
	read     ReadHandler
	write    WriteHandler
	readGen  uint64
	writeGen uint64
}

func newHandlerSlots() *handlerSlots {
	return &handlerSlots{read: defaultReadHandler, write: defaultWriteHandler}
}

func (h *handlerSlots) setRead(handler ReadHandler) *Registration {
	if handler == nil {
		handler = defaultReadHandler
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readGen++
	gen := h.readGen
	h.read = handler
	return &Registration{release: func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.readGen == gen {
			h.read = defaultReadHandler
		}
	}}
}

func (h *handlerSlots) setWrite(handler WriteHandler) *Registration {
	if handler == nil {
		handler = defaultWriteHandler
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writeGen++
	gen := h.writeGen
	h.write = handler
	return &Registration{release: func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.writeGen == gen {
			h.write = defaultWriteHandler
		}
	}}
}

func (h *handlerSlots) reader() ReadHandler {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.read
}

func (h *handlerSlots) writer() WriteHandler {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.write
}
