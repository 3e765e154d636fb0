package server

import (
	"github.com/Krajiyah/ble-peripheral/pkg/models"
	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"github.com/bradfitz/slice"
	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"
)

type charEntry struct {
	char    models.Characteristic
	service util.UUID
}

// Registry maps uuids to registered services and characteristics.
// It is not safe for concurrent use; GattServer guards it with its lock.
type Registry struct {
	order    []util.UUID
	services map[util.UUID]models.Service
	chars    map[util.UUID]charEntry
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{services: map[util.UUID]models.Service{}, chars: map[util.UUID]charEntry{}}
}

// AddService stores a copy of svc. The whole service is rejected, leaving the registry
// untouched, if its uuid or any of its characteristic uuids is already taken.
func (r *Registry) AddService(svc models.Service) error {
	if svc.UUID.IsZero() {
		return errors.Wrapf(models.ErrNilUUID, "service %q", svc.Name)
	}
	if _, ok := r.services[svc.UUID]; ok {
		return errors.Wrapf(models.ErrDuplicateUUID, "service %s already registered", svc.UUID)
	}
	candidates := mapset.NewSet()
	for _, c := range svc.Characteristics {
		if c.UUID.IsZero() {
			return errors.Wrapf(models.ErrNilUUID, "characteristic %q of service %s", c.Name, svc.UUID)
		}
		if c.Properties.Empty() {
			return errors.Wrapf(models.ErrInvalidCharacteristic, "characteristic %s of service %s", c.UUID, svc.UUID)
		}
		if !candidates.Add(c.UUID) {
			return errors.Wrapf(models.ErrDuplicateUUID, "service %s declares characteristic %s twice", svc.UUID, c.UUID)
		}
		if owner, ok := r.chars[c.UUID]; ok {
			return errors.Wrapf(models.ErrDuplicateUUID, "characteristic %s already registered by service %s", c.UUID, owner.service)
		}
	}
	svc = svc.Copy()
	r.order = append(r.order, svc.UUID)
	r.services[svc.UUID] = svc
	for _, c := range svc.Characteristics {
		r.chars[c.UUID] = charEntry{char: c, service: svc.UUID}
	}
	return nil
}

// RemoveAll clears the registry
func (r *Registry) RemoveAll() {
	r.order = nil
	r.services = map[util.UUID]models.Service{}
	r.chars = map[util.UUID]charEntry{}
}

// Characteristic looks a characteristic up by its uuid and returns the uuid of its service
func (r *Registry) Characteristic(uuid util.UUID) (models.Characteristic, util.UUID, bool) {
	e, ok := r.chars[uuid]
	return e.char, e.service, ok
}

// clone returns a registry sharing the stored services, which are never mutated once added
func (r *Registry) clone() *Registry {
	c := &Registry{
		order:    append([]util.UUID{}, r.order...),
		services: make(map[util.UUID]models.Service, len(r.services)),
		chars:    make(map[util.UUID]charEntry, len(r.chars)),
	}
	for k, v := range r.services {
		c.services[k] = v
	}
	for k, v := range r.chars {
		c.chars[k] = v
	}
	return c
}

func (r *Registry) Len() int { return len(r.order) }

// ServiceUUIDs returns the service uuids in registration order
func (r *Registry) ServiceUUIDs() []util.UUID {
	uuids := make([]util.UUID, len(r.order))
	copy(uuids, r.order)
	return uuids
}

// Snapshot returns a deep copy of the registered services in registration order
func (r *Registry) Snapshot() models.ServiceTable {
	table := make(models.ServiceTable, 0, len(r.order))
	for _, uuid := range r.order {
		table = append(table, r.services[uuid].Copy())
	}
	return table
}

// Validate fails with ErrEmptyRegistry when there is nothing to advertise
func (r *Registry) Validate() error {
	if len(r.order) == 0 {
		return errors.Wrap(models.ErrEmptyRegistry, "no services registered")
	}
	for _, uuid := range r.order {
		if len(r.services[uuid].Characteristics) == 0 {
			return errors.Wrapf(models.ErrEmptyRegistry, "service %s has no characteristics", uuid)
		}
	}
	return nil
}

// SortedCharacteristicUUIDs lists every registered characteristic uuid in textual order
func (r *Registry) SortedCharacteristicUUIDs() []util.UUID {
	uuids := make([]util.UUID, 0, len(r.chars))
	for uuid := range r.chars {
		uuids = append(uuids, uuid)
	}
	slice.Sort(uuids, func(i, j int) bool {
		return uuids[i].String() < uuids[j].String()
	})
	return uuids
}
