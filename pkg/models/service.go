package models

import (
	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"github.com/pkg/errors"
)

// Characteristic is a GATT characteristic declaration. Name is only used for diagnostics.
type Characteristic struct {
	UUID       util.UUID
	Name       string
	Properties Properties
}

// NewCharacteristic returns a characteristic declaration
func NewCharacteristic(name string, uuid util.UUID, props Properties) Characteristic {
	return Characteristic{UUID: uuid, Name: name, Properties: props}
}

// Service is a GATT service holding an ordered list of characteristics.
type Service struct {
	UUID            util.UUID
	Name            string
	Characteristics []Characteristic
}

// NewService returns a service with the given characteristics
func NewService(name string, uuid util.UUID, chars ...Characteristic) *Service {
	s := &Service{UUID: uuid, Name: name}
	s.Characteristics = append(s.Characteristics, chars...)
	return s
}

// AddCharacteristic appends c. It fails if the service already holds a characteristic with c's uuid.
func (s *Service) AddCharacteristic(c Characteristic) error {
	for _, char := range s.Characteristics {
		if char.UUID == c.UUID {
			return errors.Wrapf(ErrDuplicateUUID, "service %s already contains characteristic %s", s.UUID, c.UUID)
		}
	}
	s.Characteristics = append(s.Characteristics, c)
	return nil
}

// Copy returns a deep copy of s.
func (s Service) Copy() Service {
	chars := make([]Characteristic, len(s.Characteristics))
	copy(chars, s.Characteristics)
	s.Characteristics = chars
	return s
}

// ServiceTable is an ordered snapshot of registered services handed to the radio.
type ServiceTable []Service

// ServiceUUIDs returns the service uuids in table order.
func (t ServiceTable) ServiceUUIDs() []util.UUID {
	uuids := make([]util.UUID, 0, len(t))
	for _, s := range t {
		uuids = append(uuids, s.UUID)
	}
	return uuids
}
