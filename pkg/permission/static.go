package permission

import (
	"context"
	"sync"

	"github.com/Krajiyah/ble-peripheral/pkg/models"
	"github.com/pkg/errors"
)

// StaticGate answers from fixed values. Activation turns the radio on when Activatable is set.
type StaticGate struct {
	Result      models.PermissionResult
	Activatable bool
	// Err, when set, is returned by every check
	Err error

	mu      sync.Mutex
	enabled bool
}

// NewStaticGate returns a gate granting access with the radio in the given power state
func NewStaticGate(enabled bool) *StaticGate {
	return &StaticGate{Result: models.PermissionGranted, Activatable: true, enabled: enabled}
}

func (g *StaticGate) CheckAndRequestPermissions(context.Context) (models.PermissionResult, error) {
	if g.Err != nil {
		return models.PermissionDenied, g.Err
	}
	return g.Result, nil
}

func (g *StaticGate) IsRadioEnabled(context.Context) (bool, error) {
	if g.Err != nil {
		return false, g.Err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled, nil
}

func (g *StaticGate) RequestRadioActivation(context.Context) error {
	if !g.Activatable {
		return errors.Wrap(models.ErrRadioDisabled, "activation declined")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enabled = true
	return nil
}
