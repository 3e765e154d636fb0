package server

import (
	"time"

	"github.com/Krajiyah/ble-peripheral/pkg/util"
	"github.com/sirupsen/logrus"
)

// Config tunes a GattServer. Zero fields take their defaults.
type Config struct {
	// StartTimeout bounds the wait for the radio to confirm advertising
	StartTimeout time.Duration
	// StopTimeout bounds the wait for the radio to acknowledge a stop
	StopTimeout time.Duration
	// HandlerBudget is the latency above which a read or write handler is logged
	HandlerBudget time.Duration
	// MaxAdvertisingPayload is the advertising packet ceiling in bytes
	MaxAdvertisingPayload int
	Logger                *logrus.Logger
	Listener              Listener
}

// DefaultConfig returns the configuration used for zero fields
func DefaultConfig() Config {
	return Config{
		StartTimeout:          util.DefaultStartTimeout,
		StopTimeout:           util.DefaultStopTimeout,
		HandlerBudget:         util.DefaultHandlerBudget,
		MaxAdvertisingPayload: util.MaxLegacyAdvertisingPayload,
		Logger:                logrus.StandardLogger(),
		Listener:              nopListener{},
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.StartTimeout <= 0 {
		c.StartTimeout = d.StartTimeout
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = d.StopTimeout
	}
	if c.HandlerBudget <= 0 {
		c.HandlerBudget = d.HandlerBudget
	}
	if c.MaxAdvertisingPayload <= 0 {
		c.MaxAdvertisingPayload = d.MaxAdvertisingPayload
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	if c.Listener == nil {
		c.Listener = d.Listener
	}
	return c
}
