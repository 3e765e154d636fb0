package server

// ServerState is an enum for all lifecycle states of a gatt server
type ServerState int

const (
	// Idle indicates the server was created but never initialized
	Idle ServerState = iota
	// Initializing indicates permissions and the radio are being checked
	Initializing
	// Ready indicates the radio is usable and services may be registered
	Ready
	// Starting indicates the radio was asked to advertise and has not confirmed yet
	Starting
	// Advertising indicates the server is discoverable and serving requests
	Advertising
	// Stopping indicates the radio was asked to stop advertising
	Stopping
	// Stopped indicates advertising ended and the registry was cleared
	Stopped
	// Faulted indicates the last start failed or the radio is unusable
	Faulted
)

var stateNames = [...]string{"Idle", "Initializing", "Ready", "Starting", "Advertising", "Stopping", "Stopped", "Faulted"}

func (s ServerState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// registryLocked reports whether services may not change in state s
func (s ServerState) registryLocked() bool {
	return s == Starting || s == Advertising || s == Stopping
}
