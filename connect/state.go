package connect

type State int

const (
	StateIdle State = iota
	StateResolving
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// State is Resolving while GetLastConnectedWallet runs, which then restores
// the state it found.
func (c *Connector) State() State {
	c.stateLk.RLock()
	defer c.stateLk.RUnlock()
	return c.state
}

func (c *Connector) setState(s State) (prev State) {
	c.stateLk.Lock()
	defer c.stateLk.Unlock()
	prev, c.state = c.state, s
	return prev
}
