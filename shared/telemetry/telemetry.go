// Package telemetry is the master's auxiliary status-reporting
// collaborator: a TCP client that pushes named component-status
// updates to an optional external component server and is a complete,
// silent no-op when no host is configured.
package telemetry

import (
	"fmt"
	"net"
)

const (
	setBaseAttsState byte = 8
	resetBaseAtts    byte = 9
	term             byte = 128
)

// Telemetry reports named component status updates and reset events
// to an external monitor. Reset and Update are safe to call whether
// or not a connection exists; both are no-ops when disconnected.
type Telemetry struct {
	conn net.Conn
}

// Dial connects to host:port. An empty host means telemetry is not
// in use; the returned Telemetry has no live connection and every
// call on it is a no-op.
func Dial(host string, port int) (*Telemetry, error) {
	if host == "" {
		return &Telemetry{}, nil
	}
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("telemetry: dial %s:%d: %w", host, port, err)
	}
	return &Telemetry{conn: conn}, nil
}

// Update reports that the named component now has the given status.
func (t *Telemetry) Update(name string, status byte) {
	if t == nil || t.conn == nil {
		return
	}
	msg := append([]byte{setBaseAttsState}, []byte(fmt.Sprintf("%s,%d", name, status))...)
	msg = append(msg, term)
	_, _ = t.conn.Write(msg)
}

// Reset tells the component server to clear every component's status.
func (t *Telemetry) Reset() {
	if t == nil || t.conn == nil {
		return
	}
	_, _ = t.conn.Write([]byte{resetBaseAtts})
}

// Close releases the underlying connection, if any.
func (t *Telemetry) Close() error {
	if t == nil || t.conn == nil {
		return nil
	}
	return t.conn.Close()
}
