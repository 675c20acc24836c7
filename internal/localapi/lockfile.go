package localapi

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const authUser = "riot"

var ErrNotRunning = errors.New("localapi: game client not running")

// Lockfile is the connection info the game client publishes.
type Lockfile struct {
	Name     string
	PID      int
	Port     int
	Password string
	Protocol string
}

// ParseLockfile parses "name:pid:port:password:protocol".
func ParseLockfile(data []byte) (Lockfile, error) {
	parts := strings.Split(strings.TrimSpace(string(data)), ":")
	if len(parts) != 5 {
		return Lockfile{}, fmt.Errorf("localapi: lockfile has %d fields, want 5", len(parts))
	}
	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return Lockfile{}, fmt.Errorf("localapi: lockfile pid: %w", err)
	}
	port, err := strconv.Atoi(parts[2])
	if err != nil || port <= 0 || port > 65535 {
		return Lockfile{}, fmt.Errorf("localapi: lockfile port %q", parts[2])
	}
	if parts[3] == "" {
		return Lockfile{}, errors.New("localapi: lockfile password is empty")
	}
	proto := strings.ToLower(parts[4])
	if proto != "https" && proto != "http" {
		return Lockfile{}, fmt.Errorf("localapi: lockfile protocol %q", parts[4])
	}
	return Lockfile{Name: parts[0], PID: pid, Port: port, Password: parts[3], Protocol: proto}, nil
}

// ReadLockfile reads and parses path. A missing file yields ErrNotRunning.
func ReadLockfile(path string) (Lockfile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Lockfile{}, ErrNotRunning
	}
	if err != nil {
		return Lockfile{}, err
	}
	return ParseLockfile(data)
}

// Host is the loopback host:port of the API.
func (l Lockfile) Host() string {
	return "127.0.0.1:" + strconv.Itoa(l.Port)
}

// BaseURL is the HTTP root of the API.
func (l Lockfile) BaseURL() string {
	return l.Protocol + "://" + l.Host()
}

// EventURL is the websocket endpoint of the API.
func (l Lockfile) EventURL() string {
	if l.Protocol == "https" {
		return "wss://" + l.Host() + "/"
	}
	return "ws://" + l.Host() + "/"
}
