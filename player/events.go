package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/minplayer/minplayer/log"
)

// observed lists the mpv properties the lifecycle follows.
var observed = []string{
	"pause",
	"paused-for-cache",
	"eof-reached",
	"duration",
	"volume",
}

// eventListener keeps one connection open to mpv and forwards property changes and
// events to a callback, from its own goroutine.
type eventListener struct {
	socketPath string
	callback   func(ipcMessage)

	mu        sync.Mutex
	conn      net.Conn
	listening bool
}

func newEventListener(socketPath string, callback func(ipcMessage)) *eventListener {
	return &eventListener{
		socketPath: socketPath,
		callback:   callback,
	}
}

// Start observes the lifecycle properties and begins reading.
// Observers are registered on the listening connection so mpv reports to it.
func (el *eventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	encoder := json.NewEncoder(conn)
	for i, name := range observed {
		if err := encoder.Encode(ipcRequest{Command: []any{"observe_property", i + 1, name}}); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	el.conn = conn
	el.listening = true
	go el.readLoop(conn)

	log.Debugf("mpv event listener started on %s", el.socketPath)
	return nil
}

// Stop closes the connection, which ends the read loop.
func (el *eventListener) Stop() {
	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.listening {
		return
	}

	el.listening = false
	_ = el.conn.Close()
}

func (el *eventListener) readLoop(conn net.Conn) {
	defer func() {
		el.mu.Lock()
		el.listening = false
		el.mu.Unlock()
	}()

	// mpv sends one JSON object per line
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		// replies to our observe_property requests
		if msg.Event == "" {
			continue
		}
		el.callback(msg)
	}

	if err := scanner.Err(); err != nil {
		el.mu.Lock()
		stopped := !el.listening
		el.mu.Unlock()
		if !stopped {
			log.Warnf("mpv event listener read error: %v", err)
		}
	}
}
