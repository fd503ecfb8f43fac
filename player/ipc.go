package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ipcRequest is the JSON structure sent to mpv's IPC socket.
type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// ipcMessage is any line mpv writes back: a reply carries request_id and error,
// an event carries event.
type ipcMessage struct {
	RequestID int64  `json:"request_id"`
	Error     string `json:"error"`
	Data      any    `json:"data"`
	Event     string `json:"event"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
	FileError string `json:"file_error"`
}

const (
	ipcRetries      = 3
	ipcRetryDelay   = 100 * time.Millisecond
	ipcReadDeadline = time.Second
)

// errPropertyUnavailable is mpv's answer for properties without a value yet
// (duration before the file is loaded, time-pos while idle).
var errPropertyUnavailable = errors.New("property unavailable")

// ipcClient sends commands to mpv, one connection per command.
type ipcClient struct {
	socketPath string
	mu         sync.Mutex
	nextID     atomic.Int64
}

// call sends a command and returns the reply data. Transient connection errors are retried.
func (c *ipcClient) call(command ...any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < ipcRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(ipcRetryDelay)
		}

		data, err := c.roundTrip(command)
		if err == nil {
			return data, nil
		}
		// mpv answered, retrying would not change its mind
		if isMPVError(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("ipc %v failed after %d attempts: %w", command[0], ipcRetries, lastErr)
}

func (c *ipcClient) roundTrip(command []any) (any, error) {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	id := c.nextID.Add(1)
	payload, err := json.Marshal(ipcRequest{Command: command, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	// mpv requires newline-delimited JSON
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(ipcReadDeadline)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	// events can arrive on the same connection before the reply
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Event != "" || msg.RequestID != id {
			continue
		}
		return msg.Data, replyError(msg.Error)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return nil, fmt.Errorf("read: connection closed before reply")
}

type mpvError struct {
	message string
}

func (e *mpvError) Error() string {
	return "mpv error: " + e.message
}

func (e *mpvError) Is(target error) bool {
	return target == errPropertyUnavailable && strings.Contains(e.message, "property unavailable")
}

func replyError(message string) error {
	if message == "" || message == "success" {
		return nil
	}
	return &mpvError{message: message}
}

func isMPVError(err error) bool {
	var e *mpvError
	return errors.As(err, &e)
}
