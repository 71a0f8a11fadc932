package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/graphquery/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// SocketIOOptions configure the socket.io bridge.
type SocketIOOptions struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	// ConnectTimeout bounds the initial handshake. Zero means 15s.
	ConnectTimeout time.Duration
}

// SocketIO emits every event on a socket.io connection, using the event kind
// as the socket.io event name.
type SocketIO struct {
	io *socket.Socket
}

// DialSocketIO connects to a socket.io server over websocket and waits for
// the handshake to finish.
func DialSocketIO(ctx context.Context, opts SocketIOOptions) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("notifier", "socketio", "url", opts.URL)

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	connected := make(chan error, 1)
	manager := socket.NewManager(fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host), sopts)
	io := manager.Socket(opts.Namespace, sopts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected", "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(args ...any) {
		connected <- connectError(args)
	})
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &SocketIO{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

// connectError turns the arguments of a connect_error event into an error.
func connectError(args []any) error {
	if len(args) == 0 {
		return errors.New("connect_error without details")
	}
	if err, ok := args[0].(error); ok && err != nil {
		return err
	}
	return fmt.Errorf("%v", args[0])
}

// Notify emits ev. Events are dropped while disconnected.
func (s *SocketIO) Notify(ctx context.Context, ev Event) {
	if !s.io.Connected() {
		ctxlog.FromContext(ctx).Debug("Dropping event, socket.io is disconnected", "kind", ev.Kind)
		return
	}
	s.io.Emit(string(ev.Kind), ev)
}

func (s *SocketIO) Close() error {
	s.io.Disconnect()
	return nil
}
