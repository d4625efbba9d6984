// Package oscio wraps UDP OSC transport for the controller.
package oscio

import (
	"fmt"
	"net"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"github.com/vjkit/gridlearn/internal/classify"
	"github.com/vjkit/gridlearn/internal/model"
)

// Client sends OSC commands to a single destination.
type Client struct {
	client *osc.Client
}

// NewClient creates a client targeting host:port.
func NewClient(host string, port int) *Client {
	return &Client{client: osc.NewClient(host, port)}
}

// Send transmits one command. Argument values are converted to OSC wire
// types; unsupported values are sent as their string form.
func (c *Client) Send(cmd model.OscCommand) error {
	msg := osc.NewMessage(cmd.Address)
	for _, arg := range cmd.Args {
		msg.Append(toWire(arg))
	}
	if err := c.client.Send(msg); err != nil {
		return fmt.Errorf("osc send %s: %w", cmd.Address, err)
	}
	return nil
}

func toWire(arg any) any {
	switch v := arg.(type) {
	case float64:
		return float32(v)
	case float32, int32, int64, string, bool:
		return v
	case int:
		return int32(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Server receives OSC messages and forwards them, enriched with a
// classifier priority, to a single callback.
type Server struct {
	server *osc.Server
	conn   net.PacketConn
}

// NewServer binds a UDP socket on listenAddr (e.g. "127.0.0.1:9999")
// dispatching every inbound message to handler.
func NewServer(listenAddr string, handler func(model.OscEvent)) (*Server, error) {
	dispatcher := osc.NewStandardDispatcher()
	err := dispatcher.AddMsgHandler("*", func(msg *osc.Message) {
		handler(classify.Enrich(msg.Address, fromWire(msg.Arguments), time.Now()))
	})
	if err != nil {
		return nil, fmt.Errorf("osc dispatcher: %w", err)
	}

	conn, err := net.ListenPacket("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("osc listen %s: %w", listenAddr, err)
	}

	return &Server{
		server: &osc.Server{Addr: listenAddr, Dispatcher: dispatcher},
		conn:   conn,
	}, nil
}

// Serve blocks reading inbound OSC until the socket closes.
func (s *Server) Serve() error {
	return s.server.Serve(s.conn)
}

// Close shuts the server socket down, unblocking Serve.
func (s *Server) Close() error {
	return s.conn.Close()
}

func fromWire(args []any) []any {
	if len(args) == 0 {
		return nil
	}
	out := make([]any, len(args))
	copy(out, args)
	return out
}
