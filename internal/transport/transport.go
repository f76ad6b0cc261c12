// Package transport implements the point-to-point message-passing fabric
// spec.md §2 and §5 describe: a worker sends exactly one Alert (tag 0) to
// the coordinator, which receives from any source in arrival order — the
// TCP analogue of MPI_Send/MPI_Recv(MPI_ANY_SOURCE). There is no framing
// beyond wire.Alert's own length prefix, no acks, no heartbeats, and no
// per-call timeout: a worker that never connects wedges the coordinator,
// matching spec.md §5's acknowledged lack of cancellation.
package transport

import (
	"fmt"
	"net"

	"github.com/rs/zerolog/log"

	"github.com/skywalker-88/stormgate-ddos/internal/wire"
)

// Send dials coordAddr and writes exactly one Alert, then closes the
// connection. This is the worker's one blocking suspension point.
func Send(coordAddr string, a wire.Alert) error {
	conn, err := net.Dial("tcp", coordAddr)
	if err != nil {
		return fmt.Errorf("transport: dial coordinator %s: %w", coordAddr, err)
	}
	defer conn.Close()

	if err := a.Encode(conn); err != nil {
		return fmt.Errorf("transport: send alert: %w", err)
	}
	log.Debug().Int32("rank", a.WorkerRank).Str("coord_addr", coordAddr).Msg("alert_sent")
	return nil
}

// Listener accepts worker connections and yields one Alert per connection,
// in arrival order, until numWorkers alerts have been received.
type Listener struct {
	ln net.Listener
}

// Listen binds addr and returns a Listener ready to Collect from it.
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	return &Listener{ln: ln}, nil
}

// Addr reports the bound address (useful when addr was ":0").
func (l *Listener) Addr() string { return l.ln.Addr().String() }

// Close stops accepting new connections.
func (l *Listener) Close() error { return l.ln.Close() }

// Received pairs a decoded Alert with the wall-clock point at which its
// connection was accepted, so the coordinator can derive per-worker
// communication overhead (spec.md §4.8 step 1).
type Received struct {
	Alert      wire.Alert
	AcceptedAt int64 // UnixNano
}

// Collect blocks until numWorkers alerts have arrived, accepting from any
// source (the rank wildcard) in whatever order connections land.
func (l *Listener) Collect(numWorkers int, now func() int64) ([]Received, error) {
	out := make([]Received, 0, numWorkers)
	for i := 0; i < numWorkers; i++ {
		conn, err := l.ln.Accept()
		if err != nil {
			return out, fmt.Errorf("transport: accept: %w", err)
		}
		acceptedAt := now()

		a, err := wire.Decode(conn)
		closeErr := conn.Close()
		if err != nil {
			return out, fmt.Errorf("transport: decode alert: %w", err)
		}
		if closeErr != nil {
			log.Warn().Err(closeErr).Msg("transport: close worker connection")
		}

		out = append(out, Received{Alert: a, AcceptedAt: acceptedAt})
		log.Debug().Int32("rank", a.WorkerRank).Int("received", i+1).Int("of", numWorkers).Msg("alert_received")
	}
	return out, nil
}
