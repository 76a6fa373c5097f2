package sink

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"faultline/pkg/fault"
)

const publishTimeout = 5 * time.Second

// NATS publishes reported records to a JetStream subject as JSON
// envelopes, for fan-in of fault reports from a fleet of processes.
type NATS struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	logger  *zap.Logger
}

// NewNATS connects to the NATS server at url and returns a reporter
// publishing to subject. The logger is optional and only used for
// publish failures.
func NewNATS(url, subject string, logger *zap.Logger) (*NATS, error) {
	if subject == "" {
		return nil, fault.New(fault.KindMalformedInput, "nats subject is required")
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fault.Wrap(fault.KindResourceUnavailable, "connect to nats", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fault.Wrap(fault.KindResourceUnavailable, "create jetstream context", err)
	}

	return &NATS{conn: conn, js: js, subject: subject, logger: logger}, nil
}

// Report implements fault.Reporter.
func (n *NATS) Report(rec *fault.Record) {
	if n == nil || n.js == nil || rec == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	data, err := fault.Encode(rec)
	if err != nil {
		n.warn("encode fault report", err)
		return
	}

	if _, err := n.js.Publish(ctx, n.subject, data); err != nil {
		n.warn("publish fault report", err)
	}
}

// Close closes the NATS connection.
func (n *NATS) Close() error {
	if n == nil || n.conn == nil {
		return nil
	}
	n.conn.Close()
	return nil
}

func (n *NATS) warn(msg string, err error) {
	if n.logger == nil {
		return
	}
	n.logger.Warn(msg, zap.Error(err))
}
