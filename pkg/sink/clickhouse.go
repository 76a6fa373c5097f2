package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"faultline/pkg/fault"
)

const insertTimeout = 10 * time.Second

// Table names are interpolated into DDL and INSERT statements, so they
// must be plain identifiers.
var validTable = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ClickHouse stores reported records as rows for offline analysis.
// Each report becomes one row carrying the flattened chain, so fault
// volumes can be sliced by kind and category after the fact.
type ClickHouse struct {
	conn   clickhouse.Conn
	table  string
	logger *zap.Logger
}

// NewClickHouse opens a connection with opts and returns a reporter
// inserting into table. The logger is optional and only used for
// insert failures.
func NewClickHouse(opts *clickhouse.Options, table string, logger *zap.Logger) (*ClickHouse, error) {
	if !validTable.MatchString(table) {
		return nil, fault.Newf(fault.KindMalformedInput, "invalid clickhouse table name %q", table)
	}
	if opts == nil {
		opts = &clickhouse.Options{}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fault.Wrap(fault.KindResourceUnavailable, "open clickhouse connection", err)
	}

	return &ClickHouse{conn: conn, table: table, logger: logger}, nil
}

// EnsureSchema creates the report table when it does not exist yet.
func (c *ClickHouse) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id          UUID,
    reported_at DateTime64(3, 'UTC'),
    kind        LowCardinality(String),
    category    LowCardinality(String),
    transient   Bool,
    message     String,
    chain       String,
    context     String
) ENGINE = MergeTree
ORDER BY (reported_at, kind)`, c.table)

	if err := c.conn.Exec(ctx, ddl); err != nil {
		return fault.Wrap(fault.KindResourceUnavailable, "create report table", err)
	}
	return nil
}

// Report implements fault.Reporter.
func (c *ClickHouse) Report(rec *fault.Record) {
	if c == nil || c.conn == nil || rec == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	payload := "{}"
	if rc := rec.Context(); len(rc) > 0 {
		if data, err := json.Marshal(rc); err == nil {
			payload = string(data)
		}
	}

	batch, err := c.conn.PrepareBatch(ctx, "INSERT INTO "+c.table)
	if err != nil {
		c.warn("prepare report batch", err)
		return
	}
	if err := batch.Append(
		uuid.New(),
		time.Now().UTC(),
		rec.Kind().Name(),
		string(rec.Category()),
		fault.IsTransient(rec),
		rec.Message(),
		fault.DebugString(rec),
		payload,
	); err != nil {
		c.warn("append report row", err)
		return
	}
	if err := batch.Send(); err != nil {
		c.warn("send report batch", err)
	}
}

// Close closes the underlying connection.
func (c *ClickHouse) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *ClickHouse) warn(msg string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(msg, zap.Error(err))
}
