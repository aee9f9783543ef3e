package trace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	contractx "github.com/zhafran/support-triage/agent/contract"
)

var ErrInvalidRecord = errors.New("invalid turn record")

type Config struct {
	DSN     string        `envconfig:"DSN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// turnRow is the persisted shape of a completed turn. Rows are append-only;
// nothing in the routing path reads them back.
type turnRow struct {
	bun.BaseModel `bun:"table:turn_traces"`

	ID        int64     `bun:"id,pk,autoincrement"`
	SessionID string    `bun:"session_id,notnull"`
	TurnAt    time.Time `bun:"turn_at,notnull"`
	UserName  string    `bun:"user_name,notnull"`
	Premium   bool      `bun:"premium,notnull"`
	IssueType string    `bun:"issue_type,notnull"`
	Target    string    `bun:"target,notnull"`
	ToolCalls string    `bun:"tool_calls"`
	Reply     string    `bun:"reply"`
}

// Store writes turn audit rows to Postgres through bun.
type Store struct {
	db      *bun.DB
	timeout time.Duration
}

var _ contractx.TraceStore = (*Store)(nil)

func NewStore(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("trace dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &Store{db: db, timeout: timeout}, nil
}

// Init creates the trace table when it does not exist yet.
func (s *Store) Init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.NewCreateTable().
		Model((*turnRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create turn_traces table: %w", err)
	}
	return nil
}

func (s *Store) RecordTurn(ctx context.Context, rec contractx.TurnRecord) error {
	row, err := newTurnRow(rec)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert turn trace: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func newTurnRow(rec contractx.TurnRecord) (*turnRow, error) {
	if strings.TrimSpace(rec.SessionID) == "" {
		return nil, fmt.Errorf("%w: session id is empty", ErrInvalidRecord)
	}
	if strings.TrimSpace(string(rec.Target)) == "" {
		return nil, fmt.Errorf("%w: target is empty", ErrInvalidRecord)
	}

	turnAt := rec.TurnAt
	if turnAt.IsZero() {
		turnAt = time.Now()
	}

	calls := make([]string, 0, len(rec.ToolCalls))
	for _, id := range rec.ToolCalls {
		calls = append(calls, string(id))
	}

	return &turnRow{
		SessionID: rec.SessionID,
		TurnAt:    turnAt.UTC(),
		UserName:  rec.UserName,
		Premium:   rec.Premium,
		IssueType: string(rec.IssueType),
		Target:    string(rec.Target),
		ToolCalls: strings.Join(calls, ","),
		Reply:     rec.Reply,
	}, nil
}

// NoopStore satisfies the trace contract when no DSN is configured.
type NoopStore struct{}

var _ contractx.TraceStore = NoopStore{}

func NewNoopStore() NoopStore {
	return NoopStore{}
}

func (NoopStore) RecordTurn(context.Context, contractx.TurnRecord) error {
	return nil
}
