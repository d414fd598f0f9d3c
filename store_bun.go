package speak

import (
	"context"
	"database/sql"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// TokenRecord is the single-row model backing BunTokenStore.
type TokenRecord struct {
	bun.BaseModel `bun:"table:session_tokens,alias:st"`

	Name      string    `bun:"name,pk"`
	Token     string    `bun:"token,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// BunTokenStore implements TokenStore on SQLite through bun, for hosts that
// already carry a database and want the token slot inside it.
type BunTokenStore struct {
	db     *bun.DB
	name   string
	logger Logger
}

var _ TokenStore = (*BunTokenStore)(nil)

// NewBunTokenStore opens (or creates) the SQLite database at dsn and
// ensures the session_tokens table exists.
func NewBunTokenStore(dsn string) (*BunTokenStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open token database")
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.NewCreateTable().
		Model((*TokenRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create token table")
	}

	return &BunTokenStore{
		db:     db,
		name:   TokenSlotName,
		logger: defLogger{},
	}, nil
}

func (s *BunTokenStore) WithLogger(logger Logger) *BunTokenStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *BunTokenStore) Load() (string, bool) {
	ctx, cancel := s.opContext()
	defer cancel()

	record := &TokenRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("name = ?", s.name).
		Scan(ctx)
	if err != nil || record.Token == "" {
		return "", false
	}
	return record.Token, true
}

func (s *BunTokenStore) Save(token string) {
	ctx, cancel := s.opContext()
	defer cancel()

	record := &TokenRecord{
		Name:      s.name,
		Token:     token,
		UpdatedAt: time.Now(),
	}

	if _, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (name) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		s.logger.Error("token store save failed", "error", err)
	}
}

func (s *BunTokenStore) Clear() {
	ctx, cancel := s.opContext()
	defer cancel()

	if _, err := s.db.NewDelete().
		Model((*TokenRecord)(nil)).
		Where("name = ?", s.name).
		Exec(ctx); err != nil {
		s.logger.Error("token store clear failed", "error", err)
	}
}

// Close releases the underlying database handle.
func (s *BunTokenStore) Close() error {
	return s.db.Close()
}

func (s *BunTokenStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
