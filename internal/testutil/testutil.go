package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nurpe/signmate-contracts/internal/model"
)

var seq atomic.Int64

// schemaStatements mirror the Postgres migrations in internal/db, including
// the foreign keys and CHECK constraints.
func schemaStatements() []string {
	quoted := make([]string, 0, len(model.ContractTypes()))
	for _, ct := range model.ContractTypes() {
		quoted = append(quoted, "'"+ct.String()+"'")
	}
	return []string{
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email VARCHAR(320) NOT NULL,
			name VARCHAR(255) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX uq_users_email ON users (email)`,
		`CREATE TABLE contract (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			contract_type VARCHAR(32) NOT NULL
				CONSTRAINT chk_contract_type CHECK (contract_type IN (` + strings.Join(quoted, ", ") + `)),
			writer_id INTEGER NOT NULL REFERENCES users(id),
			receiver_id INTEGER NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			CONSTRAINT chk_contract_parties CHECK (writer_id <> receiver_id)
		)`,
		`CREATE INDEX idx_contract_writer_id ON contract (writer_id)`,
		`CREATE INDEX idx_contract_receiver_id ON contract (receiver_id)`,
		`CREATE INDEX idx_contract_type ON contract (contract_type)`,
	}
}

// dialector adds CHECK constraint translation, which the Postgres driver
// has and the SQLite driver lacks.
type dialector struct {
	*sqlite.Dialector
}

func (d dialector) Translate(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck {
		return gorm.ErrCheckConstraintViolated
	}
	return d.Dialector.Translate(err)
}

// DB opens a private in-memory SQLite database with foreign keys enabled and
// the contract schema applied.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	db, err := gorm.Open(dialector{&sqlite.Dialector{DSN: "file::memory:?_foreign_keys=on"}}, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	// each connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() {
		_ = sqlDB.Close()
	})

	for i, stmt := range schemaStatements() {
		if err := db.Exec(stmt).Error; err != nil {
			tb.Fatalf("schema statement %d: %v", i+1, err)
		}
	}
	return db
}

func SeedUser(tb testing.TB, ctx context.Context, db *gorm.DB, name string) *model.User {
	tb.Helper()
	u := &model.User{
		Email: fmt.Sprintf("%s-%d@example.com", name, seq.Add(1)),
		Name:  name,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedUserWithID inserts a user under a fixed id.
func SeedUserWithID(tb testing.TB, ctx context.Context, db *gorm.DB, id int64, name string) *model.User {
	tb.Helper()
	u := &model.User{
		ID:    id,
		Email: fmt.Sprintf("%s-%d@example.com", name, id),
		Name:  name,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user %d: %v", id, err)
	}
	return u
}

func SeedContract(tb testing.TB, ctx context.Context, db *gorm.DB, ct model.ContractType, writerID, receiverID int64) *model.Contract {
	tb.Helper()
	c := &model.Contract{
		ContractType: ct,
		WriterID:     writerID,
		ReceiverID:   receiverID,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed contract: %v", err)
	}
	return c
}

func Int64Ptr(v int64) *int64 { return &v }

func ContractTypePtr(v model.ContractType) *model.ContractType { return &v }
