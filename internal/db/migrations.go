package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		email VARCHAR(320) NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email ON users (email);`,
	`CREATE TABLE IF NOT EXISTS contract (
		id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		contract_type VARCHAR(32) NOT NULL,
		writer_id BIGINT NOT NULL REFERENCES users(id),
		receiver_id BIGINT NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`DO $$
	BEGIN
		IF EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_contract_type') THEN
			ALTER TABLE contract DROP CONSTRAINT chk_contract_type;
		END IF;
		ALTER TABLE contract ADD CONSTRAINT chk_contract_type
			CHECK (contract_type IN ('SERVICE', 'EMPLOYMENT', 'LEASE', 'SALE', 'NDA', 'OTHER'));
		IF EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_contract_parties') THEN
			ALTER TABLE contract DROP CONSTRAINT chk_contract_parties;
		END IF;
		ALTER TABLE contract ADD CONSTRAINT chk_contract_parties CHECK (writer_id <> receiver_id);
	END
	$$;`,
	`CREATE INDEX IF NOT EXISTS idx_contract_writer_id ON contract (writer_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_receiver_id ON contract (receiver_id);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_type ON contract (contract_type);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
