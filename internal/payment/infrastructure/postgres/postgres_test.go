package postgres_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	err = pool.Client.Ping()
	if err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "17-alpine",
		Env: []string{
			"POSTGRES_USER=ledgerpay",
			"POSTGRES_PASSWORD=ledgerpay",
			"POSTGRES_DB=ledgerpay",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}

	hostPort := resource.GetHostPort("5432/tcp")
	databaseURL := fmt.Sprintf("postgres://ledgerpay:ledgerpay@%s/ledgerpay?sslmode=disable", hostPort)

	// Set a hard deadline for container startup
	resource.Expire(120)

	pool.MaxWait = 60 * time.Second
	if err := pool.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var poolErr error
		testPool, poolErr = pgxpool.New(ctx, databaseURL)
		if poolErr != nil {
			return poolErr
		}

		return testPool.Ping(ctx)
	}); err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	if err := runMigrations(context.Background(), testPool); err != nil {
		log.Fatalf("Could not run migrations: %s", err)
	}

	code := m.Run()

	testPool.Close()

	if err := pool.Purge(resource); err != nil {
		log.Fatalf("Could not purge resource: %s", err)
	}

	os.Exit(code)
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	// Mirrors migrations/000001_initial_schema.up.sql.
	migrations := []string{
		`CREATE TABLE accounts (
			id CHAR(26) PRIMARY KEY,
			owner_id VARCHAR(255) NOT NULL,
			currency CHAR(3) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT chk_account_status CHECK (status IN ('ACTIVE', 'SUSPENDED', 'CLOSED'))
		);`,
		`CREATE TABLE account_balances (
			account_id CHAR(26) PRIMARY KEY REFERENCES accounts(id),
			available_minor BIGINT NOT NULL DEFAULT 0,
			pending_minor BIGINT NOT NULL DEFAULT 0,
			currency CHAR(3) NOT NULL,
			version BIGINT NOT NULL DEFAULT 1,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT chk_available_non_negative CHECK (available_minor >= 0)
		);`,
		`CREATE TABLE payments (
			id CHAR(26) PRIMARY KEY,
			idempotency_key VARCHAR(255) NOT NULL UNIQUE,
			payer_account_id CHAR(26) NOT NULL,
			payee_account_id CHAR(26) NOT NULL,
			amount_minor BIGINT NOT NULL,
			currency CHAR(3) NOT NULL,
			status VARCHAR(20) NOT NULL,
			description TEXT,
			error_code VARCHAR(50),
			error_message TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT chk_payment_status CHECK (status IN ('AUTHORIZED', 'DECLINED'))
		);`,
		`CREATE INDEX ix_payments_payer ON payments(payer_account_id);`,
		`CREATE INDEX ix_payments_payee ON payments(payee_account_id);`,
		`CREATE TABLE ledger_entries (
			id CHAR(26) PRIMARY KEY,
			payment_id CHAR(26) NOT NULL REFERENCES payments(id),
			account_id CHAR(26) NOT NULL REFERENCES accounts(id),
			entry_type VARCHAR(10) NOT NULL,
			amount_minor BIGINT NOT NULL,
			currency CHAR(3) NOT NULL,
			balance_after_minor BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT chk_entry_type CHECK (entry_type IN ('DEBIT', 'CREDIT')),
			CONSTRAINT chk_entry_amount_positive CHECK (amount_minor > 0)
		);`,
		`CREATE INDEX ix_ledger_entries_payment ON ledger_entries(payment_id);`,
		`CREATE INDEX ix_ledger_entries_account ON ledger_entries(account_id);`,
		`CREATE TABLE idempotency_keys (
			idempotency_key VARCHAR(255) PRIMARY KEY,
			payment_id CHAR(26),
			response_snapshot JSONB,
			status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL,
			CONSTRAINT chk_idempotency_status CHECK (status IN ('PENDING', 'COMPLETED', 'FAILED'))
		);`,
		`CREATE TABLE outbox (
			id CHAR(26) PRIMARY KEY,
			aggregate_type VARCHAR(100) NOT NULL,
			aggregate_id VARCHAR(255) NOT NULL,
			event_type VARCHAR(100) NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			published_at TIMESTAMPTZ,
			retry_count INTEGER NOT NULL DEFAULT 0,
			CONSTRAINT chk_event_type_not_empty CHECK (event_type <> '')
		);`,
		`CREATE INDEX ix_outbox_unpublished ON outbox(created_at) WHERE published_at IS NULL;`,
	}

	for _, sql := range migrations {
		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("migration failed: %s: %w", sql[:min(50, len(sql))], err)
		}
	}

	return nil
}

func truncateTables(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		TRUNCATE ledger_entries, outbox, payments, idempotency_keys, account_balances, accounts CASCADE
	`)
	return err
}

func getTestPool() *pgxpool.Pool {
	return testPool
}
