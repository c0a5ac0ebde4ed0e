// Package store persists asset inventories and risk analyses in PostgreSQL,
// and reads inventories from JSON files when no database is configured.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/riskledger/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoDatabase is returned when persistence is requested without a database URL.
var ErrNoDatabase = errors.New("no database configured")

// MaxAssetDocuments caps how many inventory documents one analysis loads.
const MaxAssetDocuments = 100

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store provides the PostgreSQL implementation of schemas.AssetStore and
// schemas.AnalysisStore.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{pool: pool, log: logger.Named("store")}, nil
}

// Open connects a pool to url and wraps it in a Store. The caller closes the
// returned pool.
func Open(ctx context.Context, url string, logger *zap.Logger) (*Store, *pgxpool.Pool, error) {
	if url == "" {
		return nil, nil, ErrNoDatabase
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	s, err := New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return s, pool, nil
}

const sqlSchema = `
CREATE TABLE IF NOT EXISTS asset_inventory (
    id          TEXT PRIMARY KEY,
    owner_id    TEXT NOT NULL,
    filename    TEXT NOT NULL,
    uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    data        JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS asset_inventory_owner_idx ON asset_inventory (owner_id, uploaded_at DESC);
CREATE TABLE IF NOT EXISTS risk_analyses (
    id                        UUID PRIMARY KEY,
    owner_id                  TEXT NOT NULL,
    generated_at              TIMESTAMPTZ NOT NULL,
    summary                   JSONB NOT NULL,
    tier_stats                JSONB NOT NULL,
    vulnerabilities_processed INTEGER NOT NULL,
    assets_mapped             INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS risk_tickets (
    analysis_id      UUID NOT NULL REFERENCES risk_analyses (id) ON DELETE CASCADE,
    ticket_number    INTEGER NOT NULL,
    severity         TEXT NOT NULL,
    severity_weight  INTEGER NOT NULL,
    asset_name       TEXT NOT NULL,
    asset_confidence INTEGER NOT NULL,
    total_exposure   NUMERIC(18,2) NOT NULL,
    rosi_percentage  NUMERIC(18,2) NOT NULL,
    recommendation   TEXT NOT NULL,
    source_tool      TEXT,
    file             TEXT,
    line             INTEGER,
    rule_id          TEXT,
    ticket           JSONB NOT NULL,
    PRIMARY KEY (analysis_id, ticket_number)
);`

// EnsureSchema creates the tables the store uses when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, sqlSchema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

const sqlListAssets = `
        SELECT id, owner_id, filename, uploaded_at, data
        FROM asset_inventory
        WHERE owner_id = $1
        ORDER BY uploaded_at DESC
        LIMIT $2;
    `

// ListAssetDocuments returns the owner's most recent inventory documents.
// A document whose data cannot be decoded is skipped and logged.
func (s *Store) ListAssetDocuments(ctx context.Context, ownerID string) ([]schemas.AssetDocument, error) {
	rows, err := s.pool.Query(ctx, sqlListAssets, ownerID, MaxAssetDocuments)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset inventory: %w", err)
	}
	defer rows.Close()

	var docs []schemas.AssetDocument
	for rows.Next() {
		var (
			doc schemas.AssetDocument
			raw []byte
		)
		if err := rows.Scan(&doc.ID, &doc.OwnerID, &doc.Filename, &doc.UploadedAt, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan asset row: %w", err)
		}
		if err := json.Unmarshal(raw, &doc.Data); err != nil {
			s.log.Warn("Skipping asset document with undecodable data.",
				zap.String("document_id", doc.ID), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return docs, nil
}

const sqlInsertAnalysis = `
        INSERT INTO risk_analyses (id, owner_id, generated_at, summary, tier_stats, vulnerabilities_processed, assets_mapped)
        VALUES ($1, $2, $3, $4, $5, $6, $7);
    `

// TicketColumns is the column order of the risk_tickets COPY.
var TicketColumns = []string{
	"analysis_id", "ticket_number", "severity", "severity_weight", "asset_name", "asset_confidence",
	"total_exposure", "rosi_percentage", "recommendation", "source_tool", "file", "line", "rule_id", "ticket",
}

// PersistAnalysis writes the analysis and all of its tickets in one transaction.
func (s *Store) PersistAnalysis(ctx context.Context, result *schemas.AnalysisResult) error {
	if result == nil {
		return errors.New("cannot persist a nil analysis")
	}
	summary, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	tierStats, err := json.Marshal(result.TierStats)
	if err != nil {
		return fmt.Errorf("failed to encode tier stats: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlInsertAnalysis,
		result.AnalysisID, result.OwnerID, result.GeneratedAt.UTC(),
		summary, tierStats, result.VulnerabilitiesProcessed, result.AssetsMapped,
	); err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	if len(result.RiskTickets) > 0 {
		if err := s.persistTickets(ctx, tx, result.AnalysisID, result.RiskTickets); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Info("Persisted risk analysis.",
		zap.String("analysis_id", result.AnalysisID),
		zap.Int("tickets", len(result.RiskTickets)))
	return nil
}

func (s *Store) persistTickets(ctx context.Context, tx pgx.Tx, analysisID string, tickets []schemas.RiskTicket) error {
	rows := make([][]any, len(tickets))
	for i, t := range tickets {
		doc, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to encode ticket %d: %w", t.TicketNumber, err)
		}
		td := t.TechnicalDetails
		rows[i] = []any{
			analysisID, t.TicketNumber, t.Severity, t.SeverityWeight, t.AssetName, t.AssetConfidence,
			t.FinancialExposure.Total, t.ROSI.ROSIPercentage, t.ROSI.Recommendation,
			td.SourceTool, td.File, td.Line, td.RuleID, doc,
		}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"risk_tickets"}, TicketColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy risk tickets: %w", err)
	}
	if int(n) != len(tickets) {
		return fmt.Errorf("mismatch in copied tickets count: expected %d, got %d", len(tickets), n)
	}
	return nil
}
