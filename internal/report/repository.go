package report

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/stockscan/internal/contracts"
)

// Repository persists analysis results and signals to Postgres. Optional:
// runs without a DATABASE_URL simply skip it.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository over an existing pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the result tables when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS analysis_results (
			id BIGSERIAL PRIMARY KEY,
			run_at TIMESTAMPTZ NOT NULL,
			code TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			strategy TEXT NOT NULL,
			metrics JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (run_at, code, strategy)
		);
		CREATE TABLE IF NOT EXISTS signals (
			id BIGSERIAL PRIMARY KEY,
			run_at TIMESTAMPTZ NOT NULL,
			code TEXT NOT NULL,
			strategy TEXT NOT NULL,
			signal_type TEXT NOT NULL,
			signal_date DATE NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			attributes JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (run_at, code, strategy)
		)`

	_, err := r.pool.Exec(ctx, ddl)
	return err
}

// SaveRun stores every result of one batch run, upserting on conflict.
func (r *Repository) SaveRun(ctx context.Context, runAt time.Time, results []*contracts.AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	resultQuery := `
		INSERT INTO analysis_results (run_at, code, name, strategy, metrics)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_at, code, strategy) DO UPDATE SET
			metrics = EXCLUDED.metrics`
	signalQuery := `
		INSERT INTO signals (run_at, code, strategy, signal_type, signal_date, price, attributes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_at, code, strategy) DO UPDATE SET
			signal_type = EXCLUDED.signal_type,
			signal_date = EXCLUDED.signal_date,
			price = EXCLUDED.price,
			attributes = EXCLUDED.attributes`

	queued := 0
	for _, res := range results {
		metrics, err := json.Marshal(res.Metrics)
		if err != nil {
			return err
		}
		batch.Queue(resultQuery, runAt, res.Instrument.Code, res.Instrument.Name, res.StrategyID, metrics)
		queued++

		if res.HasSignal() {
			attrs, err := json.Marshal(res.Signal.Attributes)
			if err != nil {
				return err
			}
			batch.Queue(signalQuery, runAt, res.Instrument.Code, res.StrategyID,
				string(res.Signal.Type), res.Signal.Date, res.Signal.Price, attrs)
			queued++
		}
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < queued; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// RecentSignals returns signals from the last N days, newest first.
func (r *Repository) RecentSignals(ctx context.Context, days int) ([]contracts.Signal, error) {
	query := `
		SELECT code, strategy, signal_type, signal_date, price
		FROM signals
		WHERE signal_date >= CURRENT_DATE - $1::int
		ORDER BY signal_date DESC, code`

	rows, err := r.pool.Query(ctx, query, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signals []contracts.Signal
	for rows.Next() {
		var s contracts.Signal
		var typ string
		if err := rows.Scan(&s.Instrument.Code, &s.StrategyID, &typ, &s.Date, &s.Price); err != nil {
			return nil, err
		}
		s.Type = contracts.SignalType(typ)
		signals = append(signals, s)
	}
	return signals, rows.Err()
}
