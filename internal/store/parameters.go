package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"reimburse/internal/calculator"
	"reimburse/internal/evaluate"
)

var (
	ErrNotFound  = errors.New("parameter set not found")
	ErrDuplicate = errors.New("parameter set version already stored")
)

// ParameterSet is a stored, versioned parameter set. MAE is nil until the
// set has been scored.
type ParameterSet struct {
	ID        int64                  `json:"id"`
	Version   string                 `json:"version"`
	Source    string                 `json:"source"`
	MAE       *float64               `json:"mae,omitempty"`
	Params    *calculator.Parameters `json:"params"`
	CreatedAt time.Time              `json:"created_at"`
}

// Evaluation is one scoring run of a stored set against a dataset.
type Evaluation struct {
	ID        int64     `json:"id"`
	Version   string    `json:"version"`
	Dataset   string    `json:"dataset"`
	Cases     int       `json:"cases"`
	Exact     int       `json:"exact"`
	Close     int       `json:"close"`
	MeanError float64   `json:"mean_error"`
	MaxError  float64   `json:"max_error"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveParameters stores p under p.Version. The version must be new.
func (s *Store) SaveParameters(ctx context.Context, p *calculator.Parameters, source string, mae *float64) (*ParameterSet, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Version == "" {
		return nil, fmt.Errorf("%w: empty version", calculator.ErrInvalidParameters)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode parameters: %w", err)
	}
	set := &ParameterSet{Version: p.Version, Source: source, MAE: mae, Params: p.Clone(), CreatedAt: time.Now().UTC()}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO parameter_sets (version, source, mae, params, created_at) VALUES (?, ?, ?, ?, ?)`,
		set.Version, set.Source, nullFloat(mae), string(raw), set.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, p.Version)
		}
		s.logger.Error("Failed to save parameter set", zap.String("version", p.Version), zap.Error(err))
		return nil, fmt.Errorf("failed to save parameter set: %w", err)
	}
	if set.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	s.logger.Info("Parameter set stored", zap.String("version", set.Version), zap.String("source", source))
	return set, nil
}

const selectSet = `SELECT id, version, source, mae, params, created_at FROM parameter_sets`

func (s *Store) GetParameters(ctx context.Context, version string) (*ParameterSet, error) {
	row := s.db.QueryRowContext(ctx, selectSet+` WHERE version = ?`, version)
	set, err := scanSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, version)
	}
	return set, err
}

// LatestParameters returns the most recently stored set.
func (s *Store) LatestParameters(ctx context.Context) (*ParameterSet, error) {
	row := s.db.QueryRowContext(ctx, selectSet+` ORDER BY created_at DESC, id DESC LIMIT 1`)
	set, err := scanSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return set, err
}

// ListParameters returns stored sets newest first. limit <= 0 lists all.
func (s *Store) ListParameters(ctx context.Context, limit int) ([]*ParameterSet, error) {
	query := selectSet + ` ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list parameter sets: %w", err)
	}
	defer rows.Close()
	var out []*ParameterSet
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, set)
	}
	return out, rows.Err()
}

// DeleteParameters removes a set and its evaluations.
func (s *Store) DeleteParameters(ctx context.Context, version string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM parameter_sets WHERE version = ?`, version)
	if err != nil {
		return fmt.Errorf("failed to delete parameter set: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, version)
	}
	return nil
}

// RecordEvaluation stores a scoring run and refreshes the set's MAE.
func (s *Store) RecordEvaluation(ctx context.Context, version, dataset string, st evaluate.Stats) (*Evaluation, error) {
	ev := &Evaluation{
		Version:   version,
		Dataset:   dataset,
		Cases:     st.N,
		Exact:     st.Exact,
		Close:     st.Close,
		MeanError: st.MeanError,
		MaxError:  st.MaxError,
		Score:     st.Score(),
		CreatedAt: time.Now().UTC(),
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var setID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM parameter_sets WHERE version = ?`, version).Scan(&setID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, version)
		}
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO evaluations (
				parameter_set_id, dataset, cases, exact, close, mean_error, max_error, score, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			setID, ev.Dataset, ev.Cases, ev.Exact, ev.Close, ev.MeanError, ev.MaxError, ev.Score, ev.CreatedAt,
		)
		if err != nil {
			return err
		}
		if ev.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE parameter_sets SET mae = ? WHERE id = ?`, ev.MeanError, setID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record evaluation: %w", err)
	}
	return ev, nil
}

// Evaluations lists the scoring runs of one set, oldest first.
func (s *Store) Evaluations(ctx context.Context, version string) ([]*Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, p.version, e.dataset, e.cases, e.exact, e.close, e.mean_error, e.max_error, e.score, e.created_at
		FROM evaluations e
		JOIN parameter_sets p ON p.id = e.parameter_set_id
		WHERE p.version = ?
		ORDER BY e.created_at ASC, e.id ASC`, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Evaluation
	for rows.Next() {
		ev := &Evaluation{}
		if err := rows.Scan(&ev.ID, &ev.Version, &ev.Dataset, &ev.Cases, &ev.Exact, &ev.Close,
			&ev.MeanError, &ev.MaxError, &ev.Score, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSet(row scanner) (*ParameterSet, error) {
	var (
		set ParameterSet
		mae sql.NullFloat64
		raw string
	)
	if err := row.Scan(&set.ID, &set.Version, &set.Source, &mae, &raw, &set.CreatedAt); err != nil {
		return nil, err
	}
	if mae.Valid {
		v := mae.Float64
		set.MAE = &v
	}
	var p calculator.Parameters
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode stored parameters %s: %w", set.Version, err)
	}
	set.Params = &p
	return &set, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
