package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
	"github.com/aliskhannn/times-table-bot/internal/infra/postgres"
)

// TxRunner runs fn inside a database transaction.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

// QuizRepository stores the results of finished quiz sessions.
type QuizRepository struct {
	db postgres.DBTX
	tx TxRunner
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(db postgres.DBTX, tx TxRunner) *QuizRepository {
	return &QuizRepository{db: db, tx: tx}
}

// SaveResult records a result and, for a completed session, credits its
// score to the user's stars in the same transaction. It returns the user's
// star total afterwards.
func (r *QuizRepository) SaveResult(ctx context.Context, result *entities.QuizResult) (int, error) {
	var total int

	err := r.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		id, err := insertResult(ctx, tx, result)
		if err != nil {
			return err
		}
		result.ID = id

		if result.IsCompleted() {
			total, err = addStars(ctx, tx, result.UserID, result.Score)
			return err
		}

		total, err = NewRewardRepository(tx).GetStars(ctx, result.UserID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("save quiz result: %w", err)
	}

	return total, nil
}

func insertResult(ctx context.Context, db postgres.DBTX, result *entities.QuizResult) (int64, error) {
	query := `
		INSERT INTO quiz_results (
			session_id, user_id, table_number, score,
			wrong_attempts, status, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int64
	err := db.QueryRow(
		ctx,
		query,
		result.SessionID,
		result.UserID,
		result.Table,
		result.Score,
		result.WrongAttempts,
		result.Status,
		result.StartedAt,
		result.FinishedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert quiz result: %w", err)
	}

	return id, nil
}

// StatsByUser aggregates the results of a user per table.
func (r *QuizRepository) StatsByUser(ctx context.Context, userID int64) ([]entities.TableStats, error) {
	query := `
		SELECT table_number,
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'abandoned'),
		       COALESCE(SUM(wrong_attempts), 0),
		       COALESCE(MIN(EXTRACT(EPOCH FROM finished_at - started_at))
		                FILTER (WHERE status = 'completed'), 0)
		FROM quiz_results
		WHERE user_id = $1
		GROUP BY table_number
		ORDER BY table_number
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query quiz stats: %w", err)
	}
	defer rows.Close()

	var stats []entities.TableStats
	for rows.Next() {
		var (
			ts          entities.TableStats
			bestSeconds float64
		)
		if err := rows.Scan(&ts.Table, &ts.Completed, &ts.Abandoned, &ts.WrongAttempts, &bestSeconds); err != nil {
			return nil, fmt.Errorf("scan quiz stats: %w", err)
		}
		ts.BestTime = time.Duration(bestSeconds * float64(time.Second))
		stats = append(stats, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quiz stats: %w", err)
	}

	return stats, nil
}
