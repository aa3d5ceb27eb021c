package result

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-results/internal/apperr"
	"github.com/mind-engage/mindengage-results/internal/db"
	"github.com/mind-engage/mindengage-results/internal/exam"
	"github.com/mind-engage/mindengage-results/internal/rbac"
)

type Snapshot struct {
	ID           string `json:"id"`
	ExamID       string `json:"exam_id"`
	EnrollmentID string `json:"enrollment_id"`
	Result       Result `json:"result"`
	GeneratedBy  string `json:"generated_by"`
	GeneratedAt  int64  `json:"generated_at"`
}

// SnapshotWriter persists computed results. Unlike a preview, Generate
// computes inside the same transaction that writes the snapshot.
type SnapshotWriter struct {
	db  *sql.DB
	now func() time.Time
}

func NewSnapshotWriter(d *sql.DB) *SnapshotWriter {
	return &SnapshotWriter{db: d, now: time.Now}
}

func (w *SnapshotWriter) Generate(ctx context.Context, actor rbac.Actor, examID, enrollmentID string) (Snapshot, error) {
	var snap Snapshot
	err := db.WithTx(ctx, w.db, nil, func(tx *sql.Tx) error {
		locked, err := exam.NewSQLStore(tx).IsLocked(ctx, examID)
		if err != nil {
			return err
		}
		if locked {
			return apperr.Conflict("exam %s is published; snapshots are immutable", examID)
		}
		res, err := NewSQLComputer(tx).Compute(ctx, examID, enrollmentID)
		if err != nil {
			return err
		}
		buf, err := json.Marshal(res)
		if err != nil {
			return err
		}

		var existingID string
		var published sql.NullInt64
		err = tx.QueryRowContext(ctx,
			`SELECT id, published_at FROM result_snapshots WHERE exam_id=$1 AND enrollment_id=$2`,
			examID, enrollmentID).Scan(&existingID, &published)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			existingID = uuid.NewString()
		case err != nil:
			return fmt.Errorf("load snapshot: %w", err)
		case published.Valid:
			return apperr.Conflict("snapshot for %s is published", enrollmentID)
		}

		snap = Snapshot{
			ID:           existingID,
			ExamID:       examID,
			EnrollmentID: enrollmentID,
			Result:       res,
			GeneratedBy:  actor.ID,
			GeneratedAt:  w.now().Unix(),
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO result_snapshots (id, exam_id, enrollment_id, result_json, generated_by, generated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (exam_id, enrollment_id) DO UPDATE SET
				result_json=EXCLUDED.result_json,
				generated_by=EXCLUDED.generated_by,
				generated_at=EXCLUDED.generated_at`,
			snap.ID, examID, enrollmentID, string(buf), actor.ID, snap.GeneratedAt)
		if err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		return nil
	})
	return snap, err
}

// Publish stamps every unpublished snapshot of the exam and locks the exam.
// It returns the number of snapshots published.
func (w *SnapshotWriter) Publish(ctx context.Context, actor rbac.Actor, examID string) (int64, error) {
	if !actor.Can("exam:publish") {
		return 0, apperr.Forbidden("publishing requires a privileged role")
	}
	var n int64
	err := db.WithTx(ctx, w.db, nil, func(tx *sql.Tx) error {
		exams := exam.NewSQLStore(tx)
		locked, err := exams.IsLocked(ctx, examID)
		if err != nil {
			return err
		}
		if locked {
			return apperr.Conflict("exam %s is already published", examID)
		}
		now := w.now().Unix()
		res, err := tx.ExecContext(ctx,
			`UPDATE result_snapshots SET published_at=$1 WHERE exam_id=$2 AND published_at IS NULL`, now, examID)
		if err != nil {
			return fmt.Errorf("publish snapshots: %w", err)
		}
		n, _ = res.RowsAffected()
		return exams.Lock(ctx, examID, now)
	})
	return n, err
}
