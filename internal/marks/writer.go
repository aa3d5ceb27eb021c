package marks

import (
	"context"

	"github.com/mind-engage/mindengage-results/internal/apperr"
	"github.com/mind-engage/mindengage-results/internal/exam"
	"github.com/mind-engage/mindengage-results/internal/rbac"
)

type upserter interface {
	Upsert(ctx context.Context, actor rbac.Actor, m Mark) error
}

// Writer is the single-mark entry path. A locked exam rejects direct writes;
// corrections bypass the lock but require the marks:correct permission.
type Writer struct {
	exams exam.Registry
	store upserter
}

func NewWriter(exams exam.Registry, store upserter) *Writer {
	return &Writer{exams: exams, store: store}
}

func (w *Writer) Put(ctx context.Context, actor rbac.Actor, m Mark, correction bool) error {
	if correction && !actor.Can("marks:correct") {
		return apperr.Forbidden("corrections require a privileged role")
	}
	locked, err := w.exams.IsLocked(ctx, m.ExamID)
	if err != nil {
		return err
	}
	if locked && !correction {
		return apperr.Conflict("exam %s is locked", m.ExamID)
	}
	cfgs, err := w.exams.ConfigFor(ctx, m.ExamID)
	if err != nil {
		return err
	}
	cfg, ok := cfgs.Lookup(m.Code)
	if !ok {
		return apperr.Invalid("component %s is not enabled for exam %s", m.Code, m.ExamID)
	}
	if m.IsAbsent {
		m.MarksObtained = nil
	} else {
		if m.MarksObtained == nil {
			return apperr.Invalid("marks_obtained is required unless absent")
		}
		if err := CheckRange(cfg, *m.MarksObtained); err != nil {
			return apperr.Wrap(apperr.KindInvalid, err, "invalid mark")
		}
	}
	return w.store.Upsert(ctx, actor, m)
}
