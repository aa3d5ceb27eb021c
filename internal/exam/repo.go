package exam

import (
	"context"

	"github.com/mind-engage/mindengage-results/internal/rbac"
)

// Registry is the read side used by grading and import.
type Registry interface {
	GetExam(ctx context.Context, id string) (Exam, error)
	ConfigFor(ctx context.Context, examID string) (Configs, error)
	IsLocked(ctx context.Context, examID string) (bool, error)
}

// Store adds the writes that belong to exam configuration.
type Store interface {
	Registry
	SetComponent(ctx context.Context, actor rbac.Actor, examID string, cfg ComponentConfig) error
	Lock(ctx context.Context, examID string, publishedAt int64) error
}
