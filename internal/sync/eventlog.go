// Package syncx is the append-only event log. Every accepted ledger import
// leaves one entry keyed by exam id.
package syncx

import (
	"context"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-results/internal/db"
)

const TypeLedgerImported = "LedgerImported"

type Event struct {
	Seq       int64  `json:"seq"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type EventRepo struct {
	q   db.Querier
	now func() time.Time
}

func NewEventRepo(q db.Querier) *EventRepo { return &EventRepo{q: q, now: time.Now} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, e.DataJSON, r.now().Unix())
	if err != nil {
		return fmt.Errorf("append %s event: %w", e.Type, err)
	}
	return nil
}

// List returns the events of typ for key, newest first.
func (r *EventRepo) List(ctx context.Context, typ, key string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.q.QueryContext(ctx, `
		SELECT seq, site_id, typ, key, data, created_at
		  FROM event_log WHERE typ=$1 AND key=$2
		 ORDER BY seq DESC LIMIT $3`, typ, key, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s events: %w", typ, err)
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
