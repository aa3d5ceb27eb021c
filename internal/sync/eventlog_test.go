package syncx_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/mind-engage/mindengage-results/internal/db/dbtest"
	syncx "github.com/mind-engage/mindengage-results/internal/sync"
)

func TestAppendAndList(t *testing.T) {
	d := dbtest.Open(t)
	ctx := context.Background()
	repo := syncx.NewEventRepo(d)

	for i, key := range []string{"ex1", "ex2", "ex1"} {
		err := repo.Append(ctx, syncx.Event{Type: syncx.TypeLedgerImported, Key: key, DataJSON: fmt.Sprintf(`{"n":%d}`, i)})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := repo.Append(ctx, syncx.Event{Type: "Other", Key: "ex1", SiteID: "s2", DataJSON: "{}"}); err != nil {
		t.Fatalf("append other: %v", err)
	}

	got, err := repo.List(ctx, syncx.TypeLedgerImported, "ex1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("events = %+v", got)
	}
	if got[0].DataJSON != `{"n":2}` || got[0].Seq <= got[1].Seq {
		t.Fatalf("not newest first: %+v", got)
	}
	if got[0].SiteID != "local" || got[0].CreatedAt == 0 {
		t.Fatalf("defaults not applied: %+v", got[0])
	}

	one, err := repo.List(ctx, syncx.TypeLedgerImported, "ex1", 1)
	if err != nil || len(one) != 1 {
		t.Fatalf("limit 1 = %v, %v", one, err)
	}
}
