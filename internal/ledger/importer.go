// Package ledger imports marks from uploaded spreadsheets and renders the
// blank ledger template for an exam.
//
// An import runs parse, plan and apply in that order. Parsing types the
// sheet's cells, planning validates them against the exam without touching
// the database, and apply writes the plan inside one transaction.
package ledger

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/mind-engage/mindengage-results/internal/apperr"
	"github.com/mind-engage/mindengage-results/internal/catalog"
	"github.com/mind-engage/mindengage-results/internal/db"
	"github.com/mind-engage/mindengage-results/internal/exam"
	"github.com/mind-engage/mindengage-results/internal/marks"
	"github.com/mind-engage/mindengage-results/internal/rbac"
	"github.com/mind-engage/mindengage-results/internal/storage"
	syncx "github.com/mind-engage/mindengage-results/internal/sync"
)

type Importer struct {
	db      *sql.DB
	driver  db.Driver
	log     *log.Logger
	archive storage.BlobStore
	strict  bool
	newID   func() string
}

type Option func(*Importer)

func WithLogger(l *log.Logger) Option { return func(im *Importer) { im.log = l } }

// WithArchive keeps a copy of every committed upload in bs.
func WithArchive(bs storage.BlobStore) Option { return func(im *Importer) { im.archive = bs } }

// WithStrictCompulsoryColumns fails the import when the number of compulsory
// columns differs from the catalog's compulsory subjects.
func WithStrictCompulsoryColumns() Option { return func(im *Importer) { im.strict = true } }

func NewImporter(d *sql.DB, driver db.Driver, opts ...Option) *Importer {
	l := log.New("ledger")
	l.SetLevel(log.OFF)
	im := &Importer{db: d, driver: driver, log: l, newID: uuid.NewString}
	for _, o := range opts {
		o(im)
	}
	return im
}

// Import applies wb to examID. Row-level problems are reported and skipped;
// any returned error means nothing was written.
func (im *Importer) Import(ctx context.Context, actor rbac.Actor, examID string, wb Workbook) (Report, error) {
	if !actor.Can("ledger:import") {
		return Report{}, apperr.Forbidden("role %s may not import ledgers", actor.Role)
	}
	rep := newReport(im.newID(), examID, wb.Sheet)
	err := db.WithTx(ctx, im.db, nil, func(tx *sql.Tx) error {
		in, err := im.load(ctx, tx, examID)
		if err != nil {
			return err
		}
		p, err := im.plan(in, wb.Rows, &rep)
		if err != nil {
			return err
		}
		rep.fill(p)
		if err := im.apply(ctx, tx, actor, p); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		data, err := json.Marshal(rep)
		if err != nil {
			return err
		}
		return syncx.NewEventRepo(tx).Append(ctx, syncx.Event{
			Type:     syncx.TypeLedgerImported,
			Key:      examID,
			DataJSON: string(data),
		})
	})
	if err != nil {
		im.log.Warnf("import %s into exam %s rejected: %v", rep.ImportID, examID, err)
		return Report{ImportID: rep.ImportID, ExamID: examID, Sheet: wb.Sheet, Errors: []RowError{}, Warnings: []string{}}, err
	}
	im.store(examID, wb, &rep)
	im.log.Infof("import %s into exam %s: %d rows, %d marks, %d skipped",
		rep.ImportID, examID, rep.TotalRows, rep.Imported, rep.Skipped)
	return rep, nil
}

// load checks the preconditions and gathers the plan input inside tx.
func (im *Importer) load(ctx context.Context, tx *sql.Tx, examID string) (planInput, error) {
	exams := exam.NewSQLStore(tx)
	ex, err := exams.GetExam(ctx, examID)
	if apperr.Is(err, apperr.KindNotFound) {
		return planInput{}, apperr.Wrap(apperr.KindStructural, err, "cannot import")
	}
	if err != nil {
		return planInput{}, err
	}
	if ex.IsLocked {
		return planInput{}, apperr.Conflict("exam %s is locked", examID)
	}
	cfgs, err := exams.ConfigFor(ctx, examID)
	if err != nil {
		return planInput{}, err
	}
	in := planInput{ExamID: examID, Configs: cfgs.ByNormalizedCode(), Optional: map[string]optionalSubject{}}
	if len(in.Configs) == 0 {
		return planInput{}, apperr.Structural("exam %s has no enabled components", examID)
	}
	in.Universe, err = marks.NewSQLStore(tx).Universe(ctx, marks.ScopeOf(ex))
	if err != nil {
		return planInput{}, err
	}
	cat, err := catalog.NewSQLResolver(tx).SubjectsFor(ctx, ex.AcademicYear, ex.Class, ex.Faculty)
	if err != nil {
		return planInput{}, err
	}
	for _, s := range cat.Compulsory {
		in.Compulsory = append(in.Compulsory, s.CanonicalCode)
	}
	for _, g := range cat.OptionalGroups {
		for _, s := range g.Subjects {
			key := exam.NormalizeCode(s.CanonicalCode)
			if _, dup := in.Optional[key]; !dup {
				in.Optional[key] = optionalSubject{SubjectID: s.ID, GroupName: g.Name, Code: s.CanonicalCode}
			}
		}
	}
	return in, nil
}

func (im *Importer) plan(in planInput, rows [][]string, rep *Report) (Plan, error) {
	h, grid := detectHeader(rows)
	if !grid {
		rep.Shape = ShapeTabular
		tab, err := parseTabular(rows)
		if err != nil {
			return Plan{}, err
		}
		return planTabular(in, tab), nil
	}

	rep.Shape = ShapeGrid
	var sub []string
	if h+1 < len(rows) {
		sub = rows[h+1]
	}
	l, err := resolveLayout(h, rows[h], sub)
	if err != nil {
		return Plan{}, err
	}
	cols, subjects := len(l.Compulsory), len(in.Compulsory)
	if cols != subjects && im.strict {
		return Plan{}, apperr.Structural("ledger has %d compulsory columns, catalog has %d compulsory subjects", cols, subjects)
	}
	if min(cols, subjects) == 0 {
		return Plan{}, apperr.Structural("no compulsory component columns could be mapped")
	}
	switch {
	case cols > subjects:
		var extra []string
		for _, c := range l.Compulsory[subjects:] {
			extra = append(extra, l.label(c))
		}
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("ignored compulsory columns beyond the catalog: %s", strings.Join(extra, ", ")))
	case cols < subjects:
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("catalog compulsory codes without a ledger column: %s", strings.Join(in.Compulsory[cols:], ", ")))
	}
	return planGrid(in, l, parseGrid(rows, l, in.Compulsory)), nil
}

func (im *Importer) apply(ctx context.Context, tx *sql.Tx, actor rbac.Actor, p Plan) error {
	st := marks.NewSQLStore(tx)
	if len(p.Backfills) > 0 {
		cols, err := db.Columns(ctx, tx, im.driver, "students")
		if err != nil {
			return err
		}
		for _, b := range p.Backfills {
			if err := st.BackfillStudent(ctx, b.StudentID, b.Profile, cols); err != nil {
				return err
			}
		}
	}
	for _, c := range p.Choices {
		if err := st.ReplaceOptionalChoices(ctx, c.EnrollmentID, c.Choices); err != nil {
			return err
		}
	}
	for _, m := range p.Marks {
		if err := st.Upsert(ctx, actor, m); err != nil {
			return err
		}
	}
	return nil
}

// ArchiveKey is where an accepted upload is kept.
func ArchiveKey(examID, importID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = ".bin"
	}
	return path.Join("ledgers", examID, importID+ext)
}

func (im *Importer) store(examID string, wb Workbook, rep *Report) {
	if im.archive == nil || len(wb.Raw) == 0 {
		return
	}
	key, err := im.archive.Put(ArchiveKey(examID, rep.ImportID, wb.FileName), bytes.NewReader(wb.Raw))
	if err != nil {
		im.log.Warnf("archive import %s: %v", rep.ImportID, err)
		return
	}
	rep.Archive = key
}
