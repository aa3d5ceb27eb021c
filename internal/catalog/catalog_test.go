package catalog_test

import (
	"context"
	"testing"

	"github.com/mind-engage/mindengage-results/internal/catalog"
	"github.com/mind-engage/mindengage-results/internal/db/dbtest"
)

func TestCanonicalCode(t *testing.T) {
	cases := []struct {
		name  string
		comps []catalog.Component
		want  string
	}{
		{"theory wins", []catalog.Component{{Type: "IN", Code: "11"}, {Type: "TH", Code: "31"}}, "31"},
		{"smallest without theory", []catalog.Component{{Type: "PR", Code: "45"}, {Type: "IN", Code: "44"}}, "44"},
		{"none", nil, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := catalog.CanonicalCode(c.comps); got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestIsOptionalGroup(t *testing.T) {
	for name, want := range map[string]bool{"Opt. I": true, "optional 2": true, "COMPULSORY": false, "Extra": false} {
		if got := catalog.IsOptionalGroup(name); got != want {
			t.Errorf("IsOptionalGroup(%q) = %v", name, got)
		}
	}
}

func TestSQLResolverSubjectsFor(t *testing.T) {
	d := dbtest.Open(t)
	ctx := context.Background()

	// --- catalog ---
	dbtest.Subject(t, d, "eng", "English", dbtest.Component{Type: "IN", Code: "0022", Credit: 1}, dbtest.Component{Type: "TH", Code: "0021", Credit: 3})
	dbtest.Subject(t, d, "nep", "Nepali", dbtest.Component{Type: "TH", Code: "0031", Credit: 4})
	dbtest.Subject(t, d, "acc", "Accountancy", dbtest.Component{Type: "TH", Code: "0201", Credit: 4})
	dbtest.Subject(t, d, "cs", "Computer Science", dbtest.Component{Type: "PR", Code: "0231"}, dbtest.Component{Type: "IN", Code: "0230"})
	dbtest.Group(t, d, "g-comp", "2081", "XI", "COMPULSORY", 0, "nep", "eng")
	dbtest.Group(t, d, "g-opt1", "2081", "XI", "Opt. I", 1, "acc", "cs")
	dbtest.Group(t, d, "g-other", "2080", "XI", "COMPULSORY", 0, "acc")
	dbtest.Exec(t, d, `INSERT INTO catalog_groups (id, academic_year, class, faculty, name, sort_order)
		VALUES ('g-sci', '2081', 'XI', 'Science', 'Opt. II', 2)`)

	got, err := catalog.NewSQLResolver(d).SubjectsFor(ctx, "2081", "XI", nil)
	if err != nil {
		t.Fatalf("subjects: %v", err)
	}
	if len(got.Compulsory) != 2 || got.Compulsory[0].ID != "nep" || got.Compulsory[1].ID != "eng" {
		t.Fatalf("compulsory order: %+v", got.Compulsory)
	}
	eng := got.Compulsory[1]
	if eng.CanonicalCode != "0021" || eng.Components[0].Type != catalog.TypeTheory {
		t.Fatalf("english components not sorted TH first: %+v", eng)
	}
	if len(got.OptionalGroups) != 1 || got.OptionalGroups[0].Name != "Opt. I" {
		t.Fatalf("faculty group leaked into shared scope: %+v", got.OptionalGroups)
	}
	if cs := got.OptionalGroups[0].Subjects[1]; cs.CanonicalCode != "0230" {
		t.Fatalf("cs canonical = %q, want smallest code", cs.CanonicalCode)
	}

	sci := "Science"
	got, err = catalog.NewSQLResolver(d).SubjectsFor(ctx, "2081", "XI", &sci)
	if err != nil {
		t.Fatalf("subjects with faculty: %v", err)
	}
	if len(got.OptionalGroups) != 2 {
		t.Fatalf("faculty scope should add Opt. II: %+v", got.OptionalGroups)
	}
}

func TestSQLResolverSubjectsByIDSkipsUnknown(t *testing.T) {
	d := dbtest.Open(t)
	dbtest.Subject(t, d, "eng", "English", dbtest.Component{Type: "TH", Code: "21"})
	subs, err := catalog.NewSQLResolver(d).SubjectsByID(context.Background(), []string{"nope", "eng"})
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != "eng" || subs[0].CanonicalCode != "21" {
		t.Fatalf("got %+v", subs)
	}
}
