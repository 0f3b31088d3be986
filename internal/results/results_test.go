package results

import (
	"testing"
	"time"

	"github.com/starford/iotodash/internal/models"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC)
}

func mkDoc(name string, created, modified time.Time, size int64, project any) *models.Document {
	var fm map[string]any
	if project != nil {
		fm = map[string]any{"Project": project}
	}
	return &models.Document{
		Path: name + ".md", Basename: name,
		Created: created, Modified: modified, Size: size, Frontmatter: fm,
	}
}

func basenames(docs []*models.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Basename)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSort_KeysAndDirection(t *testing.T) {
	a := mkDoc("a", day(3), day(1), 30, nil)
	b := mkDoc("b", day(1), day(3), 10, nil)
	c := mkDoc("c", day(2), day(2), 20, nil)

	cases := []struct {
		key   SortKey
		order SortOrder
		want  []string
	}{
		{SortCreated, Ascending, []string{"b", "c", "a"}},
		{SortCreated, Descending, []string{"a", "c", "b"}},
		{SortModified, Ascending, []string{"a", "c", "b"}},
		{SortSize, Descending, []string{"a", "c", "b"}},
		{SortName, Descending, []string{"c", "b", "a"}},
	}
	for _, tc := range cases {
		docs := []*models.Document{a, b, c}
		Sort(docs, tc.key, tc.order, Collator("en"))
		if got := basenames(docs); !equal(got, tc.want) {
			t.Errorf("%s %s = %v, want %v", tc.key, tc.order, got, tc.want)
		}
	}
}

func TestSort_StableForTies(t *testing.T) {
	x := mkDoc("x", day(1), day(1), 1, nil)
	y := mkDoc("y", day(1), day(1), 1, nil)
	z := mkDoc("z", day(1), day(1), 1, nil)

	for _, order := range []SortOrder{Ascending, Descending} {
		docs := []*models.Document{y, z, x}
		Sort(docs, SortCreated, order, nil)
		if got := basenames(docs); !equal(got, []string{"y", "z", "x"}) {
			t.Errorf("%s ties = %v, want input order", order, got)
		}
	}
}

func TestSort_CollatedNames(t *testing.T) {
	docs := []*models.Document{
		mkDoc("beta", day(1), day(1), 0, nil),
		mkDoc("Alpha", day(1), day(1), 0, nil),
		mkDoc("alpha", day(1), day(1), 0, nil),
	}
	Sort(docs, SortName, Ascending, Collator("en"))
	if docs[2].Basename != "beta" {
		t.Errorf("order = %v, want beta last", basenames(docs))
	}
}

func TestSort_TasksUseOwningDocument(t *testing.T) {
	older := mkDoc("older", day(1), day(1), 0, nil)
	newer := mkDoc("newer", day(5), day(5), 0, nil)
	recs := []models.TaskRecord{
		{Document: older, Content: "z"},
		{Document: newer, Content: "a"},
	}
	Sort(recs, SortCreated, Descending, nil)
	if recs[0].Document != newer {
		t.Errorf("first = %s, want newer", recs[0].Document.Basename)
	}
}

func TestGroupBy_Project(t *testing.T) {
	docs := []*models.Document{
		mkDoc("1", day(1), day(1), 0, "Zeta"),
		mkDoc("2", day(1), day(1), 0, nil),
		mkDoc("3", day(1), day(1), 0, "Alpha"),
		mkDoc("4", day(1), day(1), 0, "Zeta"),
		mkDoc("5", day(1), day(1), 0, ""),
	}
	groups := GroupBy(docs, GroupProject, "No group", Collator("en"))

	var labels []string
	for _, g := range groups {
		labels = append(labels, g.Label)
	}
	if !equal(labels, []string{"Alpha", "No group", "Zeta"}) {
		t.Errorf("labels = %v", labels)
	}
	if got := basenames(groups[2].Items); !equal(got, []string{"1", "4"}) {
		t.Errorf("Zeta items = %v, want [1 4]", got)
	}
	if got := basenames(groups[1].Items); !equal(got, []string{"2", "5"}) {
		t.Errorf("no group items = %v, want [2 5]", got)
	}
}

func TestGroupBy_DatesDescending(t *testing.T) {
	docs := []*models.Document{
		mkDoc("a", day(1), day(9), 0, nil),
		mkDoc("b", day(3), day(9), 0, nil),
		mkDoc("c", day(1), day(8), 0, nil),
	}
	groups := GroupBy(docs, GroupCreated, "-", nil)
	if len(groups) != 2 || groups[0].Label != "2024-01-03" || groups[1].Label != "2024-01-01" {
		t.Fatalf("groups = %+v", groups)
	}
	if got := basenames(groups[1].Items); !equal(got, []string{"a", "c"}) {
		t.Errorf("items = %v", got)
	}

	groups = GroupBy(docs, GroupModified, "-", nil)
	if len(groups) != 2 || groups[0].Label != "2024-01-09" {
		t.Errorf("modified groups = %+v", groups)
	}
}

func TestGroupBy_TypeAndNone(t *testing.T) {
	base := mkDoc("n", day(1), day(1), 0, nil)
	recs := []models.TaskRecord{
		{Document: base, Content: "1", Category: models.CategoryOutcome},
		{Document: base, Content: "2"},
		{Document: base, Content: "3", Category: models.CategoryInput},
	}
	groups := GroupBy(recs, GroupType, "Other", nil)
	if len(groups) != 3 || groups[0].Label != "Input" || groups[1].Label != "Outcome" || groups[2].Label != "Other" {
		t.Errorf("type groups = %+v", groups)
	}

	groups = GroupBy(recs, GroupNone, "Other", nil)
	if len(groups) != 1 || len(groups[0].Items) != 3 {
		t.Errorf("none groups = %+v", groups)
	}
	if GroupBy([]models.TaskRecord{}, GroupNone, "Other", nil) != nil {
		t.Error("empty input should produce no groups")
	}
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		name                 string
		total, size, current int
		wantCur, wantPages   int
		wantStart, wantEnd   int
	}{
		{"forty-five items", 45, 20, 1, 1, 3, 0, 20},
		{"last partial page", 45, 20, 3, 3, 3, 40, 45},
		{"clamped page", 45, 20, 9, 3, 3, 40, 45},
		{"empty list", 0, 20, 4, 1, 1, 0, 0},
		{"below one", 10, 20, 0, 1, 1, 0, 10},
		{"small size clamped", 45, 5, 2, 2, 3, 20, 40},
		{"large size clamped", 1000, 999, 2, 2, 4, 300, 600},
	}
	for _, c := range cases {
		p := Paginate(c.total, c.size, c.current)
		if p.Current != c.wantCur || p.TotalPages != c.wantPages || p.Start != c.wantStart || p.End != c.wantEnd {
			t.Errorf("%s: got %+v", c.name, p)
		}
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	if got := Slice(items, Page{Start: 3, End: 10}); len(got) != 2 || got[0] != 4 {
		t.Errorf("Slice = %v, want [4 5]", got)
	}
	if got := Slice(items, Page{Start: 7, End: 9}); len(got) != 0 {
		t.Errorf("Slice past end = %v, want empty", got)
	}
}

func TestClampPageSize(t *testing.T) {
	for in, want := range map[int]int{0: 20, -5: 20, 20: 20, 75: 75, 300: 300, 301: 300} {
		if got := ClampPageSize(in); got != want {
			t.Errorf("ClampPageSize(%d) = %d, want %d", in, got, want)
		}
	}
}
