package summarizer

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/deusflow/newsbot/internal/news"
)

func TestParseEntityJSON(t *testing.T) {
	raw := "```json\n" + `{
		"PERSON": ["Tim Cook", " Tim Cook ", "Jensen Huang", "Lisa Su", "Sam Altman"],
		"organization": ["Apple"],
		"COLOR": ["red"],
		"EVENT": []
	}` + "\n```"

	got, err := ParseEntityJSON(raw, 3)
	if err != nil {
		t.Fatalf("ParseEntityJSON: %v", err)
	}
	want := news.EntityMap{
		news.CategoryPerson:       {"Tim Cook", "Jensen Huang", "Lisa Su"},
		news.CategoryOrganization: {"Apple"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseEntityJSONRejectsBadShapes(t *testing.T) {
	cases := map[string]string{
		"invalid syntax":   `{"PERSON": ["a",`,
		"wrong value type": `{"PERSON": "Tim Cook"}`,
		"not an object":    `["Tim Cook"]`,
		"only unknown":     `{"COLOR": ["red"]}`,
		"empty":            `{}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseEntityJSON(raw, 3); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestIsValidEntity(t *testing.T) {
	c := NewClassicalEntities(nil, DefaultThresholds())

	cases := []struct {
		name       string
		entityType string
		lang       news.Language
		want       bool
	}{
		{"John, the CEO of Acme Corp.", "PERSON", news.LanguageEnglish, false},
		{"Tim Cook", "PERSON", news.LanguageEnglish, true},
		{"J. Smith", "PERSON", news.LanguageEnglish, false},
		{"Maximilian Alexander Johnson", "PERSON", news.LanguageEnglish, false},
		{"黃仁勳", "PERSON", news.LanguageChinese, true},
		{"一位不願具名的公司高層人士", "PERSON", news.LanguageChinese, false},
		{"台積電宣布。", "ORGANIZATION", news.LanguageChinese, false},
		{"U.S.", "LOCATION", news.LanguageEnglish, true},
		{"the market fell sharply.", "OTHER", news.LanguageEnglish, false},
		{"Amazon.com", "ORGANIZATION", news.LanguageEnglish, true},
	}
	for _, tc := range cases {
		if got := c.IsValidEntity(tc.name, tc.entityType, tc.lang); got != tc.want {
			t.Errorf("IsValidEntity(%q, %s) = %v, want %v", tc.name, tc.entityType, got, tc.want)
		}
	}
}

func sampleEntities() []news.ScoredEntity {
	return []news.ScoredEntity{
		{Name: "Apple", Type: "ORGANIZATION", Salience: 0.40},
		{Name: "Tim Cook", Type: "PERSON", Salience: 0.20},
		{Name: "John, the CEO of Acme Corp.", Type: "PERSON", Salience: 0.30},
		{Name: "Apple", Type: "ORGANIZATION", Salience: 0.10},
		{Name: "Google", Type: "ORGANIZATION", Salience: 0.15},
		{Name: "Samsung", Type: "ORGANIZATION", Salience: 0.25},
		{Name: "Intel", Type: "ORGANIZATION", Salience: 0.08},
		{Name: "Cupertino", Type: "LOCATION", Salience: 0.05},
		{Name: "555-0100", Type: "PHONE_NUMBER", Salience: 0.09},
		{Name: "2024", Type: "DATE", Salience: 0.07},
		{Name: "2024", Type: "NUMBER", Salience: 0.06},
	}
}

func TestClassicalRank(t *testing.T) {
	c := NewClassicalEntities(nil, DefaultThresholds())
	got := c.Rank(sampleEntities(), news.LanguageEnglish)

	want := news.EntityMap{
		news.CategoryOrganization: {"Apple", "Samsung", "Google"},
		news.CategoryPerson:       {"Tim Cook"},
		news.CategoryOther:        {"555-0100", "2024"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for category, names := range got {
		if len(names) == 0 || len(names) > 3 {
			t.Errorf("%s has %d entries", category, len(names))
		}
	}
}

func TestClassicalDeterministic(t *testing.T) {
	analyzer := &fakeAnalyzer{entities: sampleEntities()}
	c := NewClassicalEntities(analyzer, DefaultThresholds())

	first, err := c.Extract(context.Background(), "text", news.LanguageEnglish)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _ := c.Extract(context.Background(), "text", news.LanguageEnglish)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, first, again)
		}
	}
	if analyzer.lang != "en" {
		t.Fatalf("language hint = %q", analyzer.lang)
	}
}

func TestExtractorFallsBackOnMalformedJSON(t *testing.T) {
	th := DefaultThresholds()
	model := &fakeModel{reply: "Here are the entities: {PERSON: [Tim Cook]"}
	analyzer := &fakeAnalyzer{entities: []news.ScoredEntity{{Name: "Apple", Type: "ORGANIZATION", Salience: 0.5}}}

	x := NewEntityExtractor(NewGenerativeEntities("gemini", model, th), NewClassicalEntities(analyzer, th))
	got := x.Extract(context.Background(), "Apple news", news.LanguageEnglish)

	want := news.EntityMap{news.CategoryOrganization: {"Apple"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if analyzer.calls != 1 {
		t.Fatalf("classical path not used")
	}
}

func TestExtractorPrefersGenerative(t *testing.T) {
	th := DefaultThresholds()
	model := &fakeModel{reply: `{"PERSON": ["黃仁勳"]}`}
	analyzer := &fakeAnalyzer{}

	x := NewEntityExtractor(NewGenerativeEntities("gemini", model, th), NewClassicalEntities(analyzer, th))
	got := x.Extract(context.Background(), "輝達執行長黃仁勳", news.LanguageChinese)

	if !reflect.DeepEqual(got, news.EntityMap{news.CategoryPerson: {"黃仁勳"}}) {
		t.Fatalf("got %v", got)
	}
	if analyzer.calls != 0 {
		t.Fatal("classical path should not run")
	}
}

func TestExtractorAllFail(t *testing.T) {
	th := DefaultThresholds()
	x := NewEntityExtractor(
		NewGenerativeEntities("gemini", &fakeModel{err: errBackend}, th),
		NewClassicalEntities(&fakeAnalyzer{err: errors.New("quota")}, th),
	)
	got := x.Extract(context.Background(), "text", news.LanguageEnglish)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil map, got %v", got)
	}
}
