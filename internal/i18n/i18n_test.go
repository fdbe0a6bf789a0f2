package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "SectionNoName")
	if got != "Untitled section" {
		t.Errorf("T(SectionNoName) = %q, want 'Untitled section'", got)
	}

	got = T(ctx, "NewSectionHeading")
	if got != "New heading" {
		t.Errorf("T(NewSectionHeading) = %q, want 'New heading'", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	got := T(ctx, "SectionNoName")
	if got != "Раздел без названия" {
		t.Errorf("T(SectionNoName) = %q, want 'Раздел без названия'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "SlotsCount", 1); got != "1 slot" {
		t.Errorf("Tp(SlotsCount, 1) = %q, want '1 slot'", got)
	}
	if got := Tp(ctx, "SlotsCount", 5); got != "5 slots" {
		t.Errorf("Tp(SlotsCount, 5) = %q, want '5 slots'", got)
	}

	ctx = initLang(t, "ru")
	if got := Tp(ctx, "QuestionsCount", 3); got != "3 вопроса" {
		t.Errorf("Tp(QuestionsCount, 3) = %q, want '3 вопроса'", got)
	}
	if got := Tp(ctx, "QuestionsCount", 5); got != "5 вопросов" {
		t.Errorf("Tp(QuestionsCount, 5) = %q, want '5 вопросов'", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "PageN", map[string]any{"Page": 3})
	if got != "Page 3" {
		t.Errorf("Td(PageN, Page=3) = %q, want 'Page 3'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestFallbackWithoutLocalizer(t *testing.T) {
	initLang(t, "en")

	if got := T(context.Background(), "InfoShort"); got != "i" {
		t.Errorf("T(InfoShort) = %q, want 'i'", got)
	}
}

func TestMiddlewarePicksLanguage(t *testing.T) {
	initLang(t, "en")

	var got string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "NewSectionHeading")
	}))

	tests := []struct {
		name   string
		target string
		accept string
		want   string
	}{
		{"server default", "/", "", "New heading"},
		{"accept-language", "/", "ru-RU,ru;q=0.9", "Новый заголовок"},
		{"query wins", "/?lang=en", "ru", "New heading"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("heading = %q, want %q", got, tt.want)
			}
		})
	}
}
