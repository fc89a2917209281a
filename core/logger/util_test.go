package logger

import (
	"context"
	"log/slog"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/phonebook/core/config"
)

func TestRoundMS(t *testing.T) {
	if got := RoundMS(-time.Second); got != 0 {
		t.Fatalf("negative = %v, want 0", got)
	}
	if got := RoundMS(1499 * time.Microsecond); got != time.Millisecond {
		t.Fatalf("rounded = %v, want 1ms", got)
	}
}

func TestSummarizeStrings(t *testing.T) {
	files := []string{"000001_create_contacts.up.sql", "000002_x.up.sql", "000003_y.up.sql"}
	got, cut := SummarizeStrings(files, 2)
	if got != "000001_create_contacts.up.sql, 000002_x.up.sql" || !cut {
		t.Fatalf("summary = %q cut=%v", got, cut)
	}
	if got, cut := SummarizeStrings(files[:1], 6); got != files[0] || cut {
		t.Fatalf("summary = %q cut=%v", got, cut)
	}
	if _, cut := SummarizeStrings(files, 0); !cut {
		t.Fatal("zero limit with values should report truncation")
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"":     {0, 0},
		"1/50": {1, 50},
		"10":   {1, 10},
		"-3":   {0, 0},
		"x/y":  {0, 0},
	}
	for spec, want := range cases {
		num, den := parseRatioSpec(spec)
		if num != want[0] || den != want[1] {
			t.Fatalf("parseRatioSpec(%q) = %d/%d, want %d/%d", spec, num, den, want[0], want[1])
		}
	}
	if num, den := parseDebugSample("bogus"); num != 1 || den != 50 {
		t.Fatalf("fallback = %d/%d", num, den)
	}
	if num, den := parseDebugSample("0"); num != 0 || den != 0 {
		t.Fatalf("disabled = %d/%d", num, den)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	want := []bool{true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Allow #%d = %v, want %v", i, got[i], want[i])
		}
	}
	s.Set(5, 2)
	if !s.Allow() || !s.Allow() {
		t.Fatal("ratio above one should allow everything")
	}
	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler should allow everything")
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("Tash\x00kent\u200b\x7f", 64); got != "Tashkent" {
		t.Fatalf("sanitized = %q", got)
	}
	if got := SanitizeLimit("Самарканд", 4); got != "Сама" {
		t.Fatalf("limited = %q", got)
	}
	if got := SanitizeLimit("x", 0); got != "" {
		t.Fatalf("zero limit = %q", got)
	}
	if got := Sanitize("a\tb\nc"); got != "a\tb\nc" {
		t.Fatalf("whitespace = %q", got)
	}
}

func TestContextMeta(t *testing.T) {
	if got := BuildRID(36, 35, 1); got != "10.z.1" {
		t.Fatalf("rid = %q", got)
	}

	ctx := WithMeta(context.Background(), Meta{UpdateID: 5, UserID: 7, ChatID: 6})
	ctx = WithHandler(ctx, "dialogue")
	m := MetaFrom(ctx)
	if m.RID != "5.6.7" || m.UpdateID != 5 || m.UserID != 7 || m.ChatID != 6 || m.Handler != "dialogue" {
		t.Fatalf("meta = %+v", m)
	}
	if MetaFrom(context.Background()) != (Meta{}) {
		t.Fatal("empty context should carry zero meta")
	}
	if FromContext(context.Background()) != L {
		t.Fatal("FromContext should fall back to L")
	}
}

func TestResolveOptions(t *testing.T) {
	opts := resolveOptions(&coreconfig.Config{Logging: coreconfig.LoggingConfig{
		Level:     "warning",
		Profile:   "Dev",
		KeysOrder: "ts, event ,,status",
		Dir:       "logs",
		BotFile:   "bot.log",
	}})
	if opts.level != slog.LevelWarn {
		t.Fatalf("level = %v", opts.level)
	}
	if opts.format != formatKV {
		t.Fatal("dev profile should default to kv")
	}
	if len(opts.keyOrder) != 3 || opts.keyOrder[1] != "event" {
		t.Fatalf("order = %v", opts.keyOrder)
	}
	if opts.profile != "dev" || opts.filePath != "logs/bot.log" {
		t.Fatalf("profile/file = %q %q", opts.profile, opts.filePath)
	}

	def := resolveOptions(nil)
	if def.level != slog.LevelInfo || def.format != formatJSON || def.profile != "prod" || def.filePath != "" {
		t.Fatalf("defaults = %+v", def)
	}
	if def.sampleNum != 1 || def.sampleDen != 50 {
		t.Fatalf("sample = %d/%d", def.sampleNum, def.sampleDen)
	}
}

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	if L != nil {
		t.Skip("logger already initialized")
	}
	if Component("service.contacts") != nil {
		t.Fatal("component logger should be nil before init")
	}
	Info(context.Background(), "service.contacts", "contact.insert", slog.String("status", "ok"))
	LogEvent(context.Background(), nil, slog.LevelInfo, "noop")
}
