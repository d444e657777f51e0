package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeCompleter struct {
	out        string
	err        error
	lastPrompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.out, f.err
}

func TestRootCause_ParsesStructuredAnswer(t *testing.T) {
	t.Parallel()

	fc := &fakeCompleter{out: `{"cause":"db pool exhausted","impact":"payments failing","solution":"raise pool size"}`}
	a := NewAnalyzer(fc)

	got := a.RootCause(context.Background(), []string{"ERROR payment-svc - DB conn failed"})
	if got.Cause != "db pool exhausted" || got.Impact != "payments failing" || got.Solution != "raise pool size" {
		t.Fatalf("unexpected analysis: %+v", got)
	}
	if !strings.Contains(fc.lastPrompt, "Log 1:") || !strings.Contains(fc.lastPrompt, "DB conn failed") {
		t.Fatalf("prompt missing log content:\n%s", fc.lastPrompt)
	}
}

func TestRootCause_LenientAboutFences(t *testing.T) {
	t.Parallel()

	fc := &fakeCompleter{out: "Here is my analysis:\n```json\n{\"cause\":\"c\",\"impact\":\"i\",\"solution\":\"s\"}\n```\n"}
	a := NewAnalyzer(fc)

	got := a.RootCause(context.Background(), []string{"line"})
	if got.Cause != "c" || got.Impact != "i" || got.Solution != "s" {
		t.Fatalf("unexpected analysis: %+v", got)
	}
}

func TestRootCause_DegradesToPlaceholder(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fc   *fakeCompleter
	}{
		{name: "completer error", fc: &fakeCompleter{err: errors.New("rate limited")}},
		{name: "not json", fc: &fakeCompleter{out: "sorry, I cannot help"}},
		{name: "json array", fc: &fakeCompleter{out: `["cause"]`}},
		{name: "empty object", fc: &fakeCompleter{out: `{}`}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := NewAnalyzer(tc.fc).RootCause(context.Background(), []string{"line"})
			if got != PlaceholderAnalysis {
				t.Fatalf("expected placeholder, got %+v", got)
			}
		})
	}
}

func TestRootCause_CapsRecordCount(t *testing.T) {
	t.Parallel()

	fc := &fakeCompleter{out: `{"cause":"c","impact":"i","solution":"s"}`}
	a := NewAnalyzer(fc)

	lines := []string{"l1", "l2", "l3", "l4", "l5", "l6", "l7"}
	a.RootCause(context.Background(), lines)
	if strings.Contains(fc.lastPrompt, "Log 6:") {
		t.Fatalf("prompt included more than %d logs:\n%s", maxAnalysisRecords, fc.lastPrompt)
	}
	if !strings.Contains(fc.lastPrompt, "Log 5:") {
		t.Fatalf("prompt missing fifth log:\n%s", fc.lastPrompt)
	}
}
