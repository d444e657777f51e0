package ai

import (
	"context"
	"fmt"
	"strings"

	"logsift"

	"github.com/valyala/fastjson"
)

// maxAnalysisRecords caps how many log lines are shown to the model.
const maxAnalysisRecords = 5

// PlaceholderAnalysis is returned whenever the narrative collaborator fails
// or produces output that cannot be parsed. Callers must never see an error
// from the analysis path, only this degraded result.
var PlaceholderAnalysis = logsift.RootCauseAnalysis{
	Cause:    "Unable to determine root cause",
	Impact:   "Analysis failed",
	Solution: "Review logs manually",
}

// Analyzer turns a handful of representative log lines into a structured
// root-cause narrative.
type Analyzer struct {
	completer Completer
}

func NewAnalyzer(completer Completer) *Analyzer {
	return &Analyzer{completer: completer}
}

// RootCause asks the model for a cause/impact/solution narrative over at
// most maxAnalysisRecords of the given log texts. Any failure degrades to
// PlaceholderAnalysis.
func (a *Analyzer) RootCause(ctx context.Context, logTexts []string) logsift.RootCauseAnalysis {
	if len(logTexts) > maxAnalysisRecords {
		logTexts = logTexts[:maxAnalysisRecords]
	}
	out, err := a.completer.Complete(ctx, buildPrompt(logTexts))
	if err != nil {
		return PlaceholderAnalysis
	}
	return parseAnalysis(out)
}

func buildPrompt(logTexts []string) string {
	var b strings.Builder
	b.WriteString("You are a system analyst. Analyze the following logs to determine the root cause of an issue.\n")
	b.WriteString("Provide a structured response in JSON format with the following keys:\n")
	b.WriteString("- cause: the root cause of the issue\n")
	b.WriteString("- impact: the impact of the issue\n")
	b.WriteString("- solution: the recommended solution\n\nLogs:\n")
	for i, text := range logTexts {
		fmt.Fprintf(&b, "Log %d:\n%s\n\n", i+1, text)
	}
	return b.String()
}

// parseAnalysis extracts the three narrative fields from the model output.
// Models wrap JSON in prose or fences often enough that a strict decoder
// would reject usable answers, so parsing is lenient: the first '{'..'}'
// span that parses as an object wins.
func parseAnalysis(out string) logsift.RootCauseAnalysis {
	body := strings.TrimSpace(out)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return PlaceholderAnalysis
	}

	v, err := fastjson.Parse(body[start : end+1])
	if err != nil || v.Type() != fastjson.TypeObject {
		return PlaceholderAnalysis
	}
	analysis := logsift.RootCauseAnalysis{
		Cause:    string(v.GetStringBytes("cause")),
		Impact:   string(v.GetStringBytes("impact")),
		Solution: string(v.GetStringBytes("solution")),
	}
	if analysis == (logsift.RootCauseAnalysis{}) {
		return PlaceholderAnalysis
	}
	return analysis
}
