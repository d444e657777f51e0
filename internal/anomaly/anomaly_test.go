package anomaly

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"logsift/internal/models"
)

func recAt(service, level string, hour int) models.LogRecord {
	return models.LogRecord{
		Timestamp: time.Date(2024, time.December, 1, hour, 15, 0, 0, time.UTC),
		Level:     level,
		Service:   service,
		Message:   "m",
		Host:      "h",
		RawLine:   "raw",
	}
}

func TestScore_EmptyBatch(t *testing.T) {
	t.Parallel()

	got, err := Score(nil)
	if err != nil {
		t.Fatalf("Score(nil) error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Score(nil) = %d records, want 0", len(got))
	}
}

func TestScore_OutlierHourGetsMaxScore(t *testing.T) {
	t.Parallel()

	// One service, hourly error rates [0, 0, 0, 1]: the all-error hour must
	// score 1.0 and the clean hours 0.0.
	var records []models.LogRecord
	for _, hour := range []int{1, 2, 3} {
		records = append(records,
			recAt("api", models.LevelInfo, hour),
			recAt("api", models.LevelInfo, hour),
		)
	}
	records = append(records,
		recAt("api", models.LevelError, 4),
		recAt("api", models.LevelError, 4),
	)

	got, err := Score(records)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for i, rec := range got {
		want := 0.0
		if rec.Timestamp.Hour() == 4 {
			want = 1.0
		}
		if rec.AnomalyScore != want {
			t.Errorf("record %d (hour %d): score = %v, want %v", i, rec.Timestamp.Hour(), rec.AnomalyScore, want)
		}
	}
}

func TestScore_SingleBucketDegeneratesToZero(t *testing.T) {
	t.Parallel()

	// One populated hour: no variance is computable, std falls back to 0
	// and every record scores 0 even when the hour is all errors.
	records := []models.LogRecord{
		recAt("db", models.LevelError, 9),
		recAt("db", models.LevelError, 9),
		recAt("db", models.LevelInfo, 9),
	}
	got, err := Score(records)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	for i, rec := range got {
		if rec.AnomalyScore != 0 {
			t.Errorf("record %d: score = %v, want 0", i, rec.AnomalyScore)
		}
	}
}

func TestScore_ServicesAreIndependent(t *testing.T) {
	t.Parallel()

	records := []models.LogRecord{
		// "api": clean hours 1-3, bad hour 4.
		recAt("api", models.LevelInfo, 1),
		recAt("api", models.LevelInfo, 2),
		recAt("api", models.LevelInfo, 3),
		recAt("api", models.LevelError, 4),
		// "worker": single hour, degenerate, must stay at 0 regardless of api.
		recAt("worker", models.LevelError, 4),
	}
	got, err := Score(records)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got[3].AnomalyScore != 1.0 {
		t.Errorf("api outlier score = %v, want 1.0", got[3].AnomalyScore)
	}
	if got[4].AnomalyScore != 0 {
		t.Errorf("worker score = %v, want 0 (single bucket)", got[4].AnomalyScore)
	}
	// Order must be preserved.
	for i, svc := range []string{"api", "api", "api", "api", "worker"} {
		if got[i].Service != svc {
			t.Fatalf("order not preserved at %d: %q", i, got[i].Service)
		}
	}
}

func TestScore_MissingFieldsRejected(t *testing.T) {
	t.Parallel()

	records := []models.LogRecord{
		{Timestamp: time.Now(), Level: models.LevelInfo}, // no service
	}
	_, err := Score(records)
	var mfe *MissingFieldError
	if !errors.As(err, &mfe) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if !strings.Contains(mfe.Error(), "service") {
		t.Fatalf("error does not name the missing field: %v", mfe)
	}
}

func TestScore_ZeroTimestampRejected(t *testing.T) {
	t.Parallel()

	records := []models.LogRecord{
		{Level: models.LevelInfo, Service: "api"},
	}
	_, err := Score(records)
	var ite *InvalidTimestampError
	if !errors.As(err, &ite) {
		t.Fatalf("expected InvalidTimestampError, got %v", err)
	}
}

func TestScore_Idempotent(t *testing.T) {
	t.Parallel()

	build := func() []models.LogRecord {
		return []models.LogRecord{
			recAt("api", models.LevelInfo, 1),
			recAt("api", models.LevelError, 2),
			recAt("api", models.LevelInfo, 2),
			recAt("api", models.LevelInfo, 3),
		}
	}
	first, err := Score(build())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	second, err := Score(first)
	if err != nil {
		t.Fatalf("re-Score: %v", err)
	}
	for i := range first {
		if math.Abs(first[i].AnomalyScore-second[i].AnomalyScore) > 1e-12 {
			t.Errorf("record %d: score changed on re-run: %v vs %v", i, first[i].AnomalyScore, second[i].AnomalyScore)
		}
	}
}

func TestScore_SubThresholdScaling(t *testing.T) {
	t.Parallel()

	// Error rates [0, 0.5]: mean 0.25, sample std ~0.3536. Neither hour
	// crosses mean+2σ, so both get clamped z-scores strictly inside [0,1).
	records := []models.LogRecord{
		recAt("api", models.LevelInfo, 1),
		recAt("api", models.LevelInfo, 1),
		recAt("api", models.LevelError, 2),
		recAt("api", models.LevelInfo, 2),
	}
	got, err := Score(records)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	std := math.Sqrt(0.125) // sample std of {0, 0.5}
	wantHigh := (0.5 - 0.25) / (std + minStdOffset)
	if math.Abs(got[2].AnomalyScore-wantHigh) > 1e-9 {
		t.Errorf("hot hour score = %v, want %v", got[2].AnomalyScore, wantHigh)
	}
	if got[0].AnomalyScore != 0 {
		t.Errorf("cold hour score = %v, want 0 (negative z clamps)", got[0].AnomalyScore)
	}
}

func TestFlaggedAndTopAnomalous(t *testing.T) {
	t.Parallel()

	records := []models.LogRecord{
		{ID: "a", AnomalyScore: 0.2},
		{ID: "b", AnomalyScore: 1.0},
		{ID: "c", AnomalyScore: 0.95},
	}
	flagged := Flagged(records, 0.9)
	if len(flagged) != 2 || flagged[0] != "b" || flagged[1] != "c" {
		t.Fatalf("Flagged = %v", flagged)
	}
	top := TopAnomalous(records, 2)
	if len(top) != 2 || top[0].ID != "b" || top[1].ID != "c" {
		t.Fatalf("TopAnomalous = %+v", top)
	}
	// input untouched
	if records[0].ID != "a" || records[1].ID != "b" {
		t.Fatal("TopAnomalous mutated its input")
	}
}
