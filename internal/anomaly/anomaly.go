package anomaly

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"logsift/internal/models"
)

// Tuning constants for the hourly error-rate model.
const (
	// minStdOffset regularizes the z-score denominator so a service with
	// zero variance never divides by zero.
	minStdOffset = 0.001

	// zThreshold marks an hour as a confident anomaly when its error rate
	// exceeds mean + zThreshold*std.
	zThreshold = 2.0
)

// MissingFieldError reports records that cannot be scored because required
// fields are empty. Scoring needs service, timestamp and level on every
// record; the parser guarantees them, but records may arrive from other
// sources.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("record missing required field(s): %s", strings.Join(e.Fields, ", "))
}

// InvalidTimestampError reports a record whose timestamp is not a usable
// time value (the zero time).
type InvalidTimestampError struct {
	Index int
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("record %d: timestamp is not a valid time value", e.Index)
}

// Score assigns an anomaly score in [0,1] to every record based on how its
// hour-of-day error rate deviates from the emitting service's per-hour
// distribution within this batch. The input slice is annotated in place and
// returned with its order intact. An empty batch returns empty, no error.
//
// Buckets are keyed by clock hour only; the calendar date is discarded, so
// Monday 3am and Friday 3am share a bucket. Keying by (date, hour) would
// change detection behavior, so it stays this way.
func Score(records []models.LogRecord) ([]models.LogRecord, error) {
	if len(records) == 0 {
		return records, nil
	}
	if err := validate(records); err != nil {
		return nil, err
	}

	// Indices per service, so annotation can reach back into the caller's
	// slice without copying records.
	byService := make(map[string][]int)
	for i, rec := range records {
		byService[rec.Service] = append(byService[rec.Service], i)
	}

	for _, idxs := range byService {
		scoreService(records, idxs)
	}
	return records, nil
}

func validate(records []models.LogRecord) error {
	for i, rec := range records {
		var missing []string
		if rec.Service == "" {
			missing = append(missing, "service")
		}
		if rec.Level == "" {
			missing = append(missing, "level")
		}
		if len(missing) > 0 {
			return &MissingFieldError{Fields: missing}
		}
		if rec.Timestamp.IsZero() {
			return &InvalidTimestampError{Index: i}
		}
	}
	return nil
}

// scoreService computes per-hour error rates for one service and writes the
// score onto each of its records.
func scoreService(records []models.LogRecord, idxs []int) {
	hourTotal := make(map[int]int)
	hourErrors := make(map[int]int)
	for _, i := range idxs {
		h := records[i].Timestamp.Hour()
		hourTotal[h]++
		if records[i].Level == models.LevelError {
			hourErrors[h]++
		}
	}

	hourRate := make(map[int]float64, len(hourTotal))
	rates := make([]float64, 0, len(hourTotal))
	for h, total := range hourTotal {
		r := float64(hourErrors[h]) / float64(total)
		hourRate[h] = r
		rates = append(rates, r)
	}

	mean, std := meanStd(rates)

	for _, i := range idxs {
		r := hourRate[records[i].Timestamp.Hour()]
		records[i].AnomalyScore = scoreRate(r, mean, std)
	}
}

// scoreRate maps one hourly error rate to [0,1]: a hard 1.0 above the 2σ
// threshold, otherwise the clamped z-score.
func scoreRate(r, mean, std float64) float64 {
	if r > mean+zThreshold*std {
		return 1.0
	}
	z := (r - mean) / (std + minStdOffset)
	return clamp01(z)
}

// meanStd returns the mean and sample standard deviation of rates. A single
// data point has no computable variance: std degenerates to 0 and the mean
// is that point.
func meanStd(rates []float64) (mean, std float64) {
	n := len(rates)
	if n == 0 {
		return 0, 0
	}
	for _, r := range rates {
		mean += r
	}
	mean /= float64(n)
	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, r := range rates {
		d := r - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n-1))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Flagged returns the ids of records at or above the given score threshold,
// preserving input order. Helper for analytics and the AI assist flow.
func Flagged(records []models.LogRecord, threshold float64) []string {
	var ids []string
	for _, rec := range records {
		if rec.AnomalyScore >= threshold {
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

// TopAnomalous returns up to n records sorted by descending anomaly score,
// without mutating the input order.
func TopAnomalous(records []models.LogRecord, n int) []models.LogRecord {
	out := make([]models.LogRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AnomalyScore > out[j].AnomalyScore
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
