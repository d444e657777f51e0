package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"logsift"
	"logsift/internal/models"
	"logsift/internal/repository"
)

// LogFilter narrows record listings. Zero values mean "no constraint".
type LogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Level    string    // "", ERROR, WARN, INFO, DEBUG, UNKNOWN
	Service  string
	MinScore float64 // minimum anomaly score, 0-1
	Limit    int     // capped at maxListLimit; 0 means defaultListLimit
}

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	errInvalidMinScore  = errors.New("min score must be within [0, 1]")
)

type LogQueryService struct {
	recordRepo repository.RecordRepo
}

func NewLogQueryService(recordRepo repository.RecordRepo) *LogQueryService {
	return &LogQueryService{recordRepo: recordRepo}
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeLevel trims spaces and uppercases the level filter.
func normalizeLevel(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates ranges.
func normalizeAndValidateFilter(f LogFilter) (repository.RecordFilter, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return repository.RecordFilter{}, errInvalidTimeRange
	}
	if f.MinScore < 0 || f.MinScore > 1 {
		return repository.RecordFilter{}, errInvalidMinScore
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	return repository.RecordFilter{
		From:     from,
		To:       to,
		Level:    normalizeLevel(f.Level),
		Service:  strings.TrimSpace(f.Service),
		MinScore: f.MinScore,
		Limit:    limit,
	}, nil
}

func (s *LogQueryService) List(ctx context.Context, f LogFilter) ([]models.LogRecord, error) {
	rf, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.recordRepo.List(ctx, rf)
}

// AnalyticsService is a thin pass-through that pins the flag threshold.
type AnalyticsService struct {
	recordRepo repository.RecordRepo
}

func NewAnalyticsService(recordRepo repository.RecordRepo) *AnalyticsService {
	return &AnalyticsService{recordRepo: recordRepo}
}

func (s *AnalyticsService) Overview(ctx context.Context) (logsift.AnalyticsResponse, error) {
	return s.recordRepo.Analytics(ctx, AnomalyFlagThreshold)
}
