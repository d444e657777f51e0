package service

import (
	"context"
	"fmt"
	"strings"

	"logsift/internal/anomaly"
	"logsift/internal/logger"
	"logsift/internal/parser"
	"logsift/internal/repository"
)

// IngestService is the orchestrator around the two core components: it
// feeds raw lines through the parser, hands the full batch to the scorer,
// and bulk-writes the result. It holds no state between calls.
type IngestService struct {
	parser     *parser.Parser
	recordRepo repository.RecordRepo
	log        *logger.Logger
}

func NewIngestService(recordRepo repository.RecordRepo, log *logger.Logger) *IngestService {
	return &IngestService{
		parser:     parser.New(),
		recordRepo: recordRepo,
		log:        log,
	}
}

// ProcessFile parses and scores the file content and persists the records
// stamped with jobID. It returns the number of records produced. Malformed
// lines are never an error (they fall back to UNKNOWN records); only scoring
// contract violations and storage errors surface, and the caller records
// them as the job's failure reason.
func (s *IngestService) ProcessFile(ctx context.Context, jobID, content string) (int, error) {
	records := s.parser.ParseBatch(splitLines(content))
	if len(records) == 0 {
		return 0, nil
	}
	for i := range records {
		records[i].JobID = jobID
	}

	records, err := anomaly.Score(records)
	if err != nil {
		return 0, fmt.Errorf("score records: %w", err)
	}

	if err := s.recordRepo.BulkInsert(ctx, records); err != nil {
		return 0, fmt.Errorf("persist records: %w", err)
	}

	s.log.Infow("batch_ingested",
		"job_id", jobID,
		"records", len(records),
		"flagged", len(anomaly.Flagged(records, AnomalyFlagThreshold)),
	)
	return len(records), nil
}

// splitLines splits file content on newlines, tolerating CRLF input.
func splitLines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}
