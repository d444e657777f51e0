package service

import (
	"context"
	"fmt"

	"logsift"
	"logsift/internal/ai"
	"logsift/internal/anomaly"
	"logsift/internal/logger"
	"logsift/internal/models"
	"logsift/internal/repository"
)

const (
	// assistCandidateLimit caps how many stored records feed the per-question
	// similarity index when the caller does not pin specific ids.
	assistCandidateLimit = 200

	// assistTopK is how many similar records inform the narrative.
	assistTopK = 5
)

// AssistService orchestrates the two optional AI collaborators. Both are
// downstream consumers of parsed output: when either fails (or was never
// configured) the answer degrades instead of erroring.
type AssistService struct {
	recordRepo repository.RecordRepo
	embedder   ai.Embedder
	analyzer   *ai.Analyzer
	log        *logger.Logger
}

func NewAssistService(recordRepo repository.RecordRepo, embedder ai.Embedder, completer ai.Completer, log *logger.Logger) *AssistService {
	var analyzer *ai.Analyzer
	if completer != nil {
		analyzer = ai.NewAnalyzer(completer)
	}
	return &AssistService{
		recordRepo: recordRepo,
		embedder:   embedder,
		analyzer:   analyzer,
		log:        log,
	}
}

// Ask selects candidate records (the caller's ids, or recent stored ones),
// ranks them against the question by embedding similarity, and produces a
// root-cause narrative from the best matches. Storage errors are real
// errors; AI collaborator failures degrade to the placeholder analysis.
func (s *AssistService) Ask(ctx context.Context, req logsift.AskRequest) (logsift.AskResponse, error) {
	candidates, err := s.candidates(ctx, req.LogIDs)
	if err != nil {
		return logsift.AskResponse{}, fmt.Errorf("load candidate records: %w", err)
	}
	if len(candidates) == 0 {
		return logsift.AskResponse{Analysis: ai.PlaceholderAnalysis}, nil
	}

	ids := s.similar(ctx, req.Query, candidates)

	analysis := ai.PlaceholderAnalysis
	if s.analyzer != nil {
		analysis = s.analyzer.RootCause(ctx, rawLines(pick(candidates, ids)))
	}
	return logsift.AskResponse{Analysis: analysis, SimilarIDs: ids}, nil
}

func (s *AssistService) candidates(ctx context.Context, ids []string) ([]models.LogRecord, error) {
	if len(ids) > 0 {
		return s.recordRepo.GetByIDs(ctx, ids)
	}
	return s.recordRepo.List(ctx, repository.RecordFilter{Limit: assistCandidateLimit})
}

// similar returns up to assistTopK candidate ids ranked by inner-product
// similarity to the question. Any embedding failure falls back to the most
// anomalous candidates, so the assist path never dies with the collaborator.
func (s *AssistService) similar(ctx context.Context, query string, candidates []models.LogRecord) []string {
	if s.embedder == nil {
		return topAnomalousIDs(candidates)
	}

	texts := make([]string, len(candidates))
	ids := make([]string, len(candidates))
	for i, rec := range candidates {
		texts[i] = rec.Message
		ids[i] = rec.ID
	}

	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil || len(vecs) == 0 {
		s.log.Errorw("assist_embed_failed", "candidates", len(candidates), "err", err)
		return topAnomalousIDs(candidates)
	}
	queryVecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil || len(queryVecs) == 0 {
		s.log.Errorw("assist_query_embed_failed", "err", err)
		return topAnomalousIDs(candidates)
	}

	idx := ai.NewFlatIndex(len(vecs[0]))
	if err := idx.Add(vecs, ids); err != nil {
		s.log.Errorw("assist_index_failed", "err", err)
		return topAnomalousIDs(candidates)
	}
	hits, err := idx.Search(queryVecs[0], assistTopK)
	if err != nil {
		s.log.Errorw("assist_search_failed", "err", err)
		return topAnomalousIDs(candidates)
	}
	return hits
}

func topAnomalousIDs(records []models.LogRecord) []string {
	top := anomaly.TopAnomalous(records, assistTopK)
	ids := make([]string, len(top))
	for i, rec := range top {
		ids[i] = rec.ID
	}
	return ids
}

// pick returns the records for ids, preserving id order.
func pick(records []models.LogRecord, ids []string) []models.LogRecord {
	byID := make(map[string]models.LogRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	out := make([]models.LogRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			out = append(out, rec)
		}
	}
	return out
}

func rawLines(records []models.LogRecord) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.RawLine
	}
	return out
}
