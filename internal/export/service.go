package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/recenseo/internal/xapi"
	"github.com/ternarybob/recenseo/pkg/models"
)

// ListAPI resolves list metadata for the export header.
type ListAPI interface {
	ListInfo(ctx context.Context, listID string) (models.ListRecord, error)
}

// MemberCollector drains the full membership of a list.
type MemberCollector interface {
	CollectAll(ctx context.Context, listID string, sink xapi.ProgressSink) ([]models.MemberRecord, error)
}

// Service assembles and writes the export artifact. The export is
// all-or-nothing: nothing is persisted unless the full collection succeeded.
type Service struct {
	api       ListAPI
	collector MemberCollector
	logger    arbor.ILogger
}

// NewService creates an export service.
func NewService(api ListAPI, collector MemberCollector, logger arbor.ILogger) *Service {
	return &Service{
		api:       api,
		collector: collector,
		logger:    logger,
	}
}

// Export runs a complete export of the given list and writes the artifact to
// outputPath. The returned result is constructed once and never mutated.
func (s *Service) Export(ctx context.Context, listID, outputPath string, sink xapi.ProgressSink) (*models.ExportResult, error) {
	runID := uuid.New().String()

	s.logger.Info().
		Str("run_id", runID).
		Str("list_id", listID).
		Msg("Starting list export")

	list, err := s.api.ListInfo(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("list lookup failed: %w", err)
	}

	members, err := s.collector.CollectAll(ctx, listID, sink)
	if err != nil {
		return nil, fmt.Errorf("member collection failed: %w", err)
	}
	if members == nil {
		members = []models.MemberRecord{}
	}

	result := &models.ExportResult{
		List:        list,
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
		MemberCount: len(members),
		Members:     members,
	}

	if err := Write(outputPath, result); err != nil {
		return nil, fmt.Errorf("failed to write export artifact: %w", err)
	}

	s.logger.Info().
		Str("run_id", runID).
		Str("list", list.Name).
		Int("members", result.MemberCount).
		Str("output", outputPath).
		Msg("Export complete")

	return result, nil
}

// Write persists the artifact as indented JSON via a temp file and rename,
// so a failed run never leaves a half-written artifact behind.
func Write(path string, result *models.ExportResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".recenseo-export-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}
