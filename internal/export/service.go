package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/presalekit/estimator/internal/entity"
	"github.com/presalekit/estimator/internal/estimate"
	"github.com/presalekit/estimator/internal/repository"
)

// Service is a tiny façade over the result store that produces XLSX bytes
// for a document's estimate.
type Service struct {
	results repository.ResultRepository
	logger  *slog.Logger
}

func NewService(results repository.ResultRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{results: results, logger: logger}
}

// ExportResultXLSX returns an XLSX workbook for the given document's result.
// version nil means the current (highest) version.
func (s *Service) ExportResultXLSX(ctx context.Context, documentID uuid.UUID, version *int) ([]byte, error) {
	var (
		result *entity.GeneratedResult
		err    error
	)
	if version != nil {
		result, err = s.results.GetVersion(ctx, documentID, *version)
	} else {
		result, err = s.results.Latest(ctx, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("load result: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(result.ResultJSON, &payload); err != nil {
		return nil, fmt.Errorf("decode result payload: %w", err)
	}
	if msg, failed := payload["error"]; failed {
		return nil, fmt.Errorf("result version %d is a failed generation: %v", result.Version, msg)
	}

	f := excelize.NewFile()
	const sheet = "Estimate"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Epic", "ID", "Title", "Type", "Role",
		"Optimistic", "Most Likely", "Pessimistic", "Expected",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	variant := estimate.DetectVariant(payload)
	row := 2
	writeLeaf := func(epicTitle string, leaf map[string]any) {
		o, m, p := estimate.PERTInputs(leaf)
		pert, _ := leaf["pert_hours"].(map[string]any)
		expected, _ := pert["expected"].(float64)
		write(1, row, epicTitle)
		write(2, row, str(leaf["id"]))
		write(3, row, str(leaf["title"]))
		write(4, row, str(leaf["type"]))
		write(5, row, str(leaf["role"]))
		write(6, row, o)
		write(7, row, m)
		write(8, row, p)
		write(9, row, expected)
		row++
	}

	if variant == entity.VariantRows {
		for _, leaf := range estimate.LeafItems(payload, variant) {
			writeLeaf("", leaf)
		}
	} else {
		epics, _ := payload["epics"].([]any)
		for _, e := range epics {
			em, _ := e.(map[string]any)
			if em == nil {
				continue
			}
			title := str(em["title"])
			tasks, _ := em["tasks"].([]any)
			for _, t := range tasks {
				if leaf, ok := t.(map[string]any); ok {
					writeLeaf(title, leaf)
				}
			}
		}
	}

	if totals, ok := payload["totals"].(map[string]any); ok {
		write(3, row, "Total expected hours")
		write(9, row, totals["expected_hours"])
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("export.xlsx_ok", "document_id", documentID, "version", result.Version, "rows", row-2)
	return buf.Bytes(), nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
