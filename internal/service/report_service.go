package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

type ReportService interface {
	// HistoryPDF renders the user's test history as a PDF document.
	HistoryPDF(ctx context.Context, userID uuid.UUID) ([]byte, error)
}

type reportService struct {
	profile ProfileService
}

func NewReportService(profile ProfileService) ReportService {
	return &reportService{profile: profile}
}

func (s *reportService) HistoryPDF(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	user, err := s.profile.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.profile.History(ctx, userID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr("English test history: "+user.DisplayName()))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Current level: %s", user.EnglishLevel))
	pdf.Ln(12)

	if len(history) == 0 {
		pdf.Cell(0, 8, "No completed tests yet.")
	}
	for _, h := range history {
		pdf.SetFont("Arial", "B", 12)
		result := "-"
		if h.DiagnosedLevel != nil {
			result = string(*h.DiagnosedLevel)
		}
		pdf.Cell(0, 8, fmt.Sprintf("%s  %s test  score %d  result %s",
			h.CreatedAt.Format("2006-01-02 15:04"), h.Mode, h.Score, result))
		pdf.Ln(8)

		pdf.SetFont("Arial", "", 10)
		for i, q := range h.Questions {
			mark := "x"
			if q.IsCorrect {
				mark = "ok"
			}
			line := fmt.Sprintf("%d. [%s] %s\n   your answer: %s\n   correct answer: %s",
				i+1, mark, q.QuestionText, deref(q.UserAnswer), deref(q.CorrectAnswer))
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
			pdf.Ln(1)
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, internalError(err, "failed to render report")
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
