package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"medscribe-be/internal/constant"
	"medscribe-be/internal/entity"
	"medscribe-be/internal/repository/contract"
	"medscribe-be/internal/repository/specification"
)

// BypassResult contains the result of bypass execution
type BypassResult struct {
	Reply   string
	CaseIDs []string
}

// ListReportsBypass answers "which reports do I have" straight from the
// case store. It never calls a model.
type ListReportsBypass struct {
	cases  contract.CaseRepository
	logger *log.Logger
}

func NewListReportsBypass(cases contract.CaseRepository, logger *log.Logger) *ListReportsBypass {
	return &ListReportsBypass{
		cases:  cases,
		logger: logger,
	}
}

func (p *ListReportsBypass) Execute(ctx context.Context, userId string) (*BypassResult, error) {
	cases, err := p.cases.FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.MostRecentlyUploaded{},
	)
	if err != nil {
		p.logger.Printf("[BYPASS] Case lookup failed for user %s: %v", userId, err)
		return nil, err
	}

	p.logger.Printf("[BYPASS] Listing %d reports for user %s", len(cases), userId)
	return &BypassResult{
		Reply:   FormatReportList(cases),
		CaseIDs: caseIDs(cases),
	}, nil
}

// FormatReportList renders a numbered list, newest first.
func FormatReportList(cases []*entity.Case) string {
	if len(cases) == 0 {
		return constant.NoReportsMessage
	}

	lines := make([]string, 0, len(cases)+1)
	lines = append(lines, constant.ListReportsHeader)
	for i, c := range cases {
		name := c.ReportName
		if strings.TrimSpace(name) == "" {
			name = constant.UnknownReportName
		}
		lines = append(lines, fmt.Sprintf("%d. %s (uploaded %s)", i+1, name, c.UploadedAt.UTC().Format("2006-01-02 15:04 UTC")))
	}
	return strings.Join(lines, "\n")
}

func caseIDs(cases []*entity.Case) []string {
	ids := make([]string, len(cases))
	for i, c := range cases {
		ids[i] = c.Id
	}
	return ids
}
