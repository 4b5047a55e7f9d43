package service

import (
	"bytes"
	"context"
	"fmt"

	"semisto-service/internal/models"
	"semisto-service/internal/portal"
	"semisto-service/internal/util"
)

// Dashboard is the partner portal landing view
type Dashboard struct {
	Partner          models.Partner           `json:"partner"`
	Engagements      []models.Engagement      `json:"engagements"`
	FundingProposals []models.FundingProposal `json:"fundingProposals"`
	Fundings         []models.Funding         `json:"fundings"`
	ImpactMetrics    models.ImpactMetrics     `json:"impactMetrics"`
}

// PortalService assembles partner portal views
type PortalService struct {
	repo    *portal.Repository
	funding *FundingService
}

func NewPortalService(repo *portal.Repository, funding *FundingService) *PortalService {
	return &PortalService{repo: repo, funding: funding}
}

func (s *PortalService) Repository() *portal.Repository {
	return s.repo
}

func (s *PortalService) Funding() *FundingService {
	return s.funding
}

// Dashboard gathers everything the partner sees on the portal home page
func (s *PortalService) Dashboard(ctx context.Context, partnerID string) (*Dashboard, error) {
	ctx, span := util.StartSpan(ctx, "PortalService.Dashboard")
	defer span.End()

	proposals, err := s.funding.Proposals(ctx)
	if err != nil {
		return nil, err
	}
	fundings, err := s.funding.Fundings(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Partner:          s.repo.Partner(),
		Engagements:      s.repo.Engagements(),
		FundingProposals: proposals,
		Fundings:         fundings,
		ImpactMetrics:    s.repo.ImpactMetrics(),
	}, nil
}

// ImpactReport exports the partner's impact as an XLSX workbook
func (s *PortalService) ImpactReport(ctx context.Context, partnerID string) (*bytes.Buffer, string, error) {
	ctx, span := util.StartSpan(ctx, "PortalService.ImpactReport")
	defer span.End()

	fundings, err := s.funding.Fundings(ctx, partnerID)
	if err != nil {
		return nil, "", err
	}

	buf, name, err := portal.ImpactReport(s.repo.Partner(), s.repo.ImpactMetrics(), fundings)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build impact report: %w", err)
	}
	return buf, name, nil
}
