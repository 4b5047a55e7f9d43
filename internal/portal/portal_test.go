package portal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"semisto-service/internal/models"
)

func TestDefaultRepository(t *testing.T) {
	repo, err := DefaultRepository()
	require.NoError(t, err)

	assert.Equal(t, "partner-001", repo.Partner().ID)
	assert.NotEmpty(t, repo.Packages())
	assert.NotEmpty(t, repo.FundingProposals())

	_, ok := repo.PackageByID("pkg-team")
	assert.True(t, ok)
	_, ok = repo.EngagementByID("eng-001")
	assert.True(t, ok)
	_, ok = repo.FundingProposalByID("nope")
	assert.False(t, ok)
}

func TestLoadRejectsInvalidData(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"broken json", `{`},
		{"unknown key", `{"partners": {}}`},
		{"raised above target", `{
			"partner": {"id": "p", "name": "P", "type": "enterprise"},
			"packages": [{"id": "k", "type": "training", "title": "T"}],
			"fundingProposals": [{"id": "f", "title": "F", "targetAmount": 100, "raisedAmount": 150, "status": "open"}]
		}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestAllocateClampsToTarget(t *testing.T) {
	a := Allocate(10000, 9000, 2000)

	assert.Equal(t, int64(10000), a.Raised)
	assert.Equal(t, int64(1000), a.Applied)
	assert.Equal(t, int64(2000), a.Requested)
	assert.True(t, a.Funded())
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name                   string
		target, raised, amount int64
		wantRaised, wantApply  int64
	}{
		{"within target", 10000, 2000, 2500, 4500, 2500},
		{"exact remainder", 10000, 7500, 2500, 10000, 2500},
		{"already funded", 10000, 10000, 500, 10000, 0},
		{"zero", 10000, 100, 0, 100, 0},
		{"negative", 10000, 100, -50, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Allocate(tt.target, tt.raised, tt.amount)
			assert.Equal(t, tt.wantRaised, a.Raised)
			assert.Equal(t, tt.wantApply, a.Applied)
			assert.LessOrEqual(t, a.Raised, tt.target)
		})
	}
}

func TestApplyProgress(t *testing.T) {
	p := models.FundingProposal{ID: "x", TargetAmount: 10000, RaisedAmount: 0, Status: models.ProposalStatusNew}

	open := ApplyProgress(p, 2500)
	assert.Equal(t, models.ProposalStatusOpen, open.Status)
	assert.Equal(t, 25, open.RaisedPercent)

	funded := ApplyProgress(p, 12000)
	assert.Equal(t, models.ProposalStatusFunded, funded.Status)
	assert.Equal(t, int64(10000), funded.RaisedAmount)
	assert.Equal(t, 100, funded.RaisedPercent)

	p.Status = models.ProposalStatusClosed
	assert.Equal(t, models.ProposalStatusClosed, ApplyProgress(p, 10000).Status)
}

func TestImpactReport(t *testing.T) {
	repo, err := DefaultRepository()
	require.NoError(t, err)

	buf, name, err := ImpactReport(repo.Partner(), repo.ImpactMetrics(), repo.Fundings())
	require.NoError(t, err)
	assert.Equal(t, "impact-partner-001.xlsx", name)

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{impactSheet, historySheet, fundingSheet}, f.GetSheetList())

	label, err := f.GetCellValue(impactSheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Montant investi (€)", label)

	rows, err := f.GetRows(fundingSheet)
	require.NoError(t, err)
	assert.Len(t, rows, len(repo.Fundings())+1)
	assert.Equal(t, "Projet", rows[0][0])
}
