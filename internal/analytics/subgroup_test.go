package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohrashard/LiverLens/internal/domain"
)

func entryByGroup(t *testing.T, entries []SubgroupEntry, group string) SubgroupEntry {
	t.Helper()
	for _, e := range entries {
		if e.Group == group {
			return e
		}
	}
	t.Fatalf("group %s not present", group)
	return SubgroupEntry{}
}

func TestEngine_SubgroupsEmptySet(t *testing.T) {
	engine := newTestEngine(&stubStore{}, nil, nil)

	report, err := engine.Subgroups(context.Background(), "user-1", domain.FilterSpec{})

	require.NoError(t, err)
	assert.Equal(t, []string{"Male", "Female"}, groupNames(report.Sex))
	assert.Equal(t, []string{domain.RiskLow, domain.RiskMedium, domain.RiskHigh}, groupNames(report.RiskLevel))
	assert.Equal(t, []string{"<50", ">=50"}, groupNames(report.AgeGroup))
	assert.Equal(t, []string{"1", "2", "3", "4"}, groupNames(report.Stage))
	assert.Empty(t, report.Drug)

	for _, e := range report.Sex {
		assert.Zero(t, e.Count)
		assert.Nil(t, e.MeanAge, "empty cohort means serialize as null")
		assert.Nil(t, e.MeanBilirubin)
		assert.Nil(t, e.MeanAlbumin)
	}
}

func groupNames(entries []SubgroupEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Group
	}
	return names
}

func TestEngine_Subgroups(t *testing.T) {
	now := time.Now().UTC()
	records := []domain.PersistedPrediction{
		prediction("C", domain.RiskLow, now, map[string]string{
			domain.FieldSex: "male", domain.FieldAge: "42", domain.FieldBilirubin: "1.0", domain.FieldStage: "2",
		}),
		prediction("D", domain.RiskHigh, now, map[string]string{
			domain.FieldSex: "M", domain.FieldAge: "58", domain.FieldBilirubin: "4.0", domain.FieldStage: "4",
		}),
		prediction("CL", domain.RiskMedium, now, map[string]string{
			domain.FieldSex: "F", domain.FieldAge: "50", domain.FieldStage: "2.5",
		}),
	}
	engine := newTestEngine(&stubStore{records: records}, nil, nil)

	report, err := engine.Subgroups(context.Background(), "user-1", domain.FilterSpec{})

	require.NoError(t, err)

	male := entryByGroup(t, report.Sex, "Male")
	assert.Equal(t, 2, male.Count, "sex labels fold to their initial")
	require.NotNil(t, male.MeanAge)
	assert.InDelta(t, 50.0, *male.MeanAge, 1e-9)
	require.NotNil(t, male.MeanBilirubin)
	assert.InDelta(t, 2.5, *male.MeanBilirubin, 1e-9)
	assert.Nil(t, male.MeanAlbumin, "no albumin values in the cohort")

	assert.Equal(t, 1, entryByGroup(t, report.RiskLevel, domain.RiskMedium).Count)
	assert.Equal(t, 1, entryByGroup(t, report.RiskLevel, domain.RiskHigh).Count)

	assert.Equal(t, 1, entryByGroup(t, report.AgeGroup, "<50").Count)
	assert.Equal(t, 2, entryByGroup(t, report.AgeGroup, ">=50").Count,
		"the threshold age belongs to the upper group")

	assert.Equal(t, 1, entryByGroup(t, report.Stage, "2").Count)
	assert.Equal(t, 1, entryByGroup(t, report.Stage, "4").Count)
	assert.Zero(t, entryByGroup(t, report.Stage, "3").Count, "fractional stages are unassigned")
}

func TestEngine_SubgroupsDrugMinimumSupport(t *testing.T) {
	now := time.Now().UTC()
	var records []domain.PersistedPrediction
	for i := 0; i < 4; i++ {
		records = append(records, prediction("C", domain.RiskLow, now.Add(time.Duration(i)*time.Second), map[string]string{
			domain.FieldDrug: "D-penicillamine",
		}))
	}
	for i := 0; i < 5; i++ {
		records = append(records, prediction("C", domain.RiskLow, now.Add(time.Duration(10+i)*time.Second), map[string]string{
			domain.FieldDrug: "Placebo", domain.FieldAge: "45",
		}))
	}
	engine := newTestEngine(&stubStore{records: records}, nil, nil)

	report, err := engine.Subgroups(context.Background(), "user-1", domain.FilterSpec{})

	require.NoError(t, err)
	require.Len(t, report.Drug, 1, "cohorts below the minimum size are suppressed")
	assert.Equal(t, "Placebo", report.Drug[0].Group)
	assert.Equal(t, 5, report.Drug[0].Count)
	require.NotNil(t, report.Drug[0].MeanAge)
	assert.InDelta(t, 45.0, *report.Drug[0].MeanAge, 1e-9)
}
