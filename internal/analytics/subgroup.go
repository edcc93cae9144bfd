package analytics

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mohrashard/LiverLens/internal/domain"
)

// drugMinGroupSize is the minimum member count for a drug cohort to be
// reported. Tiny cohorts are suppressed rather than shown with
// unstable averages.
const drugMinGroupSize = 5

const ageGroupThreshold = 50

// SubgroupStat summarizes one cohort. The means are nil, not zero,
// when the cohort is empty or carries no usable values for the field,
// so an empty group serializes with null statistics.
type SubgroupStat struct {
	Count         int      `json:"count"`
	MeanAge       *float64 `json:"mean_age"`
	MeanBilirubin *float64 `json:"mean_bilirubin"`
	MeanAlbumin   *float64 `json:"mean_albumin"`
}

// SubgroupEntry names one cohort of a partition.
type SubgroupEntry struct {
	Group string `json:"group"`
	SubgroupStat
}

// SubgroupReport carries every partition of the record set. The fixed
// partitions (sex, risk level, age group, stage) always list all of
// their groups, empty ones included; the drug partition is data-driven
// and omits cohorts below the minimum group size.
type SubgroupReport struct {
	Sex       []SubgroupEntry `json:"sex"`
	RiskLevel []SubgroupEntry `json:"risk_level"`
	AgeGroup  []SubgroupEntry `json:"age_group"`
	Stage     []SubgroupEntry `json:"stage"`
	Drug      []SubgroupEntry `json:"drug"`
}

// Subgroups partitions the filtered record set four fixed ways plus
// one data-driven way and computes per-cohort counts and means.
func (e *Engine) Subgroups(ctx context.Context, ownerID string, f domain.FilterSpec) (*SubgroupReport, error) {
	records, err := e.fetch(ctx, ownerID, f, "subgroups")
	if err != nil {
		return nil, err
	}

	report := &SubgroupReport{
		Sex: partition(records, []string{"Male", "Female"}, func(p *domain.PersistedPrediction) (string, bool) {
			switch foldInitial(p.Input.Sex.Text()) {
			case "M":
				return "Male", true
			case "F":
				return "Female", true
			}
			return "", false
		}),
		RiskLevel: partition(records, []string{domain.RiskLow, domain.RiskMedium, domain.RiskHigh}, func(p *domain.PersistedPrediction) (string, bool) {
			switch p.Result.RiskLevel {
			case domain.RiskLow, domain.RiskMedium, domain.RiskHigh:
				return p.Result.RiskLevel, true
			}
			return "", false
		}),
		AgeGroup: partition(records, []string{"<50", ">=50"}, func(p *domain.PersistedPrediction) (string, bool) {
			age, ok := p.Input.FloatField(domain.FieldAge)
			if !ok {
				return "", false
			}
			if age < ageGroupThreshold {
				return "<50", true
			}
			return ">=50", true
		}),
		Stage: partition(records, []string{"1", "2", "3", "4"}, func(p *domain.PersistedPrediction) (string, bool) {
			stage, ok := p.Input.FloatField(domain.FieldStage)
			if !ok || stage != math.Trunc(stage) {
				return "", false
			}
			n := int(stage)
			if n < 1 || n > 4 {
				return "", false
			}
			return fmt.Sprintf("%d", n), true
		}),
	}

	report.Drug = drugPartition(records)
	return report, nil
}

// partition assigns each record to at most one of the named groups and
// computes cohort statistics. Every named group appears in the result,
// in the given order, whether or not it has members.
func partition(records []domain.PersistedPrediction, groups []string, assign func(*domain.PersistedPrediction) (string, bool)) []SubgroupEntry {
	members := make(map[string][]domain.PersistedPrediction, len(groups))
	for i := range records {
		group, ok := assign(&records[i])
		if !ok {
			continue
		}
		members[group] = append(members[group], records[i])
	}

	entries := make([]SubgroupEntry, len(groups))
	for i, group := range groups {
		entries[i] = SubgroupEntry{Group: group, SubgroupStat: cohortStat(members[group])}
	}
	return entries
}

// drugPartition groups records by their raw drug label. Cohorts with
// fewer members than the minimum group size are omitted.
func drugPartition(records []domain.PersistedPrediction) []SubgroupEntry {
	members := make(map[string][]domain.PersistedPrediction)
	var order []string
	for i := range records {
		if records[i].Input.Drug.IsMissing() {
			continue
		}
		drug := strings.TrimSpace(records[i].Input.Drug.Text())
		if drug == "" {
			continue
		}
		if _, seen := members[drug]; !seen {
			order = append(order, drug)
		}
		members[drug] = append(members[drug], records[i])
	}

	entries := make([]SubgroupEntry, 0, len(order))
	for _, drug := range order {
		cohort := members[drug]
		if len(cohort) < drugMinGroupSize {
			continue
		}
		entries = append(entries, SubgroupEntry{Group: drug, SubgroupStat: cohortStat(cohort)})
	}
	return entries
}

func cohortStat(cohort []domain.PersistedPrediction) SubgroupStat {
	return SubgroupStat{
		Count:         len(cohort),
		MeanAge:       meanOrNil(fieldValues(cohort, domain.FieldAge)),
		MeanBilirubin: meanOrNil(fieldValues(cohort, domain.FieldBilirubin)),
		MeanAlbumin:   meanOrNil(fieldValues(cohort, domain.FieldAlbumin)),
	}
}

// foldInitial normalizes a categorical label to its uppercased first
// character, matching the encoding fold used at prediction time.
func foldInitial(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1])
}
