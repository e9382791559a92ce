package analytics

import (
	"sort"
	"time"

	"github.com/diagnosis/visitor-register/internal/domain"
)

// VisitorSummary rolls up every visit made under one ID number. Display
// fields come from the first visit seen for that number.
type VisitorSummary struct {
	IDNumber     string           `json:"idNumber"`
	Name         string           `json:"name"`
	PhoneNumber  string           `json:"phoneNumber"`
	Organisation string           `json:"organisation"`
	VisitCount   int              `json:"visitCount"`
	LastVisitAt  time.Time        `json:"lastVisitAt"`
	Visits       []domain.Visitor `json:"visits"`
}

// Aggregate groups visitors by ID number, filters the summaries on name,
// ID number or organisation, and orders them by visit count descending.
// Ties go to the most recent visit, then to the lower ID number.
func Aggregate(visitors []domain.Visitor, search string) []VisitorSummary {
	index := make(map[string]int)
	var groups []*VisitorSummary

	for _, v := range visitors {
		i, ok := index[v.IDNumber]
		if !ok {
			i = len(groups)
			index[v.IDNumber] = i
			groups = append(groups, &VisitorSummary{
				IDNumber:     v.IDNumber,
				Name:         v.Name,
				PhoneNumber:  v.PhoneNumber,
				Organisation: v.Organisation,
			})
		}
		groups[i].Visits = append(groups[i].Visits, v)
	}

	term := normalizeTerm(search)
	summaries := make([]VisitorSummary, 0, len(groups))
	for _, g := range groups {
		if !matchesAny(term, g.Name, g.IDNumber, g.Organisation) {
			continue
		}
		sort.SliceStable(g.Visits, func(a, b int) bool {
			return g.Visits[a].CheckInTime.After(g.Visits[b].CheckInTime)
		})
		g.VisitCount = len(g.Visits)
		g.LastVisitAt = g.Visits[0].CheckInTime
		summaries = append(summaries, *g)
	}

	sort.SliceStable(summaries, func(a, b int) bool {
		sa, sb := summaries[a], summaries[b]
		if sa.VisitCount != sb.VisitCount {
			return sa.VisitCount > sb.VisitCount
		}
		if !sa.LastVisitAt.Equal(sb.LastVisitAt) {
			return sa.LastVisitAt.After(sb.LastVisitAt)
		}
		return sa.IDNumber < sb.IDNumber
	})
	return summaries
}
