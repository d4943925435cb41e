// Package insights derives response recommendations for an incident from a
// static rule table. Rules only inspect incident fields; there is no model,
// no history and no external calls, so advice is deterministic for a given
// incident and clock.
package insights

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/actworks/control-tower/internal/domain"
)

// Insight is a single recommendation with a confidence score in (0, 1].
type Insight struct {
	Title          string  `json:"title"`
	Detail         string  `json:"detail"`
	Recommendation string  `json:"recommendation"`
	Confidence     float64 `json:"confidence"`
}

// maxInsights caps how many recommendations a single incident yields.
const maxInsights = 3

var titleCaser = cases.Title(language.AmericanEnglish)

type rule struct {
	matches func(inc *domain.Incident, now time.Time) bool
	build   func(inc *domain.Incident, now time.Time) Insight
}

var rules = []rule{
	{
		matches: func(inc *domain.Incident, _ time.Time) bool {
			return inc.Priority == domain.PriorityCritical && !inc.Status.IsSettled()
		},
		build: func(inc *domain.Incident, _ time.Time) Insight {
			return Insight{
				Title:          "Critical priority response",
				Detail:         fmt.Sprintf("%s alerts at critical priority carry a 2 hour resolution window.", titleCaser.String(string(inc.AlertType))),
				Recommendation: "Page the on-duty supervisor and keep the incident assigned at all times.",
				Confidence:     0.95,
			}
		},
	},
	{
		matches: func(inc *domain.Incident, _ time.Time) bool {
			return inc.AlertType == domain.AlertTypeEquipment
		},
		build: func(inc *domain.Incident, _ time.Time) Insight {
			return Insight{
				Title:          "Equipment fault pattern",
				Detail:         "Equipment alerts from the same zone often share a root cause.",
				Recommendation: "Check the maintenance log for this asset and schedule preventive maintenance.",
				Confidence:     0.8,
			}
		},
	},
	{
		matches: func(inc *domain.Incident, _ time.Time) bool {
			return inc.AlertType == domain.AlertTypeSecurity
		},
		build: func(inc *domain.Incident, _ time.Time) Insight {
			return Insight{
				Title:          "Security review",
				Detail:         "Security alerts require an audit trail beyond incident notes.",
				Recommendation: "Pull badge reader and camera logs for the affected area before closing.",
				Confidence:     0.85,
			}
		},
	},
	{
		matches: func(inc *domain.Incident, _ time.Time) bool {
			return inc.AlertType == domain.AlertTypeTemperature
		},
		build: func(inc *domain.Incident, _ time.Time) Insight {
			return Insight{
				Title:          "Cold chain exposure",
				Detail:         "Temperature excursions put stored product at spoilage risk while open.",
				Recommendation: "Verify HVAC operation and record exposure duration for quality hold review.",
				Confidence:     0.75,
			}
		},
	},
	{
		matches: func(inc *domain.Incident, _ time.Time) bool {
			return strings.Contains(strings.ToUpper(inc.Location), "ASRS")
		},
		build: func(inc *domain.Incident, _ time.Time) Insight {
			return Insight{
				Title:          "Automated storage involvement",
				Detail:         "Incidents in ASRS zones can block putaway and retrieval for whole aisles.",
				Recommendation: "Confirm crane lockout state and reroute picks away from the affected aisle.",
				Confidence:     0.7,
			}
		},
	},
	{
		matches: func(inc *domain.Incident, now time.Time) bool {
			return inc.Status == domain.IncidentStatusNew && now.Sub(inc.CreatedAt) > 2*time.Hour
		},
		build: func(inc *domain.Incident, now time.Time) Insight {
			return Insight{
				Title:          "Aging unacknowledged incident",
				Detail:         fmt.Sprintf("Reported %s ago and still unacknowledged.", now.Sub(inc.CreatedAt).Round(time.Minute)),
				Recommendation: "Escalate to the shift lead if no owner acknowledges within the next 30 minutes.",
				Confidence:     0.9,
			}
		},
	},
	{
		matches: func(inc *domain.Incident, _ time.Time) bool {
			return inc.Status == domain.IncidentStatusInProgress && inc.AssignedTo == nil
		},
		build: func(inc *domain.Incident, _ time.Time) Insight {
			return Insight{
				Title:          "In progress without owner",
				Detail:         "Work has started but nobody is recorded as responsible.",
				Recommendation: "Assign the technician doing the work so handovers do not lose context.",
				Confidence:     0.65,
			}
		},
	},
}

// Advise returns up to three recommendations for the incident, highest
// confidence first. An incident matching no rule yields an empty slice.
func Advise(inc *domain.Incident, now time.Time) []Insight {
	matched := make([]Insight, 0, len(rules))
	for _, r := range rules {
		if r.matches(inc, now) {
			matched = append(matched, r.build(inc, now))
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Confidence > matched[j].Confidence
	})
	if len(matched) > maxInsights {
		matched = matched[:maxInsights]
	}
	return matched
}
