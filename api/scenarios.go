/*
scenarios.go - Demo scenario loaders for development and demos

PURPOSE:
  Provides pre-built scenarios that populate the store with realistic
  data for manual testing and demos. Each scenario creates employees and
  walks leave requests through the lifecycle so every status and ledger
  shape is visible in the UI.

AVAILABLE SCENARIOS:
  small-team:    Three employees with one pending, one approved, and one
                 rejected request
  year-end:      Two employees with next year's allocation already granted
  heavy-usage:   One employee who has consumed most of their annual balance

DATES:
  Request dates are computed relative to the service clock (next Monday
  onward) so scenarios stay valid no matter when they are loaded.

NOTE:
  Scenarios create employees with fixed emails, so each loads once per
  database. Development and demo environments only.

SEE ALSO:
  - handlers.go: shares writeJSON / writeDomainError
  - server.go: /api/scenarios routes
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/symplora/leave-engine/leave"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioDTO describes one loadable scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "small-team",
		Name:        "Small Team",
		Description: "Three employees with pending, approved, and rejected requests",
	},
	{
		ID:          "year-end",
		Name:        "Year-End Allocations",
		Description: "Employees with next year's allocation granted ahead of time",
	},
	{
		ID:          "heavy-usage",
		Name:        "Heavy Usage",
		Description: "An employee who has burned through most of their annual leave",
	},
}

// LoadScenarioRequest is the inbound payload for POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario populates the store with one scenario's data.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	var err error
	switch req.ScenarioID {
	case "small-team":
		err = h.loadSmallTeamScenario(r.Context())
	case "year-end":
		err = h.loadYearEndScenario(r.Context())
	case "heavy-usage":
		err = h.loadHeavyUsageScenario(r.Context())
	default:
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Unknown scenario %q", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"scenario_id": req.ScenarioID,
		"status":      "loaded",
	})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadSmallTeamScenario creates a manager plus two reports, with one
// request in each lifecycle state.
func (h *Handler) loadSmallTeamScenario(ctx context.Context) error {
	joined := h.Service.Clock().AddYears(-1)

	manager, err := h.seedEmployee(ctx, "Maya Chen", "maya.chen@demo.local", "Engineering", joined)
	if err != nil {
		return err
	}
	dev, err := h.seedEmployee(ctx, "Tom Okafor", "tom.okafor@demo.local", "Engineering", joined)
	if err != nil {
		return err
	}
	designer, err := h.seedEmployee(ctx, "Lena Ruiz", "lena.ruiz@demo.local", "Design", joined)
	if err != nil {
		return err
	}

	monday := nextMonday(h.Service.Clock())

	// Pending: dev asks for a week off.
	if _, err := h.seedRequest(ctx, dev.ID, leave.LeaveAnnual, monday, monday.AddDays(4), "family trip"); err != nil {
		return err
	}

	// Approved: designer's long weekend.
	approved, err := h.seedRequest(ctx, designer.ID, leave.LeaveAnnual, monday.AddDays(7), monday.AddDays(8), "long weekend")
	if err != nil {
		return err
	}
	if _, err := h.Service.Approve(ctx, approved.ID, manager.ID); err != nil {
		return err
	}

	// Rejected: manager's own request, turned down by the dev.
	rejected, err := h.seedRequest(ctx, manager.ID, leave.LeaveAnnual, monday.AddDays(14), monday.AddDays(18), "conference")
	if err != nil {
		return err
	}
	_, err = h.Service.Reject(ctx, rejected.ID, dev.ID, "release week, need coverage")
	return err
}

// loadYearEndScenario creates two employees and grants next year's
// allocation so balance views show both years.
func (h *Handler) loadYearEndScenario(ctx context.Context) error {
	joined := h.Service.Clock().AddYears(-2)

	if _, err := h.seedEmployee(ctx, "Priya Nair", "priya.nair@demo.local", "Finance", joined); err != nil {
		return err
	}
	if _, err := h.seedEmployee(ctx, "Jon Berg", "jon.berg@demo.local", "Finance", joined); err != nil {
		return err
	}

	_, err := h.Service.GrantYearlyAllocation(ctx, h.Service.Clock().Year()+1)
	return err
}

// loadHeavyUsageScenario creates one employee with most of the annual
// balance already spent and one small pending request on top.
func (h *Handler) loadHeavyUsageScenario(ctx context.Context) error {
	joined := h.Service.Clock().AddYears(-1)

	manager, err := h.seedEmployee(ctx, "Ravi Shah", "ravi.shah@demo.local", "Operations", joined)
	if err != nil {
		return err
	}
	emp, err := h.seedEmployee(ctx, "Dana Kim", "dana.kim@demo.local", "Operations", joined)
	if err != nil {
		return err
	}

	// Three approved weeks (15 working days of the default 21).
	monday := nextMonday(h.Service.Clock())
	for i := 0; i < 3; i++ {
		start := monday.AddDays(i * 14)
		req, err := h.seedRequest(ctx, emp.ID, leave.LeaveAnnual, start, start.AddDays(4), "planned leave")
		if err != nil {
			return err
		}
		if _, err := h.Service.Approve(ctx, req.ID, manager.ID); err != nil {
			return err
		}
	}

	// A pending sick day on a free week.
	wednesday := monday.AddDays(7 + 2)
	_, err = h.seedRequest(ctx, emp.ID, leave.LeaveSick, wednesday, wednesday, "dentist")
	return err
}

// =============================================================================
// SEED HELPERS
// =============================================================================

func (h *Handler) seedEmployee(ctx context.Context, name, email, dept string, joined leave.Date) (*leave.Employee, error) {
	return h.Service.CreateEmployee(ctx, leave.CreateEmployeeInput{
		Name:        name,
		Email:       email,
		Department:  dept,
		JoiningDate: joined,
	})
}

func (h *Handler) seedRequest(ctx context.Context, emp leave.EmployeeID, typ leave.LeaveType, start, end leave.Date, reason string) (*leave.LeaveRequest, error) {
	return h.Service.Submit(ctx, leave.SubmitInput{
		EmployeeID: emp,
		Type:       typ,
		StartDate:  start,
		EndDate:    end,
		Reason:     reason,
	})
}

// nextMonday returns the first Monday strictly after d.
func nextMonday(d leave.Date) leave.Date {
	offset := (int(time.Monday) - int(d.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return d.AddDays(offset)
}
