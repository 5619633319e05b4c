/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

CONVENTIONS:
  - Dates are YYYY-MM-DD strings; timestamps are RFC3339
  - Day amounts travel as decimal strings to avoid float rounding

VALIDATION:
  Inbound types carry go-playground/validator struct tags; handlers run
  them through decodeAndValidate before touching domain logic.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/symplora/leave-engine/leave"
)

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// CreateEmployeeRequest is the inbound payload for POST /api/employees.
type CreateEmployeeRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Email       string `json:"email" validate:"required,email"`
	Department  string `json:"department" validate:"required,min=2"`
	JoiningDate string `json:"joining_date" validate:"required,datetime=2006-01-02"`
}

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Department  string `json:"department"`
	JoiningDate string `json:"joining_date"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func toEmployeeDTO(e *leave.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:          string(e.ID),
		Name:        e.Name,
		Email:       e.Email,
		Department:  e.Department,
		JoiningDate: e.JoiningDate.String(),
		Active:      e.Active,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// SubmitRequestDTO is the inbound payload for POST /api/leave-requests.
type SubmitRequestDTO struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	LeaveType  string `json:"leave_type" validate:"required"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason     string `json:"reason" validate:"max=500"`
}

// DecisionDTO is the inbound payload for approve/reject.
type DecisionDTO struct {
	ApproverID string `json:"approver_id" validate:"required"`
	Reason     string `json:"reason" validate:"max=500"`
}

// LeaveRequestDTO represents a leave request in API responses.
type LeaveRequestDTO struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	LeaveType       string  `json:"leave_type"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	WorkingDays     string  `json:"working_days"`
	Reason          string  `json:"reason,omitempty"`
	Status          string  `json:"status"`
	ApproverID      *string `json:"approver_id,omitempty"`
	DecidedAt       *string `json:"decided_at,omitempty"`
	RejectionReason string  `json:"rejection_reason,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

func toRequestDTO(r *leave.LeaveRequest) LeaveRequestDTO {
	dto := LeaveRequestDTO{
		ID:              string(r.ID),
		EmployeeID:      string(r.EmployeeID),
		LeaveType:       string(r.Type),
		StartDate:       r.StartDate.String(),
		EndDate:         r.EndDate.String(),
		WorkingDays:     r.WorkingDays.String(),
		Reason:          r.Reason,
		Status:          string(r.Status),
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}
	if r.ApproverID != nil {
		s := string(*r.ApproverID)
		dto.ApproverID = &s
	}
	if r.DecidedAt != nil {
		s := r.DecidedAt.Format(time.RFC3339)
		dto.DecidedAt = &s
	}
	return dto
}

func toRequestDTOs(requests []leave.LeaveRequest) []LeaveRequestDTO {
	dtos := make([]LeaveRequestDTO, len(requests))
	for i := range requests {
		dtos[i] = toRequestDTO(&requests[i])
	}
	return dtos
}

// =============================================================================
// BALANCES AND LEDGER
// =============================================================================

// TypeBalanceDTO is the per-type balance view.
type TypeBalanceDTO struct {
	LeaveType string `json:"leave_type"`
	Available string `json:"available"`
	Used      string `json:"used"`
	Pending   string `json:"pending"`
}

// BalanceSummaryDTO is the response of GET /api/employees/{id}/balance.
type BalanceSummaryDTO struct {
	EmployeeID string           `json:"employee_id"`
	Year       int              `json:"year"`
	Balances   []TypeBalanceDTO `json:"balances"`
}

func toBalanceSummaryDTO(s *leave.BalanceSummary) BalanceSummaryDTO {
	dto := BalanceSummaryDTO{
		EmployeeID: string(s.EmployeeID),
		Year:       s.Year,
		Balances:   make([]TypeBalanceDTO, len(s.Balances)),
	}
	for i, b := range s.Balances {
		dto.Balances[i] = TypeBalanceDTO{
			LeaveType: string(b.Type),
			Available: b.Available.String(),
			Used:      b.Used.String(),
			Pending:   b.Pending.String(),
		}
	}
	return dto
}

// LedgerEntryDTO is one row of an employee's balance history.
type LedgerEntryDTO struct {
	ID        string `json:"id"`
	LeaveType string `json:"leave_type"`
	Year      int    `json:"year"`
	Balance   string `json:"balance"`
	Change    string `json:"change"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toLedgerEntryDTOs(entries []leave.LedgerEntry) []LedgerEntryDTO {
	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = LedgerEntryDTO{
			ID:        string(e.ID),
			LeaveType: string(e.Type),
			Year:      e.Year,
			Balance:   e.Balance.String(),
			Change:    e.Change.String(),
			Reason:    e.Reason,
			RequestID: string(e.RequestID),
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

// =============================================================================
// REPORTING
// =============================================================================

// HistoryPageDTO is one page of leave history plus paging metadata.
type HistoryPageDTO struct {
	Requests []LeaveRequestDTO `json:"requests"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// TypeCountDTO is one slice of the leave type distribution.
type TypeCountDTO struct {
	LeaveType string `json:"leave_type"`
	Count     int    `json:"count"`
}

// DepartmentStatsDTO aggregates leave activity per department.
type DepartmentStatsDTO struct {
	Department       string  `json:"department"`
	TotalEmployees   int     `json:"total_employees"`
	EmployeesOnLeave int     `json:"employees_on_leave"`
	TotalRequests    int     `json:"total_requests"`
	ApprovedRequests int     `json:"approved_requests"`
	ApprovalRate     float64 `json:"approval_rate"`
}

// DashboardDTO is the response of GET /api/dashboard/stats.
type DashboardDTO struct {
	TotalEmployees    int                  `json:"total_employees"`
	PendingCount      int                  `json:"pending_count"`
	ApprovedThisMonth int                  `json:"approved_this_month"`
	TypeDistribution  []TypeCountDTO       `json:"type_distribution"`
	Departments       []DepartmentStatsDTO `json:"departments"`
}

func toDashboardDTO(s *leave.DashboardStats) DashboardDTO {
	dto := DashboardDTO{
		TotalEmployees:    s.TotalEmployees,
		PendingCount:      s.PendingCount,
		ApprovedThisMonth: s.ApprovedThisMonth,
		TypeDistribution:  make([]TypeCountDTO, len(s.TypeDistribution)),
		Departments:       make([]DepartmentStatsDTO, len(s.Departments)),
	}
	for i, tc := range s.TypeDistribution {
		dto.TypeDistribution[i] = TypeCountDTO{LeaveType: string(tc.Type), Count: tc.Count}
	}
	for i, d := range s.Departments {
		dto.Departments[i] = DepartmentStatsDTO{
			Department:       d.Department,
			TotalEmployees:   d.TotalEmployees,
			EmployeesOnLeave: d.EmployeesOnLeave,
			TotalRequests:    d.TotalRequests,
			ApprovedRequests: d.ApprovedRequests,
			ApprovalRate:     d.ApprovalRate,
		}
	}
	return dto
}

// =============================================================================
// ADMIN
// =============================================================================

// GrantAllocationRequest is the inbound payload for POST /api/admin/allocations.
type GrantAllocationRequest struct {
	Year int `json:"year" validate:"required,min=2000,max=2200"`
}

// GrantAllocationResponse reports how many ledger entries the grant created.
type GrantAllocationResponse struct {
	Year    int `json:"year"`
	Granted int `json:"granted"`
}
