/*
handlers.go - HTTP API handlers for the leave management system

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees               List active employees
    POST   /api/employees               Create employee
    GET    /api/employees/{id}          Get employee details
    DELETE /api/employees/{id}          Deactivate employee
    GET    /api/employees/{id}/balance  Balance summary (per leave type)
    GET    /api/employees/{id}/history  Paginated leave history
    GET    /api/employees/{id}/ledger   Balance ledger entries

  Requests:
    POST   /api/leave-requests              Submit leave request
    GET    /api/leave-requests              List requests (filterable)
    GET    /api/leave-requests/{id}         Get one request
    POST   /api/leave-requests/{id}/approve Approve pending request
    POST   /api/leave-requests/{id}/reject  Reject pending request

  Reporting:
    GET    /api/dashboard/stats         Dashboard aggregates

  Admin:
    POST   /api/admin/allocations       Grant yearly allocations

ERROR HANDLING:
  Domain errors map to HTTP status by kind:
  - 400: Validation errors, invalid input
  - 403: Approver not authorized (self-approval, inactive approver)
  - 404: Employee or request not found
  - 409: Decision on a request already decided
  - 500: Persistence failures

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/symplora/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service  *leave.Service
	Reports  *leave.Reports
	validate *validator.Validate
}

// NewHandler creates a new handler around the domain services.
func NewHandler(service *leave.Service, reports *leave.Reports) *Handler {
	return &Handler{
		Service:  service,
		Reports:  reports,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all active employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.ListEmployees(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i := range employees {
		dtos[i] = toEmployeeDTO(&employees[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates a new employee and seeds its balance ledger.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	joiningDate, err := leave.ParseDate(req.JoiningDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid joining_date format (use YYYY-MM-DD)", err)
		return
	}

	emp, err := h.Service.CreateEmployee(r.Context(), leave.CreateEmployeeInput{
		Name:        req.Name,
		Email:       req.Email,
		Department:  req.Department,
		JoiningDate: joiningDate,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Service.GetEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// DeactivateEmployee soft-deletes an employee.
func (h *Handler) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	if err := h.Service.DeactivateEmployee(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// GetBalance returns the per-type balance summary for an employee.
// The year defaults to the current year; override with ?year=YYYY.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	year := leave.Today().Year()
	if y := r.URL.Query().Get("year"); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = n
	}

	summary, err := h.Reports.BalanceSummary(r.Context(), id, year)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalanceSummaryDTO(summary))
}

// GetHistory returns a page of the employee's leave history.
// Query params: status, from, to, page, limit.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))
	q := r.URL.Query()

	var status *leave.RequestStatus
	if s := q.Get("status"); s != "" {
		rs := leave.RequestStatus(s)
		status = &rs
	}

	var from, to *leave.Date
	if s := q.Get("from"); s != "" {
		d, err := leave.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
			return
		}
		from = &d
	}
	if s := q.Get("to"); s != "" {
		d, err := leave.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
			return
		}
		to = &d
	}

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	history, err := h.Reports.LeaveHistory(r.Context(), id, status, from, to, page, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, HistoryPageDTO{
		Requests: toRequestDTOs(history.Requests),
		Total:    history.Total,
		Page:     history.Page,
		Limit:    history.Limit,
	})
}

// GetLedger returns the employee's full balance history, oldest first.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	id := leave.EmployeeID(chi.URLParam(r, "id"))

	entries, err := h.Reports.LedgerHistory(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toLedgerEntryDTOs(entries))
}

// =============================================================================
// LEAVE REQUEST HANDLERS
// =============================================================================

// SubmitRequest submits a new leave request.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequestDTO
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	startDate, err := leave.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	endDate, err := leave.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
		return
	}

	request, err := h.Service.Submit(r.Context(), leave.SubmitInput{
		EmployeeID: leave.EmployeeID(req.EmployeeID),
		Type:       leave.LeaveType(req.LeaveType),
		StartDate:  startDate,
		EndDate:    endDate,
		Reason:     req.Reason,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRequestDTO(request))
}

// ListRequests returns leave requests, filterable by employee and status.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter leave.RequestFilter
	if s := q.Get("employee_id"); s != "" {
		id := leave.EmployeeID(s)
		filter.EmployeeID = &id
	}
	if s := q.Get("status"); s != "" {
		rs := leave.RequestStatus(s)
		filter.Status = &rs
	}

	requests, err := h.Service.ListRequests(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestDTOs(requests))
}

// GetRequest returns a single leave request.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	request, err := h.Service.GetRequest(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestDTO(request))
}

// ApproveRequest approves a pending request and deducts the balance.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	var req DecisionDTO
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	request, err := h.Service.Approve(r.Context(), id, leave.EmployeeID(req.ApproverID))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestDTO(request))
}

// RejectRequest rejects a pending request. The balance is untouched.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	var req DecisionDTO
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	request, err := h.Service.Reject(r.Context(), id, leave.EmployeeID(req.ApproverID), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestDTO(request))
}

// =============================================================================
// REPORTING HANDLERS
// =============================================================================

// GetDashboardStats returns the dashboard aggregates.
func (h *Handler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Reports.DashboardStats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDashboardDTO(stats))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// GrantAllocations seeds the yearly allocation for every active employee.
// Safe to call more than once; keys that already have entries are skipped.
func (h *Handler) GrantAllocations(w http.ResponseWriter, r *http.Request) {
	var req GrantAllocationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	granted, err := h.Service.GrantYearlyAllocation(r.Context(), req.Year)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GrantAllocationResponse{Year: req.Year, Granted: granted})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Index lists the API surface, handy for poking around with curl.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"employees":      "GET|POST /api/employees, GET|DELETE /api/employees/{id}",
		"balances":       "GET /api/employees/{id}/balance?year=YYYY",
		"history":        "GET /api/employees/{id}/history?status&from&to&page&limit",
		"ledger":         "GET /api/employees/{id}/ledger",
		"leave_requests": "GET|POST /api/leave-requests, GET /api/leave-requests/{id}",
		"decisions":      "POST /api/leave-requests/{id}/approve|reject",
		"dashboard":      "GET /api/dashboard/stats",
		"admin":          "POST /api/admin/allocations",
		"scenarios":      "GET /api/scenarios, POST /api/scenarios/load",
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation. On failure it writes the 400 response and returns false.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// writeDomainError maps domain error kinds to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, leave.ErrUnauthorizedApprover):
		writeError(w, http.StatusForbidden, "Approver not authorized", err)
	case errors.Is(err, leave.ErrInvalidStateTransition):
		writeError(w, http.StatusConflict, "Request already decided", err)
	case leave.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Validation failed", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
