package leave

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// emailPattern is intentionally loose: one @, a dot in the domain.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// CreateEmployeeInput carries the admin-supplied fields of a new employee.
type CreateEmployeeInput struct {
	Name        string
	Email       string
	Department  string
	JoiningDate Date
}

// CreateEmployee validates the input, persists the employee, and seeds the
// joining year's ledger with one initial-allocation entry per leave type.
// The employee row and the seed entries commit as one unit.
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	name := strings.TrimSpace(in.Name)
	department := strings.TrimSpace(in.Department)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if len(name) < 2 {
		return nil, fmt.Errorf("%w: name must be at least 2 characters", ErrInvalidEmployee)
	}
	if len(department) < 2 {
		return nil, fmt.Errorf("%w: department must be at least 2 characters", ErrInvalidEmployee)
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrInvalidEmployee)
	}
	if in.JoiningDate.IsZero() {
		return nil, fmt.Errorf("%w: joining date is required", ErrInvalidEmployee)
	}
	if in.JoiningDate.After(s.Clock()) {
		return nil, fmt.Errorf("%w: joining date cannot be in the future", ErrInvalidEmployee)
	}

	existing, err := s.Store.GetEmployeeByEmail(ctx, email)
	if err != nil {
		return nil, &PersistenceError{Op: "create employee: lookup email", Cause: err}
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	emp := &Employee{
		ID:          EmployeeID(uuid.NewString()),
		Name:        name,
		Email:       email,
		Department:  department,
		JoiningDate: in.JoiningDate,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}

	err = s.Store.WithTx(ctx, func(tx Store) error {
		if err := tx.SaveEmployee(ctx, *emp); err != nil {
			return err
		}
		ledger := NewLedger(tx, s.Rules)
		year := emp.JoiningDate.Year()
		for _, lt := range AllLeaveTypes {
			allocation := s.Rules.AllocationFor(lt)
			key := BalanceKey{EmployeeID: emp.ID, Type: lt, Year: year}
			if _, err := ledger.Record(ctx, key, allocation, allocation, "initial allocation", ""); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapEffectErr("create employee", err)
	}
	return emp, nil
}

// GetEmployee returns an active employee by ID.
func (s *Service) GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error) {
	return s.activeEmployee(ctx, id)
}

// ListEmployees returns all active employees ordered by name.
func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	emps, err := s.Store.ListEmployees(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list employees", Cause: err}
	}
	return emps, nil
}

// DeactivateEmployee soft-deletes an employee. Their requests and ledger
// history remain intact for audit.
func (s *Service) DeactivateEmployee(ctx context.Context, id EmployeeID) error {
	if _, err := s.activeEmployee(ctx, id); err != nil {
		return err
	}
	if err := s.Store.DeactivateEmployee(ctx, id); err != nil {
		return &PersistenceError{Op: "deactivate employee", Cause: err}
	}
	return nil
}
