package entity

import "time"

// UnknownUserName is the display placeholder for references to users
// that no longer exist. User deletion does not cascade, so dangling
// ids in expenses and approval sequences are expected.
const UnknownUserName = "Unknown"

// Company holds the company created at signup.
type Company struct {
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}

// AppState is the whole application-state document. It is owned by the
// caller that constructs it at process start and persisted as a single
// blob; there are no hidden package-level statics.
type AppState struct {
	CurrentUser      *User            `json:"currentUser"`
	Company          *Company         `json:"company"`
	Users            []User           `json:"users"`
	Expenses         []Expense        `json:"expenses"`
	ApprovalSettings ApprovalSettings `json:"approvalSettings"`
}

// NewAppState returns an empty state with default approval settings.
func NewAppState() *AppState {
	return &AppState{
		Users:            []User{},
		Expenses:         []Expense{},
		ApprovalSettings: DefaultApprovalSettings(),
	}
}

// UserByID looks up a user by id. The second return value reports
// whether the user exists; a dangling reference is not an error.
func (s *AppState) UserByID(id string) (*User, bool) {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return &s.Users[i], true
		}
	}
	return nil, false
}

// UserByEmail looks up a user by login email.
func (s *AppState) UserByEmail(email string) (*User, bool) {
	for i := range s.Users {
		if s.Users[i].Email == email {
			return &s.Users[i], true
		}
	}
	return nil, false
}

// UserName resolves a user id to a display name, falling back to the
// Unknown placeholder for dangling references.
func (s *AppState) UserName(id string) string {
	if u, ok := s.UserByID(id); ok {
		return u.Name
	}
	return UnknownUserName
}

// ExpenseByID looks up an expense by id.
func (s *AppState) ExpenseByID(id string) (*Expense, bool) {
	for i := range s.Expenses {
		if s.Expenses[i].ID == id {
			return &s.Expenses[i], true
		}
	}
	return nil, false
}

// Approvers returns all users that can act on approvals (managers and admins).
func (s *AppState) Approvers() []User {
	var out []User
	for _, u := range s.Users {
		if u.Role.CanApprove() {
			out = append(out, u)
		}
	}
	return out
}

// ApproverCount counts users that can act on approvals. The count is
// computed live so the percentage-rule denominator tracks user
// creation and deletion between submission and evaluation.
func (s *AppState) ApproverCount() int {
	n := 0
	for _, u := range s.Users {
		if u.Role.CanApprove() {
			n++
		}
	}
	return n
}
