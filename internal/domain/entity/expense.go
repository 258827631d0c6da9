package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an expense claim.
type Status string

const (
	StatusPending  Status = "pending"
	StatusInReview Status = "in-review"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var validStatuses = map[Status]bool{
	StatusPending:  true,
	StatusInReview: true,
	StatusApproved: true,
	StatusRejected: true,
}

var terminalStatuses = map[Status]bool{
	StatusApproved: true,
	StatusRejected: true,
}

// IsValid returns true if the status is a known lifecycle state.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// IsTerminal returns true if the status is terminal (no further transitions allowed).
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Action is the decision an approver records against an expense.
type Action string

const (
	ActionApproved Action = "approved"
	ActionRejected Action = "rejected"
)

// IsValid returns true if the action is a known decision.
func (a Action) IsValid() bool {
	return a == ActionApproved || a == ActionRejected
}

// Expense categories. The set is closed; submission outside it is rejected.
const (
	CategoryTravel         = "Travel"
	CategoryMeals          = "Meals"
	CategoryAccommodation  = "Accommodation"
	CategoryOfficeSupplies = "Office Supplies"
	CategoryEntertainment  = "Entertainment"
	CategoryOther          = "Other"
)

var validCategories = map[string]bool{
	CategoryTravel:         true,
	CategoryMeals:          true,
	CategoryAccommodation:  true,
	CategoryOfficeSupplies: true,
	CategoryEntertainment:  true,
	CategoryOther:          true,
}

// IsValidCategory returns true if the category is in the closed set.
func IsValidCategory(category string) bool {
	return validCategories[category]
}

// ApprovalEntry is one recorded decision in an expense's approval trail.
// Entries are append-only; later logic inspects but never edits them.
type ApprovalEntry struct {
	ApproverID string    `json:"approverId"`
	Action     Action    `json:"action"`
	Comment    string    `json:"comment,omitempty"`
	Timestamp  time.Time `json:"date"`
}

// Expense represents a submitted expense claim.
// ApprovalStep indexes into the configured approval sequence and is only
// set while sequence routing is in effect. CurrentApproverID is present
// iff the expense awaits a specific approver.
type Expense struct {
	ID                string          `json:"id"`
	EmployeeID        string          `json:"employeeId"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Category          string          `json:"category"`
	Date              string          `json:"date"`
	Description       string          `json:"description"`
	Receipt           string          `json:"receipt,omitempty"`
	Status            Status          `json:"status"`
	CurrentApproverID string          `json:"currentApproverId,omitempty"`
	ApprovalStep      *int            `json:"approvalStep,omitempty"`
	ApprovalHistory   []ApprovalEntry `json:"approvalHistory"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// ApprovedCount counts approved entries in the trail. Repeat approvals
// from the same approver count every time.
func (e *Expense) ApprovedCount() int {
	n := 0
	for _, entry := range e.ApprovalHistory {
		if entry.Action == ActionApproved {
			n++
		}
	}
	return n
}

// HasApprovalBy returns true if the trail contains an approved entry by the given user.
func (e *Expense) HasApprovalBy(approverID string) bool {
	if approverID == "" {
		return false
	}
	for _, entry := range e.ApprovalHistory {
		if entry.ApproverID == approverID && entry.Action == ActionApproved {
			return true
		}
	}
	return false
}
