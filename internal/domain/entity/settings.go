package entity

import "fmt"

// ConditionalRule selects the auto-approval rule evaluated on the
// single-approval path.
type ConditionalRule string

const (
	RuleNone       ConditionalRule = "none"
	RulePercentage ConditionalRule = "percentage"
	RuleSpecific   ConditionalRule = "specific"
	RuleHybrid     ConditionalRule = "hybrid"
)

var validRules = map[ConditionalRule]bool{
	RuleNone:       true,
	RulePercentage: true,
	RuleSpecific:   true,
	RuleHybrid:     true,
}

// IsValid returns true if the rule is one of the known rules.
func (r ConditionalRule) IsValid() bool {
	return validRules[r]
}

// ApprovalSettings is the company-wide approval policy configuration.
// ManagerApproval takes precedence over ApprovalSequence at submission
// time: when both are configured, manager routing wins.
type ApprovalSettings struct {
	ManagerApproval  bool            `json:"managerApproval"`
	ApprovalSequence []string        `json:"approvalSequence"`
	ConditionalRule  ConditionalRule `json:"conditionalRule"`
	PercentageValue  int             `json:"percentageValue"`
	SpecificApprover string          `json:"specificApprover,omitempty"`
	HybridPercentage int             `json:"hybridPercentage"`
	HybridApprover   string          `json:"hybridApprover,omitempty"`
}

// DefaultApprovalSettings returns the settings a fresh company starts with.
func DefaultApprovalSettings() ApprovalSettings {
	return ApprovalSettings{
		ManagerApproval:  true,
		ApprovalSequence: []string{},
		ConditionalRule:  RuleNone,
		PercentageValue:  60,
		HybridPercentage: 60,
	}
}

// Validate checks the settings for internal consistency.
func (s *ApprovalSettings) Validate() error {
	if !s.ConditionalRule.IsValid() {
		return fmt.Errorf("unknown conditional rule: %s", s.ConditionalRule)
	}
	if s.ConditionalRule == RulePercentage {
		if s.PercentageValue < 1 || s.PercentageValue > 100 {
			return fmt.Errorf("percentage value must be between 1 and 100, got %d", s.PercentageValue)
		}
	}
	if s.ConditionalRule == RuleSpecific && s.SpecificApprover == "" {
		return fmt.Errorf("specific rule requires an approver")
	}
	if s.ConditionalRule == RuleHybrid {
		if s.HybridPercentage < 1 || s.HybridPercentage > 100 {
			return fmt.Errorf("hybrid percentage must be between 1 and 100, got %d", s.HybridPercentage)
		}
	}
	return nil
}

// InSequence returns true if the given user id appears in the approval sequence.
func (s *ApprovalSettings) InSequence(userID string) bool {
	for _, id := range s.ApprovalSequence {
		if id == userID {
			return true
		}
	}
	return false
}
