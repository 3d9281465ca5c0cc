package contract

import "strings"

// ValidateCreateInput validates fields required to create a contract.
func ValidateCreateInput(req CreateRequest) error {
	if strings.TrimSpace(req.ClientID) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(req.FreelancerID) == "" {
		return ErrInvalidInput
	}
	if req.HourlyRate < 0 {
		return ErrInvalidInput
	}
	switch req.PaymentCycle {
	case "", CycleWeekly, CycleBiweekly, CycleMonthly:
	default:
		return ErrInvalidInput
	}
	switch req.Type {
	case "", TypeHourly:
	default:
		return ErrInvalidInput
	}
	return nil
}

// ValidateTransition validates a requested status change. Terminated is
// absorbing and same-state requests are not transitions.
func ValidateTransition(from, to Status) error {
	valid := false
	switch from {
	case StatusActive:
		valid = to == StatusPaused || to == StatusTerminated
	case StatusPaused:
		valid = to == StatusActive || to == StatusTerminated
	case StatusTerminated:
	}

	if !valid {
		return ErrIllegalStatusTransition
	}
	return nil
}
