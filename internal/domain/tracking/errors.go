package tracking

import "errors"

var (
	// ErrSessionAlreadyActive indicates the contract already has an open session.
	ErrSessionAlreadyActive = errors.New("a tracking session is already active for this contract")
	// ErrNoActiveSession indicates the contract has no open session.
	ErrNoActiveSession = errors.New("no active tracking session")
	// ErrSessionChanged indicates the stop named a session that has since
	// been replaced by another open session.
	ErrSessionChanged = errors.New("a different tracking session is running")
	// ErrContractNotActive indicates tracking was requested on a paused or terminated contract.
	ErrContractNotActive = errors.New("contract is not active")
	// ErrInvalidInput indicates invalid tracking input.
	ErrInvalidInput = errors.New("invalid tracking input")
)
