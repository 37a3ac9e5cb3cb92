package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error codes of the reward core. User-visible rejections carry a reason code
// and never surface as unhandled faults.
const (
	CodeInvalidAmount       = "E100"
	CodeInsufficientFunds   = "E101"
	CodeWalletNotFound      = "E110"
	CodeWalletLimitReached  = "E111"
	CodeUnlockRequirements  = "E112"
	CodeRewardPoolExhausted = "E120"
	CodeNoLootBoxes         = "E121"
	CodeCooldownActive      = "E130"
	CodeStorageUnavailable  = "E200"
	CodePermissionDenied    = "E300"
)

type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is makes errors.Is match two AppErrors by code, so callers can compare
// against the sentinel constructors without tracking instances.
func (e *AppError) Is(target error) bool {
	other, ok := target.(*AppError)
	return ok && e != nil && other != nil && e.Code == other.Code
}

func NewInvalidAmount(msg string) *AppError {
	return &AppError{
		Code:        CodeInvalidAmount,
		Message:     msg,
		UserMessage: "That amount is not valid. Please enter a positive number.",
		Severity:    SeverityLow,
	}
}

func NewInsufficientFunds(balance, required int64) *AppError {
	return &AppError{
		Code:        CodeInsufficientFunds,
		Message:     fmt.Sprintf("insufficient funds: balance=%d required=%d", balance, required),
		UserMessage: fmt.Sprintf("You don't have enough points. You need %d but only have %d.", required, balance),
		Severity:    SeverityLow,
	}
}

func NewWalletNotFound(walletID int) *AppError {
	return &AppError{
		Code:        CodeWalletNotFound,
		Message:     fmt.Sprintf("wallet %d does not exist", walletID),
		UserMessage: "Wallet not found.",
		Severity:    SeverityLow,
	}
}

func NewWalletLimitReached() *AppError {
	return &AppError{
		Code:        CodeWalletLimitReached,
		Message:     "wallet limit reached",
		UserMessage: "You have reached the maximum limit of 10 wallets.",
		Severity:    SeverityLow,
	}
}

// NewRewardPoolExhausted reports an empty filtered reward table. This is a
// configuration error: a valid table always holds at least one uncapped
// fungible-token entry.
func NewRewardPoolExhausted() *AppError {
	return &AppError{
		Code:        CodeRewardPoolExhausted,
		Message:     "filtered reward pool is empty; reward table is misconfigured",
		UserMessage: "Rewards are temporarily unavailable. Please contact an admin.",
		Severity:    SeverityCritical,
	}
}

func NewStorageUnavailable(cause error) *AppError {
	var detail string
	if cause != nil {
		detail = cause.Error()
	}
	return &AppError{
		Code:        CodeStorageUnavailable,
		Message:     fmt.Sprintf("storage unavailable: %s", detail),
		UserMessage: "A temporary problem occurred. Please try again later.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

func NewPermissionDenied() *AppError {
	return &AppError{
		Code:        CodePermissionDenied,
		Message:     "permission denied",
		UserMessage: "You don't have permission to use this command.",
		Severity:    SeverityLow,
	}
}

func NewNoLootBoxes() *AppError {
	return &AppError{
		Code:        CodeNoLootBoxes,
		Message:     "no loot boxes to open",
		UserMessage: "You don't have any loot boxes to open!",
		Severity:    SeverityLow,
	}
}

func NewUnlockRequirementsNotMet() *AppError {
	return &AppError{
		Code:        CodeUnlockRequirements,
		Message:     "unlock requirements not met",
		UserMessage: "You don't meet the requirements to unlock the next wallet yet.",
		Severity:    SeverityLow,
	}
}

func NewCooldownActive(msg, userMsg string) *AppError {
	return &AppError{
		Code:        CodeCooldownActive,
		Message:     msg,
		UserMessage: userMsg,
		Severity:    SeverityLow,
	}
}
