package domain

import "time"

type OperationType string

const (
	OpAddAccount     OperationType = "add_account"
	OpEditAccount    OperationType = "edit_account"
	OpDeleteAccount  OperationType = "delete_account"
	OpRefreshToken   OperationType = "refresh_token"
	OpBatchOperation OperationType = "batch_operation"
)

type OperationStatus string

const (
	OpSuccess OperationStatus = "success"
	OpFailed  OperationStatus = "failed"
)

// OperationLog is one audit entry for a store mutation or refresh cycle.
type OperationLog struct {
	ID           string
	Type         OperationType
	Status       OperationStatus
	Message      string
	AccountID    AccountID
	AccountEmail string
	CreatedAt    time.Time
}
