package contracts

import "time"

// LogType distinguishes stored log records.
type LogType string

const (
	LogAction  LogType = "action"
	LogWarning LogType = "warning"
	LogError   LogType = "error"
)

// Service names as recorded in log entries.
const (
	ServiceGateway  = "api-gateway"
	ServiceAuth     = "auth"
	ServiceNews     = "news"
	ServiceComments = "comments"
	ServiceFiles    = "files"
	ServiceLogger   = "logger"
)

// LogRecord is the payload of the create-log event and the stored shape
// returned by get-all-logs.
type LogRecord struct {
	ID             int64     `json:"id,omitempty"`
	Type           LogType   `json:"type"`
	Microservice   string    `json:"microservice"`
	Message        string    `json:"message"`
	AdditionalInfo string    `json:"additionalInfo,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

// NewLogRecord builds a create-log payload.
func NewLogRecord(service string, logType LogType, message, additionalInfo string) LogRecord {
	return LogRecord{
		Type:           logType,
		Microservice:   service,
		Message:        message,
		AdditionalInfo: additionalInfo,
	}
}

// GetAllLogsRequest lists stored logs, optionally filtered by type.
type GetAllLogsRequest struct {
	Pagination
	Type LogType `json:"type,omitempty"`
}

// ClearLogsRequest clears stored logs, optionally filtered by type.
type ClearLogsRequest struct {
	Type LogType `json:"type,omitempty"`
}
