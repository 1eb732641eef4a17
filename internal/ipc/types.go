package ipc

import "reelsmith/internal/api"

// Aliases so IPC callers do not import the api package directly.
type (
	// QueueItem is a queue entry as exposed over the socket.
	QueueItem = api.QueueItem
	// StageHealth reports readiness of one pipeline stage.
	StageHealth = api.StageHealth
	// DependencyStatus reports availability of one external tool or service.
	DependencyStatus = api.DependencyStatus
	// ScheduleStatus carries the generation schedule and its upcoming runs.
	ScheduleStatus = api.ScheduleStatus
)

// StartRequest asks the daemon to start its workflow loop.
type StartRequest struct{}

// StartResponse tells the caller whether the workflow loop came up.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest asks the daemon to stop its workflow loop.
type StopRequest struct{}

// StopResponse tells the caller whether the stop took effect.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest asks for the daemon snapshot.
type StatusRequest struct{}

// StatusResponse is the daemon snapshot: workflow state, queue counts,
// stage and dependency health, and the schedule.
type StatusResponse struct {
	Running      bool               `json:"running"`
	QueueStats   map[string]int     `json:"queue_stats"`
	LastError    string             `json:"last_error"`
	LastItem     *QueueItem         `json:"last_item"`
	LockPath     string             `json:"lock_path"`
	QueueDBPath  string             `json:"queue_db_path"`
	StageHealth  []StageHealth      `json:"stage_health"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Schedule     ScheduleStatus     `json:"schedule"`
	PID          int                `json:"pid"`
}

// GenerateNowRequest enqueues an on-demand video run, optionally pinned
// to a topic.
type GenerateNowRequest struct {
	Topic string `json:"topic"`
}

// GenerateNowResponse carries the enqueued item when one was created.
type GenerateNowResponse struct {
	Enqueued bool       `json:"enqueued"`
	Message  string     `json:"message"`
	Item     *QueueItem `json:"item"`
}

// ScheduleStatusRequest asks for the schedule and its next run times.
type ScheduleStatusRequest struct{}

// ScheduleStatusResponse carries the generation schedule.
type ScheduleStatusResponse struct {
	Schedule ScheduleStatus `json:"schedule"`
}

// QueueListRequest lists queue entries, optionally filtered by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse carries the matching queue entries.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueDescribeRequest looks up one queue entry by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse carries the requested queue entry.
type QueueDescribeResponse struct {
	Item QueueItem `json:"item"`
}

// QueueClearRequest drops every queue entry.
type QueueClearRequest struct{}

// QueueClearResponse counts the dropped entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearFailedRequest drops failed entries only.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse counts the dropped entries.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearCompletedRequest drops completed entries only.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse counts the dropped entries.
type QueueClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueResetRequest moves stuck in-flight entries back to pending.
type QueueResetRequest struct{}

// QueueResetResponse counts the entries moved back.
type QueueResetResponse struct {
	Updated int64 `json:"updated"`
}

// QueueRetryRequest requeues failed entries. An empty ID list means all
// failed entries.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRetryResponse counts the requeued entries.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueueRemoveRequest deletes specific entries by ID. An empty list is
// rejected.
type QueueRemoveRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRemoveResponse counts the deleted entries.
type QueueRemoveResponse struct {
	Removed int64 `json:"removed"`
}

// LogTailRequest reads daemon log lines from an offset, optionally waiting
// for new lines when following.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int   `json:"wait_millis"`
}

// LogTailResponse carries log lines plus the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// DatabaseHealthRequest asks for detailed queue database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse describes the queue database on disk.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    string   `json:"schema_version"`
	TableExists      bool     `json:"table_exists"`
	ColumnsPresent   []string `json:"columns_present"`
	MissingColumns   []string `json:"missing_columns"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalItems       int      `json:"total_items"`
	Error            string   `json:"error"`
}

// TestNotificationRequest sends a test message through the notifier.
type TestNotificationRequest struct{}

// TestNotificationResponse reports whether the test message went out.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// QueueHealthRequest asks for aggregate queue counts.
type QueueHealthRequest struct{}

// QueueHealthResponse carries aggregate queue counts by state.
type QueueHealthResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Completed  int `json:"completed"`
}
