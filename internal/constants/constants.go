package constants

// Session and context keys
const (
	ContextKeyUserID  = "user_id"
	ContextKeyTask    = "task"
	SessionCookieName = "task_session"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Task limits
const (
	MaxAssigneesPerTask = 5
	MinAssigneesPerTask = 1
	MaxTitleLength      = 200
	MaxNotesLength      = 1000
	MinPriority         = 1
	MaxPriority         = 10
	DefaultPriority     = 5
	MaxAIGeneratedTasks = 20
)

// Display placeholders used when peripheral lookups come back empty.
const (
	UnknownUserName = "Unknown User"
	SomeoneName     = "Someone"
)

// Notification types
const (
	NotificationTypeTaskAssigned = "task_assigned"
	NotificationTypeTaskComment  = "task_comment"
)
