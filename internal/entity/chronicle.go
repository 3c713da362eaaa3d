// Structure of a Chronicle entry, one line of the operational audit log.

package entity

import "time"

// Chronicle entry types.
const (
	ChronicleSystem    = "system"
	ChronicleModerator = "moderator"
	ChronicleGuest     = "guest"
	ChronicleWarning   = "warning"
	ChronicleDanger    = "danger"
)

// ChronicleDraft is what a writer hands to the log; the log stamps ID and Timestamp.
type ChronicleDraft struct {
	Type     string                 `json:"type" valid:"required,in(system|moderator|guest|warning|danger)"`
	Category string                 `json:"category" valid:"required,type(string),stringlength(1|64)"`
	Action   string                 `json:"action" valid:"required,type(string),stringlength(1|64)"`
	Title    string                 `json:"title" valid:"required,type(string),stringlength(1|200)"`
	Actor    string                 `json:"actor,omitempty" valid:"-"`
	Target   string                 `json:"target,omitempty" valid:"-"`
	Message  string                 `json:"message,omitempty" valid:"-"`
	Details  map[string]interface{} `json:"details,omitempty" valid:"-"`
}

// ChronicleEntry is immutable once appended.
type ChronicleEntry struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"`
	Category  string                 `json:"category"`
	Action    string                 `json:"action"`
	Title     string                 `json:"title"`
	Actor     string                 `json:"actor,omitempty"`
	Target    string                 `json:"target,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

