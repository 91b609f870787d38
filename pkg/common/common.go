package common

// Entity is a person record extracted from uploaded documents by the backend.
// The console treats it as opaque data: it is only ever merged into a
// collection (dedup by ID, insertion order kept) and never edited locally.
//
// Only the fields the console renders are typed. Everything else the backend
// sends (contact data, work history, publications, ...) is kept in Extra so a
// round trip through the console does not drop it.
type Entity struct {
	ID            string         `json:"id"`
	Name          string         `json:"name" validate:"required"`
	Domain        string         `json:"domain,omitempty"`
	Position      string         `json:"position,omitempty"`
	Gender        string         `json:"gender,omitempty"`
	Country       string         `json:"country,omitempty"`
	Relationships []Relationship `json:"relationships"`
	Extra         map[string]any `json:"-"`
}

// Relationship is a directed, typed, confidence weighted association embedded
// in an Entity. Confidence is optional on the wire.
type Relationship struct {
	TargetID    string   `json:"target_id" validate:"required"`
	TargetName  string   `json:"target_name,omitempty"`
	Type        string   `json:"relationship_type"`
	Description string   `json:"relationship_description"`
	Confidence  *float64 `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// DiscoveredRelationship is a free text relationship produced by a
// conversation. Source names an entity; the description mentions the others.
type DiscoveredRelationship struct {
	Source      string `json:"source"`
	Description string `json:"description"`
}

// Message is one entry of a conversation. Role is a free form speaker label
// ("user", "system" or an agent name). Ordering is assigned by the backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser   = "user"
	RoleSystem = "system"
)

// IsAgent reports whether the message was produced by one of the backend's
// agents rather than the user or the console itself.
func (m Message) IsAgent() bool {
	return m.Role != RoleUser && m.Role != RoleSystem
}

// Status values shared by file processing jobs and conversations.
const (
	StatusNone         = ""
	StatusUploading    = "uploading"
	StatusInitializing = "initializing"
	StatusProcessing   = "processing"
	StatusCompleted    = "completed"
	StatusFailed       = "failed"
	StatusError        = "error"
)

// IsTerminal reports whether a polled status ends the poll loop.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// JobStatus is the body of GET /api/files/status/{job_id}.
type JobStatus struct {
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	Message     string `json:"message"`
	FileName    string `json:"file_name,omitempty"`
	EntityCount int    `json:"entity_count,omitempty"`
}

// Conversation is the body of GET /api/conversations/{id}.
type Conversation struct {
	Status    string    `json:"status"`
	Query     string    `json:"query,omitempty"`
	EntityIDs []string  `json:"entity_ids,omitempty"`
	Messages  []Message `json:"messages"`
	Summary   string    `json:"summary,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// NoticeLevel classifies a user visible notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a user visible message raised by a controller, the equivalent of
// a toast in the browser.
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}
