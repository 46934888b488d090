package models

// AuditLog is an append-only record of a mutation made through the API.
// ResourceID is empty for actions without a single target, such as a
// posting run.
type AuditLog struct {
	Base
	UserID       string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Action       string         `gorm:"not null" json:"action"`
	ResourceType string         `gorm:"not null" json:"resource_type"`
	ResourceID   string         `json:"resource_id,omitempty"`
	IPAddress    string         `json:"ip_address,omitempty"`
	Changes      map[string]any `gorm:"serializer:json" json:"changes,omitempty"`
}
