package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joaquinvega/mercado-backend/pkg/enums"
)

// OutboxEvent is a domain event recorded in the same transaction as the
// write it describes. A publisher drains the table out of band.
type OutboxEvent struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType     enums.EventType     `gorm:"column:event_type;not null"`
	AggregateType enums.AggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   uuid.UUID       `gorm:"column:aggregate_id;type:uuid;not null;index"`
	Version       int             `gorm:"column:version;not null;default:1"`
	Payload       json.RawMessage `gorm:"column:payload;type:jsonb"`
	PublishedAt   *time.Time      `gorm:"column:published_at"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
