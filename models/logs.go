package models

import "time"

// SearchLog records the parameters of a plan request. Server-written only.
type SearchLog struct {
	LogID     string         `json:"logId" bson:"_id"`
	OwnerKind string         `json:"ownerKind" bson:"ownerKind"`
	OwnerID   string         `json:"ownerId" bson:"ownerId"`
	Payload   map[string]any `json:"payload" bson:"payload"`
	CreatedAt time.Time      `json:"createdAt" bson:"createdAt"`
}

// LLMResponse is the audit record of one model call.
type LLMResponse struct {
	LLMID          string    `json:"llmId" bson:"_id"`
	TraceID        string    `json:"traceId" bson:"traceId"`
	Component      string    `json:"component" bson:"component"`
	OwnerKind      string    `json:"ownerKind,omitempty" bson:"ownerKind,omitempty"`
	OwnerID        string    `json:"ownerId,omitempty" bson:"ownerId,omitempty"`
	Model          string    `json:"model" bson:"model"`
	PromptLength   int       `json:"promptLength" bson:"promptLength"`
	ResponseLength int       `json:"responseLength" bson:"responseLength"`
	SearchUsed     bool      `json:"searchUsed" bson:"searchUsed"`
	Success        bool      `json:"success" bson:"success"`
	Error          string    `json:"error,omitempty" bson:"error,omitempty"`
	LatencyMs      int64     `json:"latencyMs" bson:"latencyMs"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
}
