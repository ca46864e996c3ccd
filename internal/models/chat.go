package models

import "time"

// Message is an append-only record; only the Read flag is ever mutated
// after creation. ConversationID is derived from the participant pair and
// stored redundantly so thread queries never need to recompute it.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	RecipientID    string    `json:"recipient_id"`
	SenderName     string    `json:"sender_name"`
	RecipientName  string    `json:"recipient_name"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationSummary struct {
	ConversationID   string   `json:"conversation_id"`
	PartnerID        string   `json:"partner_id"`
	PartnerName      string   `json:"partner_name"`
	PartnerAvatarURL string   `json:"partner_avatar_url,omitempty"`
	LastMessage      *Message `json:"last_message,omitempty"`
	UnreadCount      int      `json:"unread_count"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}
