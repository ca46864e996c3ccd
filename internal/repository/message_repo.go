package repository

import (
	"context"

	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

type CreateMessageInput struct {
	ConversationID string
	SenderID       string
	RecipientID    string
	SenderName     string
	RecipientName  string
	Content        string
}

const messageColumns = `id, conversation_id, sender_id, recipient_id, sender_name, recipient_name,
	   content, read, created_at`

func (r *MessageRepository) Create(ctx context.Context, input CreateMessageInput) (*models.Message, error) {
	query := `
		INSERT INTO messages (conversation_id, sender_id, recipient_id, sender_name, recipient_name, content, read)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING ` + messageColumns + `
	`

	var message models.Message
	err := r.db.QueryRow(ctx, query,
		input.ConversationID,
		input.SenderID,
		input.RecipientID,
		input.SenderName,
		input.RecipientName,
		input.Content,
	).Scan(
		&message.ID,
		&message.ConversationID,
		&message.SenderID,
		&message.RecipientID,
		&message.SenderName,
		&message.RecipientName,
		&message.Content,
		&message.Read,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

// ListForParticipant returns every message the user sent or received, in
// chronological order. The thread assembler regroups them in memory.
func (r *MessageRepository) ListForParticipant(ctx context.Context, userID string) ([]models.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderID,
			&message.RecipientID,
			&message.SenderName,
			&message.RecipientName,
			&message.Content,
			&message.Read,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}

		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *MessageRepository) ListByConversation(
	ctx context.Context,
	conversationID string,
	limit int,
	offset int,
) ([]models.Message, int, error) {
	totalQuery := `
		SELECT COUNT(*)
		FROM messages
		WHERE conversation_id = $1
	`

	var total int
	if err := r.db.QueryRow(ctx, totalQuery, conversationID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderID,
			&message.RecipientID,
			&message.SenderName,
			&message.RecipientName,
			&message.Content,
			&message.Read,
			&message.CreatedAt,
		); err != nil {
			return nil, 0, err
		}

		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

// HasParticipant reports whether any message in the conversation involves
// the user. Conversations only exist through their messages, so this is
// also the membership check.
func (r *MessageRepository) HasParticipant(ctx context.Context, conversationID string, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM messages
			WHERE conversation_id = $1
			  AND (sender_id = $2 OR recipient_id = $2)
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM messages
		WHERE recipient_id = $1
		  AND read = FALSE
	`

	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageRepository) MarkMessagesRead(
	ctx context.Context,
	messageIDs []int64,
	readerID string,
) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET read = TRUE
		WHERE id = ANY($1)
		  AND recipient_id = $2
		  AND read = FALSE
	`, messageIDs, readerID)
	return err
}

func (r *MessageRepository) MarkConversationRead(
	ctx context.Context,
	conversationID string,
	readerID string,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET read = TRUE
		WHERE conversation_id = $1
		  AND recipient_id = $2
		  AND read = FALSE
	`, conversationID, readerID)
	return err
}
