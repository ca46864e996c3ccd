package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/cache"
	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/models"
	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/repository"
)

type userReader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type identityReader interface {
	IdentitiesByUserIDs(ctx context.Context, userIDs []string) (map[string]models.ProfileIdentity, error)
}

type ChatService struct {
	db          *pgxpool.Pool
	messageRepo *repository.MessageRepository
	userRepo    userReader
	profileRepo identityReader
	unreadCache *cache.UnreadCounts
}

type ChatDelivery struct {
	Message     *models.Message
	RecipientID string
}

type SendMessageInput struct {
	RecipientID   string
	Content       string
	RecipientName string
}

func NewChatService(
	db *pgxpool.Pool,
	messageRepo *repository.MessageRepository,
	userRepo userReader,
	profileRepo identityReader,
	unreadCache *cache.UnreadCounts,
) *ChatService {
	return &ChatService{
		db:          db,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		unreadCache: unreadCache,
	}
}

// SendMessage persists one message. The sender id always comes from the
// authenticated actor, never from the payload; the recipient must exist and
// must not be the sender. Display names are denormalized onto the row so
// thread assembly can survive a missing profile later.
func (s *ChatService) SendMessage(
	ctx context.Context,
	actorID string,
	role string,
	input SendMessageInput,
) (*ChatDelivery, error) {
	if role != "user" && role != "coach" {
		return nil, ErrForbidden
	}

	recipientID := strings.TrimSpace(input.RecipientID)
	content := strings.TrimSpace(input.Content)
	if recipientID == "" || content == "" {
		return nil, ErrInvalidInput
	}
	if recipientID == actorID {
		return nil, ErrInvalidInput
	}

	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	identities, err := s.profileRepo.IdentitiesByUserIDs(ctx, []string{actorID, recipientID})
	if err != nil {
		return nil, err
	}

	senderName := displayNameOrID(identities, actorID)
	recipientName := displayNameOrID(identities, recipientID)
	if recipientName == recipientID && strings.TrimSpace(input.RecipientName) != "" {
		recipientName = strings.TrimSpace(input.RecipientName)
	}

	message, err := s.messageRepo.Create(ctx, repository.CreateMessageInput{
		ConversationID: DeriveConversationID(actorID, recipientID),
		SenderID:       actorID,
		RecipientID:    recipientID,
		SenderName:     senderName,
		RecipientName:  recipientName,
		Content:        content,
	})
	if err != nil {
		return nil, err
	}

	if s.unreadCache != nil {
		s.unreadCache.Invalidate(ctx, recipientID)
	}

	return &ChatDelivery{
		Message:     message,
		RecipientID: recipientID,
	}, nil
}

// ListThreads assembles the actor's conversation list from their full
// message set, recomputed from scratch on every call.
func (s *ChatService) ListThreads(
	ctx context.Context,
	actorID string,
	role string,
) ([]models.ConversationSummary, error) {
	if role != "user" && role != "coach" {
		return nil, ErrForbidden
	}

	messages, err := s.messageRepo.ListForParticipant(ctx, actorID)
	if err != nil {
		return nil, err
	}

	partnerIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, message := range messages {
		partnerID := message.SenderID
		if message.SenderID == actorID {
			partnerID = message.RecipientID
		}
		if _, ok := seen[partnerID]; ok {
			continue
		}
		seen[partnerID] = struct{}{}
		partnerIDs = append(partnerIDs, partnerID)
	}

	identities, err := s.profileRepo.IdentitiesByUserIDs(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}

	return AssembleThreads(actorID, messages, identities), nil
}

// ListMessages returns one page of a thread and, in the same transaction,
// flips the read flag on every returned message addressed to the viewer.
// Re-marking an already-read message is a no-op, so concurrent viewers
// converge.
func (s *ChatService) ListMessages(
	ctx context.Context,
	actorID string,
	role string,
	conversationID string,
	page int,
	limit int,
) ([]models.Message, int, error) {
	if role != "user" && role != "coach" {
		return nil, 0, ErrForbidden
	}
	if conversationID == "" || page <= 0 || limit <= 0 {
		return nil, 0, ErrInvalidInput
	}

	participant, err := s.messageRepo.HasParticipant(ctx, conversationID, actorID)
	if err != nil {
		return nil, 0, err
	}
	if !participant {
		return nil, 0, pgx.ErrNoRows
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txMessageRepo := repository.NewMessageRepository(tx)

	messages, total, err := txMessageRepo.ListByConversation(
		ctx,
		conversationID,
		limit,
		(page-1)*limit,
	)
	if err != nil {
		return nil, 0, err
	}

	messageIDs := make([]int64, 0, len(messages))
	for _, message := range messages {
		messageIDs = append(messageIDs, message.ID)
	}

	if err := txMessageRepo.MarkMessagesRead(ctx, messageIDs, actorID); err != nil {
		return nil, 0, err
	}

	for i := range messages {
		if messages[i].RecipientID == actorID {
			messages[i].Read = true
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}

	if s.unreadCache != nil {
		s.unreadCache.Invalidate(ctx, actorID)
	}

	return messages, total, nil
}

// MarkConversationRead flips every unread message addressed to the actor in
// one thread. Used when the client confirms a view without re-fetching.
func (s *ChatService) MarkConversationRead(
	ctx context.Context,
	actorID string,
	role string,
	conversationID string,
) error {
	if role != "user" && role != "coach" {
		return ErrForbidden
	}
	if conversationID == "" {
		return ErrInvalidInput
	}

	participant, err := s.messageRepo.HasParticipant(ctx, conversationID, actorID)
	if err != nil {
		return err
	}
	if !participant {
		return pgx.ErrNoRows
	}

	if err := s.messageRepo.MarkConversationRead(ctx, conversationID, actorID); err != nil {
		return err
	}

	if s.unreadCache != nil {
		s.unreadCache.Invalidate(ctx, actorID)
	}
	return nil
}

// UnreadCount is a point-in-time snapshot of the navigation badge. Every
// authenticated account owns a badge, so unlike the thread endpoints there
// is no role gate. The cache, when wired, only narrows load — misses and
// errors fall through to the store.
func (s *ChatService) UnreadCount(ctx context.Context, actorID string) (int, error) {
	if s.unreadCache != nil {
		if count, ok := s.unreadCache.Get(ctx, actorID); ok {
			return count, nil
		}
	}

	count, err := s.messageRepo.CountUnread(ctx, actorID)
	if err != nil {
		return 0, err
	}

	if s.unreadCache != nil {
		s.unreadCache.Set(ctx, actorID, count)
	}
	return count, nil
}

func displayNameOrID(identities map[string]models.ProfileIdentity, userID string) string {
	if identity, ok := identities[userID]; ok && identity.FullName != nil {
		if name := strings.TrimSpace(*identity.FullName); name != "" {
			return name
		}
	}
	return userID
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
