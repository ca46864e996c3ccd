package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/models"
	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/services"
	chatws "github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/websocket"
)

type stubChatService struct {
	sendResult         *services.ChatDelivery
	sendErr            error
	threadsResult      []models.ConversationSummary
	threadsErr         error
	messagesResult     []models.Message
	messagesTotal      int
	messagesErr        error
	markReadErr        error
	unreadResult       int
	unreadErr          error
	lastActorID        string
	lastRole           string
	lastInput          services.SendMessageInput
	lastConversationID string
	lastPage           int
	lastLimit          int
}

func (s *stubChatService) SendMessage(_ context.Context, actorID string, role string, input services.SendMessageInput) (*services.ChatDelivery, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastInput = input
	return s.sendResult, s.sendErr
}

func (s *stubChatService) ListThreads(_ context.Context, actorID string, role string) ([]models.ConversationSummary, error) {
	s.lastActorID = actorID
	s.lastRole = role
	return s.threadsResult, s.threadsErr
}

func (s *stubChatService) ListMessages(_ context.Context, actorID string, role string, conversationID string, page int, limit int) ([]models.Message, int, error) {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastConversationID = conversationID
	s.lastPage = page
	s.lastLimit = limit
	return s.messagesResult, s.messagesTotal, s.messagesErr
}

func (s *stubChatService) MarkConversationRead(_ context.Context, actorID string, role string, conversationID string) error {
	s.lastActorID = actorID
	s.lastRole = role
	s.lastConversationID = conversationID
	return s.markReadErr
}

func (s *stubChatService) UnreadCount(_ context.Context, actorID string) (int, error) {
	s.lastActorID = actorID
	return s.unreadResult, s.unreadErr
}

func newChatTestApp(service chatApplicationService, userID, role string) (*fiber.App, *ChatHandler) {
	handler := NewChatHandler(service, chatws.NewHub(), "secret")

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		c.Locals("role", role)
		return c.Next()
	})
	return app, handler
}

func TestSendMessageReturnsCreatedID(t *testing.T) {
	service := &stubChatService{
		sendResult: &services.ChatDelivery{
			Message: &models.Message{
				ID:             41,
				ConversationID: "u1_u2",
				SenderID:       "u1",
				RecipientID:    "u2",
				Content:        "hello",
				CreatedAt:      time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
			},
			RecipientID: "u2",
		},
	}
	app, handler := newChatTestApp(service, "u1", "user")
	app.Post("/api/send-message", handler.SendMessage)

	req := httptest.NewRequest(http.MethodPost, "/api/send-message",
		strings.NewReader(`{"recipientId":"u2","content":"hello","recipientName":"Coach Two"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorID != "u1" || service.lastRole != "user" {
		t.Fatalf("unexpected actor context: %q %q", service.lastActorID, service.lastRole)
	}
	if service.lastInput.RecipientID != "u2" || service.lastInput.RecipientName != "Coach Two" {
		t.Fatalf("unexpected forwarded input: %+v", service.lastInput)
	}

	var body struct {
		MessageID int64 `json:"messageId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.MessageID != 41 {
		t.Fatalf("expected message id 41, got %d", body.MessageID)
	}
}

func TestSendMessageValidatesBody(t *testing.T) {
	service := &stubChatService{}
	app, handler := newChatTestApp(service, "u1", "user")
	app.Post("/api/send-message", handler.SendMessage)

	cases := []string{
		`{"content":"hello"}`,
		`{"recipientId":"u2"}`,
		`{"recipientId":"  ","content":"hello"}`,
	}
	for _, payload := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/send-message", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("payload %s: expected 400, got %d", payload, resp.StatusCode)
		}
	}
}

func TestSendMessageMapsRecipientNotFound(t *testing.T) {
	service := &stubChatService{sendErr: services.ErrRecipientNotFound}
	app, handler := newChatTestApp(service, "u1", "user")
	app.Post("/api/send-message", handler.SendMessage)

	req := httptest.NewRequest(http.MethodPost, "/api/send-message",
		strings.NewReader(`{"recipientId":"ghost","content":"hello"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListConversationsReturnsSummaries(t *testing.T) {
	service := &stubChatService{
		threadsResult: []models.ConversationSummary{
			{
				ConversationID: "u1_u2",
				PartnerID:      "u2",
				PartnerName:    "Coach Two",
				UnreadCount:    3,
				LastMessage: &models.Message{
					ID:             7,
					ConversationID: "u1_u2",
					SenderID:       "u2",
					RecipientID:    "u1",
					Content:        "see you tomorrow",
					CreatedAt:      time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
				},
			},
		},
	}
	app, handler := newChatTestApp(service, "u1", "user")
	app.Get("/api/v1/conversations", handler.ListConversations)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Conversations) != 1 || body.Conversations[0].UnreadCount != 3 {
		t.Fatalf("unexpected response: %+v", body.Conversations)
	}
	if body.Conversations[0].PartnerName != "Coach Two" {
		t.Fatalf("unexpected partner name: %q", body.Conversations[0].PartnerName)
	}
}

func TestGetMessagesForwardsPagination(t *testing.T) {
	service := &stubChatService{
		messagesResult: []models.Message{
			{ID: 5, ConversationID: "u1_u2", SenderID: "u2", RecipientID: "u1", Content: "hi", CreatedAt: time.Now().UTC()},
		},
		messagesTotal: 12,
	}
	app, handler := newChatTestApp(service, "u1", "user")
	app.Get("/api/v1/conversations/:id/messages", handler.GetMessages)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/u1_u2/messages?page=2&limit=5", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastConversationID != "u1_u2" || service.lastPage != 2 || service.lastLimit != 5 {
		t.Fatalf("unexpected forwarded pagination: conversation=%q page=%d limit=%d",
			service.lastConversationID, service.lastPage, service.lastLimit)
	}

	var body struct {
		Messages   []models.Message      `json:"messages"`
		Pagination models.PaginationMeta `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Messages) != 1 || body.Pagination.Total != 12 || body.Pagination.TotalPages != 3 {
		t.Fatalf("unexpected response body: %+v %+v", body.Messages, body.Pagination)
	}
}

func TestGetMessagesCapsLimit(t *testing.T) {
	service := &stubChatService{}
	app, handler := newChatTestApp(service, "u1", "user")
	app.Get("/api/v1/conversations/:id/messages", handler.GetMessages)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/u1_u2/messages?limit=500", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()

	if service.lastLimit != maxPageLimit {
		t.Fatalf("expected limit capped at %d, got %d", maxPageLimit, service.lastLimit)
	}
}

func TestGetMessagesReturnsNotFoundForNonParticipant(t *testing.T) {
	service := &stubChatService{messagesErr: pgx.ErrNoRows}
	app, handler := newChatTestApp(service, "u9", "user")
	app.Get("/api/v1/conversations/:id/messages", handler.GetMessages)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/u1_u2/messages", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestMarkConversationRead(t *testing.T) {
	service := &stubChatService{}
	app, handler := newChatTestApp(service, "u1", "user")
	app.Post("/api/v1/conversations/:id/read", handler.MarkConversationRead)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/u1_u2/read", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastConversationID != "u1_u2" {
		t.Fatalf("unexpected conversation forwarded: %q", service.lastConversationID)
	}
}

func TestUnreadCount(t *testing.T) {
	service := &stubChatService{unreadResult: 4}
	app, handler := newChatTestApp(service, "u1", "user")
	app.Get("/api/v1/messages/unread-count", handler.UnreadCount)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/messages/unread-count", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Count != 4 {
		t.Fatalf("expected count 4, got %d", body.Count)
	}
}

func TestChatEndpointsRejectMissingActor(t *testing.T) {
	service := &stubChatService{}
	handler := NewChatHandler(service, chatws.NewHub(), "secret")

	app := fiber.New()
	app.Get("/api/v1/conversations", handler.ListConversations)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
