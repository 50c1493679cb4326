package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/heartsync/heartsync-backend/internal/matching"
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotParticipant  = errors.New("user is not a participant of this chat")
	ErrEmptyMessage    = errors.New("message needs content or an image")
)

// Publisher pushes chat events to connected clients.
type Publisher interface {
	Publish(roomID, event string, payload interface{})
}

type Service interface {
	// CreateForMatch satisfies the matching service's chat bootstrapper.
	CreateForMatch(ctx context.Context, matchID string, participants [2]string) (*matching.ChatInfo, error)

	GetChat(ctx context.Context, chatID, viewerID string, skip, limit int) (*ChatDetail, error)
	ListForUser(ctx context.Context, userID string, skip, limit int) ([]*ChatSummary, error)
	SendMessage(ctx context.Context, chatID, senderID string, req *SendMessageRequest) (*Message, error)
	MarkRead(ctx context.Context, chatID, readerID string) (int64, error)
	AddReaction(ctx context.Context, chatID, messageID, userID, emoji string) (*Reaction, error)

	// CanJoin authorizes realtime room subscriptions of the form "chat:{id}".
	CanJoin(ctx context.Context, userID, roomID string) (bool, error)
}

type service struct {
	repo      Repository
	publisher Publisher
}

func NewService(repo Repository, publisher Publisher) Service {
	return &service{repo: repo, publisher: publisher}
}

const defaultMessagePage = 50

func (s *service) CreateForMatch(ctx context.Context, matchID string, participants [2]string) (*matching.ChatInfo, error) {
	chat := &Chat{
		ID:      uuid.NewString(),
		MatchID: matchID,
		User1ID: participants[0],
		User2ID: participants[1],
	}

	created, err := s.repo.CreateForMatch(ctx, chat)
	if err != nil {
		return nil, err
	}

	return &matching.ChatInfo{
		ID:        created.ID,
		MatchID:   created.MatchID,
		CreatedAt: created.CreatedAt,
	}, nil
}

func (s *service) GetChat(ctx context.Context, chatID, viewerID string, skip, limit int) (*ChatDetail, error) {
	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(viewerID) {
		return nil, ErrNotParticipant
	}

	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > defaultMessagePage {
		limit = defaultMessagePage
	}

	messages, err := s.repo.ListMessages(ctx, chatID, skip, limit)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*Message{}
	}

	return &ChatDetail{Chat: chat, Messages: messages}, nil
}

func (s *service) ListForUser(ctx context.Context, userID string, skip, limit int) ([]*ChatSummary, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > defaultMessagePage {
		limit = defaultMessagePage
	}

	return s.repo.ListChatsForUser(ctx, userID, skip, limit)
}

func (s *service) SendMessage(ctx context.Context, chatID, senderID string, req *SendMessageRequest) (*Message, error) {
	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}

	content := strings.TrimSpace(req.Content)
	if content == "" && req.ImageURL == "" {
		return nil, ErrEmptyMessage
	}

	msg := &Message{
		ID:       uuid.NewString(),
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
	}
	if req.ImageURL != "" {
		msg.ImageURL = &req.ImageURL
	}

	if err := s.repo.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.Publish("chat:"+chatID, "message", msg)
		s.publisher.Publish("user:"+chat.OtherParticipant(senderID), "message", msg)
	}

	return msg, nil
}

func (s *service) MarkRead(ctx context.Context, chatID, readerID string) (int64, error) {
	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if !chat.HasParticipant(readerID) {
		return 0, ErrNotParticipant
	}

	count, err := s.repo.MarkRead(ctx, chatID, readerID)
	if err != nil {
		return 0, err
	}

	if count > 0 && s.publisher != nil {
		payload := map[string]interface{}{"chatId": chatID, "readerId": readerID, "count": count}
		s.publisher.Publish("chat:"+chatID, "messages_read", payload)
	}

	return count, nil
}

func (s *service) AddReaction(ctx context.Context, chatID, messageID, userID, emoji string) (*Reaction, error) {
	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}

	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.ChatID != chatID {
		return nil, ErrMessageNotFound
	}

	reaction := &Reaction{MessageID: messageID, UserID: userID, Emoji: emoji}
	if err := s.repo.UpsertReaction(ctx, reaction); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.Publish("chat:"+chatID, "reaction", reaction)
	}

	return reaction, nil
}

func (s *service) CanJoin(ctx context.Context, userID, roomID string) (bool, error) {
	const prefix = "chat:"
	if !strings.HasPrefix(roomID, prefix) {
		return false, nil
	}

	chat, err := s.repo.GetChat(ctx, strings.TrimPrefix(roomID, prefix))
	if errors.Is(err, ErrChatNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return chat.HasParticipant(userID), nil
}
