package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shiwutong/lostfound-backend/internal/database"
	"github.com/shiwutong/lostfound-backend/internal/dto"
	"github.com/shiwutong/lostfound-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxMessageLength = 2000

type MessageService struct {
	db       *gorm.DB
	attempts int
	now      func() time.Time
}

func NewMessageService(db *gorm.DB, attempts int) *MessageService {
	return &MessageService{db: db, attempts: attempts, now: time.Now}
}

// ListConversations returns every conversation the user takes part in,
// most recent activity first. Conversations without messages sort last.
func (s *MessageService) ListConversations(ctx context.Context, userID uint) ([]dto.ConversationSummary, error) {
	var convs []models.Conversation
	var names map[uint]string
	var unread map[uint]int64
	err := database.WithRetry(ctx, s.attempts, func() error {
		db := s.db.WithContext(ctx)
		if err := db.Where("user1_id = ? OR user2_id = ?", userID, userID).Find(&convs).Error; err != nil {
			return err
		}
		if len(convs) == 0 {
			return nil
		}

		ids := make([]uint, 0, len(convs))
		others := make([]uint, 0, len(convs))
		for _, c := range convs {
			ids = append(ids, c.ID)
			others = append(others, c.Other(userID))
		}

		var err error
		if names, err = usernames(db, others); err != nil {
			return err
		}
		unread, err = unreadCounts(db, userID, ids)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]dto.ConversationSummary, 0, len(convs))
	for i := range convs {
		out = append(out, summarize(&convs[i], userID, names, unread))
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastMessageTime, out[j].LastMessageTime
		if a == nil || b == nil {
			return a != nil
		}
		return a.After(*b)
	})
	return out, nil
}

// GetMessages returns the conversation's messages oldest first and marks
// every message the caller received as read.
func (s *MessageService) GetMessages(ctx context.Context, conversationID, userID uint) ([]dto.MessageView, error) {
	var messages []models.Message
	read := map[uint]bool{}
	err := database.WithRetry(ctx, s.attempts, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var conv models.Conversation
			err := tx.Where("id = ?", conversationID).Take(&conv).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrForbidden
			}
			if err != nil {
				return err
			}
			if !conv.HasParticipant(userID) {
				return ErrForbidden
			}

			if err := tx.Where("conversation_id = ?", conversationID).Order("created_at ASC").Order("id ASC").Find(&messages).Error; err != nil {
				return err
			}

			now := s.now()
			var markers []models.MessageReadStatus
			for _, m := range messages {
				if m.SenderID != userID {
					markers = append(markers, models.MessageReadStatus{MessageID: m.ID, UserID: userID, ReadAt: now})
				}
			}
			if len(markers) > 0 {
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&markers).Error; err != nil {
					return fmt.Errorf("failed to mark messages read: %w", err)
				}
			}

			return loadReadFlags(tx, messages, read)
		})
	})
	if err != nil {
		return nil, err
	}

	out := make([]dto.MessageView, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageView(&m, read[m.ID]))
	}
	return out, nil
}

// SendMessage stores a message, opening the conversation between the two
// users on first contact.
func (s *MessageService) SendMessage(ctx context.Context, senderID, receiverID uint, content string) (*dto.MessageView, error) {
	content = strings.TrimSpace(content)
	var missing []string
	if receiverID == 0 {
		missing = append(missing, "receiverId")
	}
	if content == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return nil, missingFields(missing...)
	}
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}
	if len([]rune(content)) > maxMessageLength {
		return nil, invalidField("content", fmt.Sprintf("content must be at most %d characters", maxMessageLength))
	}

	var msg models.Message
	err := database.WithRetry(ctx, s.attempts, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := requireUser(tx, receiverID); err != nil {
				return err
			}
			conv, err := findOrCreateConversation(tx, senderID, receiverID)
			if err != nil {
				return err
			}

			now := s.now()
			msg = models.Message{
				ConversationID: conv.ID,
				SenderID:       senderID,
				ReceiverID:     receiverID,
				Content:        content,
				CreatedAt:      now,
			}
			if err := tx.Create(&msg).Error; err != nil {
				return fmt.Errorf("failed to create message: %w", err)
			}

			return tx.Model(&models.Conversation{}).Where("id = ?", conv.ID).Updates(map[string]interface{}{
				"last_message":    content,
				"last_message_at": now,
				"updated_at":      now,
			}).Error
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("message sent", "conversation_id", msg.ConversationID, "sender_id", senderID)
	view := messageView(&msg, false)
	return &view, nil
}

// CreateConversation returns the conversation between the two users,
// creating it if needed.
func (s *MessageService) CreateConversation(ctx context.Context, initiatorID, receiverID uint) (*dto.ConversationSummary, error) {
	if receiverID == 0 {
		return nil, missingFields("receiverId")
	}
	if initiatorID == receiverID {
		return nil, ErrSelfMessage
	}

	var conv *models.Conversation
	var names map[uint]string
	var unread map[uint]int64
	err := database.WithRetry(ctx, s.attempts, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := requireUser(tx, receiverID); err != nil {
				return err
			}
			var err error
			if conv, err = findOrCreateConversation(tx, initiatorID, receiverID); err != nil {
				return err
			}
			if names, err = usernames(tx, []uint{receiverID}); err != nil {
				return err
			}
			unread, err = unreadCounts(tx, initiatorID, []uint{conv.ID})
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	summary := summarize(conv, initiatorID, names, unread)
	return &summary, nil
}

// findOrCreateConversation relies on the unique (user1_id, user2_id) index:
// the insert is a no-op when the pair already exists, then the row is read back.
func findOrCreateConversation(tx *gorm.DB, a, b uint) (*models.Conversation, error) {
	u1, u2 := models.OrderedPair(a, b)
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Conversation{User1ID: u1, User2ID: u2}).Error; err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	var conv models.Conversation
	if err := conversationByPair(tx, u1, u2).Take(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// conversationByPair is a locking read so it sees a row another transaction
// committed after this one's snapshot was taken (REPEATABLE READ on MySQL).
// SQLite drops the clause.
func conversationByPair(tx *gorm.DB, u1, u2 uint) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: clause.LockingStrengthShare}).
		Where("user1_id = ? AND user2_id = ?", u1, u2)
}

func requireUser(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

func usernames(db *gorm.DB, ids []uint) (map[uint]string, error) {
	var users []models.User
	if err := db.Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}

// unreadCounts counts, per conversation, the messages userID did not send
// and has no read marker for.
func unreadCounts(db *gorm.DB, userID uint, conversationIDs []uint) (map[uint]int64, error) {
	var rows []struct {
		ConversationID uint
		Unread         int64
	}
	err := db.Table("messages AS m").
		Select("m.conversation_id AS conversation_id, COUNT(*) AS unread").
		Joins("LEFT JOIN message_read_status AS r ON r.message_id = m.id AND r.user_id = ?", userID).
		Where("m.conversation_id IN ? AND m.sender_id <> ? AND r.message_id IS NULL", conversationIDs, userID).
		Group("m.conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.ConversationID] = r.Unread
	}
	return counts, nil
}

// loadReadFlags sets read[id] when the message's receiver has a marker for it.
func loadReadFlags(db *gorm.DB, messages []models.Message, read map[uint]bool) error {
	if len(messages) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(messages))
	receiver := make(map[uint]uint, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
		receiver[m.ID] = m.ReceiverID
	}

	var markers []models.MessageReadStatus
	if err := db.Where("message_id IN ?", ids).Find(&markers).Error; err != nil {
		return err
	}
	for _, mk := range markers {
		if receiver[mk.MessageID] == mk.UserID {
			read[mk.MessageID] = true
		}
	}
	return nil
}

func summarize(c *models.Conversation, userID uint, names map[uint]string, unread map[uint]int64) dto.ConversationSummary {
	other := c.Other(userID)
	return dto.ConversationSummary{
		ID:              c.ID,
		OtherUserID:     other,
		OtherUsername:   names[other],
		LastMessage:     c.LastMessage,
		LastMessageTime: c.LastMessageAt,
		UnreadCount:     unread[c.ID],
	}
}

func messageView(m *models.Message, read bool) dto.MessageView {
	return dto.MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		Read:           read,
	}
}
