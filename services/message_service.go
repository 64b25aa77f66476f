package services

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/voltmotors/ev-dealer-api/config"
	"github.com/voltmotors/ev-dealer-api/models"
)

// MessageService is the chat layer between customers and staff. Conversations
// are stored as message rows keyed by the (sender, recipient) pair; history
// for a pair is the union of both directions.
type MessageService struct {
	clock Clock
}

// NewMessageService creates a message service.
func NewMessageService(clock Clock) *MessageService {
	return &MessageService{clock: clock}
}

var messageServiceInstance *MessageService

// InitMessageService initializes the package-level message service.
func InitMessageService(clock Clock) *MessageService {
	messageServiceInstance = NewMessageService(clock)
	return messageServiceInstance
}

// GetMessageService returns the initialized message service instance
func GetMessageService() *MessageService {
	return messageServiceInstance
}

// Send stores one message from the actor to the recipient. Customers may only
// message staff and managers; staff may message anyone.
func (s *MessageService) Send(actorID, recipientID uint, content string) (*models.Message, error) {
	db := config.GetDB()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, InvalidStateError("Message content cannot be empty")
	}
	if actorID == recipientID {
		return nil, InvalidStateError("Cannot send a message to yourself")
	}

	actor, err := getActiveUser(db, actorID)
	if err != nil {
		return nil, err
	}

	var recipient models.User
	if err := db.First(&recipient, recipientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError(fmt.Sprintf("User with ID %d not found", recipientID))
		}
		return nil, err
	}

	if actor.Role == models.RoleCustomer && !recipient.IsStaff() {
		return nil, ForbiddenError("Customers can only message dealership staff")
	}

	message := models.Message{
		SenderID:    actor.ID,
		RecipientID: recipient.ID,
		Content:     content,
	}
	if err := db.Create(&message).Error; err != nil {
		return nil, err
	}

	log.Printf("Message %d sent from user %d to user %d", message.ID, actorID, recipientID)

	if err := db.Preload("Sender").First(&message, message.ID).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// History returns the conversation between the actor and the other user,
// oldest first so clients can render it top-down.
func (s *MessageService) History(actorID, otherID uint, page, pageSize int) ([]models.Message, int64, error) {
	db := config.GetDB()
	page, pageSize = normalizePagination(page, pageSize)

	if _, err := getActiveUser(db, actorID); err != nil {
		return nil, 0, err
	}

	pair := db.Model(&models.Message{}).Where(
		"(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
		actorID, otherID, otherID, actorID,
	)

	var total int64
	if err := pair.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []models.Message
	err := db.Preload("Sender").
		Where(
			"(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			actorID, otherID, otherID, actorID,
		).
		Order("created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

// MarkRead stamps every unread message from the other user to the actor.
// Returns the number of messages marked.
func (s *MessageService) MarkRead(actorID, otherID uint) (int64, error) {
	db := config.GetDB()

	if _, err := getActiveUser(db, actorID); err != nil {
		return 0, err
	}

	now := s.clock.Now()
	res := db.Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND read_at IS NULL", otherID, actorID).
		Update("read_at", now)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// UnreadCount returns how many messages are waiting for the actor.
func (s *MessageService) UnreadCount(actorID uint) (int64, error) {
	db := config.GetDB()

	var count int64
	err := db.Model(&models.Message{}).
		Where("recipient_id = ? AND read_at IS NULL", actorID).
		Count(&count).Error
	return count, err
}

// ConversationPartner is one row in a user's inbox listing: the other party
// plus the last message exchanged and the unread backlog from them.
type ConversationPartner struct {
	User        models.User    `json:"user"`
	LastMessage models.Message `json:"last_message"`
	UnreadCount int64          `json:"unread_count"`
}

// Conversations lists everyone the actor has exchanged messages with, most
// recent conversation first.
func (s *MessageService) Conversations(actorID uint) ([]ConversationPartner, error) {
	db := config.GetDB()

	if _, err := getActiveUser(db, actorID); err != nil {
		return nil, err
	}

	var messages []models.Message
	err := db.Where("sender_id = ? OR recipient_id = ?", actorID, actorID).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]*ConversationPartner)
	var order []uint
	for _, m := range messages {
		otherID := m.SenderID
		if otherID == actorID {
			otherID = m.RecipientID
		}
		entry, ok := seen[otherID]
		if !ok {
			entry = &ConversationPartner{LastMessage: m}
			seen[otherID] = entry
			order = append(order, otherID)
		}
		if m.RecipientID == actorID && m.ReadAt == nil {
			entry.UnreadCount++
		}
	}

	partners := make([]ConversationPartner, 0, len(order))
	for _, otherID := range order {
		entry := seen[otherID]
		if err := db.First(&entry.User, otherID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return nil, err
		}
		partners = append(partners, *entry)
	}
	return partners, nil
}
