package services

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/voltmotors/ev-dealer-api/config"
	"github.com/voltmotors/ev-dealer-api/models"
)

// FeedbackService manages customer feedback and its resolution by managers.
type FeedbackService struct{}

// NewFeedbackService creates a feedback service.
func NewFeedbackService() *FeedbackService {
	return &FeedbackService{}
}

var feedbackServiceInstance *FeedbackService

// InitFeedbackService initializes the package-level feedback service.
func InitFeedbackService() *FeedbackService {
	feedbackServiceInstance = NewFeedbackService()
	return feedbackServiceInstance
}

// GetFeedbackService returns the initialized feedback service instance
func GetFeedbackService() *FeedbackService {
	return feedbackServiceInstance
}

// Create records feedback from a customer, optionally bound to one of their
// own confirmed orders.
func (s *FeedbackService) Create(actorID uint, orderID *uint, content string) (*models.Feedback, error) {
	db := config.GetDB()

	actor, err := getActiveUser(db, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleCustomer {
		return nil, ForbiddenError("Only customers can submit feedback")
	}

	if orderID != nil {
		var order models.Order
		if err := db.First(&order, *orderID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, NotFoundError(fmt.Sprintf("Order with ID %d not found", *orderID))
			}
			return nil, err
		}
		if order.CustomerID != actorID {
			return nil, ForbiddenError("You can only leave feedback on your own orders")
		}
		if order.Status != models.OrderStatusConfirmed {
			return nil, InvalidStateError("Feedback can only reference confirmed orders")
		}
	}

	feedback := models.Feedback{
		CustomerID: actor.ID,
		OrderID:    orderID,
		Content:    content,
		CreatedBy:  &actor.ID,
	}
	if err := db.Create(&feedback).Error; err != nil {
		return nil, err
	}

	log.Printf("Feedback %d created by customer %d", feedback.ID, actorID)
	return s.GetByID(feedback.ID)
}

// Resolve marks feedback as handled by setting ResolvedBy. Manager only.
func (s *FeedbackService) Resolve(actorID uint, feedbackID uint) (*models.Feedback, error) {
	db := config.GetDB()

	actor, err := getActiveUser(db, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleManager {
		return nil, ForbiddenError("Only managers can resolve feedback")
	}

	feedback, err := s.GetByID(feedbackID)
	if err != nil {
		return nil, err
	}
	if feedback.ResolvedBy != nil {
		return nil, InvalidStateError("Feedback is already resolved")
	}

	updates := map[string]interface{}{
		"resolved_by": actor.ID,
		"updated_by":  actor.ID,
	}
	if err := db.Model(&models.Feedback{}).Where("id = ?", feedbackID).Updates(updates).Error; err != nil {
		return nil, err
	}
	log.Printf("Feedback %d resolved by manager %d", feedbackID, actorID)
	return s.GetByID(feedbackID)
}

// Delete soft-deletes feedback: the submitting customer or any staff.
func (s *FeedbackService) Delete(actorID uint, feedbackID uint) error {
	db := config.GetDB()

	actor, err := getActiveUser(db, actorID)
	if err != nil {
		return err
	}

	feedback, err := s.GetByID(feedbackID)
	if err != nil {
		return err
	}
	if !canActOnResource(actor, feedback.CustomerID) {
		return ForbiddenError("You can only delete your own feedback")
	}

	return db.Delete(&models.Feedback{}, feedbackID).Error
}

// GetByID returns one feedback entry with its relations loaded.
func (s *FeedbackService) GetByID(feedbackID uint) (*models.Feedback, error) {
	db := config.GetDB()

	var feedback models.Feedback
	err := db.Preload("Customer").Preload("Order").Preload("Resolver").
		First(&feedback, feedbackID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError(fmt.Sprintf("Feedback with ID %d not found", feedbackID))
		}
		return nil, err
	}
	return &feedback, nil
}

// GetMine lists the customer's own feedback, newest first.
func (s *FeedbackService) GetMine(customerID uint, page, pageSize int) ([]models.Feedback, int64, error) {
	return s.list(page, pageSize, func(q *gorm.DB) *gorm.DB {
		return q.Where("customer_id = ?", customerID)
	})
}

// GetAll lists all feedback, optionally filtered to unresolved. Staff only.
func (s *FeedbackService) GetAll(actorID uint, page, pageSize int, unresolvedOnly bool) ([]models.Feedback, int64, error) {
	db := config.GetDB()

	if _, err := requireStaff(db, actorID, "view all feedback"); err != nil {
		return nil, 0, err
	}
	return s.list(page, pageSize, func(q *gorm.DB) *gorm.DB {
		if unresolvedOnly {
			return q.Where("resolved_by IS NULL")
		}
		return q
	})
}

func (s *FeedbackService) list(page, pageSize int, scope func(*gorm.DB) *gorm.DB) ([]models.Feedback, int64, error) {
	db := config.GetDB()
	page, pageSize = normalizePagination(page, pageSize)

	var total int64
	if err := scope(db.Model(&models.Feedback{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var feedbacks []models.Feedback
	err := scope(db.Preload("Customer").Preload("Order").Preload("Resolver").Model(&models.Feedback{})).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&feedbacks).Error
	if err != nil {
		return nil, 0, err
	}
	return feedbacks, total, nil
}
