package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/voltmotors/ev-dealer-api/config"
	"github.com/voltmotors/ev-dealer-api/models"
)

// deliveryRequestWindow is how long after order confirmation a customer may
// still request delivery.
const deliveryRequestWindow = 24 * time.Hour

// DeliveryFilter narrows staff delivery listings.
type DeliveryFilter struct {
	Status     *string
	FromDate   *time.Time
	ToDate     *time.Time
	SearchTerm string
}

// DeliveryService runs the post-confirmation delivery state machine:
// pending -> scheduled -> in_transit -> delivered, with cancellation allowed
// from pending (customer) or pending/scheduled (staff).
type DeliveryService struct {
	clock Clock
}

// NewDeliveryService creates a delivery service using the given clock.
func NewDeliveryService(clock Clock) *DeliveryService {
	return &DeliveryService{clock: clock}
}

var deliveryServiceInstance *DeliveryService

// InitDeliveryService initializes the package-level delivery service.
func InitDeliveryService(clock Clock) *DeliveryService {
	deliveryServiceInstance = NewDeliveryService(clock)
	return deliveryServiceInstance
}

// GetDeliveryService returns the initialized delivery service instance
func GetDeliveryService() *DeliveryService {
	return deliveryServiceInstance
}

// RequestDelivery creates a pending delivery for the customer's own confirmed,
// paid order. The request must arrive within 24 hours of the order's
// confirmation and only one delivery may exist per order.
func (s *DeliveryService) RequestDelivery(actorID uint, orderID uint, shippingAddress, notes string) (*models.Delivery, error) {
	db := config.GetDB()

	actor, err := getActiveUser(db, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleCustomer {
		return nil, ForbiddenError("Only customers can request deliveries")
	}

	var order models.Order
	err = db.Preload("Invoices.Payments").First(&order, orderID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError(fmt.Sprintf("Order with ID %d not found", orderID))
		}
		return nil, err
	}

	if order.CustomerID != actorID {
		return nil, ForbiddenError("You can only request delivery for your own orders")
	}
	if !order.HasPaidPayment() {
		return nil, InvalidStateError("Cannot request delivery for unpaid order")
	}
	if order.Status != models.OrderStatusConfirmed {
		return nil, InvalidStateError("Can only request delivery for confirmed orders")
	}

	// The order's UpdatedAt was stamped when payment confirmation flipped it
	// to confirmed; the request window counts from there.
	if s.clock.Now().Sub(order.UpdatedAt) > deliveryRequestWindow {
		return nil, InvalidStateError("Delivery request must be made within 24 hours after order confirmation")
	}

	var existing models.Delivery
	err = db.Where("order_id = ?", orderID).First(&existing).Error
	if err == nil {
		return nil, InvalidStateError("Delivery request already exists for this order")
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	delivery := models.Delivery{
		OrderID:         orderID,
		Status:          models.DeliveryStatusPending,
		ShippingAddress: shippingAddress,
		Notes:           notes,
		CreatedBy:       &actor.ID,
	}
	if err := db.Create(&delivery).Error; err != nil {
		return nil, err
	}

	log.Printf("Delivery %d requested for order %d by customer %d", delivery.ID, orderID, actorID)
	return s.GetDeliveryByID(delivery.ID)
}

// ConfirmDelivery moves a pending delivery to scheduled with a planned date.
// Staff only.
func (s *DeliveryService) ConfirmDelivery(actorID uint, deliveryID uint, plannedDate time.Time, staffNotes string) (*models.Delivery, error) {
	db := config.GetDB()

	actor, err := requireStaff(db, actorID, "confirm deliveries")
	if err != nil {
		return nil, err
	}

	delivery, err := s.GetDeliveryByID(deliveryID)
	if err != nil {
		return nil, err
	}

	if delivery.Status != models.DeliveryStatusPending {
		return nil, InvalidStateError(fmt.Sprintf("Cannot confirm delivery with status %s", delivery.Status))
	}

	updates := map[string]interface{}{
		"status":       models.DeliveryStatusScheduled,
		"planned_date": plannedDate,
		"staff_notes":  staffNotes,
		"updated_by":   actor.ID,
	}
	if err := db.Model(&models.Delivery{}).Where("id = ?", deliveryID).Updates(updates).Error; err != nil {
		return nil, err
	}

	log.Printf("Delivery %d confirmed and scheduled for %s", deliveryID, plannedDate.Format(time.RFC3339))
	return s.GetDeliveryByID(deliveryID)
}

// UpdateDeliveryStatus advances the delivery state machine. Staff only.
// Delivered and cancelled are terminal; in_transit requires scheduled;
// delivered requires in_transit and stamps the actual date.
func (s *DeliveryService) UpdateDeliveryStatus(actorID uint, deliveryID uint, newStatus string, plannedDate, actualDate *time.Time) (*models.Delivery, error) {
	db := config.GetDB()

	actor, err := requireStaff(db, actorID, "update delivery status")
	if err != nil {
		return nil, err
	}

	delivery, err := s.GetDeliveryByID(deliveryID)
	if err != nil {
		return nil, err
	}

	switch delivery.Status {
	case models.DeliveryStatusCancelled:
		return nil, InvalidStateError("Cannot update cancelled delivery")
	case models.DeliveryStatusDelivered:
		return nil, InvalidStateError("Cannot update delivered delivery")
	}

	if newStatus == models.DeliveryStatusInTransit && delivery.Status != models.DeliveryStatusScheduled {
		return nil, InvalidStateError("Delivery must be scheduled before setting to in_transit")
	}
	if newStatus == models.DeliveryStatusDelivered && delivery.Status != models.DeliveryStatusInTransit {
		return nil, InvalidStateError("Delivery must be in_transit before setting to delivered")
	}

	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_by": actor.ID,
	}
	if plannedDate != nil {
		updates["planned_date"] = *plannedDate
	}
	if newStatus == models.DeliveryStatusDelivered {
		if actualDate != nil {
			updates["actual_date"] = *actualDate
		} else {
			updates["actual_date"] = s.clock.Now()
		}
	}

	if err := db.Model(&models.Delivery{}).Where("id = ?", deliveryID).Updates(updates).Error; err != nil {
		return nil, err
	}

	log.Printf("Delivery %d status updated to %s by user %d", deliveryID, newStatus, actorID)
	return s.GetDeliveryByID(deliveryID)
}

// CancelDelivery cancels a delivery. Customers may cancel their own pending
// requests only; staff may cancel pending or scheduled deliveries.
func (s *DeliveryService) CancelDelivery(actorID uint, deliveryID uint) (*models.Delivery, error) {
	db := config.GetDB()

	actor, err := getActiveUser(db, actorID)
	if err != nil {
		return nil, err
	}

	delivery, err := s.GetDeliveryByID(deliveryID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.Role == models.RoleCustomer:
		if delivery.Order.CustomerID != actorID {
			return nil, ForbiddenError("You can only cancel your own deliveries")
		}
		if delivery.Status != models.DeliveryStatusPending {
			return nil, InvalidStateError("Customer can only cancel pending delivery requests")
		}
	case actor.IsStaff():
		if delivery.Status != models.DeliveryStatusPending && delivery.Status != models.DeliveryStatusScheduled {
			return nil, InvalidStateError("Cannot cancel delivery in progress or completed")
		}
	default:
		return nil, ForbiddenError("Unauthorized to cancel delivery")
	}

	updates := map[string]interface{}{
		"status":     models.DeliveryStatusCancelled,
		"updated_by": actor.ID,
	}
	if err := db.Model(&models.Delivery{}).Where("id = ?", deliveryID).Updates(updates).Error; err != nil {
		return nil, err
	}

	log.Printf("Delivery %d cancelled by user %d", deliveryID, actorID)
	return s.GetDeliveryByID(deliveryID)
}

// GetDeliveryByID returns one delivery with its order context loaded.
func (s *DeliveryService) GetDeliveryByID(deliveryID uint) (*models.Delivery, error) {
	db := config.GetDB()

	var delivery models.Delivery
	err := deliveryProjection(db).First(&delivery, deliveryID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError(fmt.Sprintf("Delivery with ID %d not found", deliveryID))
		}
		return nil, err
	}
	return &delivery, nil
}

// GetDeliveryByOrderID returns the delivery attached to an order, if any.
func (s *DeliveryService) GetDeliveryByOrderID(orderID uint) (*models.Delivery, error) {
	db := config.GetDB()

	var delivery models.Delivery
	err := deliveryProjection(db).Where("order_id = ?", orderID).First(&delivery).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError(fmt.Sprintf("No delivery found for order %d", orderID))
		}
		return nil, err
	}
	return &delivery, nil
}

// GetAllDeliveries lists deliveries with filtering. Staff only.
func (s *DeliveryService) GetAllDeliveries(actorID uint, page, pageSize int, filter *DeliveryFilter) ([]models.Delivery, int64, error) {
	db := config.GetDB()

	if _, err := requireStaff(db, actorID, "view all deliveries"); err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePagination(page, pageSize)

	base := applyDeliveryFilter(db.Model(&models.Delivery{}), filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var deliveries []models.Delivery
	err := applyDeliveryFilter(deliveryProjection(db), filter).
		Order("deliveries.created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&deliveries).Error
	if err != nil {
		return nil, 0, err
	}
	return deliveries, total, nil
}

func deliveryProjection(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Delivery{}).
		Preload("Order").
		Preload("Order.Customer").
		Preload("Order.Items.Vehicle")
}

func applyDeliveryFilter(query *gorm.DB, filter *DeliveryFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.Status != nil {
		query = query.Where("deliveries.status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("deliveries.planned_date >= ? OR deliveries.actual_date >= ?", *filter.FromDate, *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("deliveries.planned_date <= ? OR deliveries.actual_date <= ?", *filter.ToDate, *filter.ToDate)
	}
	if term := filter.SearchTerm; term != "" {
		pattern := "%" + term + "%"
		query = query.
			Joins("LEFT JOIN orders ON orders.id = deliveries.order_id").
			Joins("LEFT JOIN users ON users.id = orders.customer_id").
			Where("LOWER(orders.order_number) LIKE LOWER(?) OR LOWER(users.full_name) LIKE LOWER(?) OR LOWER(users.email) LIKE LOWER(?)",
				pattern, pattern, pattern)
	}
	return query
}
