package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/voltmotors/ev-dealer-api/config"
	"github.com/voltmotors/ev-dealer-api/models"
)

// OrderFilter narrows staff order listings.
type OrderFilter struct {
	CustomerID *uint
	StaffID    *uint
	Status     *string
	FromDate   *time.Time
	ToDate     *time.Time
	SearchTerm string
}

// OrderService orchestrates the order lifecycle: creation with stock
// reservation, cancellation with stock restoration, staff assignment and
// status transitions. All multi-entity writes commit in one transaction.
type OrderService struct {
	clock Clock
}

// NewOrderService creates an order service using the given clock.
func NewOrderService(clock Clock) *OrderService {
	return &OrderService{clock: clock}
}

var orderServiceInstance *OrderService

// InitOrderService initializes the package-level order service.
func InitOrderService(clock Clock) *OrderService {
	orderServiceInstance = NewOrderService(clock)
	return orderServiceInstance
}

// GetOrderService returns the initialized order service instance
func GetOrderService() *OrderService {
	return orderServiceInstance
}

// CreateOrder creates an order for one vehicle on behalf of the customer.
// It reserves stock immediately (optimistic reservation): the vehicle's stock
// is decremented before payment, so an abandoned unpaid order holds its unit
// until cancelled. Order, item, invoice and the stock decrement commit
// atomically; the decrement is conditional on stock remaining so concurrent
// orders cannot oversell.
func (s *OrderService) CreateOrder(customerID uint, vehicleID uint, notes string) (uint, error) {
	db := config.GetDB()

	customer, err := getActiveUser(db, customerID)
	if err != nil {
		return 0, NotFoundError("Customer not found")
	}

	var vehicle models.Vehicle
	if err := db.First(&vehicle, vehicleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, NotFoundError(fmt.Sprintf("Vehicle with ID %d not found", vehicleID))
		}
		return 0, err
	}

	if !vehicle.IsActive {
		return 0, InvalidStateError("This vehicle is not available for purchase")
	}
	if vehicle.Stock <= 0 {
		return 0, InvalidStateError("This vehicle is out of stock")
	}

	now := s.clock.Now()
	var orderID uint

	err = db.Transaction(func(tx *gorm.DB) error {
		orderNumber, err := s.generateOrderNumber(tx, now)
		if err != nil {
			return err
		}

		order := models.Order{
			OrderNumber: orderNumber,
			CustomerID:  customer.ID,
			Status:      models.OrderStatusPending,
			TotalAmount: vehicle.BasePrice,
			Notes:       notes,
			CreatedBy:   &customer.ID,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		item := models.OrderItem{
			OrderID:   order.ID,
			VehicleID: vehicle.ID,
			UnitPrice: vehicle.BasePrice,
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		invoiceNumber, err := s.generateInvoiceNumber(tx, now)
		if err != nil {
			return err
		}

		invoice := models.Invoice{
			OrderID:       order.ID,
			CustomerID:    customer.ID,
			InvoiceNumber: invoiceNumber,
			TotalAmount:   vehicle.BasePrice,
			Status:        models.InvoiceStatusPending,
			Notes:         "Awaiting payment",
			CreatedBy:     &customer.ID,
		}
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}

		// Conditional decrement: fails instead of going negative when a
		// concurrent order took the last unit between our check and here.
		res := tx.Model(&models.Vehicle{}).
			Where("id = ? AND stock > 0", vehicle.ID).
			UpdateColumn("stock", gorm.Expr("stock - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return InvalidStateError("This vehicle is out of stock")
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Printf("Order %d created for customer %d, vehicle %d", orderID, customerID, vehicleID)
	return orderID, nil
}

// CancelOrder cancels an unpaid order and restores one unit of stock for each
// order item. It is the exact inverse of the reservation done at creation.
// Cancelling an already-cancelled order is rejected, and a paid order can
// never be cancelled through this path.
func (s *OrderService) CancelOrder(actorID uint, orderID uint, reason string) error {
	db := config.GetDB()

	actor, err := getActiveUser(db, actorID)
	if err != nil {
		return err
	}

	var order models.Order
	err = db.Preload("Invoices.Payments").Preload("Items").
		First(&order, orderID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return NotFoundError(fmt.Sprintf("Order with ID %d not found", orderID))
		}
		return err
	}

	if !canActOnResource(actor, order.CustomerID) {
		return ForbiddenError("You don't have permission to cancel this order")
	}
	if order.Status == models.OrderStatusCancelled {
		return InvalidStateError("Order is already cancelled")
	}
	if order.HasPaidPayment() {
		return InvalidStateError("Cannot cancel a paid order. Please contact staff for assistance.")
	}

	cancelNote := "Cancelled: " + reason
	if strings.TrimSpace(order.Notes) != "" {
		cancelNote = order.Notes + "\n" + cancelNote
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     models.OrderStatusCancelled,
			"notes":      cancelNote,
			"updated_by": actor.ID,
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		// Restore stock for every item; a missing vehicle aborts the whole
		// cancellation rather than silently losing a unit.
		for _, item := range order.Items {
			res := tx.Model(&models.Vehicle{}).
				Where("id = ?", item.VehicleID).
				UpdateColumn("stock", gorm.Expr("stock + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return InvalidStateError(fmt.Sprintf("Vehicle with ID %d not found for stock restoration", item.VehicleID))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Order %d cancelled by user %d", orderID, actorID)
	return nil
}

// UpdateOrderStatus sets a new order status. Staff only. The only guarded
// transition is to confirmed, which requires a paid payment; other target
// statuses are accepted as given. Notes are appended, never replaced.
func (s *OrderService) UpdateOrderStatus(actorID uint, orderID uint, newStatus string, notes string) (*models.Order, error) {
	db := config.GetDB()

	actor, err := requireStaff(db, actorID, "update order status")
	if err != nil {
		return nil, err
	}

	var order models.Order
	err = db.Preload("Invoices.Payments").First(&order, orderID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError(fmt.Sprintf("Order with ID %d not found", orderID))
		}
		return nil, err
	}

	if newStatus == models.OrderStatusConfirmed && !order.HasPaidPayment() {
		return nil, InvalidStateError("Cannot confirm order without payment")
	}

	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_by": actor.ID,
	}
	if strings.TrimSpace(notes) != "" {
		if strings.TrimSpace(order.Notes) == "" {
			updates["notes"] = notes
		} else {
			updates["notes"] = order.Notes + "\n" + notes
		}
	}
	if err := db.Model(&order).Updates(updates).Error; err != nil {
		return nil, err
	}

	log.Printf("Order %d status updated to %s by user %d", orderID, newStatus, actorID)
	return s.GetOrderByID(actorID, orderID)
}

// AssignStaff assigns a staff member to process the order. Staff only.
func (s *OrderService) AssignStaff(actorID uint, orderID uint, staffID uint) (*models.Order, error) {
	db := config.GetDB()

	actor, err := requireStaff(db, actorID, "assign orders")
	if err != nil {
		return nil, err
	}

	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError(fmt.Sprintf("Order with ID %d not found", orderID))
		}
		return nil, err
	}

	staff, err := getActiveUser(db, staffID)
	if err != nil || !staff.IsStaff() {
		return nil, NotFoundError("Staff not found or invalid role")
	}

	updates := map[string]interface{}{
		"staff_id":   staff.ID,
		"updated_by": actor.ID,
	}
	if err := db.Model(&order).Updates(updates).Error; err != nil {
		return nil, err
	}

	log.Printf("Order %d assigned to staff %d", orderID, staffID)
	return s.GetOrderByID(actorID, orderID)
}

// GetOrderByID returns one order with all nested associations resolved.
// Customers may only see their own orders; staff and managers see all.
func (s *OrderService) GetOrderByID(actorID uint, orderID uint) (*models.Order, error) {
	db := config.GetDB()

	actor, err := getActiveUser(db, actorID)
	if err != nil {
		return nil, err
	}

	var order models.Order
	err = orderProjection(db).First(&order, orderID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError(fmt.Sprintf("Order with ID %d not found", orderID))
		}
		return nil, err
	}

	if !canActOnResource(actor, order.CustomerID) {
		return nil, ForbiddenError("You don't have permission to view this order")
	}
	return &order, nil
}

// GetMyOrders lists the customer's own orders, newest first.
func (s *OrderService) GetMyOrders(customerID uint, page, pageSize int) ([]models.Order, int64, error) {
	db := config.GetDB()
	page, pageSize = normalizePagination(page, pageSize)

	query := db.Model(&models.Order{}).Where("customer_id = ?", customerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := orderProjection(db).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// GetAllOrders lists orders across customers with filtering. Staff only.
func (s *OrderService) GetAllOrders(actorID uint, page, pageSize int, filter *OrderFilter) ([]models.Order, int64, error) {
	db := config.GetDB()

	if _, err := requireStaff(db, actorID, "view all orders"); err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePagination(page, pageSize)

	base := db.Model(&models.Order{})
	base = applyOrderFilter(base, filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	listQuery := applyOrderFilter(orderProjection(db), filter)
	err := listQuery.
		Order("orders.created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// orderProjection eagerly loads everything the order response needs. Reads
// are a projection concern, not a transactional one.
func orderProjection(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Order{}).
		Preload("Customer").
		Preload("Staff").
		Preload("Items.Vehicle").
		Preload("Invoices.Payments").
		Preload("Delivery")
}

func applyOrderFilter(query *gorm.DB, filter *OrderFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.CustomerID != nil {
		query = query.Where("orders.customer_id = ?", *filter.CustomerID)
	}
	if filter.StaffID != nil {
		query = query.Where("orders.staff_id = ?", *filter.StaffID)
	}
	if filter.Status != nil {
		query = query.Where("orders.status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("orders.created_at >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("orders.created_at <= ?", *filter.ToDate)
	}
	if term := strings.ToLower(strings.TrimSpace(filter.SearchTerm)); term != "" {
		pattern := "%" + term + "%"
		query = query.
			Joins("LEFT JOIN users ON users.id = orders.customer_id").
			Where("LOWER(orders.order_number) LIKE ? OR LOWER(users.full_name) LIKE ? OR LOWER(users.email) LIKE ?",
				pattern, pattern, pattern)
	}
	return query
}

// generateOrderNumber builds the next ORD-{yyyyMMdd}-{seq} number. The 4-digit
// sequence resets each day and counts soft-deleted orders too, so numbers are
// never reused.
func (s *OrderService) generateOrderNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := "ORD-" + now.Format("20060102")

	var count int64
	err := tx.Unscoped().Model(&models.Order{}).
		Where("order_number LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, count+1), nil
}

// generateInvoiceNumber builds the next INV-{yyyyMMdd}-{seq} number.
func (s *OrderService) generateInvoiceNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := "INV-" + now.Format("20060102")

	var count int64
	err := tx.Unscoped().Model(&models.Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, count+1), nil
}
