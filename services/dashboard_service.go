package services

import (
	"time"

	"github.com/voltmotors/ev-dealer-api/config"
	"github.com/voltmotors/ev-dealer-api/models"
)

// DashboardService aggregates sales, delivery and engagement figures for the
// staff dashboard. All queries run against live tables; nothing is cached.
type DashboardService struct {
	clock Clock
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(clock Clock) *DashboardService {
	return &DashboardService{clock: clock}
}

var dashboardServiceInstance *DashboardService

// InitDashboardService initializes the package-level dashboard service.
func InitDashboardService(clock Clock) *DashboardService {
	dashboardServiceInstance = NewDashboardService(clock)
	return dashboardServiceInstance
}

// GetDashboardService returns the initialized dashboard service instance
func GetDashboardService() *DashboardService {
	return dashboardServiceInstance
}

// MonthlyRevenue is one month's paid-payment total. Months with no revenue
// still appear with a zero amount so charts have a continuous axis.
type MonthlyRevenue struct {
	Month   string  `json:"month"` // "2026-01"
	Revenue float64 `json:"revenue"`
	Orders  int64   `json:"orders"`
}

// VehicleSales is one row of the top-selling vehicles table.
type VehicleSales struct {
	VehicleID uint    `json:"vehicle_id"`
	ModelName string  `json:"model_name"`
	TrimName  string  `json:"trim_name"`
	UnitsSold int64   `json:"units_sold"`
	Revenue   float64 `json:"revenue"`
}

// DashboardStats is the full dashboard payload.
type DashboardStats struct {
	TotalRevenue      float64          `json:"total_revenue"`
	AverageOrderValue float64          `json:"average_order_value"`
	TotalOrders       int64            `json:"total_orders"`
	OrdersByStatus    map[string]int64 `json:"orders_by_status"`
	MonthlyRevenue    []MonthlyRevenue `json:"monthly_revenue"`
	TopVehicles       []VehicleSales   `json:"top_vehicles"`

	DeliveriesByStatus map[string]int64 `json:"deliveries_by_status"`
	OnTimeDeliveryRate float64          `json:"on_time_delivery_rate"`

	TotalCustomers int64 `json:"total_customers"`
	NewCustomers   int64 `json:"new_customers"`

	TotalTestDrives       int64   `json:"total_test_drives"`
	TestDriveConversion   float64 `json:"test_drive_conversion"`
	TotalFeedback         int64   `json:"total_feedback"`
	FeedbackResolvedRate  float64 `json:"feedback_resolved_rate"`
	LowStockVehicles      int64   `json:"low_stock_vehicles"`
	OutOfStockVehicles    int64   `json:"out_of_stock_vehicles"`
}

const (
	lowStockThreshold  = 3
	topVehiclesLimit   = 5
	revenueMonthsShown = 6
)

type statusCount struct {
	Status string
	Count  int64
}

// GetStats assembles the dashboard for the given window. Staff only. A zero
// `from` defaults to six months back; a zero `to` defaults to now.
func (s *DashboardService) GetStats(actorID uint, from, to time.Time) (*DashboardStats, error) {
	db := config.GetDB()

	if _, err := requireStaff(db, actorID, "view the dashboard"); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = to.AddDate(0, -revenueMonthsShown, 0)
	}

	stats := &DashboardStats{
		OrdersByStatus:     make(map[string]int64),
		DeliveriesByStatus: make(map[string]int64),
	}

	// Revenue counts only paid payments on non-deleted invoices.
	type paidRow struct {
		Amount      float64
		InvoiceID   uint
		PaymentDate *time.Time
		CreatedAt   time.Time
	}
	var paid []paidRow
	err := db.Model(&models.Payment{}).
		Select("payments.amount, payments.invoice_id, payments.payment_date, payments.created_at").
		Joins("JOIN invoices ON invoices.id = payments.invoice_id AND invoices.deleted_at IS NULL").
		Where("payments.status = ?", models.PaymentStatusPaid).
		Where("payments.created_at >= ? AND payments.created_at <= ?", from, to).
		Scan(&paid).Error
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*MonthlyRevenue)
	for _, p := range paid {
		stats.TotalRevenue += p.Amount
		at := p.CreatedAt
		if p.PaymentDate != nil {
			at = *p.PaymentDate
		}
		key := at.UTC().Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &MonthlyRevenue{Month: key}
			buckets[key] = b
		}
		b.Revenue += p.Amount
		b.Orders++
	}
	// Walk month by month so gaps show as zeros.
	start := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		key := m.Format("2006-01")
		if b, ok := buckets[key]; ok {
			stats.MonthlyRevenue = append(stats.MonthlyRevenue, *b)
		} else {
			stats.MonthlyRevenue = append(stats.MonthlyRevenue, MonthlyRevenue{Month: key})
		}
	}

	if err := db.Model(&models.Order{}).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = stats.TotalRevenue / float64(stats.TotalOrders)
	}

	var orderCounts []statusCount
	err = db.Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Where("created_at >= ? AND created_at <= ?", from, to).
		Group("status").
		Scan(&orderCounts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range orderCounts {
		stats.OrdersByStatus[c.Status] = c.Count
	}

	err = db.Model(&models.OrderItem{}).
		Select("order_items.vehicle_id, vehicles.model_name, vehicles.trim_name, COUNT(*) as units_sold, SUM(order_items.unit_price) as revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id AND orders.deleted_at IS NULL").
		Joins("JOIN vehicles ON vehicles.id = order_items.vehicle_id").
		Where("orders.status = ?", models.OrderStatusConfirmed).
		Where("orders.created_at >= ? AND orders.created_at <= ?", from, to).
		Group("order_items.vehicle_id, vehicles.model_name, vehicles.trim_name").
		Order("units_sold DESC").
		Limit(topVehiclesLimit).
		Scan(&stats.TopVehicles).Error
	if err != nil {
		return nil, err
	}

	var deliveryCounts []statusCount
	err = db.Model(&models.Delivery{}).
		Select("status, COUNT(*) as count").
		Where("created_at >= ? AND created_at <= ?", from, to).
		Group("status").
		Scan(&deliveryCounts).Error
	if err != nil {
		return nil, err
	}
	for _, c := range deliveryCounts {
		stats.DeliveriesByStatus[c.Status] = c.Count
	}

	var delivered, onTime int64
	err = db.Model(&models.Delivery{}).
		Where("status = ?", models.DeliveryStatusDelivered).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Count(&delivered).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&models.Delivery{}).
		Where("status = ?", models.DeliveryStatusDelivered).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Where("actual_date IS NOT NULL AND planned_date IS NOT NULL AND actual_date <= planned_date").
		Count(&onTime).Error
	if err != nil {
		return nil, err
	}
	if delivered > 0 {
		stats.OnTimeDeliveryRate = float64(onTime) / float64(delivered)
	}

	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleCustomer).
		Count(&stats.TotalCustomers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleCustomer).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Count(&stats.NewCustomers).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.TestDrive{}).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Count(&stats.TotalTestDrives).Error; err != nil {
		return nil, err
	}
	// A test drive converts when the same customer later places an order for
	// the same vehicle model.
	var converted int64
	err = db.Model(&models.TestDrive{}).
		Where("test_drives.created_at >= ? AND test_drives.created_at <= ?", from, to).
		Where("EXISTS (SELECT 1 FROM orders JOIN order_items ON order_items.order_id = orders.id WHERE orders.customer_id = test_drives.customer_id AND order_items.vehicle_id = test_drives.vehicle_id AND orders.deleted_at IS NULL AND orders.created_at >= test_drives.created_at)").
		Count(&converted).Error
	if err != nil {
		return nil, err
	}
	if stats.TotalTestDrives > 0 {
		stats.TestDriveConversion = float64(converted) / float64(stats.TotalTestDrives)
	}

	if err := db.Model(&models.Feedback{}).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Count(&stats.TotalFeedback).Error; err != nil {
		return nil, err
	}
	var resolved int64
	err = db.Model(&models.Feedback{}).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Where("resolved_by IS NOT NULL").
		Count(&resolved).Error
	if err != nil {
		return nil, err
	}
	if stats.TotalFeedback > 0 {
		stats.FeedbackResolvedRate = float64(resolved) / float64(stats.TotalFeedback)
	}

	if err := db.Model(&models.Vehicle{}).
		Where("is_active = ?", true).
		Where("stock > 0 AND stock <= ?", lowStockThreshold).
		Count(&stats.LowStockVehicles).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Vehicle{}).
		Where("is_active = ?", true).
		Where("stock = 0").
		Count(&stats.OutOfStockVehicles).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
