package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/voltmotors/ev-dealer-api/config"
	"github.com/voltmotors/ev-dealer-api/models"
)

// TestDriveService manages test drive appointments: registration by customers
// (or staff on their behalf), confirmation, completion and cancellation.
type TestDriveService struct {
	clock Clock
}

// NewTestDriveService creates a test drive service.
func NewTestDriveService(clock Clock) *TestDriveService {
	return &TestDriveService{clock: clock}
}

var testDriveServiceInstance *TestDriveService

// InitTestDriveService initializes the package-level test drive service.
func InitTestDriveService(clock Clock) *TestDriveService {
	testDriveServiceInstance = NewTestDriveService(clock)
	return testDriveServiceInstance
}

// GetTestDriveService returns the initialized test drive service instance
func GetTestDriveService() *TestDriveService {
	return testDriveServiceInstance
}

// Register books a test drive for a customer. When a staff member registers
// on a customer's behalf, customerID names the customer and the staff member
// is recorded as the handler.
func (s *TestDriveService) Register(actorID uint, customerID uint, vehicleID uint, scheduledDate time.Time, notes string) (*models.TestDrive, error) {
	db := config.GetDB()

	actor, err := getActiveUser(db, actorID)
	if err != nil {
		return nil, err
	}

	var staffID *uint
	if actor.Role == models.RoleCustomer {
		customerID = actor.ID
	} else {
		staffID = &actor.ID
	}

	customer, err := getActiveUser(db, customerID)
	if err != nil || customer.Role != models.RoleCustomer {
		return nil, NotFoundError("Customer not found")
	}

	var vehicle models.Vehicle
	if err := db.First(&vehicle, vehicleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError(fmt.Sprintf("Vehicle with ID %d not found", vehicleID))
		}
		return nil, err
	}
	if !vehicle.IsActive {
		return nil, InvalidStateError("This vehicle is not available for test drives")
	}
	if scheduledDate.Before(s.clock.Now()) {
		return nil, InvalidStateError("Test drive must be scheduled in the future")
	}

	testDrive := models.TestDrive{
		CustomerID:    customer.ID,
		VehicleID:     vehicle.ID,
		StaffID:       staffID,
		ScheduledDate: scheduledDate,
		Status:        models.TestDriveStatusPending,
		Notes:         notes,
		CreatedBy:     &actor.ID,
	}
	if err := db.Create(&testDrive).Error; err != nil {
		return nil, err
	}

	log.Printf("Test drive %d registered for customer %d, vehicle %d", testDrive.ID, customer.ID, vehicleID)
	return s.GetByID(testDrive.ID)
}

// Confirm marks a pending test drive as confirmed. Staff only.
func (s *TestDriveService) Confirm(actorID uint, testDriveID uint, notes string) (*models.TestDrive, error) {
	return s.transition(actorID, testDriveID, models.TestDriveStatusConfirmed, notes,
		[]string{models.TestDriveStatusPending}, "confirm")
}

// Complete marks a confirmed test drive as completed. Staff only.
func (s *TestDriveService) Complete(actorID uint, testDriveID uint, notes string) (*models.TestDrive, error) {
	return s.transition(actorID, testDriveID, models.TestDriveStatusCompleted, notes,
		[]string{models.TestDriveStatusConfirmed}, "complete")
}

// Cancel cancels a pending or confirmed test drive. The customer may cancel
// their own booking; staff may cancel any.
func (s *TestDriveService) Cancel(actorID uint, testDriveID uint, reason string) (*models.TestDrive, error) {
	db := config.GetDB()

	actor, err := getActiveUser(db, actorID)
	if err != nil {
		return nil, err
	}

	testDrive, err := s.GetByID(testDriveID)
	if err != nil {
		return nil, err
	}

	if !canActOnResource(actor, testDrive.CustomerID) {
		return nil, ForbiddenError("You can only cancel your own test drives")
	}
	if testDrive.Status != models.TestDriveStatusPending && testDrive.Status != models.TestDriveStatusConfirmed {
		return nil, InvalidStateError(fmt.Sprintf("Cannot cancel test drive with status %s", testDrive.Status))
	}

	updates := map[string]interface{}{
		"status":     models.TestDriveStatusCanceled,
		"updated_by": actor.ID,
	}
	if reason != "" {
		updates["notes"] = appendNote(testDrive.Notes, "Canceled: "+reason)
	}
	if err := db.Model(&models.TestDrive{}).Where("id = ?", testDriveID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(testDriveID)
}

// GetByID returns one test drive with customer, vehicle and staff loaded.
func (s *TestDriveService) GetByID(testDriveID uint) (*models.TestDrive, error) {
	db := config.GetDB()

	var testDrive models.TestDrive
	err := db.Preload("Customer").Preload("Vehicle").Preload("Staff").
		First(&testDrive, testDriveID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError(fmt.Sprintf("Test drive with ID %d not found", testDriveID))
		}
		return nil, err
	}
	return &testDrive, nil
}

// GetMine lists the customer's own test drives, newest first.
func (s *TestDriveService) GetMine(customerID uint, page, pageSize int) ([]models.TestDrive, int64, error) {
	db := config.GetDB()
	page, pageSize = normalizePagination(page, pageSize)

	query := db.Model(&models.TestDrive{}).Where("customer_id = ?", customerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var testDrives []models.TestDrive
	err := db.Preload("Customer").Preload("Vehicle").Preload("Staff").
		Where("customer_id = ?", customerID).
		Order("scheduled_date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&testDrives).Error
	if err != nil {
		return nil, 0, err
	}
	return testDrives, total, nil
}

// GetAll lists all test drives. Staff only.
func (s *TestDriveService) GetAll(actorID uint, page, pageSize int, status *string) ([]models.TestDrive, int64, error) {
	db := config.GetDB()

	if _, err := requireStaff(db, actorID, "view all test drives"); err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePagination(page, pageSize)

	query := db.Model(&models.TestDrive{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	list := db.Preload("Customer").Preload("Vehicle").Preload("Staff")
	if status != nil {
		list = list.Where("status = ?", *status)
	}

	var testDrives []models.TestDrive
	err := list.Order("scheduled_date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&testDrives).Error
	if err != nil {
		return nil, 0, err
	}
	return testDrives, total, nil
}

func (s *TestDriveService) transition(actorID uint, testDriveID uint, newStatus, notes string, allowedFrom []string, action string) (*models.TestDrive, error) {
	db := config.GetDB()

	actor, err := requireStaff(db, actorID, action+" test drives")
	if err != nil {
		return nil, err
	}

	testDrive, err := s.GetByID(testDriveID)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, from := range allowedFrom {
		if testDrive.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, InvalidStateError(fmt.Sprintf("Cannot %s test drive with status %s", action, testDrive.Status))
	}

	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_by": actor.ID,
		"staff_id":   actor.ID,
	}
	if notes != "" {
		updates["notes"] = appendNote(testDrive.Notes, notes)
	}
	if err := db.Model(&models.TestDrive{}).Where("id = ?", testDriveID).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(testDriveID)
}

// appendNote joins log-style notes with newlines, never replacing history.
func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
