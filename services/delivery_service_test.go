package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voltmotors/ev-dealer-api/models"
)

func TestRequestDelivery(t *testing.T) {
	db := setupServiceTestDB(t)
	clock := &FixedClock{Current: time.Now().UTC()}
	svc := NewDeliveryService(clock)

	customer := createTestCustomer(t, db, "buyer@example.com")
	vehicle := createTestVehicle(t, db, 48000, 2)
	order := createPaidOrder(t, db, customer, vehicle)

	delivery, err := svc.RequestDelivery(customer.ID, order.ID, "12 Battery Road", "leave at gate")
	assert.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusPending, delivery.Status)
	assert.Equal(t, "12 Battery Road", delivery.ShippingAddress)
	assert.Equal(t, "leave at gate", delivery.Notes)
	assert.Nil(t, delivery.PlannedDate)

	// Only one delivery per order.
	_, err = svc.RequestDelivery(customer.ID, order.ID, "12 Battery Road", "")
	assert.Equal(t, CodeInvalidState, ErrorCode(err))
}

func TestRequestDeliveryGuards(t *testing.T) {
	db := setupServiceTestDB(t)
	clock := &FixedClock{Current: time.Now().UTC()}
	svc := NewDeliveryService(clock)

	customer := createTestCustomer(t, db, "buyer@example.com")
	other := createTestCustomer(t, db, "other@example.com")
	staff := createTestStaff(t, db, "staff@example.com", models.RoleStaff)
	vehicle := createTestVehicle(t, db, 48000, 3)
	order := createPaidOrder(t, db, customer, vehicle)

	// Staff cannot request deliveries, only customers.
	_, err := svc.RequestDelivery(staff.ID, order.ID, "addr", "")
	assert.Equal(t, CodeForbidden, ErrorCode(err))

	// Not the owner.
	_, err = svc.RequestDelivery(other.ID, order.ID, "addr", "")
	assert.Equal(t, CodeForbidden, ErrorCode(err))

	// Unpaid pending order.
	unpaidID := seedOrderRow(t, db, customer.ID, "ORD-20260316-0001")
	_, err = svc.RequestDelivery(customer.ID, unpaidID, "addr", "")
	assert.Equal(t, CodeInvalidState, ErrorCode(err))

	_, err = svc.RequestDelivery(customer.ID, 999, "addr", "")
	assert.Equal(t, CodeNotFound, ErrorCode(err))
}

func TestRequestDeliveryWindowExpires(t *testing.T) {
	db := setupServiceTestDB(t)
	clock := &FixedClock{Current: time.Now().UTC()}
	svc := NewDeliveryService(clock)

	customer := createTestCustomer(t, db, "buyer@example.com")
	vehicle := createTestVehicle(t, db, 48000, 2)
	order := createPaidOrder(t, db, customer, vehicle)

	// 25 hours after confirmation the window has closed.
	clock.Advance(25 * time.Hour)
	_, err := svc.RequestDelivery(customer.ID, order.ID, "12 Battery Road", "")
	assert.Equal(t, CodeInvalidState, ErrorCode(err))
	assert.Contains(t, err.Error(), "24 hours")
}

func TestConfirmDelivery(t *testing.T) {
	db := setupServiceTestDB(t)
	clock := &FixedClock{Current: time.Now().UTC()}
	svc := NewDeliveryService(clock)

	customer := createTestCustomer(t, db, "buyer@example.com")
	staff := createTestStaff(t, db, "staff@example.com", models.RoleStaff)
	vehicle := createTestVehicle(t, db, 48000, 2)
	order := createPaidOrder(t, db, customer, vehicle)

	delivery, err := svc.RequestDelivery(customer.ID, order.ID, "12 Battery Road", "")
	assert.NoError(t, err)

	// Customers cannot schedule.
	planned := clock.Now().Add(72 * time.Hour)
	_, err = svc.ConfirmDelivery(customer.ID, delivery.ID, planned, "")
	assert.Equal(t, CodeForbidden, ErrorCode(err))

	confirmed, err := svc.ConfirmDelivery(staff.ID, delivery.ID, planned, "morning slot")
	assert.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusScheduled, confirmed.Status)
	assert.NotNil(t, confirmed.PlannedDate)
	assert.Equal(t, "morning slot", confirmed.StaffNotes)

	// Confirming twice is rejected.
	_, err = svc.ConfirmDelivery(staff.ID, delivery.ID, planned, "")
	assert.Equal(t, CodeInvalidState, ErrorCode(err))
}

func TestUpdateDeliveryStatusStateMachine(t *testing.T) {
	db := setupServiceTestDB(t)
	clock := &FixedClock{Current: time.Now().UTC()}
	svc := NewDeliveryService(clock)

	customer := createTestCustomer(t, db, "buyer@example.com")
	staff := createTestStaff(t, db, "staff@example.com", models.RoleStaff)
	vehicle := createTestVehicle(t, db, 48000, 2)
	order := createPaidOrder(t, db, customer, vehicle)

	delivery, err := svc.RequestDelivery(customer.ID, order.ID, "12 Battery Road", "")
	assert.NoError(t, err)

	// Pending cannot jump straight to in_transit or delivered.
	_, err = svc.UpdateDeliveryStatus(staff.ID, delivery.ID, models.DeliveryStatusInTransit, nil, nil)
	assert.Equal(t, CodeInvalidState, ErrorCode(err))
	_, err = svc.UpdateDeliveryStatus(staff.ID, delivery.ID, models.DeliveryStatusDelivered, nil, nil)
	assert.Equal(t, CodeInvalidState, ErrorCode(err))

	planned := clock.Now().Add(48 * time.Hour)
	_, err = svc.ConfirmDelivery(staff.ID, delivery.ID, planned, "")
	assert.NoError(t, err)

	inTransit, err := svc.UpdateDeliveryStatus(staff.ID, delivery.ID, models.DeliveryStatusInTransit, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusInTransit, inTransit.Status)

	// Delivered stamps the actual date from the clock when none is given.
	delivered, err := svc.UpdateDeliveryStatus(staff.ID, delivery.ID, models.DeliveryStatusDelivered, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusDelivered, delivered.Status)
	assert.NotNil(t, delivered.ActualDate)
	assert.WithinDuration(t, clock.Now(), *delivered.ActualDate, time.Second)

	// Delivered is terminal.
	_, err = svc.UpdateDeliveryStatus(staff.ID, delivery.ID, models.DeliveryStatusInTransit, nil, nil)
	assert.Equal(t, CodeInvalidState, ErrorCode(err))
}

func TestCancelDelivery(t *testing.T) {
	db := setupServiceTestDB(t)
	clock := &FixedClock{Current: time.Now().UTC()}
	svc := NewDeliveryService(clock)

	customer := createTestCustomer(t, db, "buyer@example.com")
	other := createTestCustomer(t, db, "other@example.com")
	staff := createTestStaff(t, db, "staff@example.com", models.RoleStaff)
	vehicle := createTestVehicle(t, db, 48000, 4)

	// Customer cancels a pending request.
	firstOrder := createPaidOrder(t, db, customer, vehicle)
	pending, err := svc.RequestDelivery(customer.ID, firstOrder.ID, "addr", "")
	assert.NoError(t, err)

	_, err = svc.CancelDelivery(other.ID, pending.ID)
	assert.Equal(t, CodeForbidden, ErrorCode(err))

	cancelled, err := svc.CancelDelivery(customer.ID, pending.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusCancelled, cancelled.Status)

	// Once scheduled, only staff may cancel.
	secondOrder := createPaidOrder(t, db, customer, vehicle)
	scheduled, err := svc.RequestDelivery(customer.ID, secondOrder.ID, "addr", "")
	assert.NoError(t, err)
	_, err = svc.ConfirmDelivery(staff.ID, scheduled.ID, clock.Now().Add(48*time.Hour), "")
	assert.NoError(t, err)

	_, err = svc.CancelDelivery(customer.ID, scheduled.ID)
	assert.Equal(t, CodeInvalidState, ErrorCode(err))

	_, err = svc.CancelDelivery(staff.ID, scheduled.ID)
	assert.NoError(t, err)

	// In-transit deliveries cannot be cancelled at all.
	thirdOrder := createPaidOrder(t, db, customer, vehicle)
	moving, err := svc.RequestDelivery(customer.ID, thirdOrder.ID, "addr", "")
	assert.NoError(t, err)
	_, err = svc.ConfirmDelivery(staff.ID, moving.ID, clock.Now().Add(48*time.Hour), "")
	assert.NoError(t, err)
	_, err = svc.UpdateDeliveryStatus(staff.ID, moving.ID, models.DeliveryStatusInTransit, nil, nil)
	assert.NoError(t, err)

	_, err = svc.CancelDelivery(staff.ID, moving.ID)
	assert.Equal(t, CodeInvalidState, ErrorCode(err))
}

func TestGetAllDeliveries(t *testing.T) {
	db := setupServiceTestDB(t)
	clock := &FixedClock{Current: time.Now().UTC()}
	svc := NewDeliveryService(clock)

	customer := createTestCustomer(t, db, "buyer@example.com")
	staff := createTestStaff(t, db, "staff@example.com", models.RoleStaff)
	vehicle := createTestVehicle(t, db, 48000, 4)

	for i := 0; i < 2; i++ {
		order := createPaidOrder(t, db, customer, vehicle)
		_, err := svc.RequestDelivery(customer.ID, order.ID, "addr", "")
		assert.NoError(t, err)
	}

	_, _, err := svc.GetAllDeliveries(customer.ID, 1, 10, nil)
	assert.Equal(t, CodeForbidden, ErrorCode(err))

	deliveries, total, err := svc.GetAllDeliveries(staff.ID, 1, 10, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, deliveries, 2)

	status := models.DeliveryStatusPending
	_, total, err = svc.GetAllDeliveries(staff.ID, 1, 10, &DeliveryFilter{Status: &status})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
