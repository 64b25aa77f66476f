package services

import (
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/voltmotors/ev-dealer-api/config"
	"github.com/voltmotors/ev-dealer-api/models"
)

// UserService handles profile access and staff administration.
type UserService struct{}

var userServiceInstance *UserService

// InitUserService initializes the package-level user service.
func InitUserService() *UserService {
	userServiceInstance = &UserService{}
	return userServiceInstance
}

// GetUserService returns the initialized user service instance
func GetUserService() *UserService {
	return userServiceInstance
}

// GetProfile returns the actor's own profile.
func (s *UserService) GetProfile(actorID uint) (*models.User, error) {
	return getActiveUser(config.GetDB(), actorID)
}

// UpdateProfile updates the actor's own name and phone number.
func (s *UserService) UpdateProfile(actorID uint, fullName, phoneNumber string) (*models.User, error) {
	db := config.GetDB()

	user, err := getActiveUser(db, actorID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if strings.TrimSpace(fullName) != "" {
		updates["full_name"] = fullName
	}
	if strings.TrimSpace(phoneNumber) != "" {
		updates["phone_number"] = phoneNumber
	}
	if len(updates) > 0 {
		if err := db.Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return user, nil
}

// CreateStaff creates a staff or manager account. Manager only.
func (s *UserService) CreateStaff(actorID uint, email, password, fullName, phoneNumber, role string) (*models.User, error) {
	db := config.GetDB()

	actor, err := getActiveUser(db, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleManager {
		return nil, ForbiddenError("Only managers can create staff accounts")
	}
	if role != models.RoleStaff && role != models.RoleManager {
		return nil, InvalidStateError("Staff role must be staff or manager")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	var existing models.User
	err = db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, InvalidStateError("An account with this email already exists")
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	staff := models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         role,
		PhoneNumber:  phoneNumber,
	}
	if err := db.Create(&staff).Error; err != nil {
		return nil, err
	}

	log.Printf("Manager %d created %s account %d", actorID, role, staff.ID)
	return &staff, nil
}

// UpdateStaff updates a staff member's details. Manager only.
func (s *UserService) UpdateStaff(actorID uint, staffID uint, fullName, phoneNumber, role string) (*models.User, error) {
	db := config.GetDB()

	actor, err := getActiveUser(db, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleManager {
		return nil, ForbiddenError("Only managers can update staff accounts")
	}

	staff, err := getActiveUser(db, staffID)
	if err != nil {
		return nil, err
	}
	if !staff.IsStaff() {
		return nil, NotFoundError("Staff not found or invalid role")
	}

	updates := map[string]interface{}{}
	if strings.TrimSpace(fullName) != "" {
		updates["full_name"] = fullName
	}
	if strings.TrimSpace(phoneNumber) != "" {
		updates["phone_number"] = phoneNumber
	}
	if role == models.RoleStaff || role == models.RoleManager {
		updates["role"] = role
	}
	if len(updates) > 0 {
		if err := db.Model(staff).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return staff, nil
}

// DeleteStaff soft-deletes a staff account. Manager only.
func (s *UserService) DeleteStaff(actorID uint, staffID uint) error {
	db := config.GetDB()

	actor, err := getActiveUser(db, actorID)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleManager {
		return ForbiddenError("Only managers can delete staff accounts")
	}

	staff, err := getActiveUser(db, staffID)
	if err != nil {
		return err
	}
	if !staff.IsStaff() {
		return NotFoundError("Staff not found or invalid role")
	}

	if err := db.Delete(staff).Error; err != nil {
		return err
	}
	log.Printf("Manager %d deleted staff %d", actorID, staffID)
	return nil
}

// ListStaff lists staff and manager accounts. Staff only.
func (s *UserService) ListStaff(actorID uint, page, pageSize int) ([]models.User, int64, error) {
	return s.listByRoles(actorID, page, pageSize, []string{models.RoleStaff, models.RoleManager})
}

// ListCustomers lists customer accounts. Staff only.
func (s *UserService) ListCustomers(actorID uint, page, pageSize int) ([]models.User, int64, error) {
	return s.listByRoles(actorID, page, pageSize, []string{models.RoleCustomer})
}

func (s *UserService) listByRoles(actorID uint, page, pageSize int, roles []string) ([]models.User, int64, error) {
	db := config.GetDB()

	if _, err := requireStaff(db, actorID, "view user accounts"); err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePagination(page, pageSize)

	query := db.Model(&models.User{}).Where("role IN ?", roles)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// GetUserByID returns any user's profile. Staff only.
func (s *UserService) GetUserByID(actorID uint, userID uint) (*models.User, error) {
	db := config.GetDB()

	if _, err := requireStaff(db, actorID, "view user accounts"); err != nil {
		return nil, err
	}

	user, err := getActiveUser(db, userID)
	if err != nil {
		return nil, NotFoundError(fmt.Sprintf("User with ID %d not found", userID))
	}
	return user, nil
}
