package services

import (
	"gorm.io/gorm"

	"github.com/voltmotors/ev-dealer-api/models"
)

// getActiveUser loads a non-deleted user by id. Soft-deleted users are
// filtered by gorm automatically.
func getActiveUser(db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NotFoundError("User not found")
		}
		return nil, err
	}
	return &user, nil
}

// requireStaff ensures the actor holds a staff or manager role.
func requireStaff(db *gorm.DB, actorID uint, action string) (*models.User, error) {
	actor, err := getActiveUser(db, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() {
		return nil, ForbiddenError("Only staff can " + action)
	}
	return actor, nil
}

// canActOnResource is the single ownership/role policy: the owner of a
// resource may act on it, and so may staff and managers.
func canActOnResource(actor *models.User, ownerID uint) bool {
	return actor.ID == ownerID || actor.IsStaff()
}

// normalizePagination clamps page and pageSize to sane bounds.
func normalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}
