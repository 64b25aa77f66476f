package services

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/voltmotors/ev-dealer-api/config"
	"github.com/voltmotors/ev-dealer-api/models"
)

// tokenTTL is how long issued access tokens remain valid.
const tokenTTL = 24 * time.Hour

// AuthService registers users and issues signed access tokens.
type AuthService struct {
	clock     Clock
	jwtSecret string
}

// NewAuthService creates an auth service signing tokens with the given secret.
func NewAuthService(clock Clock, jwtSecret string) *AuthService {
	return &AuthService{clock: clock, jwtSecret: jwtSecret}
}

var authServiceInstance *AuthService

// InitAuthService initializes the package-level auth service.
func InitAuthService(clock Clock, jwtSecret string) *AuthService {
	authServiceInstance = NewAuthService(clock, jwtSecret)
	return authServiceInstance
}

// GetAuthService returns the initialized auth service instance
func GetAuthService() *AuthService {
	return authServiceInstance
}

// Register creates a customer account with a bcrypt password hash.
func (s *AuthService) Register(email, password, fullName, phoneNumber string) (*models.User, error) {
	db := config.GetDB()

	email = strings.ToLower(strings.TrimSpace(email))

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
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

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         models.RoleCustomer,
		PhoneNumber:  phoneNumber,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}

	log.Printf("Registered new customer %d (%s)", user.ID, user.Email)
	return &user, nil
}

// Login verifies credentials and returns a signed token plus the user.
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	db := config.GetDB()

	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil, UnauthorizedError("Invalid email or password")
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, UnauthorizedError("Invalid email or password")
	}

	token, err := s.IssueToken(&user)
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// IssueToken signs an HS256 access token carrying the user id and role.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.clock.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"role": user.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}
	return signed, nil
}
