package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const minPasswordLength = 6

type AuthService struct {
	DB *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{DB: db}
}

type RegisterInput struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required"`
	Role     models.Role `json:"role" binding:"required"`
	Phone    string      `json:"phone_number"`
	Address  string      `json:"address"`
	WardenID *uint       `json:"warden_id"`
}

// Register creates an account. Residents and wardens start unapproved;
// admins cannot self-register.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if !in.Role.Valid() || in.Role == models.RoleAdmin {
		return nil, Errorf(ErrValidation, "role must be resident, warden, vendor or delivery_agent")
	}
	if len(in.Password) < minPasswordLength {
		return nil, Errorf(ErrValidation, "password must be at least 6 characters")
	}
	if in.WardenID != nil && in.Role != models.RoleResident {
		return nil, Errorf(ErrValidation, "only residents have a warden")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		Password:   string(hashed),
		Role:       in.Role,
		Phone:      in.Phone,
		Address:    in.Address,
		IsApproved: !in.Role.NeedsApproval(),
		IsActive:   true,
		WardenID:   in.WardenID,
	}

	db := s.DB.WithContext(ctx)
	if in.WardenID != nil {
		err := db.Where("id = ? AND role = ? AND is_approved = ?", *in.WardenID, models.RoleWarden, true).
			First(&models.User{}).Error
		if err != nil {
			return nil, notFound(err, "warden")
		}
	}
	if err := db.Omit(clause.Associations).Create(&user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, Errorf(ErrDuplicate, "email is already registered")
		}
		return nil, err
	}

	utils.InfoLogger.Printf("New user registered: %s (role=%s)", user.Email, user.Role)
	return &user, nil
}

// Login checks credentials first, then approval, then the active flag.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Role.NeedsApproval() && !user.IsApproved {
		if user.Role == models.RoleResident {
			return nil, Errorf(ErrPendingApproval, "your account is pending warden approval")
		}
		return nil, Errorf(ErrPendingApproval, "your account is pending admin approval")
	}
	if !user.IsActive {
		return nil, Errorf(ErrForbidden, "account is deactivated")
	}
	return &user, nil
}

// Actor loads the current state of an authenticated user.
func (s *AuthService) Actor(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// EnsureAdmin creates the admin account if no user has that email yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	admin := models.User{
		Name:       name,
		Email:      strings.ToLower(email),
		Password:   string(hashed),
		Role:       models.RoleAdmin,
		IsApproved: true,
		IsActive:   true,
	}
	err = s.DB.WithContext(ctx).Where(models.User{Email: admin.Email}).
		Attrs(admin).FirstOrCreate(&admin).Error
	if err != nil {
		return nil, err
	}
	return &admin, nil
}
