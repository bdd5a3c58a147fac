package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/hostel-meals/models"
	"github.com/yeremiapane/hostel-meals/utils"
	"gorm.io/gorm"
)

// UserService covers the approval and activation workflow run by wardens
// and admins.
type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// SetApproved approves or revokes an account. Wardens may approve residents
// under their care; admins may approve anyone who needs approval.
func (s *UserService) SetApproved(ctx context.Context, actor *Actor, userID uint, approved bool) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound(err, "user")
	}
	if !user.Role.NeedsApproval() {
		return nil, Errorf(ErrValidation, fmt.Sprintf("%s accounts do not need approval", user.Role))
	}

	switch {
	case actor != nil && actor.Role == models.RoleWarden:
		if err := Authorize(actor, CapResidentApprove); err != nil {
			return nil, err
		}
		if user.Role != models.RoleResident || user.WardenID == nil || *user.WardenID != actor.ID {
			return nil, Errorf(ErrUnauthorized, "resident is not under your care")
		}
	default:
		capability := CapWardenApprove
		if user.Role == models.RoleResident {
			capability = CapUserManage
		}
		if err := Authorize(actor, capability); err != nil {
			return nil, err
		}
	}

	if err := s.DB.WithContext(ctx).Model(&user).Update("is_approved", approved).Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"approved": approved,
		"by":       actor.ID,
	}).Info("User approval changed")
	return &user, nil
}

// SetActive is the admin's activation toggle.
func (s *UserService) SetActive(ctx context.Context, actor *Actor, userID uint, active bool) (*models.User, error) {
	if err := Authorize(actor, CapUserManage); err != nil {
		return nil, err
	}
	if actor.ID == userID && !active {
		return nil, Errorf(ErrValidation, "you cannot deactivate your own account")
	}
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound(err, "user")
	}
	if err := s.DB.WithContext(ctx).Model(&user).Update("is_active", active).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns users, optionally filtered by role and approval state.
func (s *UserService) List(ctx context.Context, role models.Role, pendingOnly bool) ([]models.User, error) {
	db := s.DB.WithContext(ctx).Model(&models.User{})
	if role != "" {
		db = db.Where("role = ?", role)
	}
	if pendingOnly {
		db = db.Where("is_approved = ?", false)
	}
	var users []models.User
	err := db.Order("id").Find(&users).Error
	return users, err
}

// Residents lists the residents under a warden's care.
func (s *UserService) Residents(ctx context.Context, wardenID uint) ([]models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).
		Where("role = ? AND warden_id = ?", models.RoleResident, wardenID).
		Order("name").Find(&users).Error
	return users, err
}

// DeliveryAgents lists active agents available for assignment.
func (s *UserService) DeliveryAgents(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).
		Where("role = ? AND is_active = ?", models.RoleDeliveryAgent, true).
		Order("name").Find(&users).Error
	return users, err
}
