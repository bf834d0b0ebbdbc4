package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"carepath-portal/internal/domain"
	"carepath-portal/internal/insights"
	"carepath-portal/internal/notify"
	"carepath-portal/internal/repository"

	"go.uber.org/zap"
)

// UserService admin user management plus profile updates.
type UserService interface {
	ListUsers(ctx context.Context, actor domain.Actor, req ListUsersRequest) ([]*UserDTO, error)
	GetUser(ctx context.Context, actor domain.Actor, userID string) (*UserDTO, error)
	// ApproveUser moves the user to APPROVED, clones their checklist and
	// sends the approval notice.
	ApproveUser(ctx context.Context, actor domain.Actor, userID string) (*UserDTO, error)
	RejectUser(ctx context.Context, actor domain.Actor, userID string) (*UserDTO, error)
	DeleteUser(ctx context.Context, actor domain.Actor, userID string) error
	// UpdateProfile lets a user edit their own name/phone; admins may also
	// change role.
	UpdateProfile(ctx context.Context, actor domain.Actor, req UpdateProfileRequest) (*UserDTO, error)
}

type userService struct {
	usersRepo      repository.UsersRepository
	checklistsRepo repository.ChecklistsRepository
	checklists     ChecklistService
	notifier       notify.Notifier
	logger         *zap.Logger
}

// NewUserService creates a UserService instance.
func NewUserService(
	usersRepo repository.UsersRepository,
	checklistsRepo repository.ChecklistsRepository,
	checklists ChecklistService,
	notifier notify.Notifier,
	logger *zap.Logger,
) UserService {
	return &userService{
		usersRepo:      usersRepo,
		checklistsRepo: checklistsRepo,
		checklists:     checklists,
		notifier:       notifier,
		logger:         logger,
	}
}

// ============================================
// Request/Response DTOs
// ============================================

// ListUsersRequest admin user listing filters.
type ListUsersRequest struct {
	Role   string
	Status string
	Search string
}

// UpdateProfileRequest profile edit. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	UserID    string // target; empty means the actor themselves
	FirstName *string
	LastName  *string
	Phone     *string
	Role      *string // admin only
}

// UserDTO wire shape of a user. Progress is attached when the user has a
// checklist.
type UserDTO struct {
	UserID        string             `json:"userId"`
	Email         string             `json:"email"`
	FirstName     string             `json:"firstName"`
	LastName      string             `json:"lastName"`
	Role          string             `json:"role"`
	Status        string             `json:"status"`
	EmailVerified bool               `json:"emailVerified"`
	Phone         string             `json:"phone,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	Progress      *insights.Progress `json:"progress,omitempty"`
}

func toUserDTO(u *domain.User) *UserDTO {
	return &UserDTO{
		UserID:        u.UserID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Role:          u.Role,
		Status:        u.Status,
		EmailVerified: u.EmailVerified,
		Phone:         u.Phone.String,
		CreatedAt:     u.CreatedAt,
	}
}

// ============================================
// Operations
// ============================================

func (s *userService) ListUsers(ctx context.Context, actor domain.Actor, req ListUsersRequest) ([]*UserDTO, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	users, err := s.usersRepo.ListUsers(ctx, repository.UserFilters{
		Role:   req.Role,
		Status: req.Status,
		Search: req.Search,
	})
	if err != nil {
		return nil, err
	}

	out := make([]*UserDTO, 0, len(users))
	for _, u := range users {
		dto := toUserDTO(u)
		if checklist, err := s.checklistsRepo.GetChecklistByUserID(ctx, u.UserID); err == nil {
			p := insights.CalculateProgress(checklist)
			dto.Progress = &p
		}
		out = append(out, dto)
	}
	return out, nil
}

func (s *userService) GetUser(ctx context.Context, actor domain.Actor, userID string) (*UserDTO, error) {
	if !actor.IsAdmin() && actor.UserID != userID {
		return nil, ErrForbidden
	}
	user, err := s.usersRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	dto := toUserDTO(user)
	if checklist, err := s.checklistsRepo.GetChecklistByUserID(ctx, userID); err == nil {
		p := insights.CalculateProgress(checklist)
		dto.Progress = &p
	}
	return dto, nil
}

func (s *userService) ApproveUser(ctx context.Context, actor domain.Actor, userID string) (*UserDTO, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	user, err := s.usersRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.usersRepo.UpdateUserStatus(ctx, userID, domain.UserStatusApproved); err != nil {
		return nil, err
	}
	user.Status = domain.UserStatusApproved

	if _, err := s.checklists.EnsureChecklist(ctx, user); err != nil {
		// The approval stands; the checklist can be created by a later sync
		// or re-approval.
		s.logger.Error("Failed to clone checklist on approval",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	s.logger.Info("User approved",
		zap.String("user_id", userID),
		zap.String("approved_by", actor.UserID),
	)
	s.notifier.SendApproval(ctx, user)
	return toUserDTO(user), nil
}

func (s *userService) RejectUser(ctx context.Context, actor domain.Actor, userID string) (*UserDTO, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	user, err := s.usersRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.usersRepo.UpdateUserStatus(ctx, userID, domain.UserStatusRejected); err != nil {
		return nil, err
	}
	user.Status = domain.UserStatusRejected

	s.logger.Info("User rejected",
		zap.String("user_id", userID),
		zap.String("rejected_by", actor.UserID),
	)
	return toUserDTO(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, actor domain.Actor, userID string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if actor.UserID == userID {
		return errors.New("cannot delete yourself")
	}
	// Checklist and tokens cascade in the schema.
	if err := s.usersRepo.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	s.logger.Info("User deleted",
		zap.String("user_id", userID),
		zap.String("deleted_by", actor.UserID),
	)
	return nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor domain.Actor, req UpdateProfileRequest) (*UserDTO, error) {
	targetID := req.UserID
	if targetID == "" {
		targetID = actor.UserID
	}
	if targetID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	user, err := s.usersRepo.GetUser(ctx, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = sql.NullString{String: *req.Phone, Valid: *req.Phone != ""}
	}
	if req.Role != nil {
		if !actor.IsAdmin() {
			return nil, ErrForbidden
		}
		user.Role = *req.Role
	}

	if err := s.usersRepo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return toUserDTO(user), nil
}
