package service

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"coffeepos/internal/models"
	"coffeepos/internal/store"
	"coffeepos/internal/util"
)

// UserService manages staff accounts
type UserService struct {
	store           *store.Store
	logger          *zap.Logger
	defaultPassword string
}

// NewUserService creates a new user service
func NewUserService(store *store.Store, defaultPassword string) *UserService {
	return &UserService{
		store:           store,
		logger:          util.GetLogger(),
		defaultPassword: defaultPassword,
	}
}

// UserRequest is the payload for user create/update
type UserRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	Password string `json:"password"`
}

func (req *UserRequest) validate(forCreate bool) map[string]string {
	fields := make(map[string]string)
	if req.Username == "" {
		fields["username"] = "username is required"
	}
	if req.FullName == "" {
		fields["fullName"] = "full name is required"
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		fields["email"] = "a valid email is required"
	}
	if !models.Role(req.Role).Valid() {
		fields["role"] = "role must be admin, manager or cashier"
	}
	if !models.UserStatus(req.Status).Valid() {
		fields["status"] = "status must be active or inactive"
	}
	if !forCreate && req.Password != "" && len(req.Password) < 6 {
		fields["password"] = "password must be at least 6 characters"
	}
	if len(fields) > 0 {
		return fields
	}
	return nil
}

// ListUsers returns all staff accounts
func (us *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return us.store.GetUsers(ctx)
}

// CreateUser creates a staff account with the default password hashed
func (us *UserService) CreateUser(ctx context.Context, req *UserRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.CreateUser")
	defer span.End()

	if fields := req.validate(true); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	user := &models.User{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    sql.NullString{String: req.Phone, Valid: req.Phone != ""},
		Role:     models.Role(req.Role),
		Status:   models.UserStatus(req.Status),
	}
	if err := user.SetPassword(us.defaultPassword); err != nil {
		return nil, err
	}

	if err := us.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	us.logger.Info("User created",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))
	return user, nil
}

// UpdateUser updates a staff account; the password changes only when one is
// submitted
func (us *UserService) UpdateUser(ctx context.Context, id int64, req *UserRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.UpdateUser")
	defer span.End()

	if fields := req.validate(false); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	user, err := us.store.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Username = req.Username
	user.FullName = req.FullName
	user.Email = req.Email
	user.Phone = sql.NullString{String: req.Phone, Valid: req.Phone != ""}
	user.Role = models.Role(req.Role)
	user.Status = models.UserStatus(req.Status)
	if req.Password != "" {
		if err := user.SetPassword(req.Password); err != nil {
			return nil, err
		}
	}

	if err := us.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	us.logger.Info("User updated", zap.Int64("user_id", id))
	return user, nil
}

// DeleteUser removes a staff account
func (us *UserService) DeleteUser(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "UserService.DeleteUser")
	defer span.End()

	if err := us.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	us.logger.Info("User deleted", zap.Int64("user_id", id))
	return nil
}
