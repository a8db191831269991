package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	domain "user-service/internal/domain/user"
	pkgerrors "user-service/pkg/errors"
	"user-service/pkg/logger"
	"user-service/pkg/security"
)

// Messages returned to callers.
const (
	MsgAllFieldsRequired = "All fields are required"
	MsgUsernameTooLong   = "Username must be at most 50 characters"
	MsgPasswordTooLong   = "Password must be at most 72 bytes"
	MsgUserIDRequired    = "User ID required"
	MsgDuplicateUsername = "Duplicate username"
	MsgUserNotFound      = "User not found"
	MsgNoUsersFound      = "No users found"
	MsgUserHasNotes      = "User has assigned notes"
	MsgInvalidUserData   = "Invalid user data received"
	MsgUserBusy          = "User is being modified, try again"
)

// Usecase is the user-management pipeline shared by the REST and gRPC
// surfaces.
type Usecase interface {
	ListUsers(ctx context.Context) (*ListUsersResponse, error)
	CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error)
	UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error)
	DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error)
}

// Repository defines the interface for user data access operations.
// Lookups return (nil, nil) when nothing matches.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (string, error)          // Create a user, returning the store-assigned ID
	GetByID(ctx context.Context, id string) (*domain.User, error)        // Retrieve user by ID
	GetByUsername(ctx context.Context, name string) (*domain.User, error) // Retrieve user by username
	Update(ctx context.Context, u *domain.User) error                    // Replace an existing user
	Delete(ctx context.Context, id string) error                         // Delete user by ID
	List(ctx context.Context) ([]domain.User, error)                     // List all users without password hashes
}

// NoteRepository answers whether any note references a user.
type NoteRepository interface {
	ExistsForUser(ctx context.Context, userID string) (bool, error)
}

// Locker guards a key for the duration of a mutation. ok is false when another
// holder owns the key.
type Locker interface {
	TryLock(ctx context.Context, key string) (unlock func(), ok bool)
}

// UserUsecase implements the business logic for user management operations.
type UserUsecase struct {
	repo     Repository
	notes    NoteRepository
	hasher   security.PasswordHasher
	locker   Locker
	log      *zap.Logger
	validate *validator.Validate
	group    singleflight.Group
}

var _ Usecase = (*UserUsecase)(nil)

// New creates a new UserUsecase. If locker is nil, mutations run unlocked and
// uniqueness rests on the store's unique index alone.
func New(r Repository, n NoteRepository, h security.PasswordHasher, l Locker, log *zap.Logger) *UserUsecase {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return security.ValidateUsername(fl.Field().String()) == nil
	})

	return &UserUsecase{repo: r, notes: n, hasher: h, locker: l, log: log, validate: v}
}

// formatValidationError collapses validator errors into the single message
// callers receive. The failing fields are kept on the error for logging.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return pkgerrors.NewValidationError("", MsgAllFieldsRequired)
	}

	fields := make([]string, 0, len(validationErrors))
	message := MsgAllFieldsRequired
	for _, e := range validationErrors {
		fields = append(fields, e.Field())
		if e.Tag() == "username" && errors.Is(security.ValidateUsername(e.Value().(string)), security.ErrUsernameTooLong) {
			message = MsgUsernameTooLong
		}
	}
	return pkgerrors.NewValidationError(strings.Join(fields, ","), message)
}

func usernameLockKey(username string) string { return "user:username:" + username }

func idLockKey(id string) string { return "user:id:" + id }

// hashPassword reports an over-long password as invalid input rather than a
// server fault.
func (uc *UserUsecase) hashPassword(log *zap.Logger, password string) (string, error) {
	hash, err := uc.hasher.Hash(password)
	if errors.Is(err, security.ErrPasswordTooLong) {
		log.Warn("password too long", zap.Int("bytes", len(password)))
		return "", pkgerrors.NewValidationError("Password", MsgPasswordTooLong)
	}
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", pkgerrors.NewInternalError("failed to hash password", err)
	}
	return hash, nil
}

func (uc *UserUsecase) lock(ctx context.Context, key string) (func(), bool) {
	if uc.locker == nil {
		return func() {}, true
	}
	return uc.locker.TryLock(ctx, key)
}

// ListUsers returns every user without password hashes. An empty store is
// reported as an error rather than an empty list.
func (uc *UserUsecase) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Debug("listing users")

	// Concurrent identical reads share one store round trip
	result, err, shared := uc.group.Do("list", func() (any, error) {
		return uc.repo.List(context.WithoutCancel(ctx))
	})
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return nil, err
	}

	domainUsers := result.([]domain.User)
	if len(domainUsers) == 0 {
		log.Info("no users found")
		return nil, pkgerrors.NewNotFoundError("user", MsgNoUsersFound)
	}

	users := make([]User, len(domainUsers))
	for i, du := range domainUsers {
		s := du.Summary()
		users[i] = User{
			ID:       s.ID,
			Username: s.Username,
			Roles:    s.Roles,
			Active:   s.Active,
		}
	}

	log.Debug("listed users", zap.Int("count", len(users)), zap.Bool("shared", shared))
	return &ListUsersResponse{Users: users}, nil
}

// CreateUser validates the request, rejects duplicate usernames, hashes the
// password and stores the new user as active.
func (uc *UserUsecase) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("creating user", zap.String("username", in.Username), zap.Strings("roles", in.Roles))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	unlock, ok := uc.lock(ctx, usernameLockKey(in.Username))
	if !ok {
		log.Warn("username locked by another request", zap.String("username", in.Username))
		return nil, pkgerrors.NewAlreadyExistsError("user", MsgUserBusy)
	}
	defer unlock()

	existing, err := uc.repo.GetByUsername(ctx, in.Username)
	if err != nil {
		log.Error("failed to check existing username", zap.String("username", in.Username), zap.Error(err))
		return nil, fmt.Errorf("failed to validate username uniqueness: %w", err)
	}
	if existing != nil {
		log.Warn("username already exists", zap.String("username", in.Username))
		return nil, pkgerrors.NewAlreadyExistsError("user", MsgDuplicateUsername)
	}

	hash, err := uc.hashPassword(log, in.Password)
	if err != nil {
		return nil, err
	}

	id, err := uc.repo.Create(ctx, &domain.User{
		Username:     in.Username,
		PasswordHash: hash,
		Roles:        in.Roles,
		Active:       true,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			log.Warn("username taken by concurrent create", zap.String("username", in.Username))
			return nil, pkgerrors.NewAlreadyExistsError("user", MsgDuplicateUsername)
		}
		log.Error("failed to create user", zap.String("username", in.Username), zap.Error(err))
		return nil, pkgerrors.NewValidationError("", MsgInvalidUserData)
	}

	log.Info("user created", zap.String("id", id), zap.String("username", in.Username))
	return &CreateUserResponse{
		ID:       id,
		Username: in.Username,
		Message:  fmt.Sprintf("New user %s created", in.Username),
	}, nil
}

// UpdateUser replaces username, roles and active flag of an existing user and
// re-hashes the password only when a new one is supplied.
func (uc *UserUsecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("updating user", zap.String("id", in.ID), zap.String("username", in.Username))

	if err := uc.validate.Struct(in); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, formatValidationError(err)
	}

	unlock, ok := uc.lock(ctx, usernameLockKey(in.Username))
	if !ok {
		log.Warn("username locked by another request", zap.String("username", in.Username))
		return nil, pkgerrors.NewAlreadyExistsError("user", MsgUserBusy)
	}
	defer unlock()

	u, err := uc.repo.GetByID(ctx, in.ID)
	if err != nil {
		log.Error("failed to get user", zap.String("id", in.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		log.Warn("user not found", zap.String("id", in.ID))
		return nil, pkgerrors.NewNotFoundError("user", MsgUserNotFound)
	}

	duplicate, err := uc.repo.GetByUsername(ctx, in.Username)
	if err != nil {
		log.Error("failed to check existing username", zap.String("username", in.Username), zap.Error(err))
		return nil, fmt.Errorf("failed to validate username uniqueness: %w", err)
	}
	if duplicate != nil && duplicate.ID != u.ID {
		log.Warn("username already exists", zap.String("username", in.Username), zap.String("existing_id", duplicate.ID))
		return nil, pkgerrors.NewAlreadyExistsError("user", MsgDuplicateUsername)
	}

	u.Username = in.Username
	u.Roles = in.Roles
	u.Active = *in.Active

	if in.Password != "" {
		hash, err := uc.hashPassword(log, in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	if err := uc.repo.Update(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			log.Warn("username taken by concurrent write", zap.String("username", in.Username))
			return nil, pkgerrors.NewAlreadyExistsError("user", MsgDuplicateUsername)
		}
		if errors.Is(err, domain.ErrUserNotFound) {
			log.Warn("user deleted during update", zap.String("id", in.ID))
			return nil, pkgerrors.NewNotFoundError("user", MsgUserNotFound)
		}
		log.Error("failed to update user", zap.String("id", in.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	log.Info("user updated", zap.String("id", u.ID), zap.Bool("password_changed", in.Password != ""))
	return &UpdateUserResponse{
		ID:       u.ID,
		Username: u.Username,
		Message:  fmt.Sprintf("Updated user %s", u.Username),
	}, nil
}

// DeleteUser removes a user unless a note still references it.
func (uc *UserUsecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)
	id := strings.TrimSpace(in.ID)
	log.Info("deleting user", zap.String("id", id))

	if id == "" {
		log.Warn("delete user validation failed", zap.String("reason", "missing id"))
		return nil, pkgerrors.NewValidationError("id", MsgUserIDRequired)
	}

	unlock, ok := uc.lock(ctx, idLockKey(id))
	if !ok {
		log.Warn("user locked by another request", zap.String("id", id))
		return nil, pkgerrors.NewAlreadyExistsError("user", MsgUserBusy)
	}
	defer unlock()

	hasNotes, err := uc.notes.ExistsForUser(ctx, id)
	if err != nil {
		log.Error("failed to check notes", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to check assigned notes: %w", err)
	}
	if hasNotes {
		log.Warn("user has assigned notes", zap.String("id", id))
		return nil, pkgerrors.NewValidationError("id", MsgUserHasNotes)
	}

	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		log.Error("failed to get user", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		log.Warn("user not found", zap.String("id", id))
		return nil, pkgerrors.NewNotFoundError("user", MsgUserNotFound)
	}

	username := u.Username
	if err := uc.repo.Delete(ctx, u.ID); err != nil {
		log.Error("failed to delete user", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}

	log.Info("user deleted", zap.String("id", id), zap.String("username", username))
	return &DeleteUserResponse{
		ID:       u.ID,
		Username: username,
		Message:  fmt.Sprintf("Username %s with ID %s deleted", username, u.ID),
	}, nil
}
