package application

import (
	"cmp"
	"context"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password accepted for new credentials.
const MinPasswordLength = 8

// UserRepository loads and replaces the whole user collection, hashes included.
type UserRepository interface {
	LoadUsers(ctx context.Context) ([]UserCredentials, error)
	SaveUsers(ctx context.Context, users []UserCredentials) error
}

// UserService orchestrates validation, authorization, and persistence for users.
type UserService struct {
	users       UserRepository
	hasher      PasswordHasher
	idGenerator func() string

	mu sync.Mutex
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, hasher PasswordHasher, idGenerator func() string) *UserService {
	if hasher == nil {
		hasher = NewArgon2idHasher(DefaultArgon2idParams)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &UserService{users: users, hasher: hasher, idGenerator: idGenerator}
}

// CreateUser validates input and persists a new user for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if !params.Principal.Role.CanManageUsers() {
		return User{}, ErrUnauthorized
	}
	return s.create(ctx, params.Input)
}

// Bootstrap creates the first administrator when the user collection is empty.
// It reports false without error when users already exist.
func (s *UserService) Bootstrap(ctx context.Context, name, email, password string) (User, bool, error) {
	if s == nil {
		return User{}, false, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, false, fmt.Errorf("user repository not configured")
	}

	existing, err := s.users.LoadUsers(ctx)
	if err != nil {
		return User{}, false, fmt.Errorf("load users: %w", err)
	}
	if len(existing) > 0 {
		return User{}, false, nil
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrador"
	}

	user, err := s.create(ctx, UserInput{Name: name, Email: email, Password: password, Role: RoleAdministrator})
	if err != nil {
		return User{}, false, err
	}
	return user, true, nil
}

// Import stores a user without a principal. It backs operator tooling that talks to the store directly.
func (s *UserService) Import(ctx context.Context, input UserInput) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	return s.create(ctx, input)
}

func (s *UserService) create(ctx context.Context, input UserInput) (User, error) {
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	normalized := normalizeUserInput(input)
	vErr := validateUserInput(normalized)
	vErr.merge(validatePassword(input.Password))
	if vErr.HasErrors() {
		return User{}, vErr
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:    s.idGenerator(),
		Name:  normalized.Name,
		Email: normalized.Email,
		Role:  normalized.Role,
	}
	if user.ID == "" {
		return User{}, fmt.Errorf("id generator returned an empty id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return User{}, fmt.Errorf("load users: %w", err)
	}
	if emailTaken(users, user.Email, "") {
		return User{}, ErrAlreadyExists
	}

	users = append(slices.Clone(users), UserCredentials{User: user, PasswordHash: hash})
	if err := s.users.SaveUsers(ctx, users); err != nil {
		return User{}, fmt.Errorf("save users: %w", err)
	}
	return user, nil
}

// UpdateUser validates input and updates an existing user for administrators.
// An empty password keeps the stored hash.
func (s *UserService) UpdateUser(ctx context.Context, params UpdateUserParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if !params.Principal.Role.CanManageUsers() {
		return User{}, ErrUnauthorized
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	normalized := normalizeUserInput(params.Input)
	vErr := validateUserInput(normalized)
	if params.Input.Password != "" {
		vErr.merge(validatePassword(params.Input.Password))
	}
	if vErr.HasErrors() {
		return User{}, vErr
	}

	var hash string
	if params.Input.Password != "" {
		var err error
		if hash, err = s.hasher.Hash(params.Input.Password); err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return User{}, fmt.Errorf("load users: %w", err)
	}

	index := slices.IndexFunc(users, func(u UserCredentials) bool { return u.User.ID == params.UserID })
	if index < 0 {
		return User{}, ErrNotFound
	}
	if emailTaken(users, normalized.Email, params.UserID) {
		return User{}, ErrAlreadyExists
	}
	if users[index].User.Role == RoleAdministrator && normalized.Role != RoleAdministrator && countAdministrators(users) == 1 {
		vErr := &ValidationError{}
		vErr.add("role", "the last administrator cannot be demoted")
		return User{}, vErr
	}

	updated := slices.Clone(users)
	entry := updated[index]
	entry.User.Name = normalized.Name
	entry.User.Email = normalized.Email
	entry.User.Role = normalized.Role
	if hash != "" {
		entry.PasswordHash = hash
	}
	updated[index] = entry

	if err := s.users.SaveUsers(ctx, updated); err != nil {
		return User{}, fmt.Errorf("save users: %w", err)
	}
	return entry.User, nil
}

// DeleteUser removes a user when requested by an administrator. Administrators cannot
// delete themselves, and the last administrator cannot be deleted.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if !principal.Role.CanManageUsers() {
		return ErrUnauthorized
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}
	if principal.UserID == userID {
		vErr := &ValidationError{}
		vErr.add("id", "you cannot delete your own account")
		return vErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}

	index := slices.IndexFunc(users, func(u UserCredentials) bool { return u.User.ID == userID })
	if index < 0 {
		return ErrNotFound
	}
	if users[index].User.Role == RoleAdministrator && countAdministrators(users) == 1 {
		vErr := &ValidationError{}
		vErr.add("id", "the last administrator cannot be deleted")
		return vErr
	}

	remaining := slices.Delete(slices.Clone(users), index, index+1)
	if err := s.users.SaveUsers(ctx, remaining); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}

// ListUsers returns all users for administrators, sorted by email.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.Role.CanManageUsers() {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	out := make([]User, len(users))
	for i, u := range users {
		out[i] = u.User
	}

	slices.SortFunc(out, func(a, b User) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email)),
			strings.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

func emailTaken(users []UserCredentials, email, exceptID string) bool {
	return slices.ContainsFunc(users, func(u UserCredentials) bool {
		return u.User.ID != exceptID && strings.EqualFold(u.User.Email, email)
	})
}

func countAdministrators(users []UserCredentials) int {
	n := 0
	for _, u := range users {
		if u.User.Role == RoleAdministrator {
			n++
		}
	}
	return n
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		Name:  strings.TrimSpace(input.Name),
		Email: strings.ToLower(strings.TrimSpace(input.Email)),
		Role:  Role(strings.ToLower(strings.TrimSpace(string(input.Role)))),
	}
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}

	if !input.Role.Valid() {
		vErr.add("role", "role must be one of admin, sec or common")
	}

	return vErr
}

func validatePassword(password string) *ValidationError {
	vErr := &ValidationError{}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		vErr.add("password", fmt.Sprintf("password must have at least %d characters", MinPasswordLength))
	}
	return vErr
}
