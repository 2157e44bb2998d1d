package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ugcmarket/ugc-backend/internal/models"
	"github.com/ugcmarket/ugc-backend/internal/pkg/apperror"
	"github.com/ugcmarket/ugc-backend/internal/repository"
)

// mockAuthRepository реализует AuthRepository для тестов.
type mockAuthRepository struct {
	usersByEmail    map[string]*models.User
	usersByID       map[uuid.UUID]*models.User
	brandProfiles   map[uuid.UUID]*models.BrandProfile
	creatorProfiles map[uuid.UUID]*models.CreatorProfile
	sessions        map[string]*models.Session
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByEmail:    make(map[string]*models.User),
		usersByID:       make(map[uuid.UUID]*models.User),
		brandProfiles:   make(map[uuid.UUID]*models.BrandProfile),
		creatorProfiles: make(map[uuid.UUID]*models.CreatorProfile),
		sessions:        make(map[string]*models.Session),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	if user, ok := m.usersByID[id]; ok {
		now := time.Now()
		user.LastLoginAt = &now
	}
	return nil
}

func (m *mockAuthRepository) GetBrandProfile(ctx context.Context, userID uuid.UUID) (*models.BrandProfile, error) {
	if profile, ok := m.brandProfiles[userID]; ok {
		return profile, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) UpdateBrandProfile(ctx context.Context, profile *models.BrandProfile) error {
	m.brandProfiles[profile.UserID] = profile
	return nil
}

func (m *mockAuthRepository) GetCreatorProfile(ctx context.Context, userID uuid.UUID) (*models.CreatorProfile, error) {
	if profile, ok := m.creatorProfiles[userID]; ok {
		return profile, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) UpdateCreatorProfile(ctx context.Context, profile *models.CreatorProfile) error {
	m.creatorProfiles[profile.UserID] = profile
	return nil
}

func (m *mockAuthRepository) CreateSession(ctx context.Context, session *models.Session) error {
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	m.sessions[session.RefreshToken] = session
	return nil
}

func (m *mockAuthRepository) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	if session, ok := m.sessions[token]; ok {
		return session, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	for token, s := range m.sessions {
		if s.ID == id {
			delete(m.sessions, token)
		}
	}
	return nil
}

func newTestTokenManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, newTestTokenManager())

	ctx := context.Background()
	res, err := service.Register(ctx, RegisterInput{
		Email:    "Creator@Example.com",
		Password: "Password1",
		Role:     models.RoleCreator,
	}, SessionMeta{IP: "127.0.0.1"})
	if err != nil {
		t.Fatalf("register вернул ошибку: %v", err)
	}

	if res.User.ID == uuid.Nil {
		t.Fatal("user ID должен быть установлен")
	}
	if res.User.Email != "creator@example.com" {
		t.Errorf("email должен нормализоваться, получили %s", res.User.Email)
	}
	if res.User.Username == "" {
		t.Error("username должен выводиться из email")
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("ожидалась одна сессия, получили %d", len(repo.sessions))
	}

	loginRes, err := service.Login(ctx, LoginInput{
		Email:    "creator@example.com",
		Password: "Password1",
	}, SessionMeta{})
	if err != nil {
		t.Fatalf("login вернул ошибку: %v", err)
	}
	if loginRes.TokenPair.AccessToken == "" {
		t.Fatal("ожидался access токен")
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, newTestTokenManager())

	ctx := context.Background()
	in := RegisterInput{Email: "brand@example.com", Password: "Password1", Role: models.RoleBrand}
	if _, err := service.Register(ctx, in, SessionMeta{}); err != nil {
		t.Fatalf("первая регистрация вернула ошибку: %v", err)
	}

	_, err := service.Register(ctx, in, SessionMeta{})
	if !apperror.IsConflict(err) {
		t.Fatalf("повторная регистрация должна вернуть конфликт, получили %v", err)
	}
}

func TestAuthService_RegisterRejectsAdminRole(t *testing.T) {
	service := NewAuthService(newMockAuthRepository(), newTestTokenManager())

	_, err := service.Register(context.Background(), RegisterInput{
		Email:    "admin@example.com",
		Password: "Password1",
		Role:     models.RoleAdmin,
	}, SessionMeta{})
	if err == nil {
		t.Fatal("регистрация с ролью ADMIN должна быть отклонена")
	}
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, newTestTokenManager())

	ctx := context.Background()
	if _, err := service.Register(ctx, RegisterInput{
		Email:    "user@example.com",
		Password: "Password1",
		Role:     models.RoleCreator,
	}, SessionMeta{}); err != nil {
		t.Fatalf("register вернул ошибку: %v", err)
	}

	_, err := service.Login(ctx, LoginInput{Email: "user@example.com", Password: "Wrong1234"}, SessionMeta{})
	if err != apperror.ErrInvalidCredentials {
		t.Fatalf("ожидался ErrInvalidCredentials, получили %v", err)
	}
}

func TestAuthService_LoginInactiveUser(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, newTestTokenManager())

	hash, _ := bcrypt.GenerateFromPassword([]byte("Password1"), bcrypt.DefaultCost)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "blocked@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleCreator,
		IsActive:     false,
	}
	repo.usersByEmail[user.Email] = user
	repo.usersByID[user.ID] = user

	_, err := service.Login(context.Background(), LoginInput{
		Email:    "blocked@example.com",
		Password: "Password1",
	}, SessionMeta{})
	if !apperror.IsForbidden(err) {
		t.Fatalf("вход заблокированного пользователя должен быть запрещён, получили %v", err)
	}
}

func TestAuthService_RefreshRotatesToken(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, newTestTokenManager())

	ctx := context.Background()
	res, err := service.Register(ctx, RegisterInput{
		Email:    "user@example.com",
		Password: "Password1",
		Role:     models.RoleCreator,
	}, SessionMeta{})
	if err != nil {
		t.Fatalf("register вернул ошибку: %v", err)
	}

	oldToken := res.TokenPair.RefreshToken
	newPair, err := service.Refresh(ctx, oldToken, SessionMeta{})
	if err != nil {
		t.Fatalf("refresh вернул ошибку: %v", err)
	}
	if newPair.RefreshToken == oldToken {
		t.Fatal("ожидался новый refresh токен")
	}
	if _, ok := repo.sessions[oldToken]; ok {
		t.Fatal("старая сессия должна быть удалена")
	}

	// Старый токен после ротации больше не работает.
	if _, err := service.Refresh(ctx, oldToken, SessionMeta{}); err == nil {
		t.Fatal("повторный refresh по ротированному токену должен быть отклонён")
	}
}

func TestAuthService_LogoutIdempotent(t *testing.T) {
	repo := newMockAuthRepository()
	service := NewAuthService(repo, newTestTokenManager())

	ctx := context.Background()
	res, err := service.Register(ctx, RegisterInput{
		Email:    "user@example.com",
		Password: "Password1",
		Role:     models.RoleBrand,
	}, SessionMeta{})
	if err != nil {
		t.Fatalf("register вернул ошибку: %v", err)
	}

	if err := service.Logout(ctx, res.TokenPair.RefreshToken); err != nil {
		t.Fatalf("logout вернул ошибку: %v", err)
	}
	if len(repo.sessions) != 0 {
		t.Fatal("сессия должна быть удалена")
	}
	if err := service.Logout(ctx, res.TokenPair.RefreshToken); err != nil {
		t.Fatalf("повторный logout должен быть идемпотентен: %v", err)
	}
}
