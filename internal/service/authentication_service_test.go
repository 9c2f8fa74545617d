package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"realtime-session-server/config"
	"realtime-session-server/internal/model"
	"realtime-session-server/internal/security"
	"realtime-session-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// ===== MOCKS =====

// MockUserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByUUID(ctx context.Context, uuid string) (*model.User, error) {
	args := m.Called(ctx, uuid)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*model.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdateStatus(ctx context.Context, uuid string, status string) error {
	args := m.Called(ctx, uuid, status)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateImageURL(ctx context.Context, uuid string, imageURL string) error {
	args := m.Called(ctx, uuid, imageURL)
	return args.Error(0)
}

func (m *MockUserRepository) Exists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockJWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateAccessRefreshTokens(user *model.User) (*model.TokensPair, *model.RefreshToken, error) {
	args := m.Called(user)

	var tokens *model.TokensPair
	if t := args.Get(0); t != nil {
		tokens = t.(*model.TokensPair)
	}

	var refresh *model.RefreshToken
	if r := args.Get(1); r != nil {
		refresh = r.(*model.RefreshToken)
	}

	return tokens, refresh, args.Error(2)
}

func (m *MockJWTService) ValidateJWT(tokenString string, secret []byte) (*security.Claims, error) {
	args := m.Called(tokenString, secret)
	if claims, ok := args.Get(0).(*security.Claims); ok {
		return claims, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockJWTRepo
type MockJWTRepo struct {
	mock.Mock
}

func (m *MockJWTRepo) SaveRefreshToken(ctx context.Context, refreshToken *model.RefreshToken) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockJWTRepo) ClaimRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	args := m.Called(ctx, token)
	if rt, ok := args.Get(0).(*model.RefreshToken); ok {
		return rt, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockJWTRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockJWTRepo) RevokeAllByUser(ctx context.Context, userUUID string) error {
	args := m.Called(ctx, userUUID)
	return args.Error(0)
}

func (m *MockJWTRepo) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	args := m.Called(ctx, token)
	if rt, ok := args.Get(0).(*model.RefreshToken); ok {
		return rt, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockOtpRepo
type MockOtpRepo struct {
	mock.Mock
}

func (m *MockOtpRepo) SaveCode(ctx context.Context, otp *model.OtpVerification) error {
	args := m.Called(ctx, otp)
	return args.Error(0)
}

func (m *MockOtpRepo) Confirm(ctx context.Context, email string, code string) (bool, error) {
	args := m.Called(ctx, email, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockOtpRepo) IsEmailVerified(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockBroadcast
type MockBroadcast struct {
	mock.Mock
}

func (m *MockBroadcast) PublishStatusChanged(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// FakeJWTRepo : refresh-токены в памяти с той же семантикой claim,
// что и у SQL-хранилища: пригодный токен отзывается атомарно и ровно один раз
type FakeJWTRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
}

func NewFakeJWTRepo() *FakeJWTRepo {
	return &FakeJWTRepo{tokens: make(map[string]*model.RefreshToken)}
}

func (f *FakeJWTRepo) SaveRefreshToken(ctx context.Context, refreshToken *model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[refreshToken.Token] = refreshToken
	return nil
}

func (f *FakeJWTRepo) ClaimRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.tokens[token]
	if !ok || stored.Revoked || time.Now().After(stored.ExpireAt) {
		return nil, model.ErrInvalidRefreshToken
	}

	now := time.Now()
	stored.Revoked = true
	stored.RevokedAt = &now
	return stored, nil
}

func (f *FakeJWTRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.tokens[token]; ok {
		stored.Revoked = true
	}
	return nil
}

func (f *FakeJWTRepo) RevokeAllByUser(ctx context.Context, userUUID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.tokens {
		if stored.UserUUID == userUUID {
			stored.Revoked = true
		}
	}
	return nil
}

func (f *FakeJWTRepo) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stored, ok := f.tokens[token]; ok {
		return stored, nil
	}
	return nil, errors.New("токен не был найден")
}

// ===== HELPERS =====

func newTestAuthService() (*service.AuthenticationService, *MockUserRepository, *MockJWTService, *MockJWTRepo, *MockOtpRepo) {
	mockUserRepo := new(MockUserRepository)
	mockJWTService := new(MockJWTService)
	mockJWTRepo := new(MockJWTRepo)
	mockOtpRepo := new(MockOtpRepo)

	svc := service.NewAuthenticationService(
		mockJWTRepo,
		&config.AppConfig{},
		mockJWTService,
		mockUserRepo,
		mockOtpRepo,
	)

	return svc, mockUserRepo, mockJWTService, mockJWTRepo, mockOtpRepo
}

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		SecretKey:       "secret",
		AccessTokenTTL:  "15m",
		RefreshTokenTTL: "720h",
	}
}

// ===== TESTS =====

// 1. Пользователь не найден: наружу уходит та же ошибка, что и при неверном пароле
func TestLogin_UserNotFound(t *testing.T) {
	svc, mockUserRepo, _, _, _ := newTestAuthService()
	ctx := context.Background()

	mockUserRepo.On("FindByEmail", ctx, "test@example.com").
		Return(nil, errors.New("not found"))

	_, err := svc.Login(ctx, "test@example.com", "pass", "agent", "127.0.0.1")

	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	mockUserRepo.AssertExpectations(t)
}

// 2. Неверный пароль
func TestLogin_WrongPassword(t *testing.T) {
	svc, mockUserRepo, _, _, _ := newTestAuthService()
	ctx := context.Background()

	hash, _ := security.HashPassword("goodpass")
	user := &model.User{UUID: "u1", PasswordHash: hash}

	mockUserRepo.On("FindByEmail", ctx, "test@example.com").
		Return(user, nil)

	_, err := svc.Login(ctx, "test@example.com", "badpass", "agent", "127.0.0.1")

	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	mockUserRepo.AssertExpectations(t)
}

// 3. Email не подтвержден, если проверка включена конфигурацией
func TestLogin_EmailNotVerified(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockJWTService := new(MockJWTService)
	mockJWTRepo := new(MockJWTRepo)
	mockOtpRepo := new(MockOtpRepo)

	svc := service.NewAuthenticationService(
		mockJWTRepo,
		&config.AppConfig{Auth: config.AuthConfig{RequireVerifiedEmail: true}},
		mockJWTService,
		mockUserRepo,
		mockOtpRepo,
	)

	ctx := context.Background()
	hash, _ := security.HashPassword("goodpass")
	user := &model.User{UUID: "u1", Email: "test@example.com", PasswordHash: hash}

	mockUserRepo.On("FindByEmail", ctx, "test@example.com").Return(user, nil)
	mockOtpRepo.On("IsEmailVerified", ctx, "test@example.com").Return(false, nil)

	_, err := svc.Login(ctx, "test@example.com", "goodpass", "agent", "127.0.0.1")

	assert.ErrorIs(t, err, model.ErrEmailNotVerified)
	mockOtpRepo.AssertExpectations(t)
}

// 4. Ошибка сохранения refresh токена
func TestLogin_SaveRefreshTokenError(t *testing.T) {
	svc, mockUserRepo, mockJWTService, mockJWTRepo, _ := newTestAuthService()
	ctx := context.Background()

	hash, _ := security.HashPassword("goodpass")
	user := &model.User{UUID: "u1", PasswordHash: hash}
	tokens := &model.TokensPair{AccessToken: "acc", RefreshToken: "ref"}
	refresh := &model.RefreshToken{
		UUID:     "r1",
		UserUUID: "u1",
		Token:    "ref",
		ExpireAt: time.Now().Add(24 * time.Hour),
	}

	mockUserRepo.On("FindByEmail", ctx, "test@example.com").
		Return(user, nil)
	mockJWTService.On("GenerateAccessRefreshTokens", user).
		Return(tokens, refresh, nil)
	mockJWTRepo.On("SaveRefreshToken", ctx, refresh).
		Return(errors.New("db error"))

	_, err := svc.Login(ctx, "test@example.com", "goodpass", "agent", "127.0.0.1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ошибка сохранения refresh токена")
	mockJWTRepo.AssertExpectations(t)
}

// 5. Успешный логин: refresh токен уходит в БД с метаданными устройства
func TestLogin_Success(t *testing.T) {
	svc, mockUserRepo, mockJWTService, mockJWTRepo, _ := newTestAuthService()
	ctx := context.Background()

	hash, _ := security.HashPassword("goodpass")
	user := &model.User{UUID: "u1", PasswordHash: hash}
	tokens := &model.TokensPair{AccessToken: "acc", RefreshToken: "ref"}
	refresh := &model.RefreshToken{
		UUID:     "r1",
		UserUUID: "u1",
		Token:    "ref",
		ExpireAt: time.Now().Add(24 * time.Hour),
	}

	mockUserRepo.On("FindByEmail", ctx, "test@example.com").
		Return(user, nil)
	mockJWTService.On("GenerateAccessRefreshTokens", user).
		Return(tokens, refresh, nil)
	mockJWTRepo.On("SaveRefreshToken", ctx, refresh).
		Return(nil)

	result, err := svc.Login(ctx, "test@example.com", "goodpass", "agent", "127.0.0.1")

	assert.NoError(t, err)
	assert.Equal(t, tokens, result)
	assert.Equal(t, "agent", refresh.UserAgent)
	assert.Equal(t, "127.0.0.1", refresh.IpAddress)

	mockUserRepo.AssertExpectations(t)
	mockJWTService.AssertExpectations(t)
	mockJWTRepo.AssertExpectations(t)
}

// 6. Хранилище не отдало токен: проигравший конкурент получает ту же ошибку
func TestRefresh_ClaimFails(t *testing.T) {
	svc, _, _, mockJWTRepo, _ := newTestAuthService()
	ctx := context.Background()

	mockJWTRepo.On("ClaimRefreshToken", ctx, "stale").
		Return(nil, model.ErrInvalidRefreshToken)

	tokens, err := svc.Refresh(ctx, "stale", "agent", "127.0.0.1")

	assert.Nil(t, tokens)
	assert.ErrorIs(t, err, model.ErrInvalidRefreshToken)
	mockJWTRepo.AssertExpectations(t)
}

// 7. Успешная ротация: claim, новая пара, сохранение нового токена
func TestRefresh_Success(t *testing.T) {
	svc, mockUserRepo, mockJWTService, mockJWTRepo, _ := newTestAuthService()
	ctx := context.Background()

	claimed := &model.RefreshToken{UUID: "r1", UserUUID: "u1", Token: "old", IpAddress: "127.0.0.1"}
	user := &model.User{UUID: "u1", Email: "test@example.com"}
	tokens := &model.TokensPair{AccessToken: "acc2", RefreshToken: "new"}
	newRefresh := &model.RefreshToken{UUID: "r2", UserUUID: "u1", Token: "new"}

	mockJWTRepo.On("ClaimRefreshToken", ctx, "old").Return(claimed, nil)
	mockUserRepo.On("FindByUUID", ctx, "u1").Return(user, nil)
	mockJWTService.On("GenerateAccessRefreshTokens", user).Return(tokens, newRefresh, nil)
	mockJWTRepo.On("SaveRefreshToken", ctx, newRefresh).Return(nil)

	result, err := svc.Refresh(ctx, "old", "agent", "10.0.0.1")

	assert.NoError(t, err)
	assert.Equal(t, tokens, result)
	assert.Equal(t, "agent", newRefresh.UserAgent)
	assert.Equal(t, "10.0.0.1", newRefresh.IpAddress)
	mockJWTRepo.AssertExpectations(t)
}

// 8. Logout идемпотентен: неизвестный токен не ошибка
func TestLogout_Idempotent(t *testing.T) {
	svc, _, _, mockJWTRepo, _ := newTestAuthService()
	ctx := context.Background()

	mockJWTRepo.On("RevokeRefreshToken", ctx, "unknown").Return(nil)

	assert.NoError(t, svc.Logout(ctx, "unknown"))
	mockJWTRepo.AssertExpectations(t)
}

// 9. Закон повторного использования: второй refresh тем же токеном падает
func TestRefresh_ReuseLaw(t *testing.T) {
	fakeRepo := NewFakeJWTRepo()
	mockUserRepo := new(MockUserRepository)
	jwtService, err := security.NewJWTService(testJWTConfig())
	assert.NoError(t, err)

	svc := service.NewAuthenticationService(fakeRepo, &config.AppConfig{}, jwtService, mockUserRepo, new(MockOtpRepo))

	ctx := context.Background()
	user := &model.User{UUID: "u1", Email: "a@x.com", Username: "a"}
	mockUserRepo.On("FindByUUID", ctx, "u1").Return(user, nil)

	// выдаем начальную пару как при логине
	_, initialRefresh, err := jwtService.GenerateAccessRefreshTokens(user)
	assert.NoError(t, err)
	assert.NoError(t, fakeRepo.SaveRefreshToken(ctx, initialRefresh))

	newPair, err := svc.Refresh(ctx, initialRefresh.Token, "agent", "127.0.0.1")
	assert.NoError(t, err)
	assert.NotEqual(t, initialRefresh.Token, newPair.RefreshToken)

	// исходный токен отозван в момент использования
	_, err = svc.Refresh(ctx, initialRefresh.Token, "agent", "127.0.0.1")
	assert.ErrorIs(t, err, model.ErrInvalidRefreshToken)

	// новый токен при этом рабочий
	_, err = svc.Refresh(ctx, newPair.RefreshToken, "agent", "127.0.0.1")
	assert.NoError(t, err)
}

// 10. Полнота logout-all: все токены пользователя перестают работать
func TestLogoutAll_Completeness(t *testing.T) {
	fakeRepo := NewFakeJWTRepo()
	mockUserRepo := new(MockUserRepository)
	jwtService, err := security.NewJWTService(testJWTConfig())
	assert.NoError(t, err)

	svc := service.NewAuthenticationService(fakeRepo, &config.AppConfig{}, jwtService, mockUserRepo, new(MockOtpRepo))

	ctx := context.Background()
	user := &model.User{UUID: "u1", Email: "a@x.com", Username: "a"}

	var issued []string
	for i := 0; i < 3; i++ {
		_, refresh, err := jwtService.GenerateAccessRefreshTokens(user)
		assert.NoError(t, err)
		assert.NoError(t, fakeRepo.SaveRefreshToken(ctx, refresh))
		issued = append(issued, refresh.Token)
	}

	assert.NoError(t, svc.LogoutAll(ctx, "u1"))

	for _, token := range issued {
		_, err := svc.Refresh(ctx, token, "agent", "127.0.0.1")
		assert.ErrorIs(t, err, model.ErrInvalidRefreshToken)
	}
}

// 11. Сквозной сценарий: логин -> refresh -> повторный refresh исходным токеном
func TestLoginRefresh_EndToEnd(t *testing.T) {
	fakeRepo := NewFakeJWTRepo()
	mockUserRepo := new(MockUserRepository)
	jwtService, err := security.NewJWTService(testJWTConfig())
	assert.NoError(t, err)

	hash, _ := security.HashPassword("P@ssw0rd1")
	user := &model.User{UUID: "u1", Email: "a@x.com", Username: "a", PasswordHash: hash}

	svc := service.NewAuthenticationService(fakeRepo, &config.AppConfig{}, jwtService, mockUserRepo, new(MockOtpRepo))

	ctx := context.Background()
	mockUserRepo.On("FindByEmail", ctx, "a@x.com").Return(user, nil)
	mockUserRepo.On("FindByUUID", ctx, "u1").Return(user, nil)

	pair, err := svc.Login(ctx, "a@x.com", "P@ssw0rd1", "agent", "127.0.0.1")
	assert.NoError(t, err)

	// в access токене зашиты данные пользователя
	claims, err := jwtService.ValidateJWT(pair.AccessToken, []byte("secret"))
	assert.NoError(t, err)
	assert.Equal(t, "u1", claims.UserUUID)
	assert.Equal(t, "a@x.com", claims.Email)

	newPair, err := svc.Refresh(ctx, pair.RefreshToken, "agent", "127.0.0.1")
	assert.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, newPair.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	_, err = svc.Refresh(ctx, pair.RefreshToken, "agent", "127.0.0.1")
	assert.ErrorIs(t, err, model.ErrInvalidRefreshToken)
}
