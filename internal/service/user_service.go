package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"realtime-session-server/internal/model"
	"realtime-session-server/internal/ports"
	"realtime-session-server/internal/security"
	"realtime-session-server/internal/util"

	"github.com/google/uuid"
)

const (
	avatarUploadTTL = 15 * time.Minute
	avatarViewTTL   = 24 * time.Hour
)

type UserService struct {
	userRepository      ports.UserRepository
	jwtServiceInterface ports.JWTServiceInterface
	jwtRepoInterface    ports.JWTRepositoryInterface
	s3Service           ports.S3ServiceInterface
}

func NewUserService(
	userRepository ports.UserRepository,
	jwtService ports.JWTServiceInterface,
	jwtRepo ports.JWTRepositoryInterface,
	s3Service ports.S3ServiceInterface,
) *UserService {
	return &UserService{
		userRepository:      userRepository,
		jwtServiceInterface: jwtService,
		jwtRepoInterface:    jwtRepo,
		s3Service:           s3Service,
	}
}

// Register создает пользователя и сразу выдает ему пару токенов,
// как при обычном логине. Новый пользователь начинает в OFFLINE
func (s *UserService) Register(ctx context.Context, email, username, password, userAgent, ipAddress string) (*model.User, *model.TokensPair, error) {
	exists, err := s.userRepository.Exists(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка проверки пользователя: %w", err)
	}
	if exists {
		return nil, nil, fmt.Errorf("пользователь с таким email уже существует")
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка хэширования пароля: %w", err)
	}

	user, err := s.userRepository.CreateUser(ctx, &model.User{
		UUID:         uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Status:       model.StatusOffline,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	tokens, refreshToken, err := s.jwtServiceInterface.GenerateAccessRefreshTokens(user)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка генерации токенов: %w", err)
	}

	refreshToken.UserAgent = userAgent
	refreshToken.IpAddress = ipAddress
	if err := s.jwtRepoInterface.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, nil, fmt.Errorf("ошибка сохранения refresh токена: %w", err)
	}

	return user, tokens, nil
}

// GetUser : профиль пользователя по UUID
func (s *UserService) GetUser(ctx context.Context, userUUID string) (*model.User, error) {
	user, err := s.userRepository.FindByUUID(ctx, userUUID)
	if err != nil {
		return nil, util.LogError("пользователь не найден", err)
	}
	return user, nil
}

// AvatarUploadURL выдает presigned PUT для загрузки аватара и запоминает
// ключ объекта в профиле. Клиент загружает файл напрямую в хранилище
func (s *UserService) AvatarUploadURL(ctx context.Context, userUUID string, filename string) (string, string, error) {
	user, err := s.userRepository.FindByUUID(ctx, userUUID)
	if err != nil {
		return "", "", util.LogError("пользователь не найден", err)
	}

	key := "avatars/" + userUUID + filepath.Ext(filename)

	uploadURL, err := s.s3Service.GeneratePresignedPutURL(ctx, key, avatarUploadTTL)
	if err != nil {
		return "", "", util.LogError("не удалось сгенерировать URL загрузки", err)
	}

	if err := s.userRepository.UpdateImageURL(ctx, userUUID, key); err != nil {
		return "", "", util.LogError("не удалось сохранить ключ аватара", err)
	}

	// старый объект под другим ключом становится недостижим, подчищаем его
	if user.ImageURL != "" && user.ImageURL != key {
		if err := s.s3Service.DeleteObject(ctx, user.ImageURL); err != nil {
			log.Printf("не удалось удалить старый аватар %s: %v", user.ImageURL, err)
		}
	}

	return uploadURL, key, nil
}

// AvatarViewURL : presigned GET на текущий аватар пользователя
func (s *UserService) AvatarViewURL(ctx context.Context, userUUID string) (string, error) {
	user, err := s.userRepository.FindByUUID(ctx, userUUID)
	if err != nil {
		return "", util.LogError("пользователь не найден", err)
	}
	if user.ImageURL == "" {
		return "", fmt.Errorf("аватар не задан")
	}

	viewURL, err := s.s3Service.GeneratePresignedGetURL(ctx, user.ImageURL, avatarViewTTL)
	if err != nil {
		return "", util.LogError("не удалось сгенерировать URL аватара", err)
	}

	return viewURL, nil
}
