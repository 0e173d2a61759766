package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/mealsync/internal/client/storage"
)

// Claims содержит claims access token-а, которые нужны клиенту.
// Токен выпускает внешний auth-сервис; клиент его не проверяет
// (проверка подписи - задача сервера), а только читает claims.
type Claims struct {
	jwt.RegisteredClaims
	Username    string `json:"username"`
	HouseholdID string `json:"household_id"`
}

// Service предоставляет доступ к локальной сессии и идентичности устройства
type Service struct {
	sessions storage.SessionStorage
}

// NewService создает новый сервис сессии
func NewService(sessions storage.SessionStorage) *Service {
	return &Service{sessions: sessions}
}

// ParseAccessToken разбирает access token без проверки подписи
// и возвращает claims
func ParseAccessToken(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return claims, nil
}

// SaveToken persists a freshly issued access token as the session.
// User, household and expiry are taken from the token claims.
func (s *Service) SaveToken(ctx context.Context, token string) (*storage.Session, error) {
	claims, err := ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	deviceID, err := s.sessions.EnsureDeviceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device id: %w", err)
	}

	session := &storage.Session{
		Username:    claims.Username,
		UserID:      claims.Subject,
		HouseholdID: claims.HouseholdID,
		AccessToken: token,
		DeviceID:    deviceID,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Unix()
	}

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// Session возвращает сохраненную сессию
func (s *Service) Session(ctx context.Context) (*storage.Session, error) {
	return s.sessions.GetSession(ctx)
}

// IsAuthenticated checks if a non-expired session exists
func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}

	if session.ExpiresAt > 0 && time.Now().Unix() >= session.ExpiresAt {
		return false, nil
	}

	return true, nil
}

// DeviceID возвращает стабильный идентификатор этого устройства
func (s *Service) DeviceID(ctx context.Context) (string, error) {
	return s.sessions.EnsureDeviceID(ctx)
}

// Logout удаляет локальную сессию
func (s *Service) Logout(ctx context.Context) error {
	if err := s.sessions.DeleteSession(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
