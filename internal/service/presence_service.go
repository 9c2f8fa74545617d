package service

import (
	"context"
	"log"
	"sync"

	"realtime-session-server/internal/model"
	"realtime-session-server/internal/ports"
)

// PresenceService считает одновременные подключения каждого пользователя
// и переключает его статус на границах 0 <-> 1. Таблица счетчиков
// принадлежит сервису и защищена мьютексом; состояние локально для
// процесса, другие инстансы видят только события из топика
type PresenceService struct {
	mu       sync.Mutex
	counters map[string]int

	userRepository ports.UserRepository
	broadcast      ports.BroadcastRepositoryInterface
}

func NewPresenceService(userRepository ports.UserRepository, broadcast ports.BroadcastRepositoryInterface) *PresenceService {
	return &PresenceService{
		counters:       make(map[string]int),
		userRepository: userRepository,
		broadcast:      broadcast,
	}
}

// Connect учитывает новое подключение. Событие о смене статуса уходит
// только на переходе 0 -> 1: повторные подключения его не дублируют
func (s *PresenceService) Connect(ctx context.Context, userUUID string) error {
	s.mu.Lock()
	previous := s.counters[userUUID]
	s.counters[userUUID] = previous + 1
	s.mu.Unlock()

	if previous != 0 {
		return nil
	}

	return s.setStatusAndNotify(ctx, userUUID, model.StatusOnline)
}

// Disconnect снимает подключение. Счетчик не уходит ниже нуля: лишнее
// уведомление об отключении просто игнорируется. Ошибок наружу нет,
// отключение должно завершаться всегда
func (s *PresenceService) Disconnect(ctx context.Context, userUUID string) {
	s.mu.Lock()
	current := s.counters[userUUID]
	if current == 0 {
		s.mu.Unlock()
		return
	}
	current--
	if current == 0 {
		delete(s.counters, userUUID)
	} else {
		s.counters[userUUID] = current
	}
	s.mu.Unlock()

	if current != 0 {
		return
	}

	if err := s.setStatusAndNotify(ctx, userUUID, model.StatusOffline); err != nil {
		log.Printf("не удалось обновить статус при отключении %s: %v", userUUID, err)
	}
}

// Connections возвращает текущее число подключений пользователя
func (s *PresenceService) Connections(userUUID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[userUUID]
}

func (s *PresenceService) setStatusAndNotify(ctx context.Context, userUUID string, status string) error {
	if err := s.userRepository.UpdateStatus(ctx, userUUID, status); err != nil {
		return err
	}

	user, err := s.userRepository.FindByUUID(ctx, userUUID)
	if err != nil {
		return err
	}
	user.Status = status

	return s.broadcast.PublishStatusChanged(ctx, user)
}
