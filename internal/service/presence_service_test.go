package service_test

import (
	"context"
	"sync"
	"testing"

	"realtime-session-server/internal/model"
	"realtime-session-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestPresenceService() (*service.PresenceService, *MockUserRepository, *MockBroadcast) {
	mockUserRepo := new(MockUserRepository)
	mockBroadcast := new(MockBroadcast)
	svc := service.NewPresenceService(mockUserRepo, mockBroadcast)
	return svc, mockUserRepo, mockBroadcast
}

func expectStatusChange(mockUserRepo *MockUserRepository, mockBroadcast *MockBroadcast, userUUID string, status string) {
	user := &model.User{UUID: userUUID, Username: "user"}
	mockUserRepo.On("UpdateStatus", mock.Anything, userUUID, status).Return(nil).Once()
	mockUserRepo.On("FindByUUID", mock.Anything, userUUID).Return(user, nil).Once()
	mockBroadcast.On("PublishStatusChanged", mock.Anything, user).Return(nil).Once()
}

// 1. Первое подключение переводит в ONLINE и шлет ровно одно событие
func TestPresence_FirstConnectGoesOnline(t *testing.T) {
	svc, mockUserRepo, mockBroadcast := newTestPresenceService()
	ctx := context.Background()

	expectStatusChange(mockUserRepo, mockBroadcast, "u1", model.StatusOnline)

	assert.NoError(t, svc.Connect(ctx, "u1"))
	assert.Equal(t, 1, svc.Connections("u1"))

	mockUserRepo.AssertExpectations(t)
	mockBroadcast.AssertExpectations(t)
}

// 2. Закон единственного уведомления: второе подключение события не дублирует
func TestPresence_SecondConnectNoDuplicateEvent(t *testing.T) {
	svc, mockUserRepo, mockBroadcast := newTestPresenceService()
	ctx := context.Background()

	expectStatusChange(mockUserRepo, mockBroadcast, "u1", model.StatusOnline)

	assert.NoError(t, svc.Connect(ctx, "u1"))
	assert.NoError(t, svc.Connect(ctx, "u1"))
	assert.Equal(t, 2, svc.Connections("u1"))

	// UpdateStatus/Publish вызваны ровно по одному разу (Once выше)
	mockUserRepo.AssertExpectations(t)
	mockBroadcast.AssertExpectations(t)
}

// 3. OFFLINE только после последнего отключения
func TestPresence_OfflineOnLastDisconnect(t *testing.T) {
	svc, mockUserRepo, mockBroadcast := newTestPresenceService()
	ctx := context.Background()

	expectStatusChange(mockUserRepo, mockBroadcast, "u1", model.StatusOnline)

	assert.NoError(t, svc.Connect(ctx, "u1"))
	assert.NoError(t, svc.Connect(ctx, "u1"))

	svc.Disconnect(ctx, "u1")
	assert.Equal(t, 1, svc.Connections("u1"))

	expectStatusChange(mockUserRepo, mockBroadcast, "u1", model.StatusOffline)
	svc.Disconnect(ctx, "u1")
	assert.Equal(t, 0, svc.Connections("u1"))

	mockUserRepo.AssertExpectations(t)
	mockBroadcast.AssertExpectations(t)
}

// 4. Счетчик не уходит ниже нуля: дублирующееся отключение игнорируется
func TestPresence_DisconnectFloorsAtZero(t *testing.T) {
	svc, mockUserRepo, mockBroadcast := newTestPresenceService()
	ctx := context.Background()

	svc.Disconnect(ctx, "u1")
	assert.Equal(t, 0, svc.Connections("u1"))

	expectStatusChange(mockUserRepo, mockBroadcast, "u1", model.StatusOnline)
	assert.NoError(t, svc.Connect(ctx, "u1"))

	expectStatusChange(mockUserRepo, mockBroadcast, "u1", model.StatusOffline)
	svc.Disconnect(ctx, "u1")
	svc.Disconnect(ctx, "u1")
	svc.Disconnect(ctx, "u1")

	assert.Equal(t, 0, svc.Connections("u1"))
	mockUserRepo.AssertExpectations(t)
	mockBroadcast.AssertExpectations(t)
}

// 5. Сохранение счетчика: N подключений и M отключений дают N-M
func TestPresence_Conservation(t *testing.T) {
	svc, mockUserRepo, mockBroadcast := newTestPresenceService()
	ctx := context.Background()

	user := &model.User{UUID: "u1", Username: "user"}
	mockUserRepo.On("UpdateStatus", mock.Anything, "u1", mock.Anything).Return(nil)
	mockUserRepo.On("FindByUUID", mock.Anything, "u1").Return(user, nil)
	mockBroadcast.On("PublishStatusChanged", mock.Anything, mock.Anything).Return(nil)

	const n, m = 7, 4
	for i := 0; i < n; i++ {
		assert.NoError(t, svc.Connect(ctx, "u1"))
	}
	for i := 0; i < m; i++ {
		svc.Disconnect(ctx, "u1")
	}

	assert.Equal(t, n-m, svc.Connections("u1"))
}

// 6. Конкурентные подключения и отключения не теряют обновлений
func TestPresence_ConcurrentBursts(t *testing.T) {
	svc, mockUserRepo, mockBroadcast := newTestPresenceService()
	ctx := context.Background()

	user := &model.User{UUID: "u1", Username: "user"}
	mockUserRepo.On("UpdateStatus", mock.Anything, "u1", mock.Anything).Return(nil)
	mockUserRepo.On("FindByUUID", mock.Anything, "u1").Return(user, nil)
	mockBroadcast.On("PublishStatusChanged", mock.Anything, mock.Anything).Return(nil)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers * 2)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_ = svc.Connect(ctx, "u1")
		}()
		go func() {
			defer wg.Done()
			_ = svc.Connect(ctx, "u1")
		}()
	}
	wg.Wait()

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			svc.Disconnect(ctx, "u1")
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, svc.Connections("u1"))
}
