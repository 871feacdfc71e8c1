package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/hypertest-api/internal/domain/entity"
	"github.com/yourusername/hypertest-api/internal/domain/repository"
	apperrors "github.com/yourusername/hypertest-api/internal/pkg/errors"
)

// ============================================================================
// Моки репозиториев
// ============================================================================

func uintPtr(v uint) *uint { return &v }

// MockTestRepository реализует repository.TestRepository
type MockTestRepository struct {
	mock.Mock
}

func (m *MockTestRepository) GetByID(id uint) (*entity.Test, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Test), args.Error(1)
}

func (m *MockTestRepository) GetWithChildren(id uint) (*entity.Test, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Test), args.Error(1)
}

func (m *MockTestRepository) List(filters repository.TestFilters, limit, offset int) ([]entity.Test, int64, error) {
	args := m.Called(filters, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Test), args.Get(1).(int64), args.Error(2)
}

func (m *MockTestRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockTestRepository) FindResult(testID uint, resultID int) (*entity.Result, error) {
	args := m.Called(testID, resultID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Result), args.Error(1)
}

func (m *MockTestRepository) FindQuestion(testID uint, questionID int) (*entity.Question, error) {
	args := m.Called(testID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockTestRepository) FindAnswer(questionID uint, answerID int) (*entity.Answer, error) {
	args := m.Called(questionID, answerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Answer), args.Error(1)
}

func (m *MockTestRepository) SaveAggregate(agg *repository.TestAggregate) (*entity.Test, error) {
	args := m.Called(agg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Test), args.Error(1)
}

// MockTestPassRepository реализует repository.TestPassRepository
type MockTestPassRepository struct {
	mock.Mock
}

func (m *MockTestPassRepository) RegisterPass(testID, userID uint) (bool, error) {
	args := m.Called(testID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTestPassRepository) HasPassed(testID, userID uint) (bool, error) {
	args := m.Called(testID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTestPassRepository) ListByTest(testID uint) ([]entity.TestPass, error) {
	args := m.Called(testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.TestPass), args.Error(1)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepository) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepository) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

// ============================================================================
// TestService
// ============================================================================

const validTestBody = `{
	"title": "Тест",
	"results": [{"resId": 1, "resText": "Результат"}],
	"questions": [
		{"qId": 1, "qText": "Вопрос?", "vars": [
			{"varId": 1, "varText": "Ответ", "res": 1}
		]}
	]
}`

func newTestService(testRepo *MockTestRepository, passRepo *MockTestPassRepository, cacheRepo *MockCacheRepository) *TestService {
	var cache repository.CacheRepository
	if cacheRepo != nil {
		cache = cacheRepo
	}
	return NewTestService(testRepo, passRepo, cache, nil)
}

func TestTestService_Create(t *testing.T) {
	testRepo := new(MockTestRepository)
	svc := newTestService(testRepo, new(MockTestPassRepository), nil)
	user := &entity.VKUser{ID: 42}

	testRepo.On("SaveAggregate", mock.MatchedBy(func(agg *repository.TestAggregate) bool {
		return agg.Test.UserID != nil && *agg.Test.UserID == 42 && !agg.Test.Published
	})).Return(&entity.Test{ID: 7, Title: "Тест", UserID: uintPtr(42)}, nil)

	agg, err := svc.Create(user, []byte(validTestBody))
	require.NoError(t, err)
	assert.Equal(t, uint(7), agg.Test.ID)
	require.Len(t, agg.Results, 1)
	require.Len(t, agg.Questions, 1)
	testRepo.AssertExpectations(t)
}

func TestTestService_Create_ValidationErrorSkipsSave(t *testing.T) {
	testRepo := new(MockTestRepository)
	svc := newTestService(testRepo, new(MockTestPassRepository), nil)

	_, err := svc.Create(&entity.VKUser{ID: 42}, []byte(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	testRepo.AssertNotCalled(t, "SaveAggregate", mock.Anything)
}

func TestTestService_Update_NotOwnerLooksLikeMissing(t *testing.T) {
	testRepo := new(MockTestRepository)
	svc := newTestService(testRepo, new(MockTestPassRepository), nil)

	testRepo.On("GetByID", uint(3)).Return(&entity.Test{ID: 3, UserID: uintPtr(1)}, nil)

	_, err := svc.Update(&entity.VKUser{ID: 42}, 3, []byte(validTestBody))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	testRepo.AssertNotCalled(t, "SaveAggregate", mock.Anything)
}

func TestTestService_Update_PublishedBlockedForOwner(t *testing.T) {
	testRepo := new(MockTestRepository)
	svc := newTestService(testRepo, new(MockTestPassRepository), nil)

	testRepo.On("GetByID", uint(3)).Return(&entity.Test{ID: 3, UserID: uintPtr(42), Published: true}, nil)

	_, err := svc.Update(&entity.VKUser{ID: 42}, 3, []byte(validTestBody))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestTestService_Update_PublishedAllowedForStaff(t *testing.T) {
	testRepo := new(MockTestRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestService(testRepo, new(MockTestPassRepository), cacheRepo)

	testRepo.On("GetByID", uint(3)).Return(&entity.Test{ID: 3, UserID: uintPtr(42), Published: true}, nil)
	testRepo.On("FindResult", uint(3), 1).Return(nil, apperrors.ErrNotFound)
	testRepo.On("FindQuestion", uint(3), 1).Return(nil, apperrors.ErrNotFound)
	testRepo.On("SaveAggregate", mock.Anything).Return(&entity.Test{ID: 3, UserID: uintPtr(42)}, nil)
	cacheRepo.On("Delete", "test:published:3").Return(nil)

	_, err := svc.Update(&entity.VKUser{ID: 42, IsStaff: true}, 3, []byte(validTestBody))
	require.NoError(t, err)
	cacheRepo.AssertExpectations(t)
}

func TestTestService_Delete(t *testing.T) {
	testRepo := new(MockTestRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestService(testRepo, new(MockTestPassRepository), cacheRepo)

	testRepo.On("GetByID", uint(3)).Return(&entity.Test{ID: 3, UserID: uintPtr(42)}, nil)
	testRepo.On("Delete", uint(3)).Return(nil)
	cacheRepo.On("Delete", "test:published:3").Return(nil)

	err := svc.Delete(&entity.VKUser{ID: 42}, 3)
	require.NoError(t, err)
	testRepo.AssertExpectations(t)
	cacheRepo.AssertExpectations(t)
}

func TestTestService_GetPublished_HidesDrafts(t *testing.T) {
	testRepo := new(MockTestRepository)
	svc := newTestService(testRepo, new(MockTestPassRepository), nil)

	testRepo.On("GetWithChildren", uint(3)).Return(&entity.Test{ID: 3, Published: false}, nil)

	_, err := svc.GetPublished(3)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTestService_GetMine_OwnerOnly(t *testing.T) {
	testRepo := new(MockTestRepository)
	svc := newTestService(testRepo, new(MockTestPassRepository), nil)

	testRepo.On("GetWithChildren", uint(3)).Return(&entity.Test{ID: 3, UserID: uintPtr(1)}, nil)

	_, err := svc.GetMine(&entity.VKUser{ID: 42}, 3)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ============================================================================
// PassService
// ============================================================================

func TestPassService_RegisterPass_DraftHiddenFromOthers(t *testing.T) {
	testRepo := new(MockTestRepository)
	passRepo := new(MockTestPassRepository)
	svc := NewPassService(testRepo, passRepo, nil)

	testRepo.On("GetByID", uint(3)).Return(&entity.Test{ID: 3, UserID: uintPtr(1), Published: false}, nil)

	err := svc.RegisterPass(&entity.VKUser{ID: 42}, 3)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	passRepo.AssertNotCalled(t, "RegisterPass", mock.Anything, mock.Anything)
}

func TestPassService_RegisterPass_FirstPassInvalidatesCache(t *testing.T) {
	testRepo := new(MockTestRepository)
	passRepo := new(MockTestPassRepository)
	cacheRepo := new(MockCacheRepository)
	svc := NewPassService(testRepo, passRepo, cacheRepo)

	testRepo.On("GetByID", uint(3)).Return(&entity.Test{ID: 3, Published: true}, nil)
	passRepo.On("RegisterPass", uint(3), uint(42)).Return(true, nil)
	cacheRepo.On("Delete", "test:published:3").Return(nil)

	err := svc.RegisterPass(&entity.VKUser{ID: 42}, 3)
	require.NoError(t, err)
	cacheRepo.AssertExpectations(t)
}

func TestPassService_RegisterPass_RepeatKeepsCache(t *testing.T) {
	testRepo := new(MockTestRepository)
	passRepo := new(MockTestPassRepository)
	cacheRepo := new(MockCacheRepository)
	svc := NewPassService(testRepo, passRepo, cacheRepo)

	testRepo.On("GetByID", uint(3)).Return(&entity.Test{ID: 3, Published: true}, nil)
	passRepo.On("RegisterPass", uint(3), uint(42)).Return(false, nil)

	err := svc.RegisterPass(&entity.VKUser{ID: 42}, 3)
	require.NoError(t, err)
	cacheRepo.AssertNotCalled(t, "Delete", mock.Anything)
}

func TestPassService_ListPasses_OwnerOnly(t *testing.T) {
	testRepo := new(MockTestRepository)
	passRepo := new(MockTestPassRepository)
	svc := NewPassService(testRepo, passRepo, nil)

	testRepo.On("GetByID", uint(3)).Return(&entity.Test{ID: 3, UserID: uintPtr(1)}, nil)

	_, _, err := svc.ListPasses(&entity.VKUser{ID: 42}, 3)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
