package service

import (
	"fmt"
	"log"
	"time"

	"github.com/yourusername/hypertest-api/internal/domain/entity"
	"github.com/yourusername/hypertest-api/internal/domain/repository"
	apperrors "github.com/yourusername/hypertest-api/internal/pkg/errors"
	"github.com/yourusername/hypertest-api/internal/service/testsync"
)

// Время жизни кеша опубликованного теста
const testCacheTTL = 5 * time.Minute

// TestService управляет жизненным циклом тестов: создание и обновление
// полного агрегата, выборки витрины и кабинета автора, удаление.
type TestService struct {
	testRepo  repository.TestRepository
	passRepo  repository.TestPassRepository
	cacheRepo repository.CacheRepository
	pictures  testsync.PictureStore
}

// NewTestService создает новый сервис тестов
func NewTestService(
	testRepo repository.TestRepository,
	passRepo repository.TestPassRepository,
	cacheRepo repository.CacheRepository,
	pictures testsync.PictureStore,
) *TestService {
	return &TestService{
		testRepo:  testRepo,
		passRepo:  passRepo,
		cacheRepo: cacheRepo,
		pictures:  pictures,
	}
}

func testCacheKey(id uint) string {
	return fmt.Sprintf("test:published:%d", id)
}

// validator собирает валидатор агрегата с поиском существующих строк,
// привязанным к конкретному тесту. Для создания instance == nil и
// поиск не выполняется вовсе.
func (s *TestService) validator(instance *entity.Test) *testsync.Validator {
	v := &testsync.Validator{Pictures: s.pictures}
	if instance == nil {
		return v
	}

	testID := instance.ID
	v.Lookups = testsync.Lookups{
		FindResult: func(resultID int) (*entity.Result, error) {
			return s.testRepo.FindResult(testID, resultID)
		},
		FindQuestion: func(questionID int) (*entity.Question, error) {
			return s.testRepo.FindQuestion(testID, questionID)
		},
		FindAnswer: func(questionPK uint, answerID int) (*entity.Answer, error) {
			return s.testRepo.FindAnswer(questionPK, answerID)
		},
	}
	return v
}

// Create создает новый тест из сырого JSON-тела запроса.
// Тест всегда создается черновиком и принадлежит вызывающему пользователю.
func (s *TestService) Create(user *entity.VKUser, body []byte) (*repository.TestAggregate, error) {
	agg, err := s.validator(nil).ValidateTest(nil, body)
	if err != nil {
		return nil, err
	}

	userID := user.ID
	agg.Test.UserID = &userID

	saved, err := s.testRepo.SaveAggregate(agg)
	if err != nil {
		return nil, fmt.Errorf("save test aggregate: %w", err)
	}
	agg.Test = saved

	log.Printf("[TestService] Пользователь %d создал тест %d (%q)", user.ID, saved.ID, saved.Title)
	return agg, nil
}

// Update обновляет тест целиком по декларативному агрегату из тела запроса.
// Дочерние строки, отсутствующие в запросе, удаляются.
//
// Чужой тест неотличим от несуществующего. Опубликованный тест может
// редактировать только персонал.
func (s *TestService) Update(user *entity.VKUser, testID uint, body []byte) (*repository.TestAggregate, error) {
	instance, err := s.testRepo.GetByID(testID)
	if err != nil {
		return nil, err
	}
	if !instance.IsOwnedBy(user.ID) {
		return nil, apperrors.ErrNotFound
	}
	if instance.Published && !user.CanEditPublished() {
		return nil, apperrors.ErrForbidden
	}

	agg, err := s.validator(instance).ValidateTest(instance, body)
	if err != nil {
		return nil, err
	}

	saved, err := s.testRepo.SaveAggregate(agg)
	if err != nil {
		return nil, fmt.Errorf("save test aggregate: %w", err)
	}
	agg.Test = saved

	s.invalidateCache(testID)
	log.Printf("[TestService] Пользователь %d обновил тест %d", user.ID, testID)
	return agg, nil
}

// Delete удаляет тест владельца вместе со всеми дочерними строками
func (s *TestService) Delete(user *entity.VKUser, testID uint) error {
	instance, err := s.testRepo.GetByID(testID)
	if err != nil {
		return err
	}
	if !instance.IsOwnedBy(user.ID) {
		return apperrors.ErrNotFound
	}

	if err := s.testRepo.Delete(testID); err != nil {
		return fmt.Errorf("delete test %d: %w", testID, err)
	}

	s.invalidateCache(testID)
	log.Printf("[TestService] Пользователь %d удалил тест %d", user.ID, testID)
	return nil
}

// GetMine возвращает тест владельца вместе с дочерними строками
func (s *TestService) GetMine(user *entity.VKUser, testID uint) (*entity.Test, error) {
	test, err := s.testRepo.GetWithChildren(testID)
	if err != nil {
		return nil, err
	}
	if !test.IsOwnedBy(user.ID) {
		return nil, apperrors.ErrNotFound
	}
	return test, nil
}

// GetPublished возвращает опубликованный тест для витрины.
// Полный агрегат дорог в сборке, поэтому кешируется на короткое время.
func (s *TestService) GetPublished(testID uint) (*entity.Test, error) {
	if s.cacheRepo != nil {
		var cached entity.Test
		if err := s.cacheRepo.GetJSON(testCacheKey(testID), &cached); err == nil {
			return &cached, nil
		}
	}

	test, err := s.testRepo.GetWithChildren(testID)
	if err != nil {
		return nil, err
	}
	if !test.Published {
		return nil, apperrors.ErrNotFound
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(testCacheKey(testID), test, testCacheTTL); err != nil {
			log.Printf("[TestService] Не удалось закешировать тест %d: %v", testID, err)
		}
	}
	return test, nil
}

// ListPublished возвращает страницу опубликованных тестов
func (s *TestService) ListPublished(limit, offset int) ([]entity.Test, int64, error) {
	return s.testRepo.List(repository.TestFilters{Published: true}, limit, offset)
}

// ListMine возвращает страницу тестов владельца, включая черновики
func (s *TestService) ListMine(user *entity.VKUser, limit, offset int) ([]entity.Test, int64, error) {
	return s.testRepo.List(repository.TestFilters{UserID: user.ID}, limit, offset)
}

// HasPassed проверяет, проходил ли пользователь тест
func (s *TestService) HasPassed(testID, userID uint) (bool, error) {
	return s.passRepo.HasPassed(testID, userID)
}

func (s *TestService) invalidateCache(testID uint) {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(testCacheKey(testID)); err != nil {
		log.Printf("[TestService] Не удалось сбросить кеш теста %d: %v", testID, err)
	}
}
