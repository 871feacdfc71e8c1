package service

import (
	"fmt"
	"log"

	"github.com/yourusername/hypertest-api/internal/domain/entity"
	"github.com/yourusername/hypertest-api/internal/domain/repository"
	apperrors "github.com/yourusername/hypertest-api/internal/pkg/errors"
)

// PassService учитывает прохождения тестов и готовит выгрузку для авторов
type PassService struct {
	testRepo  repository.TestRepository
	passRepo  repository.TestPassRepository
	cacheRepo repository.CacheRepository
}

// NewPassService создает новый сервис прохождений
func NewPassService(
	testRepo repository.TestRepository,
	passRepo repository.TestPassRepository,
	cacheRepo repository.CacheRepository,
) *PassService {
	return &PassService{
		testRepo:  testRepo,
		passRepo:  passRepo,
		cacheRepo: cacheRepo,
	}
}

// RegisterPass фиксирует прохождение теста пользователем.
// Неопубликованный тест может «пройти» только его владелец.
func (s *PassService) RegisterPass(user *entity.VKUser, testID uint) error {
	test, err := s.testRepo.GetByID(testID)
	if err != nil {
		return err
	}
	if !test.Published && !test.IsOwnedBy(user.ID) {
		return apperrors.ErrNotFound
	}

	created, err := s.passRepo.RegisterPass(testID, user.ID)
	if err != nil {
		return fmt.Errorf("register pass: %w", err)
	}
	if created {
		// в кеше лежит устаревший passed_count
		if s.cacheRepo != nil {
			if err := s.cacheRepo.Delete(testCacheKey(testID)); err != nil {
				log.Printf("[PassService] Не удалось сбросить кеш теста %d: %v", testID, err)
			}
		}
		log.Printf("[PassService] Пользователь %d впервые прошел тест %d", user.ID, testID)
	}
	return nil
}

// ListPasses возвращает прохождения теста для выгрузки.
// Доступно только владельцу теста; чужой тест неотличим от несуществующего.
func (s *PassService) ListPasses(user *entity.VKUser, testID uint) (*entity.Test, []entity.TestPass, error) {
	test, err := s.testRepo.GetByID(testID)
	if err != nil {
		return nil, nil, err
	}
	if !test.IsOwnedBy(user.ID) {
		return nil, nil, apperrors.ErrNotFound
	}

	passes, err := s.passRepo.ListByTest(testID)
	if err != nil {
		return nil, nil, fmt.Errorf("list passes: %w", err)
	}
	return test, passes, nil
}
