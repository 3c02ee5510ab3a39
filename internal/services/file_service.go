package services

import (
	"context"

	"github.com/typespeed/typespeed/internal/errors"
	"github.com/typespeed/typespeed/internal/logger"
	"github.com/typespeed/typespeed/internal/models"
	"github.com/typespeed/typespeed/internal/repository"
)

// FileService handles loaded source files.
type FileService interface {
	GetFile(ctx context.Context, id int64) (*models.CodeFile, error)
	ListFiles(ctx context.Context, filter models.CodeFileFilter) ([]models.CodeFile, int, error)
	Languages(ctx context.Context) ([]string, error)
}

type fileService struct {
	fileRepo repository.FileRepository
}

// NewFileService creates a new FileService.
func NewFileService(fileRepo repository.FileRepository) FileService {
	return &fileService{fileRepo: fileRepo}
}

func (s *fileService) GetFile(ctx context.Context, id int64) (*models.CodeFile, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting file: id=%d", id)

	f, err := s.fileRepo.Get(ctx, id)
	if err != nil {
		log.Error("failed to get file: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if f == nil {
		return nil, errors.NewNotFoundError("file", id)
	}
	return f, nil
}

func (s *fileService) ListFiles(ctx context.Context, filter models.CodeFileFilter) ([]models.CodeFile, int, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing files: language=%s", filter.Language)

	files, err := s.fileRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list files: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	totalCount, err := s.fileRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count files: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	return files, totalCount, nil
}

func (s *fileService) Languages(ctx context.Context) ([]string, error) {
	langs, err := s.fileRepo.Languages(ctx)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return langs, nil
}
