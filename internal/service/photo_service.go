package service

import (
	"context"

	"bgremover/internal/remover"
	"bgremover/internal/repository"
)

// PhotoService runs background removal behind a bounded worker pool so burst
// load cannot spawn unbounded concurrent removals.
type PhotoService struct {
	userRepo *repository.UserRepository
	remover  remover.Remover
	slots    chan struct{}
}

func NewPhotoService(userRepo *repository.UserRepository, rm remover.Remover, workers int) *PhotoService {
	if workers < 1 {
		workers = 1
	}
	return &PhotoService{
		userRepo: userRepo,
		remover:  rm,
		slots:    make(chan struct{}, workers),
	}
}

// Process removes the background from the image. Calls beyond the pool size
// wait for a free slot or for ctx cancellation.
func (s *PhotoService) Process(ctx context.Context, image []byte) ([]byte, error) {
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.slots }()

	return s.remover.Remove(ctx, image)
}

// ConfirmDelivered bumps the user's counter after the processed image was
// actually sent back. Kept separate from Process so a failed reply never
// counts.
func (s *PhotoService) ConfirmDelivered(ctx context.Context, userID int64) error {
	return s.userRepo.IncrementPhotosProcessed(ctx, userID)
}
