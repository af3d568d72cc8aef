package service

import (
	"context"
	"fmt"

	"bgremover/internal/repository"
)

// StatsService renders aggregate usage summaries for the periodic report.
type StatsService struct {
	userRepo *repository.UserRepository
}

func NewStatsService(userRepo *repository.UserRepository) *StatsService {
	return &StatsService{userRepo: userRepo}
}

func (s *StatsService) Summary(ctx context.Context) (string, error) {
	stats, err := s.userRepo.Stats(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"📊 <b>Статистика бота</b>\n"+
			"• Пользователей: <b>%d</b>\n"+
			"• Обработано фото: <b>%d</b>",
		stats.TotalUsers, stats.TotalPhotos,
	), nil
}
