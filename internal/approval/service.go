package approval

import (
	"context"
	"log/slog"
)

// Service is the read side of approvals used by the admin API.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) ListOpen(ctx context.Context) ([]*Approval, error) {
	approvals, err := s.repo.ListOpen(ctx)
	if err != nil {
		s.logger.Error("failed to list open approvals", "error", err)
		return nil, err
	}
	return approvals, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Approval, error) {
	return s.repo.GetByID(ctx, id)
}
