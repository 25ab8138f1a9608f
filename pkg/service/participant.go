package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
)

// RegisterParticipant adds a rider to a batch unless the batch is full.
func (s *Service) RegisterParticipant(ctx context.Context, p *model.Participant) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("participant: %w", model.ErrMissingName)
	}
	return s.tm.RunInTx(ctx, func(ctx context.Context) error {
		batch, err := s.repos.Class().LoadBatch(ctx, p.BatchID)
		if err != nil {
			return notFound(err, "batch %d", p.BatchID)
		}
		num, err := s.repos.Participant().CountByBatchID(ctx, p.BatchID)
		if err != nil {
			return err
		}
		if num >= batch.MaxParticipants {
			return fmt.Errorf("%s (%d riders): %w", batch.Name, num, ErrBatchFull)
		}
		return s.repos.Participant().Create(ctx, p)
	})
}

//nolint:whitespace // editor/linter issue
func (s *Service) Participants(ctx context.Context, batchID int64) (
	[]model.Participant, error,
) {
	return s.store.GetParticipantsByBatch(ctx, batchID)
}
