package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kumpetisi/pushbike-service-manager-go/log"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/api"
)

// CreateCompetition validates and stores a competition.
// Short codes are unique.
func (s *Service) CreateCompetition(ctx context.Context, c *model.Competition) (err error) {
	ctx, span := s.tracer.Start(ctx, "CreateCompetition")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("shortCode", c.ShortCode))

	if err = c.Validate(); err != nil {
		return err
	}
	return s.tm.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.repos.Competition().LoadByShortCode(ctx, c.ShortCode)
		switch {
		case err == nil:
			return fmt.Errorf("competition %q: %w", c.ShortCode, ErrAlreadyExists)
		case !errors.Is(err, api.ErrNoRows):
			return err
		}
		if err := s.repos.Competition().Create(ctx, c); err != nil {
			return err
		}
		s.log.Info("competition created",
			log.String("shortCode", c.ShortCode), log.Int64("id", c.ID))
		return nil
	})
}

func (s *Service) Competitions(ctx context.Context) ([]*model.Competition, error) {
	return s.repos.Competition().LoadAll(ctx)
}

//nolint:whitespace // editor/linter issue
func (s *Service) CompetitionByShortCode(ctx context.Context, code string) (
	*model.Competition, error,
) {
	if err := model.ValidateShortCode(code); err != nil {
		return nil, err
	}
	c, err := s.competitions.Get(ctx, code)
	if err != nil {
		return nil, notFound(err, "competition %q", code)
	}
	ret := *c
	return &ret, nil
}

// DeleteCompetition removes the competition with all its classes and results.
func (s *Service) DeleteCompetition(ctx context.Context, code string) error {
	c, err := s.CompetitionByShortCode(ctx, code)
	if err != nil {
		return err
	}
	s.competitions.Invalidate(ctx, code)
	_, err = s.repos.Competition().DeleteByID(ctx, c.ID)
	return err
}
