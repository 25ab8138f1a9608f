package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kumpetisi/pushbike-service-manager-go/log"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/processing/bracket"
)

type CreateClassRequest struct {
	CompetitionID   int64
	Name            string
	NumBatches      int
	MaxParticipants int
}

// CreateClass generates the stage/batch/race skeleton and stores it together
// with the class. Nothing is stored if the bracket configuration is invalid.
//
//nolint:whitespace // editor/linter issue
func (s *Service) CreateClass(ctx context.Context, req CreateClassRequest) (
	ret *model.Class, err error,
) {
	ctx, span := s.tracer.Start(ctx, "CreateClass")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(
		attribute.Int("batches", req.NumBatches),
		attribute.Int("maxParticipants", req.MaxParticipants))

	if req.Name == "" {
		return nil, fmt.Errorf("class: %w", model.ErrMissingName)
	}
	structure, err := bracket.Generate(req.NumBatches, req.MaxParticipants,
		bracket.WithLogger(s.log.Named("bracket")))
	if err != nil {
		return nil, err
	}
	ret = &model.Class{
		CompetitionID:        req.CompetitionID,
		Name:                 req.Name,
		NumQualifyingBatches: structure.NumBatches,
		MaxParticipants:      structure.MaxParticipants,
		Stages:               structure.Stages,
	}
	err = s.tm.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.repos.Competition().LoadByID(ctx, req.CompetitionID); err != nil {
			return notFound(err, "competition %d", req.CompetitionID)
		}
		return s.repos.Class().Create(ctx, ret)
	})
	if err != nil {
		return nil, err
	}
	s.classesCreated.Add(ctx, 1)
	s.log.Info("class created",
		log.String("name", ret.Name),
		log.Int64("id", ret.ID),
		log.Int("batches", len(structure.Batches())))
	return ret, nil
}

func (s *Service) Class(ctx context.Context, id int64) (*model.Class, error) {
	c, err := s.repos.Class().LoadByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "class %d", id)
	}
	return c, nil
}

// ClassBySlug finds a class of a competition by the slug of its name.
//
//nolint:whitespace // editor/linter issue
func (s *Service) ClassBySlug(ctx context.Context, shortCode, slug string) (
	*model.Class, error,
) {
	c, err := s.CompetitionByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	classes, err := s.repos.Class().LoadByCompetitionID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	for _, class := range classes {
		if model.MatchesSlug(class.Name, slug) {
			return class, nil
		}
	}
	return nil, fmt.Errorf("class %q in %q: %w", slug, shortCode, ErrNotFound)
}

// SetStageStatus moves a stage to another status.
//
//nolint:whitespace // editor/linter issue
func (s *Service) SetStageStatus(
	ctx context.Context,
	stageID int64,
	status model.StageStatus,
) error {
	if _, err := model.ParseStageStatus(string(status)); err != nil {
		return err
	}
	num, err := s.repos.Class().UpdateStageStatus(ctx, stageID, status)
	if err != nil {
		return err
	}
	if num == 0 {
		return fmt.Errorf("stage %d: %w", stageID, ErrNotFound)
	}
	return nil
}
