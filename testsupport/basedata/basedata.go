package basedata

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/processing/bracket"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/api"
)

func TestDate() time.Time {
	return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
}

func SampleCompetition() *model.Competition {
	return &model.Competition{
		Name:      "Kejuaraan Pushbike Bandung",
		ShortCode: "kpb2024",
		StartDate: TestDate(),
		EndDate:   TestDate().AddDate(0, 0, 1),
		Location:  "Bandung",
	}
}

// SampleClass returns a class with 2 qualifying batches of 4 riders.
func SampleClass(competitionID int64) *model.Class {
	structure, err := bracket.Generate(2, 4)
	if err != nil {
		log.Fatalf("sampleClass: %v\n", err)
	}
	return &model.Class{
		CompetitionID:        competitionID,
		Name:                 "2020 Girl",
		NumQualifyingBatches: structure.NumBatches,
		MaxParticipants:      structure.MaxParticipants,
		Stages:               structure.Stages,
	}
}

// CreateSampleClass stores the sample competition and class.
//
//nolint:whitespace // editor/linter issue
func CreateSampleClass(
	repos api.Repositories,
	tm api.TransactionManager,
) (*model.Competition, *model.Class) {
	ctx := context.Background()
	c := SampleCompetition()
	var class *model.Class
	err := tm.RunInTx(ctx, func(ctx context.Context) error {
		if err := repos.Competition().Create(ctx, c); err != nil {
			return err
		}
		class = SampleClass(c.ID)
		return repos.Class().Create(ctx, class)
	})
	if err != nil {
		log.Fatalf("createSampleClass: %v\n", err)
	}
	return c, class
}

// SampleRiders registers one rider per name in the batch.
//
//nolint:whitespace // editor/linter issue
func SampleRiders(
	repos api.Repositories,
	batchID int64,
	names ...string,
) []model.Participant {
	ctx := context.Background()
	ret := make([]model.Participant, 0, len(names))
	for i, name := range names {
		p := model.Participant{
			BatchID: batchID,
			Number:  strconv.Itoa(i + 1),
			Name:    name,
		}
		if err := repos.Participant().Create(ctx, &p); err != nil {
			log.Fatalf("sampleRiders: %v\n", err)
		}
		ret = append(ret, p)
	}
	return ret
}
