package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateShortCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{name: "ok", code: "bjb2024"},
		{name: "min length", code: "ab"},
		{name: "max length", code: "abcdefghij"},
		{name: "too short", code: "a", wantErr: true},
		{name: "too long", code: "abcdefghijk", wantErr: true},
		{name: "upper case", code: "BJB", wantErr: true},
		{name: "dash", code: "bjb-24", wantErr: true},
		{name: "empty", code: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShortCode(tt.code)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidShortCode)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompetitionValidate(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := Competition{Name: "Kejurnas", ShortCode: "kj24", StartDate: start, EndDate: start}
	assert.NoError(t, c.Validate())

	c.EndDate = start.AddDate(0, 0, -1)
	assert.ErrorIs(t, c.Validate(), ErrInvalidDateRange)

	c.Name = " "
	assert.ErrorIs(t, c.Validate(), ErrMissingName)
}

func TestClassSlug(t *testing.T) {
	assert.Equal(t, "2020-girl", ClassSlug("2020 Girl"))
	assert.Equal(t, "2019-boy-pro", ClassSlug(" 2019  Boy Pro "))
	assert.True(t, MatchesSlug("2020 Girl", "2020-girl"))
	assert.True(t, MatchesSlug("2020 Girl", "2020-GIRL"))
	assert.False(t, MatchesSlug("2020 Girl", "2020-boy"))
}

func TestParseStageStatus(t *testing.T) {
	s, err := ParseStageStatus("In_Progress")
	assert.NoError(t, err)
	assert.Equal(t, StageInProgress, s)
	_, err = ParseStageStatus("done")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestStageRaceStatus(t *testing.T) {
	assert.Equal(t, RaceCompleted, StageCompleted.RaceStatus().GetOrZero())
	assert.Equal(t, RaceScheduled, StageScheduled.RaceStatus().GetOrZero())
	assert.False(t, StageInProgress.RaceStatus().IsSet())
}

func TestResultRecord(t *testing.T) {
	three, one, two := 3, 1, 2
	tests := []struct {
		name string
		rec  ResultRecord
		want RaceResult
	}{
		{
			name: "legacy position",
			rec:  ResultRecord{RaceID: 1, ParticipantID: 2, Position: &three, Penalty: 1},
			want: RaceResult{RaceID: 1, ParticipantID: 2,
				Placing: SimplePosition{Position: 3}, Penalty: 1},
		},
		{
			name: "start finish",
			rec: ResultRecord{RaceID: 1, ParticipantID: 2,
				StartPosition: &one, FinishPosition: &two},
			want: RaceResult{RaceID: 1, ParticipantID: 2,
				Placing: StartFinish{Start: 1, Finish: 2}},
		},
		{
			name: "finish only",
			rec:  ResultRecord{RaceID: 1, ParticipantID: 2, FinishPosition: &two},
			want: RaceResult{RaceID: 1, ParticipantID: 2, Placing: StartFinish{Finish: 2}},
		},
		{
			name: "nothing recorded",
			rec:  ResultRecord{RaceID: 1, ParticipantID: 2},
			want: RaceResult{RaceID: 1, ParticipantID: 2, Placing: StartFinish{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rec.ToResult()
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, got.ToRecord().ToResult())
		})
	}
}
