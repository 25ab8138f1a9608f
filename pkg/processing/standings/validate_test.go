package standings

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
)

func TestValidateRaceResults(t *testing.T) {
	type args struct {
		results []model.RaceResult
		opts    []ValidateOption
	}
	tests := []struct {
		name    string
		args    args
		wantErr error
	}{
		{
			name: "valid",
			args: args{results: []model.RaceResult{
				sf(10, 1, 1, 2, 0), sf(10, 2, 2, 1, 0), sf(10, 3, 3, 3, 2),
			}},
		},
		{
			name: "duplicate finish",
			args: args{results: []model.RaceResult{
				sf(10, 1, 1, 1, 0), sf(10, 2, 2, 1, 0), sf(10, 3, 3, 2, 0),
			}},
			wantErr: ErrDuplicatePosition,
		},
		{
			name: "duplicate legacy position",
			args: args{results: []model.RaceResult{
				pos(10, 1, 2, 0), pos(10, 2, 2, 0),
			}},
			wantErr: ErrDuplicatePosition,
		},
		{
			name: "unrecorded positions may repeat",
			args: args{results: []model.RaceResult{
				sf(10, 1, 1, 0, 0), sf(10, 2, 2, 0, 0), sf(10, 3, 3, 1, 0),
			}},
		},
		{
			name: "same start positions are not checked",
			args: args{results: []model.RaceResult{
				sf(10, 1, 1, 1, 0), sf(10, 2, 1, 2, 0),
			}},
		},
		{
			name: "participant twice",
			args: args{results: []model.RaceResult{
				sf(10, 1, 1, 1, 0), sf(10, 1, 1, 2, 0),
			}},
			wantErr: ErrDuplicateParticipant,
		},
		{
			name:    "negative penalty",
			args:    args{results: []model.RaceResult{sf(10, 1, 1, 1, -1)}},
			wantErr: ErrNegativePenalty,
		},
		{
			name:    "negative position",
			args:    args{results: []model.RaceResult{sf(10, 1, -1, 1, 0)}},
			wantErr: ErrInvalidPosition,
		},
		{
			name: "beyond capacity",
			args: args{
				results: []model.RaceResult{sf(10, 1, 1, 9, 0)},
				opts:    []ValidateOption{WithMaxPosition(8)},
			},
			wantErr: ErrInvalidPosition,
		},
		{
			name:    "foreign race",
			args:    args{results: []model.RaceResult{sf(11, 1, 1, 1, 0)}},
			wantErr: ErrForeignRace,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRaceResults(10, tt.args.results, tt.args.opts...)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateAcrossRaces(t *testing.T) {
	// same position in different races is fine
	assert.NoError(t, Validate([]model.RaceResult{sf(10, 1, 1, 1, 0), sf(20, 2, 1, 1, 0)}))
	assert.ErrorIs(t,
		Validate([]model.RaceResult{sf(10, 1, 1, 1, 0), sf(20, 2, 1, 1, 0), sf(20, 3, 2, 1, 0)}),
		ErrDuplicatePosition)
}

func TestNormalize(t *testing.T) {
	in := []model.RaceResult{
		{RaceID: 10, ParticipantID: 1},
		pos(10, 2, 1, 0),
	}
	got := Normalize(in)
	assert.Equal(t, model.StartFinish{}, got[0].Placing)
	assert.Equal(t, model.SimplePosition{Position: 1}, got[1].Placing)
	assert.Nil(t, in[0].Placing)
}
