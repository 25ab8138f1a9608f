package model

// Placing is the outcome of one participant in one race.
// It is either a SimplePosition (legacy scoring) or a StartFinish pair.
// A position of 0 means "not recorded"; valid positions start at 1.
type Placing interface {
	isPlacing()
}

type SimplePosition struct {
	Position int
}

type StartFinish struct {
	Start  int
	Finish int
}

func (SimplePosition) isPlacing() {}
func (StartFinish) isPlacing()    {}

// FinishOf returns the position that counts for the score.
func FinishOf(p Placing) int {
	switch v := p.(type) {
	case SimplePosition:
		return v.Position
	case StartFinish:
		return v.Finish
	default:
		return 0
	}
}

// StartOf returns the start position. SimplePosition carries none.
func StartOf(p Placing) int {
	if v, ok := p.(StartFinish); ok {
		return v.Start
	}
	return 0
}

type RaceResult struct {
	RaceID        int64
	ParticipantID int64
	Placing       Placing
	Penalty       int
}

// ResultRecord is the loose serialized shape of a RaceResult as it arrives
// from files or key-value storage. Either Position or the start/finish pair is used.
type ResultRecord struct {
	RaceID         int64 `json:"raceId"                   yaml:"raceId"`
	ParticipantID  int64 `json:"participantId"            yaml:"participantId"`
	Position       *int  `json:"position,omitempty"       yaml:"position,omitempty"`
	StartPosition  *int  `json:"startPosition,omitempty"  yaml:"startPosition,omitempty"`
	FinishPosition *int  `json:"finishPosition,omitempty" yaml:"finishPosition,omitempty"`
	Penalty        int   `json:"penaltyPoints"            yaml:"penaltyPoints"`
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// ToResult resolves the record into the tagged representation.
// A record that only carries Position is a SimplePosition.
func (r ResultRecord) ToResult() RaceResult {
	var placing Placing
	if r.Position != nil && r.StartPosition == nil && r.FinishPosition == nil {
		placing = SimplePosition{Position: *r.Position}
	} else {
		placing = StartFinish{Start: deref(r.StartPosition), Finish: deref(r.FinishPosition)}
	}
	return RaceResult{
		RaceID:        r.RaceID,
		ParticipantID: r.ParticipantID,
		Placing:       placing,
		Penalty:       r.Penalty,
	}
}

func (r RaceResult) ToRecord() ResultRecord {
	ret := ResultRecord{
		RaceID:        r.RaceID,
		ParticipantID: r.ParticipantID,
		Penalty:       r.Penalty,
	}
	switch v := r.Placing.(type) {
	case SimplePosition:
		ret.Position = &v.Position
	case StartFinish:
		ret.StartPosition = &v.Start
		ret.FinishPosition = &v.Finish
	}
	return ret
}
