package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aarondl/opt/omit"
)

var ErrUnknownStatus = errors.New("unknown status")

type StageStatus string

const (
	StageScheduled  StageStatus = "scheduled"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
)

func ParseStageStatus(s string) (StageStatus, error) {
	switch st := StageStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StageScheduled, StageInProgress, StageCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("stage status %q: %w", s, ErrUnknownStatus)
	}
}

// StageKind tells where a stage sits in the bracket.
type StageKind string

const (
	KindQualifying   StageKind = "qualifying"
	KindIntermediate StageKind = "intermediate"
	KindFinal        StageKind = "final"
)

type RaceType string

const (
	RaceQualifying RaceType = "qualifying"
	RaceSemifinal  RaceType = "semifinal"
	RaceFinal      RaceType = "final"
)

type RaceStatus string

const (
	RaceScheduled RaceStatus = "scheduled"
	RaceCompleted RaceStatus = "completed"
)

// RaceStatus returns the status the races of a stage take with s.
// Races keep their status while the stage is in progress.
func (s StageStatus) RaceStatus() omit.Val[RaceStatus] {
	switch s {
	case StageScheduled:
		return omit.From(RaceScheduled)
	case StageCompleted:
		return omit.From(RaceCompleted)
	default:
		return omit.Val[RaceStatus]{}
	}
}

type Class struct {
	ID                   int64    `json:"id"                   yaml:"id"`
	CompetitionID        int64    `json:"competitionId"        yaml:"competitionId"`
	Name                 string   `json:"name"                 yaml:"name"`
	NumQualifyingBatches int      `json:"numQualifyingBatches" yaml:"numQualifyingBatches"`
	MaxParticipants      int      `json:"maxParticipants"      yaml:"maxParticipants"`
	Stages               []*Stage `json:"stages"               yaml:"stages"`
}

type Stage struct {
	ID      int64       `json:"id"      yaml:"id"`
	ClassID int64       `json:"classId" yaml:"classId,omitempty"`
	Name    string      `json:"name"    yaml:"name"`
	Order   int         `json:"order"   yaml:"order"`
	Kind    StageKind   `json:"kind"    yaml:"kind"`
	Status  StageStatus `json:"status"  yaml:"status"`
	Batches []*Batch    `json:"batches" yaml:"batches"`
}

type Batch struct {
	ID              int64   `json:"id"              yaml:"id"`
	StageID         int64   `json:"stageId"         yaml:"stageId"`
	Name            string  `json:"name"            yaml:"name"`
	MaxParticipants int     `json:"maxParticipants" yaml:"maxParticipants"`
	Races           []*Race `json:"races"           yaml:"races"`
}

type Race struct {
	ID      int64      `json:"id"      yaml:"id"`
	BatchID int64      `json:"batchId" yaml:"batchId"`
	Name    string     `json:"name"    yaml:"name"`
	Order   int        `json:"order"   yaml:"order"`
	Type    RaceType   `json:"type"    yaml:"type"`
	Status  RaceStatus `json:"status"  yaml:"status"`
}

type Participant struct {
	ID       int64  `json:"id"       yaml:"id"`
	BatchID  int64  `json:"batchId"  yaml:"batchId"`
	Number   string `json:"number"   yaml:"number"`
	Name     string `json:"name"     yaml:"name"`
	Nickname string `json:"nickname" yaml:"nickname,omitempty"`
	Club     string `json:"club"     yaml:"club,omitempty"`
}

// ClassSlug returns the url segment for a class name ("2020 Girl" -> "2020-girl").
func ClassSlug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}

// MatchesSlug reports whether slug refers to the class name.
// Dashes are read as spaces, case is ignored.
func MatchesSlug(name, slug string) bool {
	return strings.EqualFold(
		strings.Join(strings.Fields(name), " "),
		strings.ReplaceAll(slug, "-", " "))
}

// Batches returns the batches of all stages in stage order.
func (c *Class) Batches() []*Batch {
	ret := make([]*Batch, 0)
	for _, s := range c.Stages {
		ret = append(ret, s.Batches...)
	}
	return ret
}
