package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
)

var (
	ErrInvalidShortCode = errors.New("short code must be 2-10 lowercase letters or digits")
	ErrInvalidDateRange = errors.New("competition ends before it starts")
	ErrMissingName      = errors.New("name is required")
)

var shortCodeRegex = regexp.MustCompile(`^[a-z0-9]{2,10}$`)

type Competition struct {
	ID         int64     `json:"id"         yaml:"id"`
	ExternalID uuid.UUID `json:"externalId" yaml:"externalId"`
	Name       string    `json:"name"       yaml:"name"`
	ShortCode  string    `json:"shortCode"  yaml:"shortCode"`
	StartDate  time.Time `json:"startDate"  yaml:"startDate"`
	EndDate    time.Time `json:"endDate"    yaml:"endDate"`
	Location   string    `json:"location"   yaml:"location"`
	Rules      string    `json:"rules"      yaml:"rules,omitempty"`
	Schedule   string    `json:"schedule"   yaml:"schedule,omitempty"`
}

// ValidateShortCode checks the code used as url segment for a competition.
func ValidateShortCode(code string) error {
	if !shortCodeRegex.MatchString(code) {
		return fmt.Errorf("%q: %w", code, ErrInvalidShortCode)
	}
	return nil
}

func (c *Competition) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrMissingName
	}
	if err := ValidateShortCode(c.ShortCode); err != nil {
		return err
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return ErrInvalidDateRange
	}
	return nil
}
