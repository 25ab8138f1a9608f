// Package snapshot reads batch data from YAML or JSON files so standings can
// be computed without a database.
package snapshot

import (
	"errors"
	"fmt"
	"io"

	"github.com/ohler55/ojg/jp"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/processing/standings"
)

var ErrNoMatch = errors.New("selector matches nothing")

type Race struct {
	ID    int64  `yaml:"id"`
	Name  string `yaml:"name,omitempty"`
	Order int    `yaml:"order"`
}

// Snapshot is one batch with its races, riders and results.
type Snapshot struct {
	Batch        string               `yaml:"batch"`
	Races        []Race               `yaml:"races"`
	Participants []model.Participant  `yaml:"participants"`
	Results      []model.ResultRecord `yaml:"results"`
}

// Load decodes a snapshot. If selector is set it is a JSONPath expression
// picking the snapshot out of a larger document, e.g. "$.batches[1]".
func Load(r io.Reader, selector string) (*Snapshot, error) {
	ret := &Snapshot{}
	if err := decode(r, selector, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// LoadResults decodes a list of result records.
func LoadResults(r io.Reader, selector string) ([]model.RaceResult, error) {
	var records []model.ResultRecord
	if err := decode(r, selector, &records); err != nil {
		return nil, err
	}
	return lo.Map(records, func(item model.ResultRecord, _ int) model.RaceResult {
		return item.ToResult()
	}), nil
}

// Standings validates the results and ranks the participants.
func (s *Snapshot) Standings(opts ...standings.Option) ([]standings.Standing, error) {
	results := lo.Map(s.Results, func(item model.ResultRecord, _ int) model.RaceResult {
		return item.ToResult()
	})
	if err := standings.Validate(results); err != nil {
		return nil, err
	}
	races := lo.Map(s.Races, func(item Race, _ int) standings.RaceRef {
		return standings.RaceRef{ID: item.ID, Order: item.Order}
	})
	return standings.Aggregate(races, s.Participants, standings.GroupByRace(results),
		opts...), nil
}

func decode(r io.Reader, selector string, target any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if selector == "" {
		return yaml.Unmarshal(data, target)
	}

	path, err := jp.ParseString(selector)
	if err != nil {
		return fmt.Errorf("selector %q: %w", selector, err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	found := path.Get(doc)
	if len(found) == 0 {
		return fmt.Errorf("%q: %w", selector, ErrNoMatch)
	}
	sub, err := yaml.Marshal(found[0])
	if err != nil {
		return err
	}
	return yaml.Unmarshal(sub, target)
}
