// Package natskv keeps race results in a NATS JetStream key-value bucket.
// All results of a race are stored under one key and written with
// compare-and-set on the revision of that key.
package natskv

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/samber/lo"

	"github.com/kumpetisi/pushbike-service-manager-go/log"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/api"
)

const (
	DefaultBucket     = "psm_race_results"
	defaultMaxRetries = 5
)

var ErrConflict = errors.New("concurrent update of race results")

type (
	Option func(*repo)
	repo   struct {
		kv         jetstream.KeyValue
		bucket     string
		maxRetries int
		log        *log.Logger
	}
)

var _ api.ResultRepository = (*repo)(nil)

func WithBucket(bucket string) Option {
	return func(r *repo) {
		r.bucket = bucket
	}
}

// WithMaxRetries limits the attempts of a write that lost a revision race.
func WithMaxRetries(n int) Option {
	return func(r *repo) {
		if n > 0 {
			r.maxRetries = n
		}
	}
}

//nolint:whitespace // editor/linter issue
func NewResultRepository(
	ctx context.Context,
	nc *nats.Conn,
	opts ...Option,
) (api.ResultRepository, error) {
	ret := &repo{
		bucket:     DefaultBucket,
		maxRetries: defaultMaxRetries,
		log:        log.Default().Named("repository.natskv"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}
	ret.kv, err = js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      ret.bucket,
		Description: "race results by race id",
		History:     5,
	})
	if err != nil {
		return nil, fmt.Errorf("kv bucket %s: %w", ret.bucket, err)
	}
	return ret, nil
}

//nolint:whitespace // editor/linter issue
func (r *repo) LoadByRaceID(ctx context.Context, raceID int64) (
	[]model.RaceResult, error,
) {
	records, _, err := r.read(ctx, raceID)
	if err != nil {
		return nil, err
	}
	return lo.Map(records, func(item model.ResultRecord, _ int) model.RaceResult {
		return item.ToResult()
	}), nil
}

func (r *repo) Upsert(ctx context.Context, result model.RaceResult) error {
	key := raceKey(result.RaceID)
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		records, rev, err := r.read(ctx, result.RaceID)
		if err != nil {
			return err
		}
		records = merge(records, result.ToRecord())
		data, err := json.Marshal(records)
		if err != nil {
			return err
		}
		if rev == 0 {
			_, err = r.kv.Create(ctx, key, data)
		} else {
			_, err = r.kv.Update(ctx, key, data, rev)
		}
		if err == nil {
			return nil
		}
		if !isRevisionConflict(err) {
			return err
		}
		r.log.Debug("revision conflict, retrying",
			log.String("key", key), log.Int("attempt", attempt+1))
	}
	return fmt.Errorf("%s: %w", key, ErrConflict)
}

// read returns the records of a race and the revision they were read at.
// A race without results has revision 0.
//
//nolint:whitespace // editor/linter issue
func (r *repo) read(ctx context.Context, raceID int64) (
	[]model.ResultRecord, uint64, error,
) {
	entry, err := r.kv.Get(ctx, raceKey(raceID))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	var records []model.ResultRecord
	if err := json.Unmarshal(entry.Value(), &records); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", entry.Key(), err)
	}
	return records, entry.Revision(), nil
}

// replaces the record of the same participant, keeps records sorted
func merge(records []model.ResultRecord, rec model.ResultRecord) []model.ResultRecord {
	records = slices.DeleteFunc(records, func(item model.ResultRecord) bool {
		return item.ParticipantID == rec.ParticipantID
	})
	records = append(records, rec)
	slices.SortFunc(records, func(a, b model.ResultRecord) int {
		return cmp.Compare(a.ParticipantID, b.ParticipantID)
	})
	return records
}

func raceKey(raceID int64) string {
	return "race." + strconv.FormatInt(raceID, 10)
}

func isRevisionConflict(err error) bool {
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) &&
		apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}
