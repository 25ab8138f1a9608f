// Package service combines bracket generation and standings with storage.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/kumpetisi/pushbike-service-manager-go/log"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/model"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/api"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/repository/memory"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/utils/cache"
	"github.com/kumpetisi/pushbike-service-manager-go/pkg/utils/cache/loadercache"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrBatchFull     = errors.New("batch is full")
)


type Option func(*Service)

// WithRepositories sets the storage. If the repositories also manage
// transactions they are used as transaction manager too.
func WithRepositories(repos api.Repositories) Option {
	return func(s *Service) {
		s.repos = repos
	}
}

func WithTransactionManager(tm api.TransactionManager) Option {
	return func(s *Service) {
		s.tm = tm
	}
}

// WithResultStore replaces the store used for saving and reading results.
func WithResultStore(store api.ResultStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithCacheExpiration sets how long competitions looked up by short code
// are kept. Zero disables the cache.
func WithCacheExpiration(d time.Duration) Option {
	return func(s *Service) {
		s.cacheExpiration = d
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.meter = m
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

type Service struct {
	repos  api.Repositories
	tm     api.TransactionManager
	store  api.ResultStore
	tracer trace.Tracer
	meter  metric.Meter
	log    *log.Logger

	cacheExpiration time.Duration
	competitions    cache.Cache[string, model.Competition]

	classesCreated metric.Int64Counter
	resultsSaved   metric.Int64Counter
}

// New creates the service. Without repositories everything is kept in memory.
func New(opts ...Option) *Service {
	ret := &Service{
		log:             log.Default().Named("service"),
		cacheExpiration: time.Minute,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.repos == nil {
		ret.repos = memory.New()
	}
	if ret.tm == nil {
		if tm, ok := ret.repos.(api.TransactionManager); ok {
			ret.tm = tm
		} else {
			ret.tm = noTx{}
		}
	}
	if ret.store == nil {
		ret.store = repository.NewResultStore(ret.repos)
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("psm")
	}
	ret.competitions = loadercache.New(
		loadercache.WithExpiration[string, model.Competition](ret.cacheExpiration),
		loadercache.WithLogger[string, model.Competition](ret.log.Named("cache")),
		loadercache.WithLoader[string, model.Competition](
			func(ctx context.Context, code string) (*model.Competition, error) {
				return ret.repos.Competition().LoadByShortCode(ctx, code)
			}))
	if ret.meter == nil {
		ret.meter = otel.Meter("psm")
	}
	ret.classesCreated = ret.counter("psm.classes.created", "classes generated and stored")
	ret.resultsSaved = ret.counter("psm.results.saved", "race results written")
	return ret
}

// counter returns a no-op counter if the meter cannot create one.
func (s *Service) counter(name, description string) metric.Int64Counter {
	c, err := s.meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		s.log.Warn("could not create counter", log.String("name", name), log.ErrorField(err))
		return noop.Int64Counter{}
	}
	return c
}

func (s *Service) Repositories() api.Repositories {
	return s.repos
}

type noTx struct{}

func (noTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// notFound turns a missing row into ErrNotFound
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, api.ErrNoRows) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
	}
	return err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
