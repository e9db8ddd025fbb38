package resources

import (
	"context"
	"fmt"

	"github.com/aescanero/coyote/pkg/domain"
	"github.com/aescanero/coyote/pkg/metrics"
	"github.com/aescanero/coyote/pkg/ports"
	"go.uber.org/zap"
)

// Service stores and retrieves resources
type Service struct {
	store     ports.ResourceStore
	metrics   *metrics.ServerMetrics
	validator *Validator
	logger    *zap.Logger
}

// NewService creates a new resource service
func NewService(store ports.ResourceStore, m *metrics.ServerMetrics, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		metrics:   m,
		validator: NewValidator(),
		logger:    logger,
	}
}

// Put stores value under key
func (s *Service) Put(ctx context.Context, key string, value []byte) error {
	err := s.put(ctx, key, value)
	s.record(s.metrics.PutRequest, err)
	if err != nil {
		s.logger.Debug("put failed",
			zap.String("key", key),
			zap.Int("size", len(value)),
			zap.Error(err))
		return err
	}

	s.logger.Debug("resource stored",
		zap.String("key", key),
		zap.Int("size", len(value)))
	return nil
}

// Create stores value under key unless the key already holds a resource
func (s *Service) Create(ctx context.Context, key string, value []byte) error {
	err := s.validate(key, value)
	if err == nil {
		if err = s.store.PutIfAbsent(ctx, key, value); err != nil {
			err = classify(err, fmt.Sprintf("failed to create resource %s", key))
		}
	}
	s.record(s.metrics.PutRequest, err)
	if err != nil {
		s.logger.Debug("create failed",
			zap.String("key", key),
			zap.Error(err))
		return err
	}

	s.logger.Debug("resource created",
		zap.String("key", key),
		zap.Int("size", len(value)))
	return nil
}

func (s *Service) put(ctx context.Context, key string, value []byte) error {
	if err := s.validate(key, value); err != nil {
		return err
	}

	if err := s.store.Put(ctx, key, value); err != nil {
		return classify(err, fmt.Sprintf("failed to store resource %s", key))
	}
	return nil
}

func (s *Service) validate(key string, value []byte) error {
	if err := s.validator.ValidateKey(key); err != nil {
		return err
	}
	return s.validator.ValidateValue(value)
}

// Get returns the value stored under key
func (s *Service) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.get(ctx, key)
	s.record(s.metrics.GetRequest, err)
	if err != nil {
		s.logger.Debug("get failed",
			zap.String("key", key),
			zap.Error(err))
		return nil, err
	}
	return value, nil
}

func (s *Service) get(ctx context.Context, key string) ([]byte, error) {
	if err := s.validator.ValidateKey(key); err != nil {
		return nil, err
	}

	value, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, classify(err, fmt.Sprintf("failed to load resource %s", key))
	}
	return value, nil
}

// Delete removes the resource stored under key
func (s *Service) Delete(ctx context.Context, key string) error {
	err := s.validator.ValidateKey(key)
	if err == nil {
		if err = s.store.Delete(ctx, key); err != nil {
			err = classify(err, fmt.Sprintf("failed to delete resource %s", key))
		}
	}
	s.record(s.metrics.DeleteRequest, err)
	if err != nil {
		s.logger.Debug("delete failed",
			zap.String("key", key),
			zap.Error(err))
		return err
	}

	s.logger.Debug("resource deleted", zap.String("key", key))
	return nil
}

func (s *Service) record(m *metrics.SuccessErrorMetric, err error) {
	if err != nil {
		m.MarkError(1)
		s.metrics.MarkException(err)
		return
	}
	m.MarkSuccess(1)
}

// classify keeps domain errors and wraps everything else as an operation failure.
func classify(err error, message string) error {
	if domain.KindOf(err) != domain.KindInternal {
		return err
	}
	return domain.NewOperationFailed(message, err)
}
