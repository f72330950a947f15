package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/fallback"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
)

const pestService = "pest"

// ErrEmptyImage is returned when Detect is handed no image bytes.
var ErrEmptyImage = errors.New("image is empty")

// DetectionPublisher receives completed live detections.
type DetectionPublisher interface {
	PublishDetection(ctx context.Context, res domain.PestDetectionResult) error
}

// Pest identifies pests with the live classifier.
type Pest struct {
	classifier domain.PestClassifier
	publisher  DetectionPublisher
	fallback   *fallback.Service
	degrader   degrader
}

// NewPest creates the pest service. publisher may be nil.
func NewPest(
	classifier domain.PestClassifier,
	publisher DetectionPublisher,
	fb *fallback.Service,
	policy Policy,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Pest {
	return &Pest{
		classifier: classifier,
		publisher:  publisher,
		fallback:   fb,
		degrader:   degrader{policy: policy, logger: logger, metrics: metrics},
	}
}

// Detect classifies img. Any classifier failure is substituted with the
// fixed mock detection.
func (p *Pest) Detect(ctx context.Context, img domain.Image) (Result[domain.PestDetectionResult], error) {
	if len(img.Data) == 0 {
		return Result[domain.PestDetectionResult]{}, ErrEmptyImage
	}

	res, err := p.classifier.Identify(ctx, img)
	if err == nil {
		p.publish(ctx, res)
	}
	return serve(ctx, p.degrader, pestService, res, err, func() domain.PestDetectionResult {
		return p.fallback.MockDetection(img)
	})
}

// Simulate runs the demo detector over the pest table. It never calls the
// classifier and always reports SourceFallback.
func (p *Pest) Simulate(ctx context.Context, img domain.Image) (Result[domain.PestDetectionResult], error) {
	res, err := p.fallback.DetectPest(ctx, img)
	if err != nil {
		return Result[domain.PestDetectionResult]{Cause: err}, err
	}
	return Result[domain.PestDetectionResult]{Value: res, Source: SourceFallback}, nil
}

func (p *Pest) publish(ctx context.Context, res domain.PestDetectionResult) {
	if p.publisher == nil || res.Status != domain.StatusCompleted {
		return
	}
	if err := p.publisher.PublishDetection(ctx, res); err != nil {
		p.degrader.logger.Warn("publish detection failed", "detection_id", res.ID, "error", err)
	}
}
