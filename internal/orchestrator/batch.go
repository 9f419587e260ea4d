package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brandgate/catalog-sync/internal/catalog"
	"github.com/brandgate/catalog-sync/internal/telemetry"
)

// BatchOrchestrator runs the full dependency chain for one catalog
// reference at a time, strictly sequentially.
type BatchOrchestrator struct {
	imps      Importers
	clock     catalog.Clock
	publisher catalog.Publisher
	topic     string
	logger    *zap.Logger
}

// New constructs a BatchOrchestrator. The publisher is optional; when set,
// an import-completed event is published per reference.
func New(
	imps Importers,
	clock catalog.Clock,
	publisher catalog.Publisher,
	topic string,
	logger *zap.Logger,
) *BatchOrchestrator {
	return &BatchOrchestrator{
		imps:      imps,
		clock:     clock,
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

// ImportByReference runs the pipeline for one reference. Expected failure
// kinds are downgraded to entries in the result's error list; only a panic
// inside a stage surfaces as a critical failure, still confined to this
// reference.
func (o *BatchOrchestrator) ImportByReference(ctx context.Context, reference string, opts catalog.Options) catalog.ImportResult {
	start := o.clock.Now()
	result := catalog.ImportResult{
		RunID:     uuid.NewString(),
		Reference: reference,
	}

	o.runGuarded(ctx, &result, opts)

	result.Elapsed = o.clock.Now().Sub(start)
	result.Success = len(result.Errors) == 0
	if result.Success && result.Message == "" {
		result.Message = "import completed"
	}

	outcome := "failed"
	if result.Success {
		outcome = "ok"
	}
	telemetry.ObserveReference(outcome, result.Elapsed)
	o.logger.Info("reference processed",
		zap.String("reference", reference),
		zap.String("run_id", result.RunID),
		zap.Bool("success", result.Success),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("elapsed", result.Elapsed),
	)

	o.publishResult(ctx, &result)
	return result
}

// ImportMany processes references one at a time, fully sequential, and
// returns one result per reference in submission order.
func (o *BatchOrchestrator) ImportMany(ctx context.Context, references []string, opts catalog.Options) []catalog.ImportResult {
	results := make([]catalog.ImportResult, 0, len(references))
	for _, ref := range references {
		results = append(results, o.ImportByReference(ctx, ref, opts))
	}
	return results
}

func (o *BatchOrchestrator) runGuarded(ctx context.Context, result *catalog.ImportResult, opts catalog.Options) {
	defer func() {
		if rec := recover(); rec != nil {
			err := catalog.NewStageError("pipeline", catalog.KindCritical, "%v", rec)
			result.RecordError(err)
			result.Message = fmt.Sprintf("critical failure: %v", rec)
			o.logger.Error("pipeline panic recovered",
				zap.String("reference", result.Reference),
				zap.Any("panic", rec),
			)
		}
	}()

	p := &pipeline{imps: o.imps, opts: opts, logger: o.logger}
	p.run(ctx, &pipelineState{result: result})
}

func (o *BatchOrchestrator) publishResult(ctx context.Context, result *catalog.ImportResult) {
	if o.publisher == nil || o.topic == "" {
		return
	}
	payload := map[string]any{
		"run_id":    result.RunID,
		"reference": result.Reference,
		"success":   result.Success,
		"errors":    len(result.Errors),
		"elapsed":   result.Elapsed.Milliseconds(),
		"timestamp": o.clock.Now().Format(time.RFC3339),
	}
	if _, err := o.publisher.Publish(ctx, o.topic, payload); err != nil {
		o.logger.Warn("publish import event failed",
			zap.String("reference", result.Reference),
			zap.Error(err),
		)
	}
}
