package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Executor runs stages strictly in configured order over one SearchContext.
// Stage failures are recorded and the pipeline continues: a partially
// degraded retrieval is preferable to no response. Only a FatalError
// aborts the run. Total wall time is recorded regardless of outcome.
type Executor struct {
	stages []PipelineStage
	logger *log.Logger
}

// NewExecutor creates an executor over the given ordered stages.
func NewExecutor(logger *log.Logger, stages ...PipelineStage) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{
		stages: stages,
		logger: logger,
	}
}

// Execute runs every stage in order. The returned error is non-nil only
// for fatal failures; everything else lands in sc.Errors.
func (e *Executor) Execute(ctx context.Context, sc *SearchContext) error {
	start := time.Now()
	defer func() {
		sc.Elapsed = time.Since(start)
	}()

	for _, stage := range e.stages {
		err := e.runStage(ctx, stage, sc)
		if err == nil {
			continue
		}

		if IsFatal(err) {
			e.logger.Printf("[PIPELINE] Stage %s failed fatally: %v", stage.Name(), err)
			return err
		}

		e.logger.Printf("[PIPELINE] Stage %s failed, continuing: %v", stage.Name(), err)
		sc.AddError(stage.Name(), err)
	}

	return nil
}

// runStage isolates one stage call. A panic inside a stage is treated
// identically to a reported failure.
func (e *Executor) runStage(ctx context.Context, stage PipelineStage, sc *SearchContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panicked: %v", r)
		}
	}()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	return stage.Execute(ctx, sc)
}
