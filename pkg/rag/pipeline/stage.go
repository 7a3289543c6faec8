package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// PipelineStage is one discrete, independently failable unit of the base
// retrieval pipeline. A returned error is recorded on the context and the
// executor continues, unless the error is fatal.
type PipelineStage interface {
	Name() string
	Execute(ctx context.Context, sc *SearchContext) error
}

// FatalError aborts the whole pipeline run. Reserved for configuration
// failures where nothing downstream can proceed (e.g. no LLM provider).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal pipeline error: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err so the executor aborts instead of continuing.
func Fatal(err error) error {
	return &FatalError{Err: err}
}

// IsFatal reports whether err should abort the pipeline.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
