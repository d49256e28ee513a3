package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/Skryldev/talkinghead/domain/model"
	"github.com/Skryldev/talkinghead/pkg/logger"
	"github.com/Skryldev/talkinghead/pkg/progress"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultWorkers is the batch concurrency used when none is configured
const DefaultWorkers = 4

// WorkerPool manages concurrent job execution
type WorkerPool struct {
	pipeline *Pipeline
	workers  int
	log      *logger.Logger
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(p *Pipeline, workers int, log *logger.Logger) *WorkerPool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if log == nil {
		log = logger.Nop()
	}
	return &WorkerPool{
		pipeline: p,
		workers:  workers,
		log:      log,
	}
}

// Run processes batch jobs concurrently and sends results to returned channel
// The channel is closed when all jobs are complete or context is canceled
func (wp *WorkerPool) Run(ctx context.Context, jobs []model.BatchJob, reporter progress.Reporter) (<-chan model.BatchResult, error) {
	results := make(chan model.BatchResult, len(jobs))

	go func() {
		defer close(results)

		var wg sync.WaitGroup
		semaphore := make(chan struct{}, wp.workers)

		for _, job := range jobs {
			select {
			case <-ctx.Done():
				results <- model.BatchResult{
					JobID: job.ID,
					Err:   ctx.Err(),
				}
				continue
			case semaphore <- struct{}{}:
			}

			wg.Add(1)
			go func(j model.BatchJob) {
				defer wg.Done()
				defer func() { <-semaphore }()

				result, err := wp.processJob(ctx, j, reporter)
				results <- model.BatchResult{
					JobID:  j.ID,
					Result: result,
					Err:    err,
				}
			}(job)
		}

		wg.Wait()
	}()

	return results, nil
}

func (wp *WorkerPool) processJob(ctx context.Context, job model.BatchJob, reporter progress.Reporter) (*model.ProcessingResult, error) {
	// every job owns its options, even when the caller shared one value
	opts := model.DefaultEnhancementOptions()
	if job.Options != nil {
		*opts = *job.Options
	}

	log := wp.log.With(zap.String("job_id", job.ID))
	pipelineJob := &Job{
		ID:         job.ID,
		InputPath:  job.InputPath,
		OutputPath: job.OutputPath,
		Options:    opts,
		Reporter:   reporter,
		Log:        log,
	}

	log.Info("processing batch job", zap.String("input", job.InputPath))

	result, err := wp.pipeline.Run(ctx, pipelineJob)
	if err != nil {
		log.Error("batch job failed", zap.Error(err))
		return nil, fmt.Errorf("job %s failed: %w", job.ID, err)
	}

	return result, nil
}

// Collect drains a batch result channel. Successful results are returned in
// completion order; every failure is combined into the returned error.
func Collect(results <-chan model.BatchResult) ([]*model.ProcessingResult, error) {
	var (
		done []*model.ProcessingResult
		errs error
	)
	for res := range results {
		if res.Err != nil {
			errs = multierr.Append(errs, res.Err)
			continue
		}
		done = append(done, res.Result)
	}
	return done, errs
}
