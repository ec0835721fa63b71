package concurrent

import (
	"context"
	"sync"
)

type JobFunc[T any, G any] func(ctx context.Context, job T) G

// Job keeps the submission position so results can be put back in request order.
type Job[T any] struct {
	Index   int
	Payload T
}

type Result[G any] struct {
	Index int
	Value G
}

type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan Job[T]
	results    chan Result[G]
	wg         sync.WaitGroup
}

func NewWorkerPool[T any, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job[T], jobQueueSize),
		results:    make(chan Result[G], jobQueueSize),
	}
}

func (wp *WorkerPool[T, G]) worker(ctx context.Context, jobFunc JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		wp.results <- Result[G]{Index: job.Index, Value: jobFunc(ctx, job.Payload)}
	}
}

func (wp *WorkerPool[T, G]) Start(ctx context.Context, jobFunc JobFunc[T, G]) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, jobFunc)
	}
}

func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) AddJob(job Job[T]) {
	wp.jobQueue <- job
}

func (wp *WorkerPool[T, G]) CollectResults() chan Result[G] {
	return wp.results
}

func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobQueue)
}

// Map runs jobFunc over jobs with numWorkers goroutines and returns the results in input order.
// jobFunc receives ctx and decides itself how to react to cancellation.
func Map[T any, G any](ctx context.Context, numWorkers int, jobs []T, jobFunc JobFunc[T, G]) []G {
	out := make([]G, len(jobs))
	if len(jobs) == 0 {
		return out
	}
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	wp := NewWorkerPool[T, G](numWorkers, len(jobs))
	wp.Start(ctx, jobFunc)
	for i, job := range jobs {
		wp.AddJob(Job[T]{Index: i, Payload: job})
	}
	wp.Close()
	wp.Wait()

	for res := range wp.CollectResults() {
		out[res.Index] = res.Value
	}
	return out
}
