package assets

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/volchara/engine/core"
)

// Job is a unit of work for the JobSystem. OnComplete or OnFailure runs on
// the worker right after Run returns.
type Job struct {
	Run        func() error
	OnComplete func()
	OnFailure  func(err error)
}

// JobSystem is a fixed pool of workers draining a job queue.
type JobSystem struct {
	numWorkers int
	jobQueue   chan Job
	wg         sync.WaitGroup
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job, channelSize),
	}
	js.start()
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				if err := job.Run(); err != nil {
					core.LogError(err.Error())
					if job.OnFailure != nil {
						job.OnFailure(err)
					}
					continue
				}
				if job.OnComplete != nil {
					job.OnComplete()
				}
			}
		}()
	}
}

// Submit queues a job, blocking while the queue is full. Must not be called
// after Shutdown.
func (js *JobSystem) Submit(job Job) {
	js.jobQueue <- job
}

// Shutdown waits for queued jobs to finish and stops the workers.
func (js *JobSystem) Shutdown() error {
	close(js.jobQueue)
	js.wg.Wait()
	return nil
}
