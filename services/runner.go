package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/cristian-franco-ml/Hotel-v2/models"
)

// Task is one unit of work for RunAll.
type Task struct {
	Name string
	Run  func(ctx context.Context) models.JobReport
}

// RunAll processes tasks on a bounded pool and returns their reports in
// submission order. A panicking task yields a failed report.
func RunAll(ctx context.Context, tasks []Task, workers int, logger *slog.Logger) []models.JobReport {
	ordered := make([]models.JobReport, len(tasks))
	if len(tasks) == 0 {
		return ordered
	}
	workers = min(max(workers, 1), len(tasks))

	type job struct {
		index int
		task  Task
	}
	type done struct {
		index  int
		report models.JobReport
	}

	jobs := make(chan job)
	results := make(chan done, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jb := range jobs {
				logger.Debug("task starting", "task", jb.task.Name, "index", jb.index)
				results <- done{index: jb.index, report: runTask(ctx, jb.task, logger)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, t := range tasks {
			select {
			case jobs <- job{index: i, task: t}:
			case <-ctx.Done():
				for k := i; k < len(tasks); k++ {
					results <- done{index: k, report: models.JobReport{Job: tasks[k].Name, Error: ctx.Err().Error()}}
				}
				return
			}
		}
	}()

	// Every task yields exactly one result, from a worker or from the
	// cancelled feeder.
	for range tasks {
		r := <-results
		ordered[r.index] = r.report
	}
	wg.Wait()
	return ordered
}

func runTask(ctx context.Context, t Task, logger *slog.Logger) (report models.JobReport) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("task panicked", "task", t.Name, "panic", p, "stack", string(debug.Stack()))
			report = models.JobReport{Job: t.Name, Error: fmt.Sprintf("panic: %v", p)}
		}
	}()
	return t.Run(ctx)
}
