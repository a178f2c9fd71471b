package alerting

import (
	"context"

	"github.com/sportfeed/aggregator/internal/pkg/models"
	"github.com/sportfeed/aggregator/internal/pkg/taskrun"
)

// Dispatcher pushes one alert to every configured Channel concurrently.
// Unlike source scraping, notifying delivery channels carries no
// detection-risk cost, so fan-out here is safe where it would not be for
// the orchestrators (spec's sequential-rotation design rationale).
type Dispatcher struct {
	channels []Channel
}

func NewDispatcher(channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

// Dispatch sends alert to every channel, logging (not failing the run on)
// individual channel errors.
func (d *Dispatcher) Dispatch(ctx context.Context, alert models.ScraperAlert) {
	if len(d.channels) == 0 {
		return
	}

	tasks := make([]taskrun.Task, 0, len(d.channels))
	for _, ch := range d.channels {
		ch := ch
		tasks = append(tasks, taskrun.Task{
			Name: ch.Name(),
			Run:  func(ctx context.Context) error { return ch.Send(ctx, alert) },
		})
	}
	_ = taskrun.RunAll(ctx, tasks, taskrun.Options{})
}
