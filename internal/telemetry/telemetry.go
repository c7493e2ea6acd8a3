// Package telemetry exports edit log activity as Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/scheduler/internal/edit"
)

const (
	subscriberID = "telemetry"
	playbackID   = "telemetry:playback"
)

// Collector holds the edit log metrics. Construct with New and attach to a
// log with Attach.
type Collector struct {
	// eventsTotal counts log events by type
	eventsTotal *prometheus.CounterVec

	// undoDepth tracks the number of records on the undo stack
	undoDepth prometheus.Gauge

	// redoDepth tracks the number of records on the redo stack
	redoDepth prometheus.Gauge

	// playbackSeconds times each record's undo or redo
	playbackSeconds *prometheus.HistogramVec

	started map[*edit.Record]time.Time
	now     func() time.Time
}

// New registers the metrics on reg. Pass prometheus.DefaultRegisterer to
// expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_edit_events_total",
			Help: "Total edit log events by type",
		}, []string{"event"}),
		undoDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_edit_undo_depth",
			Help: "Records currently on the undo stack",
		}),
		redoDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "scheduler_edit_redo_depth",
			Help: "Records currently on the redo stack",
		}),
		playbackSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduler_edit_playback_seconds",
			Help:    "Time spent undoing or redoing one record",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"direction"}),
		started: make(map[*edit.Record]time.Time),
		now:     time.Now,
	}
}

// Attach subscribes the collector to log.
func (c *Collector) Attach(log *edit.Log) error {
	c.undoDepth.Set(float64(log.UndoLen()))
	c.redoDepth.Set(float64(log.RedoLen()))
	if err := log.Subscribe(subscriberID, c.observe); err != nil {
		return err
	}
	err := log.Subscribe(playbackID, c.timePlayback,
		edit.ForEvents(edit.EventUndoing, edit.EventUndone, edit.EventRedoing, edit.EventRedone))
	if err != nil {
		log.Unsubscribe(subscriberID)
		return err
	}
	return nil
}

// Detach unsubscribes the collector from log.
func (c *Collector) Detach(log *edit.Log) {
	log.Unsubscribe(subscriberID)
	log.Unsubscribe(playbackID)
}

func (c *Collector) observe(ev edit.Event) {
	c.eventsTotal.WithLabelValues(string(ev.Type)).Inc()
	c.undoDepth.Set(float64(ev.UndoDepth))
	c.redoDepth.Set(float64(ev.RedoDepth))
}

// timePlayback pairs each undoing/redoing event with the event that ends
// it. A failed playback leaves its start behind until the record plays
// again.
func (c *Collector) timePlayback(ev edit.Event) {
	switch ev.Type {
	case edit.EventUndoing, edit.EventRedoing:
		c.started[ev.Record] = c.now()
	case edit.EventUndone, edit.EventRedone:
		start, ok := c.started[ev.Record]
		if !ok {
			return
		}
		delete(c.started, ev.Record)
		direction := "undo"
		if ev.Type == edit.EventRedone {
			direction = "redo"
		}
		c.playbackSeconds.WithLabelValues(direction).Observe(c.now().Sub(start).Seconds())
	}
}
