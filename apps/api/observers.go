package main

import (
	"log"
	"time"

	"github.com/smarttransit/dashboard/apps/api/dashboard"
	"github.com/smarttransit/dashboard/apps/api/handlers"
	"github.com/smarttransit/dashboard/apps/api/metrics"
	"github.com/smarttransit/dashboard/apps/api/publisher"
)

// eventObserver forwards session events to metrics and, if configured, NATS
type eventObserver struct {
	metrics *metrics.Collector
	pub     *publisher.NATSPublisher
}

func newEventObserver(m *metrics.Collector, pub *publisher.NATSPublisher) *eventObserver {
	return &eventObserver{metrics: m, pub: pub}
}

func (o *eventObserver) SelectionChanged(sessionID string, t dashboard.Transition) {
	o.metrics.SelectionTransitions.WithLabelValues(t.Action).Inc()

	if o.pub == nil {
		return
	}
	err := o.pub.PublishSelection(publisher.SelectionMessage{
		SessionID: sessionID,
		Action:    t.Action,
		From:      string(t.From),
		To:        string(t.To),
		BusID:     t.BusID,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("nats publish selection error: %v", err)
	}
}

func (o *eventObserver) JourneySearched(sessionID string, r dashboard.JourneyResult) {
	o.metrics.ObserveSearch(handlers.SearchOutcome(r.Results, r.Err), r.Duration)

	if o.pub == nil {
		return
	}
	msg := publisher.JourneyMessage{
		SessionID:  sessionID,
		Pickup:     r.Pickup,
		Fallback:   r.Fallback,
		BusIDs:     make([]string, 0, len(r.Results)),
		DurationMs: r.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	for _, e := range r.Results {
		msg.BusIDs = append(msg.BusIDs, e.BusID)
	}
	if r.Err != nil {
		msg.Error = r.Err.Error()
	}
	if err := o.pub.PublishJourney(msg); err != nil {
		log.Printf("nats publish journey error: %v", err)
	}
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
