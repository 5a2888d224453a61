package publisher

import (
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix is the root of every subject published by the dashboard
const SubjectPrefix = "dashboard"

type NATSPublisher struct {
	nc          *nats.Conn
	logSubjects bool
	metrics     PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("smarttransit-dashboard-api"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, logSubjects: logSubjects, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

// SelectionMessage is published on dashboard.selection.<sessionId>
type SelectionMessage struct {
	SessionID string    `json:"sessionId"`
	Action    string    `json:"action"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	BusID     string    `json:"busId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// JourneyMessage is published on dashboard.journey.<sessionId>
type JourneyMessage struct {
	SessionID  string    `json:"sessionId"`
	Pickup     string    `json:"pickup"`
	Fallback   bool      `json:"fallback"`
	BusIDs     []string  `json:"busIds"`
	DurationMs int64     `json:"durationMs"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func (p *NATSPublisher) PublishSelection(msg SelectionMessage) error {
	return p.publish(SelectionSubject(msg.SessionID), msg)
}

func (p *NATSPublisher) PublishJourney(msg JourneyMessage) error {
	return p.publish(JourneySubject(msg.SessionID), msg)
}

// SelectionSubject returns the subject for selection events of a session
func SelectionSubject(sessionID string) string {
	return SubjectPrefix + ".selection." + subjectToken(sessionID)
}

// JourneySubject returns the subject for journey search events of a session
func JourneySubject(sessionID string) string {
	return SubjectPrefix + ".journey." + subjectToken(sessionID)
}

func (p *NATSPublisher) publish(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Printf("nats publish subject=%s", subject)
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
