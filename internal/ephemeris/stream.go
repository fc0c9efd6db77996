package ephemeris

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"astroref/internal/body"
	"astroref/internal/metrics"
)

// streamFrame is one pushed sky. Every frame replaces the cached snapshot.
type streamFrame struct {
	Ts       time.Time      `json:"ts"`
	Readings []body.Reading `json:"readings"`
}

// Stream consumes websocket frames of readings and stores each as a snapshot.
type Stream struct {
	url   string
	cache *Cache
	log   zerolog.Logger
}

// NewStream wires a websocket feed into cache.
func NewStream(url string, cache *Cache, log zerolog.Logger) *Stream {
	return &Stream{url: url, cache: cache, log: log}
}

// Run keeps the stream connected until the context is canceled.
func (s *Stream) Run(ctx context.Context) error {
	if s.url == "" {
		return fmt.Errorf("stream provider requires stream_url")
	}
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.EphemerisFetchesTotal.WithLabelValues(ProviderStream, "error").Inc()
			s.log.Warn().Err(err).Dur("backoff", backoff).Msg("ephemeris stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (s *Stream) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.log.Info().Str("provider", ProviderStream).Str("url", s.url).Msg("connected ephemeris stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(2 * time.Minute))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(2 * time.Minute))
		return nil
	})

	// unblock ReadMessage when the caller cancels
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		conn.SetReadDeadline(time.Now().Add(2 * time.Minute))

		snap, err := decodeFrame(message)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to decode ephemeris frame")
			continue
		}
		s.cache.Store(snap)
		metrics.EphemerisFetchesTotal.WithLabelValues(ProviderStream, "ok").Inc()
		for id := range snap.Longitudes {
			metrics.ReadingsTotal.WithLabelValues(string(id)).Inc()
		}
	}
}

func decodeFrame(message []byte) (Snapshot, error) {
	var frame streamFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		return Snapshot{}, err
	}
	if len(frame.Readings) == 0 {
		return Snapshot{}, fmt.Errorf("frame carries no readings")
	}
	taken := frame.Ts
	lons := make(map[body.ID]float64, len(frame.Readings))
	for _, r := range frame.Readings {
		id, ok := body.Parse(string(r.Body))
		if !ok {
			return Snapshot{}, fmt.Errorf("unknown body %q", r.Body)
		}
		if math.IsNaN(r.Longitude) || math.IsInf(r.Longitude, 0) {
			return Snapshot{}, fmt.Errorf("non-finite longitude for %s", id)
		}
		lons[id] = r.Longitude
		if taken.IsZero() || r.Ts.After(taken) {
			taken = r.Ts
		}
	}
	if taken.IsZero() {
		return Snapshot{}, fmt.Errorf("frame carries no timestamp")
	}
	return Snapshot{
		ID:         uuid.New().String(),
		Provider:   ProviderStream,
		TakenAt:    taken.UTC(),
		Longitudes: lons,
	}, nil
}
