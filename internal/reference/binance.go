package reference

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	gws "github.com/gorilla/websocket"
	"github.com/mselser95/polymarket-lag/pkg/types"
	"github.com/mselser95/polymarket-lag/pkg/websocket"
	"go.uber.org/zap"
)

// Stream consumes Binance ticker streams for the configured reference symbols,
// records samples into per-symbol rolling windows, and emits MoveEvents when a
// window crosses the detection threshold. One connection per symbol.
type Stream struct {
	cfg      StreamConfig
	feeds    map[string]*Feed
	moveChan chan *types.MoveEvent
	logger   *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// StreamConfig holds reference stream configuration.
type StreamConfig struct {
	WSBaseURL             string // e.g. wss://stream.binance.com:9443/ws
	Symbols               []string
	Window                time.Duration
	ThresholdPct          float64
	DialTimeout           time.Duration
	PongTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	MoveBufferSize        int
	Logger                *zap.Logger
}

// NewStream creates a reference stream with one rolling-window feed per symbol.
func NewStream(cfg StreamConfig) *Stream {
	ctx, cancel := context.WithCancel(context.Background())

	feeds := make(map[string]*Feed, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		feeds[symbol] = NewFeed(FeedConfig{
			Symbol:       symbol,
			Window:       cfg.Window,
			ThresholdPct: cfg.ThresholdPct,
			Logger:       cfg.Logger,
		})
	}

	bufferSize := cfg.MoveBufferSize
	if bufferSize <= 0 {
		bufferSize = 100
	}

	return &Stream{
		cfg:      cfg,
		feeds:    feeds,
		moveChan: make(chan *types.MoveEvent, bufferSize),
		logger:   cfg.Logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches one stream goroutine per symbol.
func (s *Stream) Start() error {
	s.logger.Info("reference-stream-starting",
		zap.Strings("symbols", s.cfg.Symbols),
		zap.Duration("window", s.cfg.Window),
		zap.Float64("threshold-pct", s.cfg.ThresholdPct))

	for _, symbol := range s.cfg.Symbols {
		s.wg.Add(1)
		go s.runSymbol(symbol)
	}

	return nil
}

// runSymbol maintains the connection lifecycle for one symbol, reconnecting
// with exponential backoff on failures.
func (s *Stream) runSymbol(symbol string) {
	defer s.wg.Done()

	feed := s.feeds[symbol]
	streamURL := fmt.Sprintf("%s/%s@ticker", s.cfg.WSBaseURL, strings.ToLower(symbol))

	reconnectMgr := websocket.NewReconnectManager(websocket.ReconnectConfig{
		InitialDelay:      s.cfg.ReconnectInitialDelay,
		MaxDelay:          s.cfg.ReconnectMaxDelay,
		BackoffMultiplier: s.cfg.ReconnectBackoffMult,
		JitterPercent:     0.2,
	}, s.logger.With(zap.String("symbol", symbol)))

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		conn, err := s.connect(streamURL)
		if err != nil {
			s.logger.Warn("reference-connect-failed",
				zap.String("symbol", symbol),
				zap.Error(err))

			err = reconnectMgr.Reconnect(s.ctx, func(ctx context.Context) error {
				var dialErr error
				conn, dialErr = s.connect(streamURL)
				return dialErr
			})
			if err != nil {
				// Context cancelled during reconnection
				return
			}
		}

		reconnectMgr.Reset()
		s.logger.Info("reference-stream-connected", zap.String("symbol", symbol))

		s.readLoop(conn, feed, symbol)

		_ = conn.Close()

		select {
		case <-s.ctx.Done():
			return
		default:
			s.logger.Warn("reference-stream-disconnected", zap.String("symbol", symbol))
		}
	}
}

// connect dials the ticker stream for one symbol.
func (s *Stream) connect(streamURL string) (*gws.Conn, error) {
	dialer := gws.Dialer{
		HandshakeTimeout: s.cfg.DialTimeout,
	}

	conn, _, err := dialer.DialContext(s.ctx, streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", streamURL, err)
	}

	return conn, nil
}

// readLoop reads ticker messages until the connection breaks or the stream stops.
func (s *Stream) readLoop(conn *gws.Conn, feed *Feed, symbol string) {
	// Binance sends pings; respond and extend the read deadline.
	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout + s.cfg.PingInterval))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout + s.cfg.PingInterval))
		return conn.WriteControl(gws.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-s.ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout + s.cfg.PingInterval))

		s.handleMessage(feed, symbol, data)
	}
}

// handleMessage parses a ticker payload, records the sample, and runs move
// detection on the updated window.
func (s *Stream) handleMessage(feed *Feed, symbol string, data []byte) {
	var msg types.TickerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Debug("reference-message-parse-error",
			zap.String("symbol", symbol),
			zap.Error(err))
		return
	}

	StreamMessagesTotal.WithLabelValues(symbol).Inc()

	if msg.EventType != "24hrTicker" {
		return
	}

	price, err := strconv.ParseFloat(msg.LastPrice, 64)
	if err != nil || price <= 0 {
		return
	}

	now := time.Now()
	feed.Record(types.PriceSample{Timestamp: now, Price: price})

	move, ok := feed.DetectMove(now)
	if !ok {
		return
	}

	select {
	case s.moveChan <- move:
	default:
		MovesDroppedTotal.Inc()
		s.logger.Warn("move-channel-full", zap.String("symbol", symbol))
	}
}

// MoveChan returns the channel of detected reference moves.
func (s *Stream) MoveChan() <-chan *types.MoveEvent {
	return s.moveChan
}

// Feed returns the rolling-window feed for a symbol.
func (s *Stream) Feed(symbol string) (*Feed, bool) {
	feed, ok := s.feeds[symbol]
	return feed, ok
}

// Close stops all symbol streams and waits for them to finish.
func (s *Stream) Close() error {
	s.logger.Info("closing-reference-stream")
	s.cancel()
	s.wg.Wait()
	close(s.moveChan)
	s.logger.Info("reference-stream-closed")
	return nil
}
