package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mselser95/polymarket-lag/pkg/cache"
	"github.com/mselser95/polymarket-lag/pkg/types"
	"go.uber.org/zap"
)

// EventType describes a change to the tracked entity set.
type EventType string

const (
	EntityAdded   EventType = "added"
	EntityRemoved EventType = "removed"
)

// Event is emitted when an entity enters or leaves the tracked set.
type Event struct {
	Type   EventType
	Entity *types.Entity
}

// Service maintains the set of tradable entities by polling the Gamma API,
// matching market titles against the configured reference symbols, and
// bounding the set to the most liquid matches.
type Service struct {
	client       *Client
	matcher      *Matcher
	cache        cache.Cache
	pollInterval time.Duration
	maxEntities  int
	minLiquidity float64
	logger       *zap.Logger

	mu       sync.RWMutex
	entities map[string]*types.Entity // key: entity ID (market ID)

	eventCh chan Event
}

// Config holds registry service configuration.
type Config struct {
	Client       *Client
	Matcher      *Matcher
	Cache        cache.Cache
	PollInterval time.Duration
	MaxEntities  int
	MinLiquidity float64
	Logger       *zap.Logger
}

// New creates a new registry service.
func New(cfg *Config) *Service {
	return &Service{
		client:       cfg.Client,
		matcher:      cfg.Matcher,
		cache:        cfg.Cache,
		pollInterval: cfg.PollInterval,
		maxEntities:  cfg.MaxEntities,
		minLiquidity: cfg.MinLiquidity,
		logger:       cfg.Logger,
		entities:     make(map[string]*types.Entity),
		eventCh:      make(chan Event, 200),
	}
}

// Run starts the registry polling loop.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("registry-starting",
		zap.Duration("poll-interval", s.pollInterval),
		zap.Int("max-entities", s.maxEntities),
		zap.Float64("min-liquidity", s.minLiquidity))

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	// Initial poll
	err := s.poll(ctx)
	if err != nil {
		s.logger.Error("initial-poll-failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("registry-stopping")
			close(s.eventCh)
			return ctx.Err()
		case <-ticker.C:
			err := s.poll(ctx)
			if err != nil {
				s.logger.Error("poll-failed", zap.Error(err))
			}
		}
	}
}

// poll fetches active markets and reconciles the tracked entity set.
func (s *Service) poll(ctx context.Context) error {
	start := time.Now()
	defer func() {
		PollDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	markets, err := s.client.FetchActiveMarkets(ctx, 0)
	if err != nil {
		PollErrorsTotal.Inc()
		return fmt.Errorf("fetch active markets: %w", err)
	}

	MarketsScannedTotal.Add(float64(len(markets)))

	candidates := s.selectCandidates(markets)

	added, removed := s.reconcile(candidates)

	for _, entity := range added {
		s.cacheEntity(entity)
		s.emit(Event{Type: EntityAdded, Entity: entity})
		s.logger.Info("entity-added",
			zap.String("entity-id", entity.ID),
			zap.String("slug", entity.Slug),
			zap.String("symbol", entity.MatchedSymbol),
			zap.Float64("liquidity", entity.Liquidity))
	}

	for _, entity := range removed {
		s.emit(Event{Type: EntityRemoved, Entity: entity})
		s.logger.Info("entity-removed",
			zap.String("entity-id", entity.ID),
			zap.String("slug", entity.Slug))
	}

	s.logger.Debug("poll-complete",
		zap.Int("markets", len(markets)),
		zap.Int("candidates", len(candidates)),
		zap.Int("added", len(added)),
		zap.Int("removed", len(removed)),
		zap.Duration("duration", time.Since(start)))

	return nil
}

// selectCandidates filters markets down to matched, liquid, binary markets
// and bounds the result to the most liquid maxEntities.
func (s *Service) selectCandidates(markets []types.Market) []*types.Entity {
	var candidates []*types.Entity

	for i := range markets {
		market := &markets[i]

		if market.Closed || !market.Active {
			continue
		}

		if market.LiquidityNum < s.minLiquidity {
			continue
		}

		symbol, ok := s.matcher.Match(market.Question)
		if !ok {
			continue
		}

		yesToken := market.GetTokenByOutcome(types.OutcomeYes)
		noToken := market.GetTokenByOutcome(types.OutcomeNo)
		if yesToken == nil || noToken == nil {
			s.logger.Debug("skipping-market-missing-tokens",
				zap.String("market-id", market.ID),
				zap.String("question", market.Question))
			continue
		}

		candidates = append(candidates, &types.Entity{
			ID:            market.ID,
			Slug:          market.Slug,
			Title:         market.Question,
			YesTokenID:    yesToken.TokenID,
			NoTokenID:     noToken.TokenID,
			Liquidity:     market.LiquidityNum,
			MatchedSymbol: symbol,
		})
	}

	EntitiesMatchedTotal.Add(float64(len(candidates)))

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Liquidity > candidates[j].Liquidity
	})

	if s.maxEntities > 0 && len(candidates) > s.maxEntities {
		candidates = candidates[:s.maxEntities]
	}

	return candidates
}

// reconcile swaps the tracked set for the new candidate set, returning what
// entered and what left. Entities already tracked keep their SubscribedAt.
func (s *Service) reconcile(candidates []*types.Entity) (added, removed []*types.Entity) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]*types.Entity, len(candidates))

	for _, candidate := range candidates {
		if existing, ok := s.entities[candidate.ID]; ok {
			candidate.SubscribedAt = existing.SubscribedAt
		} else {
			candidate.SubscribedAt = now
			added = append(added, candidate)
		}
		next[candidate.ID] = candidate
	}

	for id, entity := range s.entities {
		if _, ok := next[id]; !ok {
			removed = append(removed, entity)
		}
	}

	s.entities = next
	EntitiesTracked.Set(float64(len(next)))

	return added, removed
}

// emit sends a registry event without blocking the poll loop.
func (s *Service) emit(event Event) {
	select {
	case s.eventCh <- event:
	default:
		s.logger.Warn("registry-event-channel-full",
			zap.String("type", string(event.Type)),
			zap.String("entity-id", event.Entity.ID))
		EventsDroppedTotal.Inc()
	}
}

// Events returns the channel of entity set changes.
func (s *Service) Events() <-chan Event {
	return s.eventCh
}

// Entities returns a snapshot of the tracked entity set.
func (s *Service) Entities() []*types.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entities := make([]*types.Entity, 0, len(s.entities))
	for _, entity := range s.entities {
		entityCopy := *entity
		entities = append(entities, &entityCopy)
	}

	return entities
}

// Get returns the tracked entity with the given ID.
func (s *Service) Get(entityID string) (*types.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entity, ok := s.entities[entityID]
	if !ok {
		return nil, false
	}

	entityCopy := *entity
	return &entityCopy, true
}

// cacheEntity stores entity metadata with a TTL covering several poll cycles.
func (s *Service) cacheEntity(entity *types.Entity) {
	if s.cache == nil {
		return
	}

	const cacheTTL = 24 * time.Hour
	success := s.cache.Set(entity.ID, entity, cacheTTL)
	if !success {
		s.logger.Warn("failed-to-cache-entity", zap.String("entity-id", entity.ID))
	}
}

// GetCached retrieves entity metadata from the cache.
func (s *Service) GetCached(entityID string) *types.Entity {
	if s.cache == nil {
		return nil
	}

	value, found := s.cache.Get(entityID)
	if !found {
		return nil
	}

	entity, ok := value.(*types.Entity)
	if !ok {
		s.logger.Warn("invalid-entity-type-in-cache",
			zap.String("entity-id", entityID))
		return nil
	}

	return entity
}
