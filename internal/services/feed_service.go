package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"foliowatch/backend-go/internal/models"
)

// FeedSnapshot is one published refresh of a subscribed feed.
type FeedSnapshot struct {
	TsISO  string
	Result models.FeedResult
}

type feedResolver interface {
	ResolveFeed(ctx context.Context, symbols []string, cls SymbolClassification) models.FeedResult
}

type feedTopic struct {
	subs   map[chan FeedSnapshot]struct{}
	cancel context.CancelFunc
	last   *FeedSnapshot
}

// FeedService owns the recurring refresh of subscribed feeds. Each distinct
// symbol set runs one background loop with a cancel handle; the loop stops
// when its last subscriber leaves.
type FeedService struct {
	resolver feedResolver
	timeout  time.Duration
	mu       sync.Mutex
	topics   map[string]*feedTopic
}

func NewFeedService(resolver feedResolver, timeout time.Duration) *FeedService {
	return &FeedService{
		resolver: resolver,
		timeout:  timeout,
		topics:   make(map[string]*feedTopic),
	}
}

func (s *FeedService) Subscribe(ctx context.Context, symbols []string, cls SymbolClassification, interval time.Duration) (<-chan FeedSnapshot, func()) {
	key := feedTopicKey(symbols, cls)
	ch := make(chan FeedSnapshot, 1)
	var once sync.Once

	s.mu.Lock()
	topic := s.topics[key]
	if topic == nil {
		bgCtx, cancel := context.WithCancel(context.Background())
		topic = &feedTopic{subs: make(map[chan FeedSnapshot]struct{}), cancel: cancel}
		s.topics[key] = topic
		go s.runTopic(bgCtx, key, symbols, cls, interval)
	}
	topic.subs[ch] = struct{}{}
	last := topic.last
	s.mu.Unlock()

	if last != nil {
		select {
		case ch <- *last:
		default:
		}
	}

	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			if t := s.topics[key]; t != nil {
				delete(t.subs, ch)
				if len(t.subs) == 0 {
					t.cancel()
					delete(s.topics, key)
				}
			}
			s.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return ch, unsubscribe
}

func (s *FeedService) runTopic(ctx context.Context, key string, symbols []string, cls SymbolClassification, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	publish := func() {
		reqCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		result := s.resolver.ResolveFeed(reqCtx, symbols, cls)
		s.publish(key, FeedSnapshot{
			TsISO:  time.Now().UTC().Format(time.RFC3339),
			Result: result,
		})
	}

	publish()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish()
		}
	}
}

func (s *FeedService) publish(key string, snap FeedSnapshot) {
	s.mu.Lock()
	topic := s.topics[key]
	if topic != nil {
		topic.last = &snap
		for ch := range topic.subs {
			select {
			case ch <- snap:
			default:
			}
		}
	}
	s.mu.Unlock()
}

func feedTopicKey(symbols []string, cls SymbolClassification) string {
	parts := normalizeSymbols(symbols)
	for sym := range cls.Winners {
		parts = append(parts, "w:"+sym)
	}
	for sym := range cls.Losers {
		parts = append(parts, "l:"+sym)
	}
	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, ",")))
	return fmt.Sprintf("feed:v1:%s", hex.EncodeToString(sum[:8]))
}
