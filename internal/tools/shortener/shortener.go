package shortener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/leowzz/docsmith/internal/tools/history"
	"github.com/leowzz/docsmith/pkg/logger"
)

var (
	ErrInvalidURL = errors.New("invalid url")
	ErrNotFound   = errors.New("short link not found")
)

const (
	codeLength = 8
	linksKey   = "docsmith:shortlinks"
)

// Link is one shortened URL.
type Link struct {
	Code      string    `json:"code"`
	URL       string    `json:"url"`
	ShortURL  string    `json:"shortUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// LinkStore persists code -> link mappings.
type LinkStore interface {
	Save(ctx context.Context, link Link) error
	Resolve(ctx context.Context, code string) (Link, error)
}

// Shortener creates and resolves short links and records a history entry
// per created link.
type Shortener struct {
	store   LinkStore
	history history.Store
	baseURL string
	logger  logger.Logger
}

func New(store LinkStore, hist history.Store, baseURL string, log logger.Logger) *Shortener {
	return &Shortener{
		store:   store,
		history: hist,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log,
	}
}

// Shorten validates the URL, assigns a fresh code, and persists the link.
func (s *Shortener) Shorten(ctx context.Context, rawURL string) (Link, error) {
	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Link{}, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}

	code := newCode()
	link := Link{
		Code:      code,
		URL:       rawURL,
		ShortURL:  s.baseURL + "/s/" + code,
		CreatedAt: time.Now(),
	}

	if err := s.store.Save(ctx, link); err != nil {
		return Link{}, fmt.Errorf("failed to save short link: %w", err)
	}
	if err := s.history.Append(ctx, history.KeyShortener, link); err != nil {
		// History is convenience data; the link itself is already saved.
		s.logger.Warn("Failed to record shortener history", logger.Error(err))
	}
	return link, nil
}

// Resolve looks up the original URL for a code.
func (s *Shortener) Resolve(ctx context.Context, code string) (Link, error) {
	return s.store.Resolve(ctx, code)
}

// History returns recorded links, newest first.
func (s *Shortener) History(ctx context.Context) ([]json.RawMessage, error) {
	return s.history.List(ctx, history.KeyShortener)
}

func newCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:codeLength]
}

// RedisLinkStore keeps links in one hash, field per code.
type RedisLinkStore struct {
	client *redis.Client
}

func NewRedisLinkStore(client *redis.Client) *RedisLinkStore {
	return &RedisLinkStore{client: client}
}

func (s *RedisLinkStore) Save(ctx context.Context, link Link) error {
	data, err := json.Marshal(link)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, linksKey, link.Code, data).Err()
}

func (s *RedisLinkStore) Resolve(ctx context.Context, code string) (Link, error) {
	data, err := s.client.HGet(ctx, linksKey, code).Bytes()
	if errors.Is(err, redis.Nil) {
		return Link{}, ErrNotFound
	}
	if err != nil {
		return Link{}, fmt.Errorf("failed to resolve %s: %w", code, err)
	}
	var link Link
	if err := json.Unmarshal(data, &link); err != nil {
		return Link{}, fmt.Errorf("corrupt link record for %s: %w", code, err)
	}
	return link, nil
}

// MemoryLinkStore is the in-process store used in tests.
type MemoryLinkStore struct {
	mu    sync.RWMutex
	links map[string]Link
}

func NewMemoryLinkStore() *MemoryLinkStore {
	return &MemoryLinkStore{links: make(map[string]Link)}
}

func (s *MemoryLinkStore) Save(ctx context.Context, link Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[link.Code] = link
	return nil
}

func (s *MemoryLinkStore) Resolve(ctx context.Context, code string) (Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.links[code]
	if !ok {
		return Link{}, ErrNotFound
	}
	return link, nil
}
