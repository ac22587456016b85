package simulator

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"journalite/internal/middleware"
	"journalite/internal/models"
)

type SimConfig struct {
	NumReaders       int
	SimulationTime   time.Duration
	ReadFrequency    float64 // article opens per reader per hour
	CommentFrequency float64 // comments per reader per hour
	ReplyFrequency   float64 // replies per reader per hour
	LikeFrequency    float64 // like toggles per reader per hour
	DropoffRate      float64 // chance per second an active reader goes idle
	ReturnRate       float64 // chance per second an idle reader comes back
	ZipfS            float64 // skew of article popularity
	TargetURL        string  // base URL of the journalite process
	SessionSecret    string  // shared with the target so readers can mint cookies
}

type SimulationStats struct {
	mu               sync.RWMutex
	StartTime        time.Time
	TotalRequests    int64
	SuccessRequests  int64
	FailedRequests   int64
	AverageLatency   time.Duration
	ActiveReaders    int
	TotalReads       int
	TotalComments    int
	TotalReplies     int
	TotalLikes       int
	ParagraphsSeen   int
	RequestLatencies []time.Duration
}

// SimulatedReader is one synthetic signed-in visitor. Each reader carries a
// pre-minted session cookie, so the identity provider stays out of the loop.
type SimulatedReader struct {
	ID             uuid.UUID
	DisplayName    string
	Email          string
	Cookie         *http.Cookie
	IsActive       bool
	LastActive     time.Time
	CommentsPosted []string          // comment ids this reader authored
	LikedComments  map[string]bool   // commentId -> currently liked
	SeenParagraphs map[string]bool   // slug/paragraphId already revealed
	ReadCounts     map[string]int    // slug -> opens
}

type Simulator struct {
	config   SimConfig
	stats    *SimulationStats
	readers  []*SimulatedReader
	slugs    []string
	sessions *middleware.SessionManager
	client   *http.Client
	mu       sync.RWMutex
}

func NewSimulator(config SimConfig) *Simulator {
	return &Simulator{
		config: config,
		stats: &SimulationStats{
			StartTime:        time.Now(),
			RequestLatencies: make([]time.Duration, 0),
		},
		sessions: middleware.NewSessionManager(config.SessionSecret, 24*time.Hour, false),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *Simulator) Run(ctx context.Context) error {
	log.Printf("Starting reader simulation...")

	if err := s.initialize(ctx); err != nil {
		return fmt.Errorf("initialization failed: %v", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.SimulateActivities(ctx); err != nil {
			log.Printf("Activities simulation error: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulatePresence(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.collectMetrics(ctx)
	}()

	wg.Wait()
	return nil
}

func (s *Simulator) initialize(ctx context.Context) error {
	log.Printf("Starting initialization...")

	log.Printf("Phase 1: Minting %d reader sessions...", s.config.NumReaders)
	if err := s.createReaders(); err != nil {
		return fmt.Errorf("failed to create readers: %v", err)
	}

	log.Printf("Phase 2: Discovering articles from the feed...")
	if err := s.discoverArticles(ctx); err != nil {
		return fmt.Errorf("failed to discover articles: %v", err)
	}

	log.Printf("Initialization completed: %d readers, %d articles", len(s.readers), len(s.slugs))
	return nil
}

// createReaders mints a signed session cookie per reader using the same
// secret the target process validates with. No provider round trips.
func (s *Simulator) createReaders() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readers = make([]*SimulatedReader, 0, s.config.NumReaders)
	for i := 0; i < s.config.NumReaders; i++ {
		reader := &SimulatedReader{
			ID:             uuid.New(),
			DisplayName:    fmt.Sprintf("reader_%d", i),
			Email:          fmt.Sprintf("reader_%d@sim.test", i),
			IsActive:       true,
			LastActive:     time.Now(),
			CommentsPosted: make([]string, 0),
			LikedComments:  make(map[string]bool),
			SeenParagraphs: make(map[string]bool),
			ReadCounts:     make(map[string]int),
		}

		token, err := s.sessions.GenerateToken(&models.Session{
			UserID:      reader.ID.String(),
			DisplayName: reader.DisplayName,
			Email:       reader.Email,
		})
		if err != nil {
			return fmt.Errorf("could not mint session for %s: %v", reader.DisplayName, err)
		}
		reader.Cookie = &http.Cookie{Name: middleware.SessionCookieName, Value: token}
		s.readers = append(s.readers, reader)
	}

	s.stats.mu.Lock()
	s.stats.ActiveReaders = len(s.readers)
	s.stats.mu.Unlock()
	return nil
}

var articleLinkPattern = regexp.MustCompile(`href="/articles/([a-zA-Z0-9_-]+)"`)

// discoverArticles scrapes the home feed the way a browser would; the
// simulator has no privileged view of the catalog.
func (s *Simulator) discoverArticles(ctx context.Context) error {
	var body []byte
	var err error
	for retries := 0; retries < 5; retries++ {
		body, err = s.get(ctx, "/", nil)
		if err == nil {
			break
		}
		backoff := time.Duration(retries+1) * time.Second
		log.Printf("Feed not reachable yet (attempt %d): %v, retrying in %v", retries+1, err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, match := range articleLinkPattern.FindAllStringSubmatch(string(body), -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			s.slugs = append(s.slugs, match[1])
		}
	}
	if len(s.slugs) == 0 {
		return fmt.Errorf("feed returned no article links")
	}
	return nil
}

// pickArticle skews reads toward a few popular stories.
func (s *Simulator) pickArticle(rng *rand.Rand) string {
	if len(s.slugs) == 1 {
		return s.slugs[0]
	}
	zipf := rand.NewZipf(rng, s.config.ZipfS, 1, uint64(len(s.slugs)-1))
	return s.slugs[int(zipf.Uint64())]
}

func (s *Simulator) pickActiveReader(rng *rand.Rand) *SimulatedReader {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]*SimulatedReader, 0, len(s.readers))
	for _, reader := range s.readers {
		if reader.IsActive {
			active = append(active, reader)
		}
	}
	if len(active) == 0 {
		return nil
	}
	return active[rng.Intn(len(active))]
}

// get fetches a page, optionally as a signed-in reader.
func (s *Simulator) get(ctx context.Context, path string, reader *SimulatedReader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.TargetURL+path, nil)
	if err != nil {
		return nil, err
	}
	if reader != nil {
		req.AddCookie(reader.Cookie)
	}
	return s.send(req)
}

// postForm submits a browser-style form. Redirects are followed, so the
// returned body is the page the reader lands on.
func (s *Simulator) postForm(ctx context.Context, path string, reader *SimulatedReader, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TargetURL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if reader != nil {
		req.AddCookie(reader.Cookie)
	}
	return s.send(req)
}

func (s *Simulator) send(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := s.client.Do(req)
	s.recordRequestMetrics(start, err)

	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request failed with status: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *Simulator) recordRequestMetrics(start time.Time, err error) {
	s.stats.mu.Lock()
	defer s.stats.mu.Unlock()

	latency := time.Since(start)
	s.stats.TotalRequests++
	s.stats.RequestLatencies = append(s.stats.RequestLatencies, latency)

	if err != nil {
		s.stats.FailedRequests++
	} else {
		s.stats.SuccessRequests++
	}

	totalLatency := s.stats.AverageLatency * time.Duration(s.stats.TotalRequests-1)
	s.stats.AverageLatency = (totalLatency + latency) / time.Duration(s.stats.TotalRequests)
}

// simulatePresence flips readers between active and idle, mimicking tabs
// opening and closing over the run.
func (s *Simulator) simulatePresence(ctx context.Context) {
	log.Printf("Starting presence simulation...")
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			for _, reader := range s.readers {
				if reader.IsActive {
					if rng.Float64() < s.config.DropoffRate {
						reader.IsActive = false
						s.stats.mu.Lock()
						s.stats.ActiveReaders--
						s.stats.mu.Unlock()
					}
				} else if rng.Float64() < s.config.ReturnRate {
					reader.IsActive = true
					reader.LastActive = time.Now()
					s.stats.mu.Lock()
					s.stats.ActiveReaders++
					s.stats.mu.Unlock()
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Simulator) collectMetrics(ctx context.Context) {
	log.Printf("Starting metrics collection...")
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.stats.mu.RLock()
			elapsed := time.Since(s.stats.StartTime)
			requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()
			successRate := 0.0
			if s.stats.TotalRequests > 0 {
				successRate = float64(s.stats.SuccessRequests) / float64(s.stats.TotalRequests) * 100
			}

			activeReaders := 0
			s.mu.RLock()
			for _, reader := range s.readers {
				if reader.IsActive {
					activeReaders++
				}
			}
			s.mu.RUnlock()

			log.Printf("\nSimulation Metrics (%.1f seconds elapsed):", elapsed.Seconds())
			log.Printf("- Request Rate: %.2f req/sec", requestRate)
			log.Printf("- Success Rate: %.1f%%", successRate)
			log.Printf("- Average Latency: %v", s.stats.AverageLatency)
			log.Printf("- Active Readers: %d/%d", activeReaders, len(s.readers))
			log.Printf("- Article Reads: %d (Paragraphs seen: %d)", s.stats.TotalReads, s.stats.ParagraphsSeen)
			log.Printf("- Comments: %d (Replies: %d)", s.stats.TotalComments, s.stats.TotalReplies)
			log.Printf("- Like Toggles: %d", s.stats.TotalLikes)
			log.Printf("- Failed Requests: %d", s.stats.FailedRequests)

			s.stats.mu.RUnlock()
		}
	}
}

// SimulationMetrics holds the final numbers of a run.
type SimulationMetrics struct {
	TotalReaders      int
	ActiveReaders     int
	TotalReads        int
	TotalComments     int
	TotalReplies      int
	TotalLikes        int
	ParagraphsSeen    int
	AverageLatency    time.Duration
	ErrorCount        int
	RequestsPerSecond float64
}

func (s *Simulator) GetMetrics() SimulationMetrics {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	elapsed := time.Since(s.stats.StartTime)
	requestRate := float64(s.stats.TotalRequests) / elapsed.Seconds()

	return SimulationMetrics{
		TotalReaders:      len(s.readers),
		ActiveReaders:     s.stats.ActiveReaders,
		TotalReads:        s.stats.TotalReads,
		TotalComments:     s.stats.TotalComments,
		TotalReplies:      s.stats.TotalReplies,
		TotalLikes:        s.stats.TotalLikes,
		ParagraphsSeen:    s.stats.ParagraphsSeen,
		AverageLatency:    s.stats.AverageLatency,
		ErrorCount:        int(s.stats.FailedRequests),
		RequestsPerSecond: requestRate,
	}
}
