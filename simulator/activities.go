package simulator

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"regexp"
	"sync"
	"time"
)

var (
	paragraphPattern   = regexp.MustCompile(`data-paragraph-id="([a-zA-Z0-9_-]+)"`)
	commentLikePattern = regexp.MustCompile(`action="/articles/[a-zA-Z0-9_-]+/comments/([a-zA-Z0-9_-]+)/like"`)
)

func (s *Simulator) SimulateActivities(ctx context.Context) error {
	log.Printf("Starting activities simulation...")

	// Comments, replies and likes need living threads, so reads go first.
	threadsAvailable := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.simulateReads(ctx, threadsAvailable)
	}()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.stats.mu.RLock()
				if s.stats.TotalReads >= 5 {
					s.stats.mu.RUnlock()
					close(threadsAvailable)
					return
				}
				s.stats.mu.RUnlock()
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-threadsAvailable:
			log.Printf("Starting comments after first reads...")
			s.simulateComments(ctx)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-threadsAvailable:
			log.Printf("Starting replies after first reads...")
			s.simulateReplies(ctx)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-threadsAvailable:
			log.Printf("Starting like toggles after first reads...")
			s.simulateLikes(ctx)
		}
	}()

	wg.Wait()
	return nil
}

// tickFor converts an events-per-reader-per-hour frequency into a ticker
// interval for the whole reader population.
func (s *Simulator) tickFor(frequency float64) time.Duration {
	eventsPerSecond := float64(s.config.NumReaders) * frequency / 3600.0
	if eventsPerSecond <= 0 {
		return time.Hour
	}
	interval := time.Duration(float64(time.Second) / eventsPerSecond)
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	return interval
}

// simulateReads opens article pages and fires the paragraph-seen beacons a
// scrolling browser would, top to bottom, stopping at a random depth.
func (s *Simulator) simulateReads(ctx context.Context, threadsAvailable chan struct{}) {
	log.Printf("Starting read simulation...")

	ticker := time.NewTicker(s.tickFor(s.config.ReadFrequency))
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reader := s.pickActiveReader(rng)
			if reader == nil {
				continue
			}
			slug := s.pickArticle(rng)

			body, err := s.get(ctx, "/articles/"+slug, reader)
			if err != nil {
				log.Printf("Read of %s failed: %v", slug, err)
				continue
			}

			s.mu.Lock()
			reader.ReadCounts[slug]++
			reader.LastActive = time.Now()
			s.mu.Unlock()

			s.stats.mu.Lock()
			s.stats.TotalReads++
			s.stats.mu.Unlock()

			paragraphs := paragraphPattern.FindAllStringSubmatch(string(body), -1)
			if len(paragraphs) == 0 {
				continue
			}

			// Readers rarely finish an article in one sitting.
			depth := rng.Intn(len(paragraphs)) + 1
			for i := 0; i < depth; i++ {
				paragraphID := paragraphs[i][1]
				key := slug + "/" + paragraphID

				s.mu.Lock()
				alreadySeen := reader.SeenParagraphs[key]
				reader.SeenParagraphs[key] = true
				s.mu.Unlock()
				if alreadySeen {
					continue
				}

				path := fmt.Sprintf("/articles/%s/paragraphs/%s/seen", slug, paragraphID)
				if _, err := s.postForm(ctx, path, reader, url.Values{}); err != nil {
					continue
				}
				s.stats.mu.Lock()
				s.stats.ParagraphsSeen++
				s.stats.mu.Unlock()
			}
		}
	}
}

func (s *Simulator) simulateComments(ctx context.Context) {
	ticker := time.NewTicker(s.tickFor(s.config.CommentFrequency))
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reader := s.pickActiveReader(rng)
			if reader == nil {
				continue
			}
			slug := s.pickArticle(rng)

			form := url.Values{}
			form.Set("content", randomRemark(rng))
			body, err := s.postForm(ctx, "/articles/"+slug+"/comments", reader, form)
			if err != nil {
				log.Printf("Comment on %s failed: %v", slug, err)
				continue
			}

			// The redirect lands back on the article, so the new comment id
			// is in the response.
			if ids := commentLikePattern.FindAllStringSubmatch(string(body), -1); len(ids) > 0 {
				s.mu.Lock()
				reader.CommentsPosted = append(reader.CommentsPosted, ids[0][1])
				s.mu.Unlock()
			}

			s.stats.mu.Lock()
			s.stats.TotalComments++
			s.stats.mu.Unlock()
		}
	}
}

func (s *Simulator) simulateReplies(ctx context.Context) {
	ticker := time.NewTicker(s.tickFor(s.config.ReplyFrequency))
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reader := s.pickActiveReader(rng)
			if reader == nil {
				continue
			}
			slug := s.pickArticle(rng)

			commentID, err := s.findComment(ctx, slug, reader, rng)
			if err != nil || commentID == "" {
				continue
			}

			form := url.Values{}
			form.Set("content", randomRemark(rng))
			path := fmt.Sprintf("/articles/%s/comments/%s/replies", slug, commentID)
			if _, err := s.postForm(ctx, path, reader, form); err != nil {
				log.Printf("Reply on %s failed: %v", slug, err)
				continue
			}

			s.stats.mu.Lock()
			s.stats.TotalReplies++
			s.stats.mu.Unlock()
		}
	}
}

func (s *Simulator) simulateLikes(ctx context.Context) {
	ticker := time.NewTicker(s.tickFor(s.config.LikeFrequency))
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reader := s.pickActiveReader(rng)
			if reader == nil {
				continue
			}
			slug := s.pickArticle(rng)

			commentID, err := s.findComment(ctx, slug, reader, rng)
			if err != nil || commentID == "" {
				continue
			}

			path := fmt.Sprintf("/articles/%s/comments/%s/like", slug, commentID)
			if _, err := s.postForm(ctx, path, reader, url.Values{}); err != nil {
				log.Printf("Like toggle on %s failed: %v", slug, err)
				continue
			}

			s.mu.Lock()
			reader.LikedComments[commentID] = !reader.LikedComments[commentID]
			s.mu.Unlock()

			s.stats.mu.Lock()
			s.stats.TotalLikes++
			s.stats.mu.Unlock()
		}
	}
}

// findComment fetches the article page and picks one comment id out of the
// rendered thread.
func (s *Simulator) findComment(ctx context.Context, slug string, reader *SimulatedReader, rng *rand.Rand) (string, error) {
	body, err := s.get(ctx, "/articles/"+slug, reader)
	if err != nil {
		return "", err
	}
	matches := commentLikePattern.FindAllStringSubmatch(string(body), -1)
	if len(matches) == 0 {
		return "", nil
	}
	return matches[rng.Intn(len(matches))][1], nil
}

func randomRemark(rng *rand.Rand) string {
	remarks := []string{
		"This put words to something I have felt for a while.",
		"Bookmarking this one, thanks for writing it.",
		"The second half lost me a little, but the premise is solid.",
		"Came for the title, stayed for the footnotes.",
		"Strong disagree on the middle section, but well argued.",
		"Would love a follow-up that goes deeper on this.",
		"Sharing this with my team tomorrow.",
		"Short, clear, and exactly what I needed today.",
		"The examples made this click for me.",
		"I have read this three times now and it keeps giving.",
	}
	return remarks[rng.Intn(len(remarks))]
}
