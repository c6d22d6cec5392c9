package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/garage-status/internal/garage"
)

const (
	GarageCountURL = "http://secure.parking.ucf.edu/GarageCount/iframe.aspx"
	UserAgent      = "garage-status/1.0 (github.com/pfrederiksen/garage-status)"
	Timeout        = 30 * time.Second

	// Marker selects the grid cells holding garage data
	Marker = ".dxgv"
)

var (
	// ErrFetch marks failures talking to the garage count page
	ErrFetch = errors.New("fetch failed")
	// ErrParse marks failures turning the page into garages
	ErrParse = errors.New("parse failed")
)

// Scraper handles fetching and parsing the garage count page
type Scraper struct {
	client *http.Client
	url    string
}

// Option configures a Scraper
type Option func(*Scraper)

// WithURL overrides the garage count page URL
func WithURL(url string) Option {
	return func(s *Scraper) {
		if url != "" {
			s.url = url
		}
	}
}

// WithTimeout overrides the HTTP client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(s *Scraper) {
		if timeout > 0 {
			s.client.Timeout = timeout
		}
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: &http.Client{
			Timeout: Timeout,
		},
		url: GarageCountURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the page the scraper fetches
func (s *Scraper) URL() string {
	return s.url
}

// FetchGarages fetches the garage count page and parses it into garages
func (s *Scraper) FetchGarages(ctx context.Context) (garage.Set, error) {
	body, err := s.FetchPage(ctx)
	if err != nil {
		return nil, err
	}
	return ParseGarages(strings.NewReader(body))
}

// FetchPage issues a single GET against the garage count page and returns the body
func (s *Scraper) FetchPage(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %w", ErrFetch, err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetching page: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: unexpected status code: %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %w", ErrFetch, err)
	}

	return string(body), nil
}

// ParseGarages extracts garages from the garage count HTML.
//
// Marker cells come in triples of name, "available/capacity" and an unused
// column. A page without marker cells yields an empty set.
func ParseGarages(r io.Reader) (garage.Set, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing HTML: %w", ErrParse, err)
	}

	garages := make(garage.Set, 0)
	var pending string
	var parseErr error

	doc.Find(Marker).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		switch i % 3 {
		case 0:
			pending = strings.ReplaceAll(sel.Text(), "\n", "")
		case 1:
			available, capacity, err := parseCount(sel.Text())
			if err != nil {
				parseErr = fmt.Errorf("%w: garage %q: %w", ErrParse, pending, err)
				return false
			}
			garages = append(garages, garage.New(pending, available, capacity))
		}
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}

	return garages, nil
}

// parseCount splits an "available/capacity" cell into its two numbers
func parseCount(text string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(text), "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed count %q", text)
	}

	available, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("parsing available: %w", err)
	}

	capacity, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("parsing capacity: %w", err)
	}

	if available < 0 || capacity < 0 {
		return 0, 0, fmt.Errorf("negative count %q", text)
	}

	return available, capacity, nil
}

// Stage reports which step of a fetch cycle produced err
func Stage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetch):
		return "fetch"
	case errors.Is(err, ErrParse):
		return "parse"
	default:
		return "unknown"
	}
}
