package notifier

import (
	"fmt"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"
)

const maxTweetLength = 280

// TwitterCredentials holds the OAuth1 keys for posting
type TwitterCredentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// StatusPoster posts a status update
type StatusPoster interface {
	Update(status string, params *twitter.StatusUpdateParams) (*twitter.Tweet, error)
}

// statusService adapts the go-twitter StatusService, which also returns the raw response
type statusService struct {
	statuses *twitter.StatusService
}

func (s statusService) Update(status string, params *twitter.StatusUpdateParams) (*twitter.Tweet, error) {
	tweet, _, err := s.statuses.Update(status, params)
	return tweet, err
}

// TwitterNotifier posts the report to Twitter
type TwitterNotifier struct {
	poster StatusPoster
}

// NewTwitterNotifier creates a new Twitter notifier from OAuth1 credentials
func NewTwitterNotifier(creds TwitterCredentials) (*TwitterNotifier, error) {
	if creds.APIKey == "" || creds.APISecret == "" || creds.AccessToken == "" || creds.AccessSecret == "" {
		return nil, fmt.Errorf("missing required Twitter credentials")
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	client := twitter.NewClient(httpClient)

	return &TwitterNotifier{poster: statusService{statuses: client.Statuses}}, nil
}

// Notify posts the report as a single status
func (n *TwitterNotifier) Notify(report string) error {
	if _, err := n.poster.Update(formatTweet(report), nil); err != nil {
		return fmt.Errorf("failed to post report: %w", err)
	}
	return nil
}

// formatTweet fits the report into one status
func formatTweet(report string) string {
	runes := []rune(report)
	if len(runes) <= maxTweetLength {
		return report
	}
	return string(runes[:maxTweetLength-3]) + "..."
}
