package linkedin

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"liarchive/pkg/config"
	"liarchive/pkg/errors"
	"liarchive/pkg/logger"
	"liarchive/pkg/retry"
)

// Client is the rate-limited LinkedIn API client. It enforces a minimum
// spacing between calls, retries throttling and transient failures with
// exponential backoff, and counts the calls made in this session.
//
// The last-call time and the request counter are owned by the client
// instance; concurrent use is serialized through the rate-limit mutex so the
// spacing stays meaningful.
type Client struct {
	httpClient  *http.Client
	accessToken string
	apiVersion  string
	maxRetries  int

	rateLimitDelay  time.Duration
	throttleBackoff retry.BackoffStrategy
	failureBackoff  retry.BackoffStrategy

	mu          sync.Mutex
	lastRequest time.Time

	requestCount atomic.Int64

	userInfoURL string
	postsURL    string

	logger logger.Logger
}

// NewClient creates a LinkedIn API client with the given bearer token.
func NewClient(accessToken string, cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.LinkedIn.RequestTimeout(),
		},
		accessToken:     accessToken,
		apiVersion:      cfg.LinkedIn.APIVersion,
		maxRetries:      cfg.LinkedIn.MaxRetries,
		rateLimitDelay:  cfg.LinkedIn.Delay(),
		throttleBackoff: retry.ThrottleBackoff(),
		failureBackoff:  retry.DefaultExponentialBackoff(),
		userInfoURL:     UserInfoURL,
		postsURL:        UGCPostsURL,
		logger:          log,
	}
}

// SetAPIBaseURL points the client at an alternate API host, e.g. a proxy.
func (c *Client) SetAPIBaseURL(base string) {
	c.userInfoURL = base + "/userinfo"
	c.postsURL = base + "/ugcPosts"
}

// RequestCount returns the number of successful API calls made in this
// session. The counter is never reset within the process lifetime.
func (c *Client) RequestCount() int64 {
	return c.requestCount.Load()
}

// waitForRateLimit blocks until the minimum spacing since the end of the
// previous call has elapsed.
func (c *Client) waitForRateLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastRequest.IsZero() {
		if elapsed := time.Since(c.lastRequest); elapsed < c.rateLimitDelay {
			time.Sleep(c.rateLimitDelay - elapsed)
		}
	}
}

// markRequestDone records the end of a call for rate-limit spacing.
func (c *Client) markRequestDone() {
	c.mu.Lock()
	c.lastRequest = time.Now()
	c.mu.Unlock()
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	req.Header.Set("LinkedIn-Version", c.apiVersion)
}

// Request performs an API call and returns the raw response body. Throttling
// responses and transient failures are retried with exponential backoff, each
// against its own attempt budget of maxRetries. A spent budget yields an
// exhausted error; callers treat that as "no data for this call".
func (c *Client) Request(method, rawURL string, params url.Values) ([]byte, error) {
	requestURL := rawURL
	if len(params) > 0 {
		requestURL = rawURL + "?" + params.Encode()
	}

	var lastErr error
	throttleAttempts := 0
	failureAttempts := 0

	for {
		c.waitForRateLimit()

		req, err := http.NewRequest(method, requestURL, nil)
		if err != nil {
			return nil, errors.Wrap(errors.ErrorTypeUnknown, err, "failed to create request")
		}
		c.setHeaders(req)

		c.logger.DebugWithFields("sending API request", map[string]interface{}{
			"method": method,
			"url":    requestURL,
		})

		resp, err := c.httpClient.Do(req)
		c.markRequestDone()

		if err != nil {
			lastErr = errors.Wrap(errors.ErrorTypeNetwork, err, "request failed")
			failureAttempts++
			if failureAttempts >= c.maxRetries {
				return nil, c.exhausted(requestURL, lastErr)
			}
			c.retryWait(c.failureBackoff, failureAttempts, requestURL, lastErr)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = errors.New(errors.ErrorTypeThrottled, "rate limit exceeded", resp.StatusCode)
			throttleAttempts++
			if throttleAttempts >= c.maxRetries {
				return nil, c.exhausted(requestURL, lastErr)
			}
			c.retryWait(c.throttleBackoff, throttleAttempts, requestURL, lastErr)
			continue

		case resp.StatusCode >= 500:
			lastErr = errors.New(errors.ErrorTypeServerError,
				fmt.Sprintf("server returned status %d", resp.StatusCode), resp.StatusCode)
			failureAttempts++
			if failureAttempts >= c.maxRetries {
				return nil, c.exhausted(requestURL, lastErr)
			}
			c.retryWait(c.failureBackoff, failureAttempts, requestURL, lastErr)
			continue

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			c.logger.WarnWithFields("authentication rejected", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    requestURL,
			})
			return nil, errors.New(errors.ErrorTypeAuth, "authentication required", resp.StatusCode)

		case resp.StatusCode == http.StatusNotFound:
			return nil, errors.New(errors.ErrorTypeNotFound, "resource not found", resp.StatusCode)

		case resp.StatusCode >= 400:
			return nil, errors.New(errors.ErrorTypeUnknown,
				fmt.Sprintf("unexpected status code: %d", resp.StatusCode), resp.StatusCode)
		}

		if readErr != nil {
			lastErr = errors.Wrap(errors.ErrorTypeNetwork, readErr, "failed to read response body")
			failureAttempts++
			if failureAttempts >= c.maxRetries {
				return nil, c.exhausted(requestURL, lastErr)
			}
			c.retryWait(c.failureBackoff, failureAttempts, requestURL, lastErr)
			continue
		}

		c.requestCount.Add(1)
		return body, nil
	}
}

// retryWait logs the retry and sleeps for the backoff delay.
func (c *Client) retryWait(backoff retry.BackoffStrategy, attempt int, url string, cause error) {
	delay := backoff.NextDelay(attempt)
	c.logger.WarnWithFields("retrying API request", map[string]interface{}{
		"url":      url,
		"attempt":  attempt,
		"delay_ms": delay.Milliseconds(),
		"error":    cause.Error(),
	})
	time.Sleep(delay)
}

func (c *Client) exhausted(url string, lastErr error) error {
	c.logger.ErrorWithFields("max retries exceeded", map[string]interface{}{
		"url":         url,
		"max_retries": c.maxRetries,
		"last_error":  lastErr.Error(),
	})
	return errors.Wrap(errors.ErrorTypeExhausted, lastErr,
		fmt.Sprintf("max retries (%d) exceeded", c.maxRetries))
}

// GetJSON performs a GET call and decodes the JSON response into target.
func (c *Client) GetJSON(rawURL string, params url.Values, target interface{}) error {
	body, err := c.Request(http.MethodGet, rawURL, params)
	if err != nil {
		return err
	}

	if len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          rawURL,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return errors.Wrap(errors.ErrorTypeMalformedRecord, err, "failed to parse JSON response")
	}

	return nil
}

// UserProfile fetches the authenticated user's profile.
func (c *Client) UserProfile() (*UserProfile, error) {
	c.logger.Info("fetching user profile")

	var profile UserProfile
	if err := c.GetJSON(c.userInfoURL, nil, &profile); err != nil {
		return nil, err
	}

	if profile.Sub == "" {
		return nil, errors.New(errors.ErrorTypeMalformedRecord, "profile has no subject identifier", 0)
	}

	c.logger.InfoWithFields("retrieved profile", map[string]interface{}{
		"name": profile.Name,
	})
	return &profile, nil
}
