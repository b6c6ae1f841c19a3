package services

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kopisync/internal/shared"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultKopisBaseURL = "http://www.kopis.or.kr/openApi/restful"
	DefaultTimeout      = 30 * time.Second
	DefaultRPS          = 5.0
	// MaxRows is the largest page the listing endpoints accept.
	MaxRows = 100
	// MaxPages bounds [FetchAll] against a server that never returns a short page.
	MaxPages = 100
	// MaxWindowDays keeps concert listings inside the provider's 31-day limit.
	MaxWindowDays = 30
	// DefaultHorizonDays is how far ahead concert listings reach.
	DefaultHorizonDays = 365
)

const (
	endpointVenueList     = "venue_list"
	endpointVenueDetail   = "venue_detail"
	endpointConcertList   = "concert_list"
	endpointConcertDetail = "concert_detail"
	endpointBoxoffice     = "boxoffice"
)

// KopisOpts configures a [KopisClient]. Zero values fall back to package defaults.
type KopisOpts struct {
	APIKey            string
	BaseURL           string
	HTTPClient        *http.Client
	Timeout           time.Duration
	RequestsPerSecond float64
	PageSize          int
	Breaker           BreakerConfig
	Logger            *log.Logger
}

// KopisClient talks to the KOPIS open API.
type KopisClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	pageSize   int
	logger     *log.Logger
}

// ConcertQuery filters a performance listing.
type ConcertQuery struct {
	StartDate time.Time
	EndDate   time.Time
	GenreCode string
	// AfterDate limits results to records changed after this day. Zero means no filter.
	AfterDate time.Time
}

// BoxofficeQuery selects one ranking slot.
type BoxofficeQuery struct {
	StartDate time.Time
	EndDate   time.Time
	GenreCode string
	// AreaCode is empty for the nationwide ranking.
	AreaCode string
}

// NewKopisClient creates a client for the KOPIS API.
//
// Returns [shared.ErrMissingCredentials] when no API key is configured.
func NewKopisClient(opts KopisOpts) (*KopisClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("%w: KOPIS API key is not set", shared.ErrMissingCredentials)
	}

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultKopisBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultRPS
	}
	if opts.PageSize <= 0 || opts.PageSize > MaxRows {
		opts.PageSize = MaxRows
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	} else if opts.HTTPClient.Timeout == 0 {
		hc := *opts.HTTPClient
		hc.Timeout = opts.Timeout
		opts.HTTPClient = &hc
	}
	if opts.Breaker.Name == "" {
		opts.Breaker = DefaultBreakerConfig()
	}

	return &KopisClient{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		breaker:    NewBreaker(opts.Breaker, opts.Logger),
		pageSize:   opts.PageSize,
		logger:     opts.Logger,
	}, nil
}

// PageSize returns the number of rows requested per listing page.
func (c *KopisClient) PageSize() int {
	return c.pageSize
}

// FetchVenueList retrieves one page of facilities changed after afterDate (zero for all).
func (c *KopisClient) FetchVenueList(ctx context.Context, page, rows int, afterDate time.Time) (*Page[VenueListItem], error) {
	rows = clampRows(rows)
	params := pageParams(page, rows)
	setDate(params, "afterdate", afterDate)

	var env dbsEnvelope[VenueListItem]
	if err := c.get(ctx, endpointVenueList, "/prfplc", params, &env); err != nil {
		return nil, err
	}
	return newPage(env.Items, page, rows), nil
}

// FetchAllVenues retrieves every facility changed after afterDate.
func (c *KopisClient) FetchAllVenues(ctx context.Context, afterDate time.Time) ([]VenueListItem, error) {
	return FetchAll(ctx, c.logger, c.pageSize, func(ctx context.Context, page, rows int) (*Page[VenueListItem], error) {
		return c.FetchVenueList(ctx, page, rows, afterDate)
	})
}

// FetchVenueDetail retrieves a facility with its halls.
func (c *KopisClient) FetchVenueDetail(ctx context.Context, facilityID string) (*VenueDetail, error) {
	var env dbsEnvelope[VenueDetail]
	if err := c.get(ctx, endpointVenueDetail, "/prfplc/"+url.PathEscape(facilityID), url.Values{}, &env); err != nil {
		return nil, err
	}
	if len(env.Items) == 0 {
		return nil, fmt.Errorf("%w: empty detail for facility %s", shared.ErrProviderDecode, facilityID)
	}
	return &env.Items[0], nil
}

// FetchConcertList retrieves one page of performances for a window of at most 31 days.
func (c *KopisClient) FetchConcertList(ctx context.Context, q ConcertQuery, page, rows int) (*Page[ConcertListItem], error) {
	rows = clampRows(rows)
	params := pageParams(page, rows)
	setDate(params, "stdate", q.StartDate)
	setDate(params, "eddate", q.EndDate)
	setDate(params, "afterdate", q.AfterDate)
	if q.GenreCode != "" {
		params.Set("shcate", q.GenreCode)
	}

	var env dbsEnvelope[ConcertListItem]
	if err := c.get(ctx, endpointConcertList, "/pblprfr", params, &env); err != nil {
		return nil, err
	}
	return newPage(env.Items, page, rows), nil
}

// FetchAllConcerts retrieves every page of a single-window performance listing.
func (c *KopisClient) FetchAllConcerts(ctx context.Context, q ConcertQuery) ([]ConcertListItem, error) {
	return FetchAll(ctx, c.logger, c.pageSize, func(ctx context.Context, page, rows int) (*Page[ConcertListItem], error) {
		return c.FetchConcertList(ctx, q, page, rows)
	})
}

// WindowError records a window whose listing failed.
type WindowError struct {
	Window Window
	Err    error
}

// HorizonError is returned by [KopisClient.FetchConcertsInHorizon] when some windows failed.
// The items of the windows that succeeded are still returned alongside it.
type HorizonError struct {
	Failures []WindowError
}

func (e *HorizonError) Error() string {
	return fmt.Sprintf("%d of the listing windows failed: %v", len(e.Failures), e.Failures[0].Err)
}

func (e *HorizonError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// FetchConcertsInHorizon lists performances between q.StartDate and q.EndDate, one paginated
// listing per window of at most [MaxWindowDays] days.
//
// Performances returned by more than one window appear once. A failed window does not stop the
// remaining windows; failures are collected into a [*HorizonError].
func (c *KopisClient) FetchConcertsInHorizon(ctx context.Context, q ConcertQuery) ([]ConcertListItem, error) {
	var (
		items    []ConcertListItem
		failures []WindowError
		seen     = make(map[string]struct{})
	)

	for _, w := range SplitWindows(q.StartDate, q.EndDate, MaxWindowDays) {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		wq := q
		wq.StartDate, wq.EndDate = w.Start, w.End

		listed, err := c.FetchAllConcerts(ctx, wq)
		if err != nil {
			c.logger.Warn("concert window listing failed",
				"start", w.Start.Format(time.DateOnly), "end", w.End.Format(time.DateOnly), "genre", q.GenreCode, "error", err)
			failures = append(failures, WindowError{Window: w, Err: err})
			continue
		}

		for _, item := range listed {
			if _, ok := seen[item.PerformanceID]; ok {
				continue
			}
			seen[item.PerformanceID] = struct{}{}
			items = append(items, item)
		}
	}

	if len(failures) > 0 {
		return items, &HorizonError{Failures: failures}
	}
	return items, nil
}

// FetchConcertDetail retrieves a performance detail record.
func (c *KopisClient) FetchConcertDetail(ctx context.Context, performanceID string) (*ConcertDetail, error) {
	var env dbsEnvelope[ConcertDetail]
	if err := c.get(ctx, endpointConcertDetail, "/pblprfr/"+url.PathEscape(performanceID), url.Values{}, &env); err != nil {
		return nil, err
	}
	if len(env.Items) == 0 {
		return nil, fmt.Errorf("%w: empty detail for performance %s", shared.ErrProviderDecode, performanceID)
	}
	return &env.Items[0], nil
}

// FetchBoxoffice retrieves the ranking list for one genre/area slot.
func (c *KopisClient) FetchBoxoffice(ctx context.Context, q BoxofficeQuery) ([]BoxofficeItem, error) {
	params := url.Values{}
	setDate(params, "stdate", q.StartDate)
	setDate(params, "eddate", q.EndDate)
	if q.GenreCode != "" {
		params.Set("catecode", q.GenreCode)
	}
	if q.AreaCode != "" {
		params.Set("area", q.AreaCode)
	}

	var env boxofsEnvelope
	if err := c.get(ctx, endpointBoxoffice, "/boxoffice", params, &env); err != nil {
		return nil, err
	}
	return env.Items, nil
}

// get performs a throttled, breaker-guarded GET and decodes the XML body into result.
func (c *KopisClient) get(ctx context.Context, endpoint, path string, params url.Values, result any) error {
	err := c.fetch(ctx, endpoint, path, params, result)
	providerRequests.WithLabelValues(endpoint, outcomeOf(err)).Inc()
	return err
}

func (c *KopisClient) fetch(ctx context.Context, endpoint, path string, params url.Values, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", shared.ErrProviderTransport, err)
	}

	params.Set("service", c.apiKey)
	apiURL := c.baseURL + path + "?" + params.Encode()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.doRequest(ctx, apiURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %s: %w", shared.ErrProviderTransport, endpoint, err)
		}
		return err
	}

	if err := checkReturnCode(body); err != nil {
		return err
	}

	if err := xml.Unmarshal(body, result); err != nil {
		c.logger.Debug("undecodable payload", "endpoint", endpoint, "body", snippet(body))
		return fmt.Errorf("%w: %s: %w", shared.ErrProviderDecode, endpoint, err)
	}

	return nil
}

// doRequest performs a single HTTP round trip and returns the body of a 2xx response.
func (c *KopisClient) doRequest(ctx context.Context, apiURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", shared.ErrProviderTransport, err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrProviderTransport, ctxErr)
		}
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrProviderTransport, redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrProviderTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrProviderStatus, resp.StatusCode)
	}

	return body, nil
}

// checkReturnCode reports a rejected request delivered as a 200 with a returncode element.
func checkReturnCode(body []byte) error {
	var env statusEnvelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil
	}
	for _, item := range env.Items {
		code := strings.TrimSpace(item.ReturnCode)
		if code != "" && code != "00" {
			return fmt.Errorf("%w: returncode %s: %s", shared.ErrProviderStatus, code, strings.TrimSpace(item.ErrMsg))
		}
	}
	return nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, shared.ErrProviderStatus):
		return outcomeStatus
	case errors.Is(err, shared.ErrProviderDecode):
		return outcomeDecode
	default:
		return outcomeTransport
	}
}

func clampRows(rows int) int {
	if rows <= 0 || rows > MaxRows {
		return MaxRows
	}
	return rows
}

func pageParams(page, rows int) url.Values {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("cpage", strconv.Itoa(page))
	params.Set("rows", strconv.Itoa(rows))
	return params
}

func setDate(params url.Values, key string, t time.Time) {
	if !t.IsZero() {
		params.Set(key, t.Format(shared.ProviderDateFormat))
	}
}

// redactKey removes the API key from errors that echo the request URL.
func redactKey(err error, key string) error {
	msg := err.Error()
	if key == "" || !strings.Contains(msg, key) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, key, "REDACTED"))
}

func snippet(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
