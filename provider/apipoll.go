package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/clefhq/capture"
)

const (
	apiPollTimeout  = 30 * time.Second
	defaultMaxPages = 10
)

// cursorKeys are the body fields checked for a pagination cursor, in order.
var cursorKeys = []string{"next_cursor", "nextCursor", "cursor", "offset"}

// nextURLKeys are the body fields checked for an explicit next-page URL.
var nextURLKeys = []string{"next", "next_page_url", "nextPageUrl"}

// envelopeKeys are the common response envelopes holding the item array.
var envelopeKeys = []string{"data", "results", "items", "entries", "records"}

// Ensure APIPoll implements capture.Provider at compile time.
var _ capture.Provider = (*APIPoll)(nil)

// APIPoll polls a JSON API endpoint with delta detection: per-endpoint
// cursor/ETag/hash state persists across polls, requests are conditional
// when the delta strategy is "etag", and responses are paginated through
// common envelope and next-page conventions.
//
// The item hash is computed and stored on every poll but is not used to
// filter previously seen items; delta filtering beyond 304 short-circuits
// is left to the caller.
type APIPoll struct {
	fetcher capture.Fetcher
	store   capture.CursorStore
}

// NewAPIPoll creates a new APIPoll provider backed by the given store.
func NewAPIPoll(fetcher capture.Fetcher, store capture.CursorStore) *APIPoll {
	return &APIPoll{fetcher: fetcher, store: store}
}

func (p *APIPoll) ID() string { return "api_poll" }

func (p *APIPoll) DisplayName() string { return "API Poll (Delta Detection)" }

func (p *APIPoll) Supports(input *capture.CaptureInput) bool {
	return input.Kind == capture.KindAPIEndpoint
}

func (p *APIPoll) Capture(ctx context.Context, input *capture.CaptureInput, config *capture.CaptureConfig) (*capture.CaptureItem, error) {
	if !p.Supports(input) {
		return nil, capture.Errorf(capture.EINVALID, "api_poll does not support input kind %q", input.Kind)
	}

	opts := config.Options(p.ID())
	pagination := optString(opts, "pagination", "cursor")
	delta := optString(opts, "delta", "watermark")
	maxPages := optInt(opts, "maxPages", defaultMaxPages)
	timeout := config.Timeout(apiPollTimeout)

	key := capture.EndpointKey(input.EndpointURL)
	state, err := p.store.Get(ctx, key)
	if err != nil {
		return nil, capture.Errorf(capture.EINTERNAL, "loading cursor state for %s: %v", key, err)
	}

	// An explicit input cursor overrides the stored one for the first page.
	cursor := input.Cursor
	if cursor == "" {
		cursor = state.LastCursor
	}

	headers := map[string]string{"Accept": "application/json"}
	for k, v := range input.Headers {
		headers[k] = v
	}
	if delta == "etag" && state.LastETag != "" {
		headers["If-None-Match"] = state.LastETag
	}

	currentURL := buildPollURL(input.EndpointURL, cursor, pagination)
	var (
		allItems  []json.RawMessage
		pages     int
		newCursor string
		newETag   string
	)

	for currentURL != "" && pages < maxPages {
		resp, err := p.fetcher.Fetch(ctx, &capture.FetchRequest{
			Method:  input.Method,
			URL:     currentURL,
			Header:  headers,
			Timeout: timeout,
		})
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == 304 {
			return p.emptyDelta(ctx, key, input.EndpointURL, delta)
		}
		if !resp.OK() {
			return nil, capture.Errorf(capture.EUNAVAILABLE, "HTTP %d polling %s", resp.StatusCode, currentURL)
		}
		if pages == 0 {
			newETag = resp.HeaderValue("ETag")
		}

		var payload json.RawMessage
		if err := json.Unmarshal(resp.Body, &payload); err != nil {
			return nil, capture.Errorf(capture.EINVALID, "invalid JSON from %s: %v", currentURL, err)
		}

		items, envelope := extractItems(payload)
		allItems = append(allItems, items...)

		if envelope != nil {
			if c := extractCursor(envelope); c != "" {
				newCursor = c
			}
			currentURL = p.nextPageURL(resp, envelope, pagination, input.EndpointURL)
		} else {
			currentURL = ""
		}

		pages++
	}

	contentBytes, err := json.MarshalIndent(allItems, "", "  ")
	if err != nil {
		contentBytes = []byte("[]")
	}

	itemHash := hashItems(allItems)
	now := time.Now().UTC().Format(time.RFC3339)
	err = p.store.Update(ctx, key, func(s *capture.CursorState) error {
		if newCursor != "" {
			s.LastCursor = newCursor
		}
		if newETag != "" {
			s.LastETag = newETag
		}
		s.LastHash = itemHash
		s.LastPollAt = now
		return nil
	})
	if err != nil {
		return nil, capture.Errorf(capture.EINTERNAL, "storing cursor state for %s: %v", key, err)
	}

	meta := newMetadata(p.ID())
	meta.SourceURL = input.EndpointURL
	meta.Extra = map[string]any{
		"itemCount":      len(allItems),
		"totalFetched":   len(allItems),
		"pagesCollected": pages,
		"deltaDetected":  len(allItems) > 0,
		"strategy":       delta,
		"pagination":     pagination,
		"cursor":         newCursor,
	}

	return &capture.CaptureItem{
		Content:        string(contentBytes),
		SourceMetadata: meta,
	}, nil
}

// emptyDelta is the 304 short-circuit: nothing changed, so only the poll
// timestamp is recorded and the content is an empty array.
func (p *APIPoll) emptyDelta(ctx context.Context, key, endpointURL, delta string) (*capture.CaptureItem, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	err := p.store.Update(ctx, key, func(s *capture.CursorState) error {
		s.LastPollAt = now
		return nil
	})
	if err != nil {
		return nil, capture.Errorf(capture.EINTERNAL, "storing cursor state for %s: %v", key, err)
	}

	meta := newMetadata(p.ID())
	meta.SourceURL = endpointURL
	meta.Extra = map[string]any{
		"deltaDetected": false,
		"strategy":      delta,
	}

	return &capture.CaptureItem{
		Content:        "[]",
		SourceMetadata: meta,
	}, nil
}

// buildPollURL appends the cursor parameter to the endpoint. The parameter
// name is "offset" under offset pagination and "cursor" otherwise.
func buildPollURL(endpoint, cursor, pagination string) string {
	if cursor == "" {
		return endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	param := "cursor"
	if pagination == "offset" {
		param = "offset"
	}
	q := u.Query()
	q.Set(param, cursor)
	u.RawQuery = q.Encode()
	return u.String()
}

// extractItems pulls the item list out of a response payload: a bare array
// is taken whole, an object is checked for common envelope keys, and a bare
// object with no envelope is wrapped as a one-element list. The enclosing
// object is returned for cursor extraction when there is one.
func extractItems(payload json.RawMessage) ([]json.RawMessage, map[string]json.RawMessage) {
	var arr []json.RawMessage
	if err := json.Unmarshal(payload, &arr); err == nil {
		return arr, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, nil
	}
	for _, key := range envelopeKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var nested []json.RawMessage
		if err := json.Unmarshal(raw, &nested); err == nil {
			return nested, obj
		}
	}
	return []json.RawMessage{payload}, obj
}

// extractCursor reads a pagination cursor from the response envelope,
// accepting both string and numeric values.
func extractCursor(obj map[string]json.RawMessage) string {
	for _, key := range cursorKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		var n int64
		if err := json.Unmarshal(raw, &n); err == nil {
			return strconv.FormatInt(n, 10)
		}
	}
	return ""
}

// nextPageURL finds the next page: the Link header under link pagination,
// then explicit next-URL body fields, then has_more plus a cursor.
func (p *APIPoll) nextPageURL(resp *capture.FetchResponse, obj map[string]json.RawMessage, pagination, endpoint string) string {
	if pagination == "link" {
		if next := parseLinkNext(resp.HeaderValue("Link")); next != "" {
			return next
		}
	}

	for _, key := range nextURLKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}

	hasMore := false
	for _, key := range []string{"has_more", "hasMore"} {
		if raw, ok := obj[key]; ok {
			var b bool
			if err := json.Unmarshal(raw, &b); err == nil && b {
				hasMore = true
			}
		}
	}
	if hasMore {
		if cursor := extractCursor(obj); cursor != "" {
			return buildPollURL(endpoint, cursor, pagination)
		}
	}
	return ""
}

// parseLinkNext extracts the rel="next" target from an RFC 8288 Link
// header value.
func parseLinkNext(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		for _, param := range segments[1:] {
			param = strings.TrimSpace(param)
			if strings.EqualFold(param, `rel="next"`) || strings.EqualFold(param, "rel=next") {
				return target
			}
		}
	}
	return ""
}

// hashItems fingerprints the collected items for the stored delta state.
func hashItems(items []json.RawMessage) string {
	h := xxhash.New()
	for _, item := range items {
		_, _ = h.Write(item)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
