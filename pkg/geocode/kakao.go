package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/plantwatch/go-plantwatch/components/monitor"
	"github.com/plantwatch/go-plantwatch/pkg/common"
)

// DefaultBaseURL is the Kakao local API host.
const DefaultBaseURL = "https://dapi.kakao.com"

const addressSearchPath = "/v2/local/search/address.json"

// Config configures the Kakao address search client.
type Config struct {
	BaseURL    string
	RESTKey    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Validator  monitor.ResponseValidator
}

// Kakao resolves addresses with the Kakao local search API.
type Kakao struct {
	baseURL   string
	key       string
	client    *http.Client
	validator monitor.ResponseValidator
}

var _ monitor.Geocoder = (*Kakao)(nil)

// NewKakao builds a geocoder. The REST key is required.
func NewKakao(cfg Config) (*Kakao, error) {
	if strings.TrimSpace(cfg.RESTKey) == "" {
		return nil, errors.New("geocode: rest key is required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = common.HTTPClient(cfg.Timeout)
	}
	validator := cfg.Validator
	if validator == nil {
		validator = monitor.NewJSONSchemaValidator(nil)
	}
	return &Kakao{baseURL: base, key: cfg.RESTKey, client: httpClient, validator: validator}, nil
}

type addressDocument struct {
	AddressName string `json:"address_name"`
	X           string `json:"x"`
	Y           string `json:"y"`
}

type addressResponse struct {
	Documents []addressDocument `json:"documents"`
}

// Geocode returns the first match for address. x is the longitude and y the
// latitude; zero matches is a geocode failure.
func (k *Kakao) Geocode(ctx context.Context, address string) (monitor.Coordinates, error) {
	const op = "geocode: address search"
	address = strings.TrimSpace(address)
	if address == "" {
		return monitor.Coordinates{}, monitor.GeocodeError(op, errors.New("address is empty"))
	}
	endpoint := k.baseURL + addressSearchPath + "?" + url.Values{"query": {address}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return monitor.Coordinates{}, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+k.key)

	resp, err := k.client.Do(req)
	if err != nil {
		return monitor.Coordinates{}, monitor.NetworkError(op, 0, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return monitor.Coordinates{}, monitor.NetworkError(op, resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 {
		return monitor.Coordinates{}, monitor.GeocodeError(op, fmt.Errorf("status %d", resp.StatusCode))
	}
	if err := k.validator.Validate(monitor.ShapeGeocode, body); err != nil {
		return monitor.Coordinates{}, err
	}
	var payload addressResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return monitor.Coordinates{}, monitor.ParseError(op, err)
	}
	if len(payload.Documents) == 0 {
		return monitor.Coordinates{}, monitor.GeocodeError(op, fmt.Errorf("no match for %q", address))
	}
	doc := payload.Documents[0]
	lng, err := strconv.ParseFloat(doc.X, 64)
	if err != nil {
		return monitor.Coordinates{}, monitor.ParseError(op, fmt.Errorf("x: %w", err))
	}
	lat, err := strconv.ParseFloat(doc.Y, 64)
	if err != nil {
		return monitor.Coordinates{}, monitor.ParseError(op, fmt.Errorf("y: %w", err))
	}
	return monitor.Coordinates{Lat: lat, Lng: lng}, nil
}

// RateLimited wraps a geocoder so lookups wait for a token.
type RateLimited struct {
	geocoder monitor.Geocoder
	limiter  *rate.Limiter
}

// NewRateLimited allows rps lookups per second with the given burst.
func NewRateLimited(geocoder monitor.Geocoder, rps float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		geocoder: geocoder,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Geocode waits for the limiter or ctx before forwarding.
func (r *RateLimited) Geocode(ctx context.Context, address string) (monitor.Coordinates, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return monitor.Coordinates{}, monitor.GeocodeError("geocode: rate limit", err)
	}
	return r.geocoder.Geocode(ctx, address)
}
