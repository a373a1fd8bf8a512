package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/macadam-io/macadam/internal/cache"
	"github.com/macadam-io/macadam/internal/model"
	"go.uber.org/zap"
)

// regionBBoxes bounds the supported regions (south, west, north, east).
var regionBBoxes = map[string]bbox{
	"TX": {25.83, -106.65, 36.50, -93.51},
	"MI": {41.68, -90.42, 48.31, -82.41},
	"CO": {36.99, -109.06, 41.00, -102.04},
}

type bbox struct {
	south, west, north, east float64
}

// Overpass queries a public geodata service for named businesses, tiling
// each region's bounding box so individual queries stay small. Tile queries
// run sequentially; only retry backoff paces them.
type Overpass struct {
	cfg        model.GeoConfig
	httpClient *http.Client
	tiles      *cache.Memory
	logger     *zap.Logger
}

// NewOverpass builds the adapter. A nil logger disables logging.
func NewOverpass(cfg model.GeoConfig, logger *zap.Logger) *Overpass {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Overpass{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.QueryTimeout + 10*time.Second},
		tiles:      cache.NewMemory(time.Hour, 10*time.Minute),
		logger:     logger,
	}
}

// overpassResponse is the subset of the Overpass JSON we consume.
type overpassResponse struct {
	Elements []struct {
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// CollectRegion fetches every tile of a region and maps the elements onto
// RawRecords. An unknown region code is a precondition failure. A tile that
// keeps failing past the retry ceiling fails the whole region; infinite
// retry is worse than a loud error.
func (o *Overpass) CollectRegion(ctx context.Context, region, nameRegex string) ([]model.RawRecord, error) {
	box, ok := regionBBoxes[strings.ToUpper(region)]
	if !ok {
		return nil, fmt.Errorf("unsupported region %q", region)
	}

	var records []model.RawRecord
	for i, tile := range grid(box, o.cfg.TileStep) {
		resp, err := o.fetchTile(ctx, nameRegex, tile, i)
		if err != nil {
			return nil, fmt.Errorf("region %s tile %d: %w", region, i, err)
		}
		for _, el := range resp.Elements {
			if rec, ok := recordFromTags(el.Tags); ok {
				records = append(records, rec)
			}
		}
	}

	o.logger.Info("geodata region collected",
		zap.String("region", region),
		zap.Int("records", len(records)))
	return records, nil
}

// fetchTile posts one tile query, retrying with exponential backoff up to
// the configured attempt ceiling. Successful responses are cached for the
// run so a re-collect never re-hits the service.
func (o *Overpass) fetchTile(ctx context.Context, nameRegex string, tile bbox, index int) (*overpassResponse, error) {
	query := buildQuery(nameRegex, tile, o.cfg.QueryTimeout)
	key := cache.Key(o.cfg.Endpoint + "|" + query)

	if body, found := o.tiles.Get(key); found {
		return decodeTile(body)
	}

	backoff := o.cfg.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		body, err := o.postQuery(ctx, query)
		if err == nil {
			o.tiles.Set(key, body, time.Hour)
			return decodeTile(body)
		}
		lastErr = err

		o.logger.Warn("geodata tile query failed",
			zap.Int("tile", index),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		if attempt == o.cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * o.cfg.BackoffFactor)
		if backoff > o.cfg.MaxBackoff {
			backoff = o.cfg.MaxBackoff
		}
	}
	return nil, fmt.Errorf("gave up after %d attempts: %w", o.cfg.MaxAttempts, lastErr)
}

func (o *Overpass) postQuery(ctx context.Context, query string) ([]byte, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.Endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post query: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func decodeTile(body []byte) (*overpassResponse, error) {
	var resp overpassResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

// buildQuery renders the Overpass QL for one tile, matching node, way, and
// relation names case-insensitively against nameRegex.
func buildQuery(nameRegex string, tile bbox, timeout time.Duration) string {
	coords := fmt.Sprintf("(%g,%g,%g,%g)", tile.south, tile.west, tile.north, tile.east)
	secs := int(timeout.Seconds())
	return fmt.Sprintf(`[out:json][timeout:%d];
(
  node["name"~"%s", i]%s;
  way["name"~"%s", i]%s;
  relation["name"~"%s", i]%s;
);
out center tags;
`, secs, nameRegex, coords, nameRegex, coords, nameRegex, coords)
}

// grid tiles a bounding box into step-degree cells, clipped at the edges.
// Cell order is south-to-north, west-to-east, so tile indexes are stable.
func grid(box bbox, step float64) []bbox {
	if step <= 0 {
		step = 2.0
	}
	var tiles []bbox
	for lat := box.south; lat < box.north; lat += step {
		lat2 := min(lat+step, box.north)
		for lon := box.west; lon < box.east; lon += step {
			lon2 := min(lon+step, box.east)
			tiles = append(tiles, bbox{lat, lon, lat2, lon2})
		}
	}
	return tiles
}

// recordFromTags maps OSM element tags onto the canonical record schema.
// Elements without a name are dropped.
func recordFromTags(tags map[string]string) (model.RawRecord, bool) {
	name := tags["name"]
	if name == "" {
		return model.RawRecord{}, false
	}

	var addrParts []string
	for _, k := range []string{"addr:housenumber", "addr:street", "addr:unit", "addr:city", "addr:state", "addr:postcode"} {
		if v := tags[k]; v != "" {
			addrParts = append(addrParts, v)
		}
	}

	phone := tags["phone"]
	if phone == "" {
		phone = tags["contact:phone"]
	}
	website := tags["website"]
	if website == "" {
		website = tags["contact:website"]
	}

	return model.RawRecord{
		SourceName: "osm",
		Name:       name,
		Address:    strings.Join(addrParts, " "),
		City:       tags["addr:city"],
		State:      tags["addr:state"],
		PostalCode: tags["addr:postcode"],
		Phone:      phone,
		Website:    website,
	}, true
}
