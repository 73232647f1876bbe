// Package dukas fetches intraday history from the Dukascopy public
// datafeed. The feed serves one LZMA-compressed tick archive per
// instrument-hour; the client downloads the hours covering a range,
// decodes the ticks and aggregates them into fixed-width bars.
package dukas

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ulikunitz/xz/lzma"

	"github.com/rustyeddy/ohlcprep/market"
)

// DefaultBaseURL is the public Dukascopy datafeed endpoint.
const DefaultBaseURL = "https://datafeed.dukascopy.com/datafeed"

// pointScale maps instrument codes to the implied-decimal scale of the
// integer prices in the binary feed. Index CFDs carry 3 decimals.
var pointScale = map[string]float64{
	"usa30idxusd":   1000,
	"usatechidxusd": 1000,
	"usa500idxusd":  1000,
	"deuidxeur":     1000,
	"gbridxgbp":     1000,
}

// defaultScale covers FX pairs, which carry 5 implied decimals.
const defaultScale = 100000

// Client is a Dukascopy datafeed client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	pause      time.Duration // polite delay between hour requests
}

// NewClient creates a client against the public datafeed.
func NewClient() *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 45 * time.Second,
		},
		pause: 50 * time.Millisecond,
	}
}

// NewClientWithBaseURL creates a client against an alternate endpoint,
// with no inter-request delay. Used by tests.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchBars downloads tick history for [from, to) and aggregates it
// into bars of the given resolution. Hours the feed has no archive for
// (404 or empty payload) contribute nothing; volume information in the
// feed is discarded.
func (c *Client) FetchBars(ctx context.Context, code string, from, to time.Time, resolution time.Duration) ([]market.Bar, error) {
	if code == "" {
		return nil, fmt.Errorf("instrument code is required")
	}
	if !to.After(from) {
		return nil, fmt.Errorf("empty range %s..%s", from, to)
	}

	scale := pointScale[code]
	if scale == 0 {
		scale = defaultScale
	}

	var ticks []tick
	for hour := from.UTC().Truncate(time.Hour); hour.Before(to); hour = hour.Add(time.Hour) {
		if c.pause > 0 {
			time.Sleep(c.pause)
		}
		ht, err := c.fetchHour(ctx, code, hour, scale)
		if err != nil {
			return nil, fmt.Errorf("fetch %s %s: %w", code, hour.Format("2006-01-02T15"), err)
		}
		ticks = append(ticks, ht...)
	}

	return aggregateTicks(ticks, from, to, resolution), nil
}

// tick is a single quote with its bid/ask midpoint already computed.
type tick struct {
	time time.Time
	mid  float64
}

func (c *Client) fetchHour(ctx context.Context, code string, hour time.Time, scale float64) ([]tick, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.hourURL(code, hour), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	// Missing hours are normal (weekends, holidays, outages).
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	// The feed serves zero-length archives for quiet hours.
	if len(body) == 0 {
		return nil, nil
	}

	r, err := lzma.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("open lzma stream: %w", err)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}

	return decodeTicks(hour, raw, scale)
}

// hourURL builds the archive URL. The feed uses a zero-based month in
// the path: Jan=00 ... Dec=11.
func (c *Client) hourURL(code string, hour time.Time) string {
	return fmt.Sprintf("%s/%s/%04d/%02d/%02d/%02dh_ticks.bi5",
		c.baseURL,
		strings.ToUpper(code),
		hour.Year(), int(hour.Month())-1, hour.Day(), hour.Hour())
}

// tickRecordSize is the fixed wire size of one tick: uint32 ms offset
// from the hour, uint32 ask, uint32 bid, float32 ask volume, float32
// bid volume, all big-endian.
const tickRecordSize = 20

func decodeTicks(hour time.Time, raw []byte, scale float64) ([]tick, error) {
	if len(raw)%tickRecordSize != 0 {
		return nil, fmt.Errorf("tick payload not a multiple of %d bytes: %d", tickRecordSize, len(raw))
	}

	ticks := make([]tick, 0, len(raw)/tickRecordSize)
	for off := 0; off < len(raw); off += tickRecordSize {
		rec := raw[off : off+tickRecordSize]
		ms := binary.BigEndian.Uint32(rec[0:4])
		ask := binary.BigEndian.Uint32(rec[4:8])
		bid := binary.BigEndian.Uint32(rec[8:12])
		ticks = append(ticks, tick{
			time: hour.Add(time.Duration(ms) * time.Millisecond),
			mid:  (float64(ask) + float64(bid)) / 2 / scale,
		})
	}
	return ticks, nil
}

// aggregateTicks folds ticks into OHLC bars of the given width,
// aligned to the top of the hour, keeping only bars opening inside
// [from, to). Ticks arrive hour-ordered from fetchHour so a single
// forward pass suffices.
func aggregateTicks(ticks []tick, from, to time.Time, width time.Duration) []market.Bar {
	var out []market.Bar
	var cur market.Bar
	open := false

	flush := func() {
		if open && !cur.Time.Before(from) && cur.Time.Before(to) {
			out = append(out, cur)
		}
		open = false
	}

	for _, tk := range ticks {
		bucket := tk.time.Truncate(width)
		if open && bucket.Equal(cur.Time) {
			if tk.mid > cur.High {
				cur.High = tk.mid
			}
			if tk.mid < cur.Low {
				cur.Low = tk.mid
			}
			cur.Close = tk.mid
			continue
		}
		flush()
		cur = market.Bar{Time: bucket, Open: tk.mid, High: tk.mid, Low: tk.mid, Close: tk.mid}
		open = true
	}
	flush()
	return out
}
