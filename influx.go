package sensepanel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/k1LoW/errors"
	"github.com/k1LoW/sensepanel/config"
	"github.com/k1LoW/sensepanel/version"
)

const maxResponseBodySize = 4 << 20

var userAgent = version.Name + "/" + version.Version

// InfluxClient queries an InfluxDB 1.x server through its HTTP /query API.
type InfluxClient struct {
	baseURL     string
	database    string
	measurement string
	window      string
	fields      config.Fields
	http        *http.Client
	logger      *slog.Logger
}

var _ Fetcher = (*InfluxClient)(nil)

// NewInfluxClient builds a client from cfg. Requests are retried cfg.RetryMax times.
func NewInfluxClient(cfg config.Influx, timeout time.Duration, logger *slog.Logger) *InfluxClient {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{Timeout: timeout}
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = newAPILogger(logger)

	return &InfluxClient{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		database:    cfg.Database,
		measurement: cfg.Measurement,
		window:      cfg.Window,
		fields:      cfg.Fields,
		http:        retryClient.StandardClient(),
		logger:      logger,
	}
}

type queryResponse struct {
	Results []struct {
		StatementID int `json:"statement_id"`
		Series      []struct {
			Name    string   `json:"name"`
			Columns []string `json:"columns"`
			Values  [][]any  `json:"values"`
		} `json:"series"`
		Error string `json:"error"`
	} `json:"results"`
	Error string `json:"error"`
}

// Row is one result row keyed by column name.
type Row map[string]any

// Float returns column as a float64.
func (r Row) Float(column string) (float64, error) {
	v, ok := r[column]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("column %s is not numeric: %w", column, err)
		}
		return f, nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("column %s is not numeric: %v", column, v)
	}
}

// Statement builds the InfluxQL selecting the latest value of expr for host within the window.
func (c *InfluxClient) Statement(expr, host string) string {
	return fmt.Sprintf(
		`SELECT %s FROM "%s" WHERE "hostname" = '%s' AND time > now() - %s ORDER BY time desc LIMIT 1`,
		expr, c.measurement, strings.ReplaceAll(host, `'`, `\'`), c.window,
	)
}

// Query runs the statement for expr and host and returns the first row of the first series.
func (c *InfluxClient) Query(ctx context.Context, expr, host string) (_ Row, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	q := url.Values{}
	q.Set("db", c.database)
	q.Set("q", c.Statement(expr, host))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	c.logger.Debug("querying influxdb", slog.String("host", host), slog.String("expr", expr))
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s for %s: %w", expr, host, err)
	}
	defer res.Body.Close()

	var qr queryResponse
	dec := json.NewDecoder(io.LimitReader(res.Body, maxResponseBodySize))
	dec.UseNumber()
	decodeErr := dec.Decode(&qr)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		if decodeErr == nil && qr.Error != "" {
			return nil, fmt.Errorf("influxdb returned status %d: %s", res.StatusCode, qr.Error)
		}
		return nil, fmt.Errorf("influxdb returned status %d", res.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if qr.Error != "" {
		return nil, fmt.Errorf("influxdb error: %s", qr.Error)
	}
	if len(qr.Results) == 0 {
		return nil, fmt.Errorf("%w: %s for %s", ErrSeriesNotFound, expr, host)
	}
	result := qr.Results[0]
	if result.Error != "" {
		return nil, fmt.Errorf("influxdb error: %s", result.Error)
	}
	if len(result.Series) == 0 || len(result.Series[0].Values) == 0 {
		return nil, fmt.Errorf("%w: %s for %s", ErrSeriesNotFound, expr, host)
	}
	series := result.Series[0]
	values := series.Values[0]
	row := Row{}
	for i, col := range series.Columns {
		if i < len(values) {
			row[col] = values[i]
		}
	}
	return row, nil
}

// Ping checks that the server answers on /ping.
func (c *InfluxClient) Ping(ctx context.Context) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to ping influxdb: %w", err)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxResponseBodySize))
	if res.StatusCode != http.StatusNoContent && res.StatusCode != http.StatusOK {
		return fmt.Errorf("influxdb ping returned status %d", res.StatusCode)
	}
	return nil
}

var _ retryablehttp.LeveledLogger = (*apiLogger)(nil)

type apiLogger struct {
	l *slog.Logger
}

func (l *apiLogger) Error(msg string, keysAndValues ...any) {
	l.l.Error(msg, append([]any{slog.String("original_log_level", "error")}, keysAndValues...)...)
}
func (l *apiLogger) Info(msg string, keysAndValues ...any) {
	l.l.Info(msg, append([]any{slog.String("original_log_level", "info")}, keysAndValues...)...)
}
func (l *apiLogger) Debug(msg string, keysAndValues ...any) {
	if strings.HasPrefix(msg, "retrying") {
		// Surface retries at info so the dot handler can show its spinner.
		l.l.Info(msg, append([]any{slog.String("original_log_level", "debug")}, keysAndValues...)...)
		return
	}
	l.l.Debug(msg, append([]any{slog.String("original_log_level", "debug")}, keysAndValues...)...)
}
func (l *apiLogger) Warn(msg string, keysAndValues ...any) {
	l.l.Warn(msg, append([]any{slog.String("original_log_level", "warn")}, keysAndValues...)...)
}

func newAPILogger(l *slog.Logger) retryablehttp.LeveledLogger {
	return &apiLogger{
		l: l.WithGroup("api"),
	}
}
