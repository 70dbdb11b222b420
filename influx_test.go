package sensepanel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/k1LoW/sensepanel/config"
)

var hostRe = regexp.MustCompile(`"hostname" = '([^']+)'`)

// newInfluxServer serves /query from rows keyed by "host expr".
func newInfluxServer(t *testing.T, rows map[string]string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ping":
			w.WriteHeader(http.StatusNoContent)
			return
		case "/query":
		default:
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("db"); got != config.DefaultDatabase {
			t.Errorf("db = %q, want %q", got, config.DefaultDatabase)
		}
		q := r.URL.Query().Get("q")
		m := hostRe.FindStringSubmatch(q)
		if m == nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprint(w, `{"error":"error parsing query: missing hostname"}`)
			return
		}
		expr := strings.TrimSpace(strings.TrimPrefix(q[:strings.Index(q, " FROM")], "SELECT"))
		body, ok := rows[m[1]+" "+expr]
		if !ok {
			_, _ = fmt.Fprint(w, `{"results":[{"statement_id":0}]}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestInfluxClient(url string) *InfluxClient {
	cfg := config.Default().Influx
	cfg.URL = url
	return NewInfluxClient(cfg, 5*time.Second, nil)
}

func series(columns string, values string) string {
	return fmt.Sprintf(`{"results":[{"statement_id":0,"series":[{"name":"sensor","columns":[%s],"values":[[%s]]}]}]}`, columns, values)
}

func TestStatement(t *testing.T) {
	c := newTestInfluxClient("http://localhost:8086")
	got := c.Statement("last(power)", "rasp-meter-5")
	want := `SELECT last(power) FROM "sensor" WHERE "hostname" = 'rasp-meter-5' AND time > now() - 1h ORDER BY time desc LIMIT 1`
	if got != want {
		t.Errorf("Statement() = %s, want %s", got, want)
	}
	if got := c.Statement("*", `o'brien`); !strings.Contains(got, `'o\'brien'`) {
		t.Errorf("Statement() did not escape the host: %s", got)
	}
}

func TestQuery(t *testing.T) {
	ts := newInfluxServer(t, map[string]string{
		"rasp-meter-1 *": series(`"time","co2","hostname","humi","temp"`, `"2026-10-07T00:00:00Z",612,"rasp-meter-1",48.2,23.5`),
	})
	c := newTestInfluxClient(ts.URL)
	row, err := c.Query(context.Background(), "*", "rasp-meter-1")
	if err != nil {
		t.Fatal(err)
	}
	if got, err := row.Float("temp"); err != nil || got != 23.5 {
		t.Errorf("temp = %v, %v; want 23.5", got, err)
	}
	if _, err := row.Float("hostname"); err == nil {
		t.Error("Float() on a string column should fail")
	}
	if _, err := row.Float("pressure"); !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("Float() error = %v, want %v", err, ErrColumnNotFound)
	}
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
		wantMsg string
	}{
		{
			name: "no series",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, `{"results":[{"statement_id":0}]}`)
			},
			want: ErrSeriesNotFound,
		},
		{
			name: "no results",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, `{"results":[]}`)
			},
			want: ErrSeriesNotFound,
		},
		{
			name: "statement error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, `{"results":[{"statement_id":0,"error":"database not found: sensor"}]}`)
			},
			wantMsg: "database not found: sensor",
		},
		{
			name: "bad request",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = fmt.Fprint(w, `{"error":"error parsing query"}`)
			},
			wantMsg: "error parsing query",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantMsg: "failed to query",
		},
		{
			name: "broken json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = fmt.Fprint(w, `{"results":`)
			},
			wantMsg: "failed to decode response",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			t.Cleanup(ts.Close)
			c := newTestInfluxClient(ts.URL)
			_, err := c.Query(context.Background(), "*", "rasp-meter-1")
			if err == nil {
				t.Fatal("Query() should fail")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Query() error = %v, want %v", err, tt.want)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Query() error = %v, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestFetchReadings(t *testing.T) {
	ts := newInfluxServer(t, map[string]string{
		"rasp-meter-1 *": series(`"time","co2","humi","temp"`, `"2026-10-07T00:00:00Z",612,48.2,23.5`),
		"rasp-meter-2 *": series(`"time","co2","humi","temp"`, `"2026-10-07T00:00:00Z",1233.6,52.9,21`),
	})
	c := newTestInfluxClient(ts.URL)
	got, err := c.FetchReadings(context.Background(), []config.Place{
		{Name: "リビング", Host: "rasp-meter-1"},
		{Name: "和室", Host: "rasp-meter-2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []SensorReading{
		{Place: "リビング", Temperature: 23.5, Humidity: 48.2, CO2: 612},
		{Place: "和室", Temperature: 21, Humidity: 52.9, CO2: 1234},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FetchReadings() mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchReadingsAbortsOnMissingPlace(t *testing.T) {
	ts := newInfluxServer(t, map[string]string{
		"rasp-meter-1 *": series(`"time","co2","humi","temp"`, `"2026-10-07T00:00:00Z",612,48.2,23.5`),
	})
	c := newTestInfluxClient(ts.URL)
	_, err := c.FetchReadings(context.Background(), []config.Place{
		{Name: "リビング", Host: "rasp-meter-1"},
		{Name: "書斎", Host: "rasp-meter-3"},
	})
	if !errors.Is(err, ErrSeriesNotFound) {
		t.Errorf("FetchReadings() error = %v, want %v", err, ErrSeriesNotFound)
	}
	if err != nil && !strings.Contains(err.Error(), "書斎") {
		t.Errorf("error does not name the place: %v", err)
	}
}

func TestFetchReadingsMissingColumn(t *testing.T) {
	ts := newInfluxServer(t, map[string]string{
		"rasp-meter-1 *": series(`"time","humi","temp"`, `"2026-10-07T00:00:00Z",48.2,23.5`),
	})
	c := newTestInfluxClient(ts.URL)
	_, err := c.FetchReadings(context.Background(), []config.Place{{Name: "リビング", Host: "rasp-meter-1"}})
	if !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("FetchReadings() error = %v, want %v", err, ErrColumnNotFound)
	}
}

func TestFetchPower(t *testing.T) {
	ts := newInfluxServer(t, map[string]string{
		"rasp-meter-5 last(power)": series(`"time","last"`, `"2026-10-07T00:00:00Z",320`),
		"rasp-meter-5 mean(power)": series(`"time","mean"`, `"2026-10-07T00:00:00Z",310.25`),
		"rasp-meter-5 max(power)":  series(`"time","max"`, `"2026-10-07T00:00:00Z",450`),
		"rasp-meter-5 min(power)":  series(`"time","min"`, `"2026-10-07T00:00:00Z",200`),
	})
	c := newTestInfluxClient(ts.URL)
	got, err := c.FetchPower(context.Background(), "rasp-meter-5")
	if err != nil {
		t.Fatal(err)
	}
	want := &PowerSummary{Last: 320, Mean: 310.25, Max: 450, Min: 200}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FetchPower() mismatch (-want +got):\n%s", diff)
	}
}

func TestPing(t *testing.T) {
	ts := newInfluxServer(t, nil)
	if err := newTestInfluxClient(ts.URL).Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := newTestInfluxClient(ts.URL + "/missing").Ping(context.Background()); err == nil {
		t.Error("Ping() against a wrong path should fail")
	}
}
