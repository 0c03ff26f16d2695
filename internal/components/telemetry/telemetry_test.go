package telemetry

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	inner := &RecordingAPI{}
	scoped := NewScopedAPI("goodreads_scraper", inner)

	scoped.ReportBroken("client.fetch-page", "boom")
	scoped.ReportWarning("client.fetch-page")
	scoped.ReportDebug("fetching")
	scoped.ReportCount("books", 3)

	reports := inner.Reports("")
	require.Len(t, reports, 4)
	require.Equal(t, "goodreads_scraper: client.fetch-page", reports[0].Id)
	require.Equal(t, []any{"boom"}, reports[0].Params)
	require.Equal(t, "warning", reports[1].Kind)
	require.Equal(t, "goodreads_scraper: fetching", reports[2].Id)
	require.Equal(t, int64(3), reports[3].Count)
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		text     string
		expected slog.Level
	}{
		{text: "debug", expected: slog.LevelDebug},
		{text: " WARN ", expected: slog.LevelWarn},
		{text: "warning", expected: slog.LevelWarn},
		{text: "error", expected: slog.LevelError},
		{text: "", expected: slog.LevelInfo},
		{text: "verbose", expected: slog.LevelInfo},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, ParseLevel(test.text), test.text)
	}
}

func TestSetupWithoutEndpoints(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestInstrumentRestyDump(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>shelf</html>"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "resty")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	tel := &RecordingAPI{}
	client := resty.New()
	InstrumentResty(client, tel, output)

	_, err = client.R().Get(server.URL + "/review/list/1")
	require.NoError(t, err)

	contents, err := os.ReadFile(filepath.Join(dir, "1"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(contents), "---- REQUEST ----"))
	require.Contains(t, string(contents), "/review/list/1")
	require.Contains(t, string(contents), "<html>shelf</html>")

	debug := tel.Reports("debug")
	require.Len(t, debug, 2)
	require.Equal(t, report_resty_request, debug[0].Id)
	require.Equal(t, report_resty_response, debug[1].Id)
	require.Empty(t, tel.Reports("broken"))
}

func TestReadPerfStats(t *testing.T) {
	stats := readPerfStats()
	require.Greater(t, stats.Goroutines, int64(0))
	require.GreaterOrEqual(t, stats.AllocatedMb, int64(0))
	require.Greater(t, stats.LiveObjects, int64(0))
}
