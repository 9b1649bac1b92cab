package httpclient

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"DirectorySync/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_DecompressesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gzip", r.Header.Get("Accept-Encoding"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(`{"status":"OK"}`))
		_ = gz.Close()
	}))
	defer srv.Close()

	client := NewHTTPClient(&config.ProviderConfig{Timeout: 5}, logrus.New())
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, `{"status":"OK"}`, string(body))
	require.Empty(t, resp.Header.Get("Content-Encoding"))
}

func TestNewHTTPClient_BadProxyIgnored(t *testing.T) {
	client := NewHTTPClient(&config.ProviderConfig{Proxy: "://bad"}, logrus.New())
	require.NotNil(t, client)
	require.Greater(t, client.Timeout.Seconds(), 0.0)
}
