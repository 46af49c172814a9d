package httpkit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClientSetsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c := NewClient()
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	DrainAndClose(resp.Body, 1024)

	if !strings.Contains(gotUA, "deskagent") {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestNewClientKeepsExplicitUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("User-Agent", "custom/1.0")
	resp, err := NewClient().Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	DrainAndClose(resp.Body, 1024)

	if gotUA != "custom/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestWithTransportOverridesDefault(t *testing.T) {
	custom := NewTransport()
	custom.ResponseHeaderTimeout = 0

	c := NewClient(WithTransport(custom), WithTimeout(time.Minute))
	uat, ok := c.Transport.(*userAgentTransport)
	if !ok {
		t.Fatalf("transport = %T, want *userAgentTransport", c.Transport)
	}
	if uat.base != custom {
		t.Error("custom transport not installed")
	}
	if c.Timeout != time.Minute {
		t.Errorf("timeout = %v", c.Timeout)
	}
}
