// package testing contains shared testing utilities
package testing

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"
)

const (
	DefaultTokenBody   = `{"access_token":"A","token_type":"Bearer","expires_in":3600,"refresh_token":"R","scope":"user-read-playback-state"}`
	DefaultRefreshBody = `{"access_token":"A2","token_type":"Bearer","expires_in":3600}`
	DefaultDevicesBody = `{"devices":[` +
		`{"id":"dev-1","is_active":true,"is_private_session":false,"is_restricted":false,"name":"Kitchen Speaker","type":"Speaker","volume_percent":40,"supports_volume":true},` +
		`{"id":"dev-2","is_active":false,"is_private_session":false,"is_restricted":false,"name":"Kids Tablet","type":"Tablet","volume_percent":70,"supports_volume":true}]}`
)

// PlayRequest records one call to the fake play endpoint.
type PlayRequest struct {
	DeviceID      string
	Authorization string
	URIs          []string
}

type response struct {
	status int
	body   string
}

// FakeSpotify is an [httptest.Server] standing in for both the accounts service and the Web API.
//
// Token grants answer on /api/token, the Web API lives under /v1.
type FakeSpotify struct {
	Server *httptest.Server

	mu       sync.Mutex
	exchange response
	refresh  response
	devices  response
	play     response
	calls    map[string]int
	grants   []url.Values
	plays    []PlayRequest
	auth     []string
}

// NewFakeSpotify starts a fake that succeeds on every endpoint. It is closed when the test ends.
func NewFakeSpotify(t *testing.T) *FakeSpotify {
	t.Helper()

	f := &FakeSpotify{
		exchange: response{http.StatusOK, DefaultTokenBody},
		refresh:  response{http.StatusOK, DefaultRefreshBody},
		devices:  response{http.StatusOK, DefaultDevicesBody},
		play:     response{http.StatusNoContent, ""},
		calls:    map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", f.handleToken)
	mux.HandleFunc("GET /v1/me/player/devices", f.handleDevices)
	mux.HandleFunc("PUT /v1/me/player/play", f.handlePlay)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeSpotify) AuthURL() string  { return f.Server.URL + "/authorize" }
func (f *FakeSpotify) TokenURL() string { return f.Server.URL + "/api/token" }
func (f *FakeSpotify) APIURL() string   { return f.Server.URL + "/v1" }

// SetExchange sets the response to authorization_code grants.
func (f *FakeSpotify) SetExchange(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchange = response{status, body}
}

// SetRefresh sets the response to refresh_token grants.
func (f *FakeSpotify) SetRefresh(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh = response{status, body}
}

// SetDevices sets the response of the devices endpoint.
func (f *FakeSpotify) SetDevices(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices = response{status, body}
}

// SetPlay sets the response of the play endpoint.
func (f *FakeSpotify) SetPlay(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.play = response{status, body}
}

// Calls returns how many requests hit key, which is a grant type ("authorization_code",
// "refresh_token") or "devices" / "play".
func (f *FakeSpotify) Calls(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

// Grants returns the form bodies posted to the token endpoint, in order.
func (f *FakeSpotify) Grants() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.grants...)
}

// Plays returns the recorded play requests, in order.
func (f *FakeSpotify) Plays() []PlayRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]PlayRequest(nil), f.plays...)
}

// Authorizations returns the Authorization headers sent to the Web API, in order.
func (f *FakeSpotify) Authorizations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

func (f *FakeSpotify) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	grant := r.PostForm.Get("grant_type")

	f.mu.Lock()
	f.calls[grant]++
	f.grants = append(f.grants, r.PostForm)
	resp := f.exchange
	if grant == "refresh_token" {
		resp = f.refresh
	}
	f.mu.Unlock()

	write(w, resp)
}

func (f *FakeSpotify) handleDevices(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls["devices"]++
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	resp := f.devices
	f.mu.Unlock()

	write(w, resp)
}

func (f *FakeSpotify) handlePlay(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URIs []string `json:"uris"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls["play"]++
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.plays = append(f.plays, PlayRequest{
		DeviceID:      r.URL.Query().Get("device_id"),
		Authorization: r.Header.Get("Authorization"),
		URIs:          body.URIs,
	})
	resp := f.play
	f.mu.Unlock()

	write(w, resp)
}

func write(w http.ResponseWriter, resp response) {
	if resp.body != "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.status)
	io.WriteString(w, resp.body)
}

// MemoryStore is an in-memory token store that counts saves.
type MemoryStore struct {
	mu      sync.Mutex
	token   string
	saves   int
	LoadErr error
	SaveErr error
}

// NewMemoryStore creates a [MemoryStore] preloaded with token.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return "", m.LoadErr
	}
	return m.token, nil
}

func (m *MemoryStore) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.token = token
	m.saves++
	return nil
}

// Token returns the stored token.
func (m *MemoryStore) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Saves returns how many times Save succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
