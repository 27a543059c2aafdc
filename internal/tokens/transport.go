package tokens

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of a rejected token response is kept.
const maxErrorBody = 1 << 16

// statusError is a token endpoint response whose status was not 200.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d", e.status)
}

// okOnlyTransport fails every token endpoint response other than 200 OK, including the 2xx
// statuses [oauth2] would accept.
type okOnlyTransport struct {
	base http.RoundTripper
}

func (t *okOnlyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil || resp.StatusCode == http.StatusOK {
		return resp, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
}

// tokenClient returns a copy of client whose transport goes through [okOnlyTransport].
func tokenClient(client *http.Client) *http.Client {
	wrapped := *client
	wrapped.Transport = &okOnlyTransport{base: client.Transport}
	return &wrapped
}
