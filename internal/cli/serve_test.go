package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoknoesis/rdf-canon/cache"
	"github.com/geoknoesis/rdf-canon/rdf"
)

func newTestServer(t *testing.T, opts ...rdf.CanonOption) *httptest.Server {
	t.Helper()
	return newLimitedTestServer(t, rdf.DefaultDecodeOptions(), opts...)
}

func newLimitedTestServer(t *testing.T, limits rdf.DecodeOptions, opts ...rdf.CanonOption) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	canon := cache.NewCanonicalizer(cache.NewMemoryCache(), time.Hour, logger)
	srv := httptest.NewServer(newRouter(canon, opts, limits, logger))
	t.Cleanup(func() {
		srv.Close()
		canon.Close()
	})
	return srv
}

func post(t *testing.T, srv *httptest.Server, query, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/canonicalize"+query, contentNQuads, strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestServeCanonicalize(t *testing.T) {
	srv := newTestServer(t)
	want := expected(t, cyclicInput)

	resp, body := post(t, srv, "", cyclicInput)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, want, body)
	assert.Equal(t, contentNQuads, resp.Header.Get("Content-Type"))
	assert.Equal(t, "MISS", resp.Header.Get(headerCache))
	assert.Equal(t, cache.Hash([]byte(want)), resp.Header.Get(headerHash))
	assert.NotEmpty(t, resp.Header.Get(headerRequestID))

	// same body again
	resp, body = post(t, srv, "", cyclicInput)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, want, body)
	assert.Equal(t, "HIT", resp.Header.Get(headerCache))
}

func TestServeAlgorithmParameter(t *testing.T) {
	srv := newTestServer(t)

	resp, body := post(t, srv, "?algorithm=URGNA2012", chainInput)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, expected(t, chainInput, rdf.OptAlgorithm(rdf.AlgorithmURGNA2012)), body)
	assert.Equal(t, "MISS", resp.Header.Get(headerCache))

	resp, _ = post(t, srv, "?algorithm=URDNA2015", chainInput)
	assert.Equal(t, "MISS", resp.Header.Get(headerCache), "algorithms must not share cache entries")
}

func TestServeAlgorithmParameterKeepsHashOverride(t *testing.T) {
	srv := newTestServer(t, rdf.OptHashAlgorithm(rdf.HashSHA384))

	resp, body := post(t, srv, "?algorithm=URGNA2012", cyclicInput)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	want := expected(t, cyclicInput, rdf.OptAlgorithm(rdf.AlgorithmURGNA2012), rdf.OptHashAlgorithm(rdf.HashSHA384))
	assert.Equal(t, want, body)
}

func TestRequestOptions(t *testing.T) {
	base := []rdf.CanonOption{rdf.OptHashAlgorithm(rdf.HashSHA384), rdf.OptMaxTotalSteps(42)}

	opts, err := requestOptions(base, "URGNA2012")
	require.NoError(t, err)
	resolved, err := rdf.ResolveCanonOptions(opts...)
	require.NoError(t, err)
	assert.Equal(t, rdf.AlgorithmURGNA2012, resolved.Algorithm)
	assert.Equal(t, rdf.HashSHA384, resolved.HashAlgorithm)
	assert.Equal(t, uint64(42), resolved.MaxTotalSteps)

	// without an override the digest follows the requested algorithm
	opts, err = requestOptions(nil, "URGNA2012")
	require.NoError(t, err)
	resolved, err = rdf.ResolveCanonOptions(opts...)
	require.NoError(t, err)
	assert.Equal(t, rdf.HashSHA1, resolved.HashAlgorithm)

	opts, err = requestOptions(base, "")
	require.NoError(t, err)
	assert.Len(t, opts, len(base))

	_, err = requestOptions(base, "urgna2012")
	assert.ErrorIs(t, err, rdf.ErrUnknownAlgorithm)
}

func TestServeKeepsCallerRequestID(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/canonicalize", strings.NewReader(chainInput))
	require.NoError(t, err)
	req.Header.Set(headerRequestID, "req-42")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get(headerRequestID))
}

func TestServeErrors(t *testing.T) {
	tests := []struct {
		name     string
		opts     []rdf.CanonOption
		query    string
		body     string
		status   int
		wantCode rdf.ErrorCode
	}{
		{"parse error", nil, "", "not n-quads\n", http.StatusBadRequest, rdf.ErrCodeParseError},
		{"unknown algorithm", nil, "?algorithm=urdna2015", chainInput, http.StatusBadRequest, rdf.ErrCodeUnknownAlgorithm},
		{"literal subject", nil, "", `"x" <urn:p> <urn:o> .`, http.StatusBadRequest, rdf.ErrCodeMalformedInput},
		{"budget", []rdf.CanonOption{rdf.OptMaxTotalSteps(3)}, "", sixCycle, http.StatusUnprocessableEntity, rdf.ErrCodeBudgetExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.opts...)
			resp, body := post(t, srv, tt.query, tt.body)
			require.Equal(t, tt.status, resp.StatusCode, body)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			var apiErr apiError
			require.NoError(t, json.Unmarshal([]byte(body), &apiErr))
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.NotEmpty(t, apiErr.Error)
		})
	}
}

func TestServeInputLimits(t *testing.T) {
	srv := newLimitedTestServer(t, rdf.DecodeOptions{MaxQuads: 2, MaxLineBytes: 64})

	resp, body := post(t, srv, "", cyclicInput)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode, body)
	assert.Contains(t, body, string(rdf.ErrCodeQuadLimitExceeded))

	long := "<urn:s> <urn:p> \"" + strings.Repeat("a", 100) + "\" .\n"
	resp, body = post(t, srv, "", long)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode, body)
	assert.Contains(t, body, string(rdf.ErrCodeLineTooLong))

	resp, _ = post(t, srv, "", chainInput)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServeMethodAndRoute(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/canonicalize")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v2/canonicalize")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{fmt.Errorf("read: %w", &http.MaxBytesError{Limit: 1}), http.StatusRequestEntityTooLarge},
		{rdf.ErrMalformedInput, http.StatusBadRequest},
		{rdf.ErrUnknownHashAlgorithm, http.StatusBadRequest},
		{rdf.ErrBudgetExceeded, http.StatusUnprocessableEntity},
		{rdf.ErrQuadLimitExceeded, http.StatusRequestEntityTooLarge},
		{&rdf.ParseError{Err: errors.New("bad")}, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestOpenCache(t *testing.T) {
	c, err := openCache("")
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryCache{}, c)
	c.Close()

	_, err = openCache("not-a-url")
	assert.ErrorContains(t, err, "connect cache")
}
