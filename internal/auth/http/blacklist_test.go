package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/pkg/blacklist"
)

func checkJTI(t *testing.T, h *BlacklistHandler, jti string) (int, blacklistCheckResponse) {
	t.Helper()

	r := httptest.NewRequest(http.MethodGet, "/v1/blacklist/"+jti, nil)
	r.SetPathValue("jti", jti)
	rec := httptest.NewRecorder()
	h.HandleCheck(rec, r)

	var body blacklistCheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestBlacklistCheckMissAnswersInBody(t *testing.T) {
	t.Parallel()

	h := &BlacklistHandler{Store: blacklist.NewMemory()}

	code, body := checkJTI(t, h, "unknown-jti")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, blacklistCheckResponse{JTI: "unknown-jti", Blacklisted: false}, body)
}

func TestBlacklistRevokeThenCheck(t *testing.T) {
	t.Parallel()

	h := &BlacklistHandler{Store: blacklist.NewMemory()}

	r := httptest.NewRequest(http.MethodPost, "/v1/blacklist",
		strings.NewReader(`{"jti":"revoked-jti","ttl_seconds":3600}`))
	rec := httptest.NewRecorder()
	h.HandleRevoke(rec, r)
	require.Equal(t, http.StatusNoContent, rec.Code)

	code, body := checkJTI(t, h, "revoked-jti")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, blacklistCheckResponse{JTI: "revoked-jti", Blacklisted: true}, body)
}

// The wire shape must line up with what the consumer-side client sends
// and expects.
func TestBlacklistEndpointsRoundTripThroughClient(t *testing.T) {
	t.Parallel()

	h := &BlacklistHandler{Store: blacklist.NewMemory()}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/blacklist/{jti}", h.HandleCheck)
	mux.HandleFunc("POST /v1/blacklist", h.HandleRevoke)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := blacklist.NewClient(srv.URL, srv.Client())
	ctx := t.Context()

	revoked, err := client.IsBlacklisted(ctx, "fresh-jti")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, client.Blacklist(ctx, "fresh-jti", time.Hour))

	revoked, err = client.IsBlacklisted(ctx, "fresh-jti")
	require.NoError(t, err)
	require.True(t, revoked)
}
