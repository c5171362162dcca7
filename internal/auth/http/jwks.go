package http

import (
	"net/http"

	"github.com/wardenhq/warden/pkg/httpx"
	"github.com/wardenhq/warden/pkg/jwtx"
)

// JWKSHandler exposes the JSON Web Key Set for public key discovery.
// Relying services fetch and cache this to verify access tokens offline.
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.PublicJWKS())
	}
}
