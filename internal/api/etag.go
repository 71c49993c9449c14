package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
)

// etag returns a strong entity tag for a response body.
func etag(body []byte) string {
	h := sha256.Sum256(body)
	return `"` + hex.EncodeToString(h[:16]) + `"`
}

// notModified reports whether the request's If-None-Match already names tag.
func notModified(r *http.Request, tag string) bool {
	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		c := strings.TrimSpace(candidate)
		if c == tag || c == "*" {
			return true
		}
	}
	return false
}

// writeTagged writes body with an ETag, or 304 when the client has it.
func writeTagged(w http.ResponseWriter, r *http.Request, contentType string, body []byte) {
	tag := etag(body)
	w.Header().Set("ETag", tag)
	if notModified(r, tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// writeTaggedJSON encodes v and writes it through writeTagged.
func writeTaggedJSON(w http.ResponseWriter, r *http.Request, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		internalError(w, "json encode failed", err)
		return
	}
	writeTagged(w, r, "application/json; charset=utf-8", append(body, '\n'))
}
