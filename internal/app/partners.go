package app

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Partners are the consumers allowed to query the planner. Each one presents
// a key from Config.ApiKeys, either as ?key= or in the X-API-Key header.

const partnerKeyHeader = "X-API-Key"

// PartnerKey returns the key a request presents, or "". The query parameter
// wins over the header.
func PartnerKey(r *http.Request) string {
	if key := strings.TrimSpace(r.URL.Query().Get("key")); key != "" {
		return key
	}
	return strings.TrimSpace(r.Header.Get(partnerKeyHeader))
}

// AuthorizePartner returns the configured key the request matches.
func (app *Application) AuthorizePartner(r *http.Request) (string, bool) {
	key := PartnerKey(r)
	if key == "" {
		return "", false
	}
	return app.matchPartnerKey(key)
}

// matchPartnerKey compares key against every configured key in constant time,
// without stopping at the first match.
func (app *Application) matchPartnerKey(key string) (string, bool) {
	matched := ""
	for _, known := range app.Config.ApiKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(known)) == 1 {
			matched = known
		}
	}
	return matched, matched != ""
}
