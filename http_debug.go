package pocketsync

import (
	"net/http"
	"net/http/httputil"
	"os"

	"github.com/rs/zerolog/log"
)

// debugTransport dumps each HTTP request and response to the log. It is
// installed by WithDebugLogging or when POCKETSYNC_DEBUG=true is set.
//
// Dumps include full bodies, headers, and bearer tokens; keep this out of
// production environments and secure the log output.
type debugTransport struct{ base http.RoundTripper }

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := dt.base
	if base == nil {
		base = http.DefaultTransport
	}

	if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", string(reqDump)).Msg("HTTP request")
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
	}
	return resp, nil
}

// debugLoggingRequested reports whether HTTP debug logging was requested
// through the environment: POCKETSYNC_DEBUG=true for targeted debugging,
// or DEBUG=true for broader application debugging.
func debugLoggingRequested() bool {
	return os.Getenv("POCKETSYNC_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}
