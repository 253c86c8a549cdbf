package pipeline

import (
	"net/http"

	"github.com/jrsteele09/go-auth-client/credential"
)

// Credentials attaches the session credential to API requests and records any
// credential the API sets in its response.
func Credentials(carrier credential.Carrier) Stage {
	return func(req *http.Request, next Next) (*http.Response, error) {
		if !carrier.Applicable(req) {
			return next(req)
		}
		out := carrier.Attach(req)
		resp, err := next(out)
		if resp != nil {
			if resp.Request == nil {
				resp.Request = out
			}
			carrier.Capture(resp)
		}
		return resp, err
	}
}
