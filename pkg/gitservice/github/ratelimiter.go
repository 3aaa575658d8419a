package github

import (
	"bytes"
	"io"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/google/go-github/v39/github"
	"github.com/rs/zerolog/log"
)

const writeDelay = 1 * time.Second

// rateLimitTransport follows GitHub's published guidance for staying under
// the rate limits: requests go out serially, write operations are spaced
// at least a second apart, and Retry-After is honored when the API pushes
// back.
type rateLimitTransport struct {
	transport        http.RoundTripper
	delayNextRequest bool

	m sync.Mutex
}

func newRateLimitTransport(rt http.RoundTripper) *rateLimitTransport {
	return &rateLimitTransport{transport: rt}
}

func (rlt *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rlt.m.Lock()

	if rlt.delayNextRequest {
		log.Debug().Msgf("sleeping %s between write operations", writeDelay)
		time.Sleep(writeDelay)
	}
	rlt.delayNextRequest = isWriteMethod(req.Method)

	resp, err := rlt.transport.RoundTrip(req)
	if err != nil {
		rlt.m.Unlock()
		return resp, err
	}

	// CheckResponse consumes the body, so hand it a copy
	// (see https://github.com/google/go-github/pull/986)
	r1, r2, err := drainBody(resp.Body)
	if err != nil {
		rlt.m.Unlock()
		return nil, err
	}
	resp.Body = r1
	ghErr := github.CheckResponse(resp)
	resp.Body = r2

	if arlErr, ok := ghErr.(*github.AbuseRateLimitError); ok {
		rlt.delayNextRequest = false
		log.Debug().Msg("abuse detection mechanism triggered")
		time.Sleep(arlErr.GetRetryAfter())
		rlt.m.Unlock()
		return rlt.RoundTrip(req)
	}

	if rlErr, ok := ghErr.(*github.RateLimitError); ok {
		rlt.delayNextRequest = false
		retryAfter := time.Until(rlErr.Rate.Reset.Time)
		log.Debug().Msgf("rate limit %d reached, sleeping for %s",
			rlErr.Rate.Limit, retryAfter)
		time.Sleep(retryAfter)
		rlt.m.Unlock()
		return rlt.RoundTrip(req)
	}

	rlt.m.Unlock()
	return resp, nil
}

// drainBody reads all of b to memory and then returns two equivalent
// ReadClosers yielding the same bytes.
func drainBody(b io.ReadCloser) (r1, r2 io.ReadCloser, err error) {
	if b == http.NoBody {
		return http.NoBody, http.NoBody, nil
	}
	var buf bytes.Buffer
	if _, err = buf.ReadFrom(b); err != nil {
		return nil, b, err
	}
	if err = b.Close(); err != nil {
		return nil, b, err
	}
	return ioutil.NopCloser(&buf),
		ioutil.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

func isWriteMethod(method string) bool {
	switch method {
	case "POST", "PATCH", "PUT", "DELETE":
		return true
	}
	return false
}
