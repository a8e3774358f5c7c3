package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

// DefaultMaxBodyBytes bounds request bodies buffered for forwarding.
const DefaultMaxBodyBytes int64 = 10 << 20

var errBodyTooLarge = errors.New("request body too large")

func hasForwardedBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// prepareBody buffers the body of a POST/PUT/PATCH request so the upstream
// always receives a Content-Length equal to the bytes actually sent. JSON
// bodies are compacted; anything else is forwarded byte for byte.
func prepareBody(r *http.Request, limit int64) error {
	if !hasForwardedBody(r.Method) {
		return nil
	}

	var buf []byte
	if r.Body != nil && r.Body != http.NoBody {
		data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
		_ = r.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read request body: %w", err)
		}
		if int64(len(data)) > limit {
			return errBodyTooLarge
		}
		buf = data
	}

	if len(buf) > 0 && isJSON(r.Header.Get("Content-Type")) {
		var compact bytes.Buffer
		if err := json.Compact(&compact, buf); err == nil {
			buf = compact.Bytes()
		}
	}

	r.Body = io.NopCloser(bytes.NewReader(buf))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}
	r.ContentLength = int64(len(buf))
	r.Header.Set("Content-Length", strconv.Itoa(len(buf)))
	r.Header.Del("Transfer-Encoding")
	r.TransferEncoding = nil
	return nil
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
