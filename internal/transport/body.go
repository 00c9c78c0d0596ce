package transport

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// UnsupportedEncodingError reports a Content-Encoding the decoder cannot undo.
type UnsupportedEncodingError struct {
	Encoding string
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("unsupported content encoding %q", e.Encoding)
}

// Normalize returns a stream of the decoded response body. Bodies without a
// Content-Encoding (or with identity) are returned as is; gzip bodies are
// wrapped in a decompressor. Any other encoding closes the body and fails.
// Closing the returned stream closes the response body.
func Normalize(resp *http.Response) (io.ReadCloser, error) {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "", "identity":
		return resp.Body, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// empty compressed body
				return resp.Body, nil
			}
			resp.Body.Close()
			return nil, fmt.Errorf("open gzip body: %w", err)
		}
		return &gzipBody{Reader: zr, body: resp.Body}, nil
	default:
		resp.Body.Close()
		return nil, &UnsupportedEncodingError{Encoding: encoding}
	}
}

// ReadBody normalizes and fully reads the response body, then closes it.
func ReadBody(resp *http.Response) ([]byte, error) {
	rc, err := Normalize(resp)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

type gzipBody struct {
	*gzip.Reader
	body io.ReadCloser
}

func (g *gzipBody) Close() error {
	zerr := g.Reader.Close()
	if err := g.body.Close(); err != nil {
		return err
	}
	return zerr
}
