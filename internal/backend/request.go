package backend

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

// errorBody covers both the handler-level {"error": ...} payloads and the
// framework-level {"detail": ...} payloads the backend emits.
type errorBody struct {
	Error  string `json:"error"`
	Detail any    `json:"detail"`
}

// doJSON sends body (if any) as JSON and decodes a 2xx response into target.
func (c *Client) doJSON(ctx context.Context, op, method, rawURL string, q url.Values, body, target any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Kind: KindValidation, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return &Error{Op: op, Kind: KindValidation, Err: err}
	}

	req = c.setHeaders(req)
	req.Header.Set("Accept", contentType)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	data, err := c.roundTrip(op, req)
	if err != nil {
		return err
	}

	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return &Error{Op: op, Kind: KindDecode, Err: err}
	}

	return nil
}

// postMultipart uploads a single file under the given form field.
func (c *Client) postMultipart(ctx context.Context, op, rawURL, field, filename string, content io.Reader, target any) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return &Error{Op: op, Kind: KindValidation, Err: err}
	}

	if _, err = io.Copy(part, content); err != nil {
		return &Error{Op: op, Kind: KindValidation, Err: err}
	}
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, &b)
	if err != nil {
		return &Error{Op: op, Kind: KindValidation, Err: err}
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", w.FormDataContentType())

	data, err := c.roundTrip(op, req)
	if err != nil {
		return err
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		return &Error{Op: op, Kind: KindDecode, Err: err}
	}

	return nil
}

// roundTrip executes req and returns the decompressed body of a 2xx response.
func (c *Client) roundTrip(op string, req *http.Request) ([]byte, error) {
	data, _, err := c.roundTripWithHeader(op, req, "")
	return data, err
}

// roundTripWithHeader is roundTrip that also returns one response header.
func (c *Client) roundTripWithHeader(op string, req *http.Request, header string) ([]byte, string, error) {
	resp, err := c.request(req)
	if err != nil {
		return nil, "", &Error{Op: op, Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return nil, "", &Error{Op: op, Kind: KindNetwork, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &Error{
			Op:      op,
			Kind:    KindStatus,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.Status, data),
		}
	}

	value := ""
	if header != "" {
		value = resp.Header.Get(header)
	}

	return data, value, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

// errorMessage prefers the backend's own explanation over the bare status line.
func errorMessage(status string, data []byte) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		if msg := strings.TrimSpace(body.Error); msg != "" {
			return msg
		}
		switch detail := body.Detail.(type) {
		case string:
			if strings.TrimSpace(detail) != "" {
				return detail
			}
		case nil:
		default:
			return fmt.Sprintf("%v", detail)
		}
	}

	return status
}
