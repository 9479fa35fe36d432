package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// UnexpectedContentTypeError reports a response whose Content-Type does
// not match the requested parse mode.
type UnexpectedContentTypeError struct {
	Want string // expected content type family, e.g. "application/json"
	Got  string
}

func (e *UnexpectedContentTypeError) Error() string {
	return fmt.Sprintf("unexpected content type %q, want %s", e.Got, e.Want)
}

// ParseJSON decodes a JSON response body into a generic map, closing the
// body. The response must declare a JSON content type. An empty body
// decodes to an empty map, not an error.
func ParseJSON(resp *http.Response) (map[string]any, error) {
	data, err := readJSONBody(resp)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode JSON response: %w", err)
	}
	return out, nil
}

// DecodeJSON decodes a JSON response body into v, closing the body. The
// response must declare a JSON content type. An empty body leaves v
// untouched.
func DecodeJSON(resp *http.Response, v any) error {
	data, err := readJSONBody(resp)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode JSON response: %w", err)
	}
	return nil
}

// ParseText returns the response body as a string with surrounding
// whitespace trimmed, closing the body. The response must declare a
// text-family content type.
func ParseText(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, "text/") {
		return "", &UnexpectedContentTypeError{Want: "text/*", Got: ct}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ParseBytes returns the raw payload with no content-type check, closing
// the body. Used for binary or opaque payloads such as XML feeds.
func ParseBytes(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return data, nil
}

// Discard drains and closes the response body, returning nothing. Used
// for fire-and-forget calls.
func Discard(resp *http.Response) error {
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain response body: %w", err)
	}
	return nil
}

func readJSONBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, "application/json") {
		return nil, &UnexpectedContentTypeError{Want: "application/json", Got: ct}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return []byte(strings.TrimSpace(string(data))), nil
}
