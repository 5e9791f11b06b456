package providers

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/tidwall/gjson"
)

// vendorClient is the outbound HTTP client every adapter shares. It handles
// JSON encoding, gzip/brotli response decompression, and uniform vendor error
// wrapping. No retries: chat failures surface to the caller as-is.
type vendorClient struct {
	client *http.Client
}

func newVendorClient() *vendorClient {
	return &vendorClient{
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// postJSON sends a JSON body and returns the decompressed response bytes.
// Non-2xx responses become a "<Vendor> API Error: <message>" error.
func (c *vendorClient) postJSON(ctx context.Context, vendor, url string, body any, headers map[string]string) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", vendor, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", vendor, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.do(req, vendor)
}

// getJSON issues a GET, used by the Assistants run-status polling loop.
func (c *vendorClient) getJSON(ctx context.Context, vendor, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", vendor, err)
	}

	req.Header.Set("Accept-Encoding", "gzip, br")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.do(req, vendor)
}

// postMultipart uploads a file plus form fields (audio transcription).
func (c *vendorClient) postMultipart(ctx context.Context, vendor, url string, fields map[string]string, fileField, filename string, data []byte, headers map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(fileField, filename)
	if err != nil {
		return nil, fmt.Errorf("create %s form file: %w", vendor, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write %s form file: %w", vendor, err)
	}

	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write %s form field: %w", vendor, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close %s form: %w", vendor, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", vendor, err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.do(req, vendor)
}

func (c *vendorClient) do(req *http.Request, vendor string) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s API Error: %w", vendor, err)
	}
	defer resp.Body.Close()

	reader, err := decompressReader(resp)
	if err != nil {
		return nil, fmt.Errorf("%s response decompression: %w", vendor, err)
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", vendor, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, vendorError(vendor, resp.StatusCode, body)
	}

	return body, nil
}

func decompressReader(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "gzip":
		return gzip.NewReader(resp.Body)
	default:
		return resp.Body, nil
	}
}

// vendorError extracts the vendor's error message from common body shapes.
func vendorError(vendor string, status int, body []byte) error {
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = gjson.GetBytes(body, "error").String()
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", status)
	}
	return fmt.Errorf("%s API Error: %s", vendor, msg)
}
