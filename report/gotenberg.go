package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/salesdash/salesdash/internal/shared"
)

// IndexFile is the entry document Gotenberg renders.
const IndexFile = "index.html"

// PageOptions describes the printed page. Lengths are millimetres.
type PageOptions struct {
	PaperWidth     float64
	PaperHeight    float64
	Landscape      bool
	MarginTop      float64
	MarginRight    float64
	MarginBottom   float64
	MarginLeft     float64
	WaitExpression string
}

// Client wraps interactions with the Gotenberg API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client. A zero timeout keeps the 30s default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ping checks if the remote Gotenberg service is available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrConversionUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: gotenberg returned status %d", shared.ErrConversionUnavailable, resp.StatusCode)
	}
	return nil
}

// Convert renders html, with assets reachable by their file names, into a PDF.
func (c *Client) Convert(ctx context.Context, html []byte, assets map[string][]byte, opts PageOptions) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writeFile(writer, IndexFile, html); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeFile(writer, name, assets[name]); err != nil {
			return nil, err
		}
	}
	for key, value := range opts.formFields() {
		if err := writer.WriteField(key, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/forms/chromium/convert/html", c.baseURL), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", shared.ErrConversionFailure, err)
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrConversionUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: gotenberg returned status %d", shared.ErrConversionUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: render failed with status %d: %s", shared.ErrConversionFailure, resp.StatusCode, bytes.TrimSpace(detail))
	}
	return io.ReadAll(resp.Body)
}

func writeFile(w *multipart.Writer, name string, content []byte) error {
	part, err := w.CreateFormFile("files", name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, bytes.NewReader(content))
	return err
}

func (o PageOptions) formFields() map[string]string {
	fields := map[string]string{
		"paperWidth":      mm(o.PaperWidth),
		"paperHeight":     mm(o.PaperHeight),
		"marginTop":       mm(o.MarginTop),
		"marginRight":     mm(o.MarginRight),
		"marginBottom":    mm(o.MarginBottom),
		"marginLeft":      mm(o.MarginLeft),
		"landscape":       strconv.FormatBool(o.Landscape),
		"printBackground": "true",
	}
	if o.WaitExpression != "" {
		fields["waitForExpression"] = o.WaitExpression
	}
	return fields
}

func mm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "mm"
}
