// Package fetch downloads the bulletin page and hands it over as
// normalized Unicode text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/fwdgo/fwd-nagaoka/internal/config"
)

// StatusError is a non-2xx response from the bulletin host.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d - status: %s", e.Code, e.Status)
}

type Fetcher struct {
	client   *http.Client
	url      string
	encoding string
}

func NewFetcher(cfg config.BulletinConfig) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		url:      cfg.URL,
		encoding: cfg.Encoding,
	}
}

// Fetch downloads the page, decodes it from the configured legacy encoding
// and applies NFKC normalization so full-width digits and latin characters
// match the parser's patterns.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var body io.Reader = resp.Body
	if enc := encodingFor(f.encoding); enc != nil {
		body = transform.NewReader(body, enc.NewDecoder())
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	return norm.NFKC.String(string(data)), nil
}

// encodingFor maps the configured encoding name to a character set.
// Unknown names fall through to UTF-8 passthrough.
func encodingFor(name string) encoding.Encoding {
	switch name {
	case "sjis", "shift_jis", "shift-jis":
		return japanese.ShiftJIS
	case "eucjp", "euc-jp":
		return japanese.EUCJP
	default:
		return nil
	}
}
