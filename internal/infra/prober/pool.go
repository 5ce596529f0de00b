package prober

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domain "domainintel/internal/domain/scans"
)

// Pool talks to the fixed pool of scanner workers over HTTP. Workers
// are addressed by slot through the base-URL template, e.g.
// "http://scanner-pool-%d:8080"; the slot comes from the shard router.
// A template without the %d verb addresses a single worker verbatim.
type Pool struct {
	baseURL string
	sharded bool
	client  *http.Client
}

func New(baseURLTemplate string, timeout time.Duration) *Pool {
	base := strings.TrimRight(baseURLTemplate, "/")
	return &Pool{
		baseURL: base,
		sharded: strings.Count(base, "%d") == 1,
		client:  &http.Client{Timeout: timeout},
	}
}

// Probe POSTs the target to the slot's /scan endpoint and returns the
// raw result body. A non-2xx reply becomes a WorkerError carrying the
// worker's error text; anything network-level becomes a TransportError.
func (p *Pool) Probe(ctx context.Context, target string, slot int) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"target": target})
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}

	url := p.baseURL + "/scan"
	if p.sharded {
		url = fmt.Sprintf(p.baseURL+"/scan", slot)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.WorkerError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}
