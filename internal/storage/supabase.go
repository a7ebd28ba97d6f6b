package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go-catalog-admin/config"

	"github.com/valyala/fasthttp"
)

// Client is the object storage the catalog keeps product images in.
type Client interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error
	PublicURL(bucket, key string) (string, error)
	Remove(ctx context.Context, bucket string, keys []string) error
}

// Error is a non-2xx answer from the storage API.
type Error struct {
	Op     string
	Status int
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: status %d: %s", e.Op, e.Status, e.Body)
}

var ErrEmptyKey = errors.New("storage: empty object key")

type supabaseStorage struct {
	baseURL    string
	serviceKey string
	timeout    time.Duration
	client     *fasthttp.Client
}

// NewSupabaseStorage talks to the Supabase storage REST API. A nil client
// gets a default fasthttp client.
func NewSupabaseStorage(cfg *config.StorageConfig, client *fasthttp.Client) Client {
	if client == nil {
		client = &fasthttp.Client{
			Name:                "go-catalog-admin",
			MaxConnsPerHost:     64,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: time.Minute,
		}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &supabaseStorage{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		serviceKey: cfg.ServiceKey,
		timeout:    timeout,
		client:     client,
	}
}

func (s *supabaseStorage) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if key == "" {
		return ErrEmptyKey
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.objectURL(bucket, key))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(contentType)
	req.Header.Set("x-upsert", "false")
	s.authorize(req)
	req.SetBodyRaw(data)

	return s.do(ctx, "upload", req, resp)
}

func (s *supabaseStorage) PublicURL(bucket, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, url.PathEscape(bucket), url.PathEscape(key)), nil
}

func (s *supabaseStorage) Remove(ctx context.Context, bucket string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	body, err := json.Marshal(map[string][]string{"prefixes": keys})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fmt.Sprintf("%s/storage/v1/object/%s", s.baseURL, url.PathEscape(bucket)))
	req.Header.SetMethod(fasthttp.MethodDelete)
	req.Header.SetContentType("application/json")
	s.authorize(req)
	req.SetBodyRaw(body)

	return s.do(ctx, "remove", req, resp)
}

func (s *supabaseStorage) objectURL(bucket, key string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, url.PathEscape(bucket), url.PathEscape(key))
}

func (s *supabaseStorage) authorize(req *fasthttp.Request) {
	if s.serviceKey == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
}

// do runs the request within the context deadline, or the client timeout when
// the context has none.
func (s *supabaseStorage) do(ctx context.Context, op string, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(s.timeout)
	}
	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("storage %s: %w", op, err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return &Error{Op: op, Status: status, Body: string(resp.Body())}
	}
	return nil
}
