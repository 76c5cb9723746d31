package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync/atomic"

	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

const maxMediaBytes = 20 << 20

// Publisher is one wire protocol to a target site.
type Publisher interface {
	Protocol() models.Protocol
	CheckConnection(ctx context.Context, cred models.PlatformCredential) (*transfer.ConnectionInfo, error)
	UploadMedia(ctx context.Context, cred models.PlatformCredential, media models.MediaSource) (*models.MediaRef, error)
	PublishPost(ctx context.Context, cred models.PlatformCredential, post models.PostPayload) (*models.PublishResult, error)
}

type PublishService interface {
	MediaUploader
	PublishPost(ctx context.Context, cred models.PlatformCredential, post models.PostPayload) (*models.PublishResult, error)
	CheckConnection(ctx context.Context, cred models.PlatformCredential) (*transfer.ConnectionInfo, error)
}

type publishService struct {
	client     *http.Client
	publishers map[models.Protocol]Publisher
}

func NewPublishService(client *http.Client) PublishService {
	return NewPublishServiceWith(client,
		NewWordpressRESTPublisher(client),
		NewWordpressXMLRPCPublisher(client),
	)
}

// NewPublishServiceWith registers publishers by their protocol.
func NewPublishServiceWith(client *http.Client, publishers ...Publisher) PublishService {
	s := &publishService{
		client:     client,
		publishers: make(map[models.Protocol]Publisher, len(publishers)),
	}
	for _, p := range publishers {
		s.publishers[p.Protocol()] = p
	}
	return s
}

// fallbackOrder lists the protocols to try. An explicit protocol is the only
// one tried; otherwise REST goes first and XML-RPC second.
func fallbackOrder(p models.Protocol) []models.Protocol {
	switch p {
	case models.ProtocolREST, models.ProtocolXMLRPC:
		return []models.Protocol{p}
	}
	return []models.Protocol{models.ProtocolREST, models.ProtocolXMLRPC}
}

func validateCredential(cred models.PlatformCredential) error {
	var missing []string
	if NormalizeSiteURL(cred.BaseURL) == "" {
		missing = append(missing, "base URL")
	}
	if strings.TrimSpace(cred.Username) == "" {
		missing = append(missing, "username")
	}
	if cred.Secret == "" {
		missing = append(missing, "secret")
	}
	if len(missing) > 0 {
		return newError(KindCredentialMissing, "publish", "missing "+strings.Join(missing, ", "), nil)
	}
	return nil
}

// withFallback runs fn over the protocol order, moving to the next protocol
// once at most and only for connectivity or availability failures.
func (s *publishService) withFallback(cred models.PlatformCredential, op string, fn func(Publisher) error) error {
	if err := validateCredential(cred); err != nil {
		return err
	}

	var prev error
	order := fallbackOrder(cred.Protocol)
	for i, proto := range order {
		p, ok := s.publishers[proto]
		if !ok {
			return newError(KindMisconfigured, op, fmt.Sprintf("no publisher for protocol %q", proto), nil)
		}

		err := fn(p)
		if err == nil {
			return nil
		}
		if prev != nil {
			return &Error{Kind: KindOf(err), Op: op, Msg: fmt.Sprintf("%s failed first: %v", order[i-1], prev), Err: err}
		}
		if i < len(order)-1 && IsFallbackable(err) {
			slog.Warn("publish protocol failed, falling back",
				"op", op,
				"protocol", proto,
				"next", order[i+1],
				"error", err)
			prev = err
			continue
		}
		return err
	}
	return prev
}

func (s *publishService) CheckConnection(ctx context.Context, cred models.PlatformCredential) (*transfer.ConnectionInfo, error) {
	var info *transfer.ConnectionInfo
	err := s.withFallback(cred, "check", func(p Publisher) error {
		var err error
		info, err = p.CheckConnection(ctx, cred)
		return err
	})
	return info, err
}

func (s *publishService) UploadMedia(ctx context.Context, cred models.PlatformCredential, media models.MediaSource) (*models.MediaRef, error) {
	if err := validateCredential(cred); err != nil {
		return nil, err
	}
	resolved, err := s.resolveMedia(ctx, media)
	if err != nil {
		return nil, err
	}

	var ref *models.MediaRef
	err = s.withFallback(cred, "media", func(p Publisher) error {
		var err error
		ref, err = p.UploadMedia(ctx, cred, resolved)
		return err
	})
	return ref, err
}

func (s *publishService) PublishPost(ctx context.Context, cred models.PlatformCredential, post models.PostPayload) (*models.PublishResult, error) {
	var result *models.PublishResult
	err := s.withFallback(cred, "post", func(p Publisher) error {
		var err error
		result, err = p.PublishPost(ctx, cred, post)
		return err
	})
	return result, err
}

// resolveMedia downloads URL sources once so both protocols send the same
// bytes, then fills in the content type and a file name.
func (s *publishService) resolveMedia(ctx context.Context, media models.MediaSource) (models.MediaSource, error) {
	if len(media.Data) == 0 {
		if media.URL == "" {
			return media, newError(KindInvalidInput, "media", "neither bytes nor URL given", nil)
		}
		data, err := fetchMedia(ctx, s.client, media.URL)
		if err != nil {
			return media, err
		}
		media.Data = data
	}

	kind, err := filetype.Match(media.Data)
	if err != nil || kind == filetype.Unknown || !filetype.IsImage(media.Data) {
		return media, newError(KindInvalidInput, "media", "source is not a supported image", err)
	}
	media.ContentType = kind.MIME.Value

	if media.FileName == "" || path.Ext(media.FileName) == "" {
		id, err := gonanoid.New()
		if err != nil {
			return media, newError(KindInternal, "media", "generate file name", err)
		}
		media.FileName = fmt.Sprintf("autopost-%s.%s", id, kind.Extension)
	}
	return media, nil
}

func fetchMedia(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, newError(KindInvalidInput, "media.fetch", "bad URL", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, newError(KindUpstreamUnavailable, "media.fetch", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newError(KindUpstreamUnavailable, "media.fetch", fmt.Sprintf("status %d for %s", resp.StatusCode, rawURL), nil)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, newError(KindUpstreamUnavailable, "media.fetch", "read body", err)
	}
	return data, nil
}

// dryRunUploader stands in for the site during dry runs and never leaves
// the process.
type dryRunUploader struct {
	next atomic.Int64
}

func (u *dryRunUploader) UploadMedia(_ context.Context, _ models.PlatformCredential, media models.MediaSource) (*models.MediaRef, error) {
	id := u.next.Add(1)
	src := media.URL
	if src == "" {
		src = fmt.Sprintf("https://example.com/test-media/%d", id)
	}
	return &models.MediaRef{ID: id, URL: src}, nil
}

func dryRunPostURL(keyword string) string {
	return "https://example.com/test-post/" + url.PathEscape(keyword)
}
