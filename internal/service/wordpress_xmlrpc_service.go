package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kolo/xmlrpc"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

const xmlrpcBlogID = 1

type wordpressXMLRPCPublisher struct {
	client *http.Client
	now    func() time.Time
}

func NewWordpressXMLRPCPublisher(client *http.Client) Publisher {
	return &wordpressXMLRPCPublisher{client: client, now: time.Now}
}

func (p *wordpressXMLRPCPublisher) Protocol() models.Protocol {
	return models.ProtocolXMLRPC
}

func (p *wordpressXMLRPCPublisher) CheckConnection(ctx context.Context, cred models.PlatformCredential) (*transfer.ConnectionInfo, error) {
	v, err := p.call(ctx, cred, "xmlrpc.check", "wp.getUsersBlogs", cred.Username, cred.Secret)
	if err != nil {
		return nil, err
	}

	info := &transfer.ConnectionInfo{
		Protocol: string(models.ProtocolXMLRPC),
		UserName: cred.Username,
		SiteURL:  NormalizeSiteURL(cred.BaseURL),
		Checked:  p.now(),
	}
	if blogs, ok := v.([]any); ok && len(blogs) > 0 {
		if blog, ok := blogs[0].(map[string]any); ok {
			if u, _ := blog["url"].(string); u != "" {
				info.SiteURL = NormalizeSiteURL(u)
			}
		}
	}
	return info, nil
}

func (p *wordpressXMLRPCPublisher) UploadMedia(ctx context.Context, cred models.PlatformCredential, media models.MediaSource) (*models.MediaRef, error) {
	file := map[string]any{
		"name":      media.FileName,
		"type":      media.ContentType,
		"bits":      xmlrpcBits(media.Data),
		"overwrite": false,
	}

	v, err := p.call(ctx, cred, "xmlrpc.media", "wp.uploadFile", xmlrpcBlogID, cred.Username, cred.Secret, file)
	if err != nil {
		return nil, err
	}

	m, ok := v.(map[string]any)
	if !ok {
		return nil, newError(KindUpstreamUnavailable, "xmlrpc.media", fmt.Sprintf("unexpected response %T", v), nil)
	}
	id := xmlrpcInt(m["attachment_id"])
	if id == 0 {
		id = xmlrpcInt(m["id"])
	}
	url, _ := m["url"].(string)
	if id == 0 && url == "" {
		return nil, newError(KindUpstreamUnavailable, "xmlrpc.media", "response carries no media id", nil)
	}

	return &models.MediaRef{ID: id, URL: url}, nil
}

func (p *wordpressXMLRPCPublisher) PublishPost(ctx context.Context, cred models.PlatformCredential, post models.PostPayload) (*models.PublishResult, error) {
	content := map[string]any{
		"post_type":    "post",
		"post_status":  "publish",
		"post_title":   post.Title,
		"post_content": post.BodyHTML,
	}
	if post.FeaturedMediaID > 0 {
		content["post_thumbnail"] = post.FeaturedMediaID
	}
	if post.ScheduledAt != nil {
		content["post_date_gmt"] = post.ScheduledAt.UTC()
	}

	v, err := p.call(ctx, cred, "xmlrpc.post", "wp.newPost", xmlrpcBlogID, cred.Username, cred.Secret, content)
	if err != nil {
		return nil, err
	}
	postID := xmlrpcInt(v)
	if postID == 0 {
		return nil, newError(KindUpstreamUnavailable, "xmlrpc.post", fmt.Sprintf("unexpected post id %v", v), nil)
	}

	return &models.PublishResult{
		PostID:   postID,
		PostURL:  p.resolveLink(ctx, cred, postID),
		Protocol: models.ProtocolXMLRPC,
	}, nil
}

// resolveLink asks for the canonical permalink and falls back to the ?p= form.
func (p *wordpressXMLRPCPublisher) resolveLink(ctx context.Context, cred models.PlatformCredential, postID int64) string {
	fallback := fmt.Sprintf("%s/?p=%d", NormalizeSiteURL(cred.BaseURL), postID)

	v, err := p.call(ctx, cred, "xmlrpc.link", "wp.getPost", xmlrpcBlogID, cred.Username, cred.Secret,
		strconv.FormatInt(postID, 10), []string{"link"})
	if err != nil {
		slog.Warn("could not resolve post link", "post_id", postID, "error", err)
		return fallback
	}
	if m, ok := v.(map[string]any); ok {
		if link, _ := m["link"].(string); link != "" {
			return link
		}
	}
	return fallback
}

func (p *wordpressXMLRPCPublisher) call(ctx context.Context, cred models.PlatformCredential, op, method string, params ...any) (any, error) {
	payload, err := xmlrpc.EncodeMethodCall(method, params...)
	if err != nil {
		return nil, newError(KindInternal, op, "encode call", err)
	}

	endpoint := xmlrpcEndpoint(cred.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, newError(KindInternal, op, "new request", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")

	resp, err := doCMSRequest(p.client, req, op)
	if err != nil {
		return nil, err
	}
	if resp.htmlErrorPage() {
		return nil, resp.misconfigured(op, req.URL.Path)
	}
	if resp.status != http.StatusOK {
		return nil, statusError(op, resp.status, truncate(string(resp.body), 200))
	}

	v, err := decodeXMLRPCResponse(resp.body)
	if err != nil {
		var fault xmlrpc.FaultError
		if errors.As(err, &fault) {
			return nil, newError(KindRemoteRejected, op, fault.String, fault)
		}
		return nil, newError(KindUpstreamUnavailable, op, "malformed XML-RPC response", err)
	}
	return v, nil
}
