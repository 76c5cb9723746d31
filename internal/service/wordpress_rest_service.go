package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

type wordpressRESTPublisher struct {
	client *http.Client
	now    func() time.Time
}

func NewWordpressRESTPublisher(client *http.Client) Publisher {
	return &wordpressRESTPublisher{client: client, now: time.Now}
}

func (p *wordpressRESTPublisher) Protocol() models.Protocol {
	return models.ProtocolREST
}

func (p *wordpressRESTPublisher) CheckConnection(ctx context.Context, cred models.PlatformCredential) (*transfer.ConnectionInfo, error) {
	endpoint := restEndpoint(cred.BaseURL, "/users/me?context=edit")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, newError(KindInternal, "rest.check", "new request", err)
	}

	var user transfer.WordpressUserResponse
	if err := p.send(req, cred, "rest.check", &user); err != nil {
		return nil, err
	}

	return &transfer.ConnectionInfo{
		Protocol: string(models.ProtocolREST),
		UserName: user.Name,
		SiteURL:  NormalizeSiteURL(cred.BaseURL),
		Checked:  p.now(),
	}, nil
}

func (p *wordpressRESTPublisher) UploadMedia(ctx context.Context, cred models.PlatformCredential, media models.MediaSource) (*models.MediaRef, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, media.FileName))
	header.Set("Content-Type", media.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, newError(KindInternal, "rest.media", "create form part", err)
	}
	if _, err := part.Write(media.Data); err != nil {
		return nil, newError(KindInternal, "rest.media", "write form part", err)
	}
	if media.Title != "" {
		_ = writer.WriteField("title", media.Title)
	}
	if media.AltText != "" {
		_ = writer.WriteField("alt_text", media.AltText)
	}
	if err := writer.Close(); err != nil {
		return nil, newError(KindInternal, "rest.media", "close form", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, restEndpoint(cred.BaseURL, "/media"), body)
	if err != nil {
		return nil, newError(KindInternal, "rest.media", "new request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp transfer.WordpressMediaResponse
	if err := p.send(req, cred, "rest.media", &resp); err != nil {
		return nil, err
	}
	if resp.ID == 0 {
		return nil, newError(KindUpstreamUnavailable, "rest.media", "response carries no media id", nil)
	}

	return &models.MediaRef{ID: resp.ID, URL: resp.SourceURL}, nil
}

func (p *wordpressRESTPublisher) PublishPost(ctx context.Context, cred models.PlatformCredential, post models.PostPayload) (*models.PublishResult, error) {
	payload := transfer.WordpressPostRequest{
		Title:         post.Title,
		Content:       post.BodyHTML,
		Status:        "publish",
		FeaturedMedia: post.FeaturedMediaID,
	}
	if post.ScheduledAt != nil {
		payload.DateGMT = post.ScheduledAt.UTC().Format("2006-01-02T15:04:05")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, newError(KindInternal, "rest.post", "encode post", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, restEndpoint(cred.BaseURL, "/posts"), bytes.NewReader(data))
	if err != nil {
		return nil, newError(KindInternal, "rest.post", "new request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp transfer.WordpressPostResponse
	if err := p.send(req, cred, "rest.post", &resp); err != nil {
		return nil, err
	}
	if resp.ID == 0 {
		return nil, newError(KindUpstreamUnavailable, "rest.post", "response carries no post id", nil)
	}

	link := resp.Link
	if link == "" {
		link = fmt.Sprintf("%s/?p=%d", NormalizeSiteURL(cred.BaseURL), resp.ID)
	}
	return &models.PublishResult{PostID: resp.ID, PostURL: link, Protocol: models.ProtocolREST}, nil
}

func (p *wordpressRESTPublisher) send(req *http.Request, cred models.PlatformCredential, op string, out any) error {
	req.SetBasicAuth(cred.Username, cred.Secret)
	req.Header.Set("Accept", "application/json")

	resp, err := doCMSRequest(p.client, req, op)
	if err != nil {
		return err
	}
	if resp.htmlErrorPage() {
		return resp.misconfigured(op, req.URL.Path)
	}

	if resp.status < 200 || resp.status > 299 {
		var wpErr transfer.WordpressErrorResponse
		msg := truncate(string(resp.body), 200)
		if json.Unmarshal(resp.body, &wpErr) == nil && wpErr.Message != "" {
			msg = wpErr.Message
		}
		return statusError(op, resp.status, msg)
	}

	if err := json.Unmarshal(resp.body, out); err != nil {
		return newError(KindUpstreamUnavailable, op, "malformed JSON response", err)
	}
	return nil
}
