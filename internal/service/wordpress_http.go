package service

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxCMSResponseBytes = 8 << 20

// cmsResponse is a fully read reply from the target site.
type cmsResponse struct {
	status      int
	contentType string
	body        []byte
}

func doCMSRequest(client *http.Client, req *http.Request, op string) (*cmsResponse, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, newError(KindConnectivity, op, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCMSResponseBytes))
	if err != nil {
		return nil, newError(KindConnectivity, op, "read response", err)
	}

	return &cmsResponse{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
	}, nil
}

// htmlErrorPage reports whether a reply that should be JSON or XML is an HTML
// page, usually a theme 404 or a login wall at the wrong base URL.
func (r *cmsResponse) htmlErrorPage() bool {
	if r.status >= 500 {
		return false
	}
	if strings.Contains(strings.ToLower(r.contentType), "text/html") {
		return true
	}
	head := strings.ToLower(strings.TrimSpace(string(r.body[:min(len(r.body), 256)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

func (r *cmsResponse) misconfigured(op, endpoint string) error {
	title := "HTML page"
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.body)); err == nil {
		if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
			title = fmt.Sprintf("HTML page %q", t)
		}
	}
	return newError(KindMisconfigured, op,
		fmt.Sprintf("%s returned %s (status %d); check the site URL", endpoint, title, r.status), nil)
}

// statusError classifies a non-success status. Missing endpoints and server
// errors allow protocol fallback; other client errors are rejections.
func statusError(op string, status int, remoteMsg string) error {
	msg := fmt.Sprintf("status %d", status)
	if remoteMsg != "" {
		msg = fmt.Sprintf("status %d: %s", status, remoteMsg)
	}
	switch {
	case status >= 500, status == http.StatusNotFound, status == http.StatusMethodNotAllowed:
		return newError(KindUpstreamUnavailable, op, msg, nil)
	default:
		return newError(KindRemoteRejected, op, msg, nil)
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
