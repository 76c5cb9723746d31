package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/autopost-api/internal/models"
)

var methodNameRe = regexp.MustCompile(`<methodName>([^<]+)</methodName>`)

// fakeCMS serves the REST and XML-RPC endpoints of a site.
type fakeCMS struct {
	t          *testing.T
	mu         sync.Mutex
	restStatus int
	restHTML   bool
	rpcFault   bool
	restCalls  []string
	rpcCalls   []string
	postBody   map[string]any
	rpcPayload []string
}

func newFakeCMS(t *testing.T) (*fakeCMS, *httptest.Server) {
	cms := &fakeCMS{t: t}
	srv := httptest.NewServer(cms)
	t.Cleanup(srv.Close)
	return cms, srv
}

func xmlrpcReply(value string) string {
	return `<?xml version="1.0"?><methodResponse><params><param><value>` + value + `</value></param></params></methodResponse>`
}

func (c *fakeCMS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.URL.Path == "/xmlrpc.php" {
		body, _ := io.ReadAll(r.Body)
		m := methodNameRe.FindStringSubmatch(string(body))
		require.Len(c.t, m, 2)
		c.rpcCalls = append(c.rpcCalls, m[1])
		c.rpcPayload = append(c.rpcPayload, string(body))

		w.Header().Set("Content-Type", "text/xml")
		if c.rpcFault {
			fmt.Fprint(w, `<?xml version="1.0"?><methodResponse><fault><value><struct>
<member><name>faultCode</name><value><int>403</int></value></member>
<member><name>faultString</name><value><string>Incorrect username or password.</string></value></member>
</struct></value></fault></methodResponse>`)
			return
		}
		switch m[1] {
		case "wp.getUsersBlogs":
			fmt.Fprint(w, xmlrpcReply(`<array><data><value><struct><member><name>url</name><value><string>https://blog.test/</string></value></member></struct></value></data></array>`))
		case "wp.uploadFile":
			fmt.Fprint(w, xmlrpcReply(`<struct><member><name>attachment_id</name><value><string>55</string></value></member><member><name>url</name><value><string>https://blog.test/img.png</string></value></member></struct>`))
		case "wp.newPost":
			fmt.Fprint(w, xmlrpcReply(`<string>77</string>`))
		case "wp.getPost":
			fmt.Fprint(w, xmlrpcReply(`<struct><member><name>link</name><value><string>https://blog.test/tea-guide/</string></value></member></struct>`))
		default:
			http.Error(w, "unknown method", http.StatusBadRequest)
		}
		return
	}

	c.restCalls = append(c.restCalls, r.Method+" "+r.URL.Path)
	if c.restHTML {
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")
		fmt.Fprint(w, "<!DOCTYPE html><html><head><title>Page not found</title></head><body></body></html>")
		return
	}
	if c.restStatus != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(c.restStatus)
		fmt.Fprint(w, `{"code":"rest_error","message":"nope"}`)
		return
	}

	user, pass, ok := r.BasicAuth()
	assert.True(c.t, ok)
	assert.Equal(c.t, "editor", user)
	assert.Equal(c.t, "app pass", pass)

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/wp-json/wp/v2/users/me":
		fmt.Fprint(w, `{"id":1,"name":"Editor"}`)
	case "/wp-json/wp/v2/media":
		file, header, err := r.FormFile("file")
		require.NoError(c.t, err)
		file.Close()
		assert.Equal(c.t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(c.t, "tea", r.FormValue("alt_text"))
		fmt.Fprint(w, `{"id":12,"source_url":"https://blog.test/wp-content/uploads/a.png"}`)
	case "/wp-json/wp/v2/posts":
		c.postBody = map[string]any{}
		require.NoError(c.t, json.NewDecoder(r.Body).Decode(&c.postBody))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":34,"link":"https://blog.test/tea/"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func testCredential(base string, proto models.Protocol) models.PlatformCredential {
	return models.PlatformCredential{BaseURL: base, Username: "editor", Secret: "app pass", Protocol: proto}
}

func TestRESTPublishFlow(t *testing.T) {
	cms, srv := newFakeCMS(t)
	ps := NewPublishService(srv.Client())
	cred := testCredential(srv.URL+"/wp-json/", models.ProtocolREST)
	ctx := context.Background()

	info, err := ps.CheckConnection(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, "Editor", info.UserName)
	assert.Equal(t, "rest", info.Protocol)

	ref, err := ps.UploadMedia(ctx, cred, models.MediaSource{Data: pngHeader, AltText: "tea"})
	require.NoError(t, err)
	assert.Equal(t, int64(12), ref.ID)

	when := time.Date(2024, 6, 1, 18, 0, 0, 0, time.FixedZone("KST", 9*3600))
	result, err := ps.PublishPost(ctx, cred, models.PostPayload{
		Title:           "Tea",
		BodyHTML:        "<p>hi</p>",
		FeaturedMediaID: ref.ID,
		ScheduledAt:     &when,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(34), result.PostID)
	assert.Equal(t, "https://blog.test/tea/", result.PostURL)
	assert.Equal(t, models.ProtocolREST, result.Protocol)

	assert.Equal(t, "publish", cms.postBody["status"])
	assert.Equal(t, float64(12), cms.postBody["featured_media"])
	assert.Equal(t, "2024-06-01T09:00:00", cms.postBody["date_gmt"])
	assert.NotContains(t, cms.postBody, "date")
	assert.Empty(t, cms.rpcCalls)
}

func TestXMLRPCPublishFlow(t *testing.T) {
	cms, srv := newFakeCMS(t)
	ps := NewPublishService(srv.Client())
	cred := testCredential(srv.URL, models.ProtocolXMLRPC)
	ctx := context.Background()

	info, err := ps.CheckConnection(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, "https://blog.test", info.SiteURL)

	ref, err := ps.UploadMedia(ctx, cred, models.MediaSource{Data: pngHeader, FileName: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, int64(55), ref.ID)

	result, err := ps.PublishPost(ctx, cred, models.PostPayload{Title: "Tea", BodyHTML: "<p>hi</p>", FeaturedMediaID: 55})
	require.NoError(t, err)
	assert.Equal(t, int64(77), result.PostID)
	assert.Equal(t, "https://blog.test/tea-guide/", result.PostURL)

	assert.Equal(t, []string{"wp.getUsersBlogs", "wp.uploadFile", "wp.newPost", "wp.getPost"}, cms.rpcCalls)
	assert.Contains(t, cms.rpcPayload[2], "<name>post_thumbnail</name><value><int>55</int></value>")
	assert.Empty(t, cms.restCalls)
}

func TestAutoProtocolFallsBackOnMissingREST(t *testing.T) {
	cms, srv := newFakeCMS(t)
	cms.restStatus = http.StatusNotFound
	ps := NewPublishService(srv.Client())

	result, err := ps.PublishPost(context.Background(), testCredential(srv.URL, models.ProtocolAuto), models.PostPayload{Title: "Tea"})
	require.NoError(t, err)
	assert.Equal(t, models.ProtocolXMLRPC, result.Protocol)
	assert.Len(t, cms.restCalls, 1)
	assert.Equal(t, []string{"wp.newPost", "wp.getPost"}, cms.rpcCalls)
}

func TestRESTRejectionDoesNotFallBack(t *testing.T) {
	cms, srv := newFakeCMS(t)
	cms.restStatus = http.StatusUnauthorized
	ps := NewPublishService(srv.Client())

	_, err := ps.PublishPost(context.Background(), testCredential(srv.URL, models.ProtocolAuto), models.PostPayload{Title: "Tea"})
	assert.Equal(t, KindRemoteRejected, KindOf(err))
	assert.Contains(t, err.Error(), "nope")
	assert.Empty(t, cms.rpcCalls)
}

func TestHTMLPageIsMisconfigured(t *testing.T) {
	cms, srv := newFakeCMS(t)
	cms.restHTML = true
	ps := NewPublishService(srv.Client())

	_, err := ps.CheckConnection(context.Background(), testCredential(srv.URL, models.ProtocolAuto))
	assert.Equal(t, KindMisconfigured, KindOf(err))
	assert.Contains(t, err.Error(), "Page not found")
	assert.Empty(t, cms.rpcCalls)
}

func TestXMLRPCFaultIsRejected(t *testing.T) {
	cms, srv := newFakeCMS(t)
	cms.rpcFault = true
	ps := NewPublishService(srv.Client())

	_, err := ps.CheckConnection(context.Background(), testCredential(srv.URL, models.ProtocolXMLRPC))
	assert.Equal(t, KindRemoteRejected, KindOf(err))
	assert.Contains(t, err.Error(), "Incorrect username")
}

func TestXMLRPCLinkFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "wp.getPost<") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, xmlrpcReply(`<int>9</int>`))
	}))
	defer srv.Close()

	p := NewWordpressXMLRPCPublisher(srv.Client())
	result, err := p.PublishPost(context.Background(), testCredential(srv.URL, models.ProtocolXMLRPC), models.PostPayload{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/?p=9", result.PostURL)
}
