package transfer

import "time"

type WordpressMediaResponse struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
	Link      string `json:"link"`
}

type WordpressPostRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	FeaturedMedia int64  `json:"featured_media,omitempty"`
	DateGMT       string `json:"date_gmt,omitempty"`
}

type WordpressPostResponse struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

type WordpressUserResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type WordpressErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConnectionInfo is the result of probing a site with its credential.
type ConnectionInfo struct {
	Protocol string    `json:"protocol"`
	UserName string    `json:"user_name"`
	SiteURL  string    `json:"site_url"`
	Checked  time.Time `json:"checked_at"`
}

type PlatformRequest struct {
	Name     string `json:"name"`
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	Protocol string `json:"protocol"`
}
