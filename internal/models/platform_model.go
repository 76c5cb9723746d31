package models

import (
	"time"
)

type Protocol string

const (
	ProtocolAuto   Protocol = ""
	ProtocolREST   Protocol = "rest"
	ProtocolXMLRPC Protocol = "xmlrpc"
)

func ParseProtocol(s string) Protocol {
	switch s {
	case "rest", "REST", "json":
		return ProtocolREST
	case "xmlrpc", "XMLRPC", "rpc", "RPC", "xml-rpc":
		return ProtocolXMLRPC
	}
	return ProtocolAuto
}

// PlatformCredential identifies a target CMS site. Jobs only read it.
type PlatformCredential struct {
	BaseURL  string   `json:"base_url"`
	Username string   `json:"username"`
	Secret   string   `json:"-"`
	Protocol Protocol `json:"protocol"`
}

// Platform is the stored form of a credential, secret encrypted at rest.
type Platform struct {
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	Name            string    `db:"name" json:"name"`
	BaseURL         string    `db:"base_url" json:"base_url"`
	Username        string    `db:"username" json:"username"`
	EncryptedSecret string    `db:"encrypted_secret" json:"-"`
	Protocol        string    `db:"protocol" json:"protocol"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

type MediaSource struct {
	Data        []byte
	URL         string
	FileName    string
	ContentType string
	Title       string
	AltText     string
}

type MediaRef struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

type PostPayload struct {
	Title           string
	BodyHTML        string
	FeaturedMediaID int64
	ScheduledAt     *time.Time
}

type PublishResult struct {
	PostID   int64    `json:"post_id"`
	PostURL  string   `json:"post_url"`
	Protocol Protocol `json:"protocol"`
}
