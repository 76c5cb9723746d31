package models

type GeneratedArticle struct {
	Title              string       `json:"title"`
	BodyHTML           string       `json:"body_html"`
	TransformedKeyword string       `json:"transformed_keyword"`
	Style              ContentStyle `json:"style"`
	Complexity         int          `json:"complexity"`
	Stub               bool         `json:"stub"`
}

type ImageOrigin string

const (
	OriginUserLibrary ImageOrigin = "user-library"
	OriginUserUpload  ImageOrigin = "user-upload"
	OriginStockSearch ImageOrigin = "stock-search"
)

type ImageFragment struct {
	SourceURL       string      `json:"source_url"`
	RenderedHTML    string      `json:"rendered_html"`
	Origin          ImageOrigin `json:"origin"`
	UploadedMediaID int64       `json:"uploaded_media_id"`
}

type AssembledImages struct {
	Fragments       []ImageFragment `json:"fragments"`
	FeaturedMediaID int64           `json:"featured_media_id"`
}

// StockPhoto is one result of an external image search.
type StockPhoto struct {
	URL string `json:"url"`
	// TrackURL is pinged once the photo is used, for providers that ask for it.
	TrackURL    string `json:"track_url,omitempty"`
	Description string `json:"description"`
	AuthorName  string `json:"author_name"`
	AuthorURL   string `json:"author_url"`
	Source      string `json:"source"`
	SourceURL   string `json:"source_url"`
}
