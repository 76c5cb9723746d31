package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

const (
	unsplashSearchURL = "https://api.unsplash.com/search/photos"
	pexelsSearchURL   = "https://api.pexels.com/v1/search"
)

// StockPhotoService is the external image search collaborator.
type StockPhotoService interface {
	Search(ctx context.Context, query string, count int, orientation string) ([]models.StockPhoto, error)
	TrackDownload(ctx context.Context, photo models.StockPhoto) error
}

// NewStockPhotoService picks the provider by name. It returns nil when the
// provider has no key, which the image assembler treats as search disabled.
func NewStockPhotoService(provider, unsplashKey, pexelsKey string, client *http.Client) StockPhotoService {
	switch strings.ToLower(provider) {
	case "pexels":
		if pexelsKey == "" {
			return nil
		}
		return &pexelsService{endpoint: pexelsSearchURL, apiKey: pexelsKey, client: client}
	default:
		if unsplashKey == "" {
			return nil
		}
		return &unsplashService{endpoint: unsplashSearchURL, accessKey: unsplashKey, client: client}
	}
}

type unsplashService struct {
	endpoint  string
	accessKey string
	client    *http.Client
}

func (s *unsplashService) Search(ctx context.Context, query string, count int, orientation string) ([]models.StockPhoto, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(count))
	if orientation != "" {
		params.Set("orientation", orientation)
	}

	var resp transfer.UnsplashSearchResponse
	if err := getStockJSON(ctx, s.client, s.endpoint+"?"+params.Encode(), "Client-ID "+s.accessKey, &resp); err != nil {
		return nil, err
	}

	photos := make([]models.StockPhoto, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.URLs.Regular == "" {
			continue
		}
		desc := r.AltDescription
		if desc == "" {
			desc = r.Description
		}
		photos = append(photos, models.StockPhoto{
			URL:         r.URLs.Regular,
			TrackURL:    r.Links.DownloadLocation,
			Description: desc,
			AuthorName:  r.User.Name,
			AuthorURL:   r.User.Links.HTML,
			Source:      "Unsplash",
			SourceURL:   "https://unsplash.com",
		})
	}
	return limitPhotos(photos, count), nil
}

// TrackDownload reports a used photo to Unsplash, as its API guidelines require.
func (s *unsplashService) TrackDownload(ctx context.Context, photo models.StockPhoto) error {
	if photo.TrackURL == "" {
		return nil
	}
	var resp transfer.UnsplashDownloadResponse
	return getStockJSON(ctx, s.client, photo.TrackURL, "Client-ID "+s.accessKey, &resp)
}

type pexelsService struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func (s *pexelsService) Search(ctx context.Context, query string, count int, orientation string) ([]models.StockPhoto, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(count))
	if orientation != "" {
		params.Set("orientation", orientation)
	}

	var resp transfer.PexelsSearchResponse
	if err := getStockJSON(ctx, s.client, s.endpoint+"?"+params.Encode(), s.apiKey, &resp); err != nil {
		return nil, err
	}

	photos := make([]models.StockPhoto, 0, len(resp.Photos))
	for _, p := range resp.Photos {
		if p.Src.Large == "" {
			continue
		}
		photos = append(photos, models.StockPhoto{
			URL:         p.Src.Large,
			Description: p.Alt,
			AuthorName:  p.Photographer,
			AuthorURL:   p.PhotographerURL,
			Source:      "Pexels",
			SourceURL:   "https://www.pexels.com",
		})
	}
	return limitPhotos(photos, count), nil
}

// TrackDownload is a no-op; Pexels has no download tracking.
func (s *pexelsService) TrackDownload(context.Context, models.StockPhoto) error {
	return nil
}

func getStockJSON(ctx context.Context, client *http.Client, endpoint, auth string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return newError(KindInternal, "stock.search", "new request", err)
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return newError(KindUpstreamUnavailable, "stock.search", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return newError(KindUpstreamUnavailable, "stock.search", fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return newError(KindUpstreamUnavailable, "stock.search", "decode response", err)
	}
	return nil
}

func limitPhotos(photos []models.StockPhoto, n int) []models.StockPhoto {
	if n >= 0 && len(photos) > n {
		return photos[:n]
	}
	return photos
}
