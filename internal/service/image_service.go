package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"path"
	"strings"

	"github.com/h2non/filetype"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/repository"
)

const (
	maxStockResults  = 3
	stockOrientation = "landscape"
)

type TierLimits struct {
	Base    int
	Premium int
}

var DefaultTierLimits = TierLimits{Base: 1, Premium: 5}

func (l TierLimits) Max(plan models.PlanTier) int {
	if plan == models.PlanTierPremium {
		return l.Premium
	}
	return l.Base
}

// MediaUploader stores one image at the target site.
type MediaUploader interface {
	UploadMedia(ctx context.Context, cred models.PlatformCredential, media models.MediaSource) (*models.MediaRef, error)
}

type ImageService interface {
	Assemble(ctx context.Context, job *models.PostJob, article *models.GeneratedArticle, uploader MediaUploader) *models.AssembledImages
	TierMax(plan models.PlanTier) int
}

type imageService struct {
	stock  StockPhotoService
	assets repository.AssetRepository
	rnd    *Random
	limits TierLimits
}

// NewImageService accepts nil stock and asset collaborators; the matching
// sources are then skipped.
func NewImageService(stock StockPhotoService, assets repository.AssetRepository, rnd *Random, limits TierLimits) ImageService {
	return &imageService{
		stock:  stock,
		assets: assets,
		rnd:    rnd,
		limits: limits,
	}
}

func (s *imageService) TierMax(plan models.PlanTier) int {
	return s.limits.Max(plan)
}

type imageCollector struct {
	job       *models.PostJob
	uploader  MediaUploader
	max       int
	fragments []models.ImageFragment
	featured  int64
}

func (c *imageCollector) remaining() int {
	return c.max - len(c.fragments)
}

// add uploads one image and records its fragment. Failures are logged and
// the image is dropped with a nil ref.
func (c *imageCollector) add(ctx context.Context, origin models.ImageOrigin, media models.MediaSource, captionHTML string) *models.MediaRef {
	if c.remaining() <= 0 {
		return nil
	}

	ref, err := c.uploader.UploadMedia(ctx, c.job.Credential, media)
	if err != nil {
		slog.Warn("image upload failed, skipping image",
			"origin", origin,
			"source", media.URL,
			"file", media.FileName,
			"error", err)
		return nil
	}

	src := ref.URL
	if src == "" {
		src = media.URL
	}
	if c.featured == 0 && ref.ID != 0 {
		c.featured = ref.ID
	}
	c.fragments = append(c.fragments, models.ImageFragment{
		SourceURL:       src,
		RenderedHTML:    RenderFragment(src, media.AltText, captionHTML),
		Origin:          origin,
		UploadedMediaID: ref.ID,
	})
	return &models.MediaRef{ID: ref.ID, URL: src}
}

func (s *imageService) Assemble(ctx context.Context, job *models.PostJob, article *models.GeneratedArticle, uploader MediaUploader) *models.AssembledImages {
	c := &imageCollector{
		job:      job,
		uploader: uploader,
		max:      s.limits.Max(job.Plan),
	}
	keyword := article.TransformedKeyword
	if keyword == "" {
		keyword = job.Keyword
	}

	s.collectUploads(ctx, c, keyword)
	if job.ImageStrategy.AllowsStock() {
		s.collectStock(ctx, c, keyword)
	}
	if job.ImageStrategy.AllowsLibrary() {
		s.collectLibrary(ctx, c, job, keyword)
	}

	s.rnd.Shuffle(len(c.fragments), func(i, j int) {
		c.fragments[i], c.fragments[j] = c.fragments[j], c.fragments[i]
	})

	return &models.AssembledImages{
		Fragments:       c.fragments,
		FeaturedMediaID: c.featured,
	}
}

func (s *imageService) collectUploads(ctx context.Context, c *imageCollector, keyword string) {
	for i, f := range c.job.Uploads {
		if c.remaining() <= 0 {
			return
		}
		contentType, ok := DetectImageType(f.Data)
		if !ok {
			slog.Warn("uploaded file is not an image, skipping", "file", f.FileName, "declared_type", f.ContentType)
			continue
		}

		name := f.FileName
		if name == "" {
			name = fmt.Sprintf("upload-%d", i+1)
		}
		ref := c.add(ctx, models.OriginUserUpload, models.MediaSource{
			Data:        f.Data,
			FileName:    name,
			ContentType: contentType,
			Title:       keyword,
			AltText:     keyword,
		}, html.EscapeString(keyword))
		if ref != nil && c.job.SaveToLibrary && !c.job.DryRun {
			s.saveToLibrary(ctx, c.job, name, contentType, ref.URL, keyword)
		}
	}
}

// saveToLibrary records an uploaded image so later posts on the same seed
// can reuse it from the site without a new upload.
func (s *imageService) saveToLibrary(ctx context.Context, job *models.PostJob, name, contentType, fileURL, keyword string) {
	if s.assets == nil || job.UserID == 0 || fileURL == "" {
		return
	}

	tags := []string{keyword}
	if job.Keyword != "" && job.Keyword != keyword {
		tags = []string{job.Keyword, keyword}
	}
	id, err := s.assets.Create(ctx, nil, &models.Asset{
		UserID:   job.UserID,
		FileName: name,
		FileType: contentType,
		FileURL:  fileURL,
		AltText:  keyword,
		Keywords: tags,
	})
	if err != nil {
		slog.Warn("upload not saved to library", "file", name, "error", err)
		return
	}
	slog.Info("upload saved to library", "asset_id", id, "user_id", job.UserID)
}

// collectStock treats a disabled provider and an empty result the same way.
func (s *imageService) collectStock(ctx context.Context, c *imageCollector, keyword string) {
	if s.stock == nil || c.remaining() <= 0 {
		return
	}

	photos, err := s.stock.Search(ctx, keyword, min(c.remaining(), maxStockResults), stockOrientation)
	if err != nil {
		slog.Warn("stock photo search failed", "keyword", keyword, "error", err)
		return
	}

	for _, p := range photos {
		alt := p.Description
		if alt == "" {
			alt = keyword
		}
		ref := c.add(ctx, models.OriginStockSearch, models.MediaSource{
			URL:     p.URL,
			Title:   keyword,
			AltText: alt,
		}, stockCaption(p))
		if ref != nil && !c.job.DryRun {
			if err := s.stock.TrackDownload(ctx, p); err != nil {
				slog.Warn("stock download tracking failed", "source", p.Source, "error", err)
			}
		}
	}
}

func (s *imageService) collectLibrary(ctx context.Context, c *imageCollector, job *models.PostJob, keyword string) {
	if s.assets == nil || c.remaining() <= 0 {
		return
	}

	// library assets are tagged with the seed the user chose, not the rewrite
	lookup := job.Keyword
	if lookup == "" {
		lookup = keyword
	}
	assets, err := s.assets.FindByKeyword(ctx, job.UserID, lookup, c.remaining())
	if err != nil {
		slog.Warn("asset library lookup failed", "user_id", job.UserID, "keyword", lookup, "error", err)
		return
	}

	for _, a := range assets {
		if err := s.assets.IncrementUsage(ctx, a.ID); err != nil {
			slog.Warn("asset usage update failed", "asset_id", a.ID, "error", err)
		}

		alt := a.AltText
		if alt == "" {
			alt = keyword
		}
		c.add(ctx, models.OriginUserLibrary, models.MediaSource{
			URL:         a.FileURL,
			FileName:    path.Base(a.FileName),
			ContentType: a.FileType,
			Title:       keyword,
			AltText:     alt,
		}, html.EscapeString(alt))
	}
}

// DetectImageType sniffs the MIME type and accepts image kinds only.
func DetectImageType(data []byte) (string, bool) {
	if !filetype.IsImage(data) {
		return "", false
	}
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown {
		return "", false
	}
	return kind.MIME.Value, true
}

func RenderFragment(src, alt, captionHTML string) string {
	var b strings.Builder
	b.WriteString(`<figure class="wp-block-image">`)
	fmt.Fprintf(&b, `<img src="%s" alt="%s"/>`, html.EscapeString(src), html.EscapeString(alt))
	if captionHTML != "" {
		fmt.Fprintf(&b, "<figcaption>%s</figcaption>", captionHTML)
	}
	b.WriteString("</figure>\n")
	return b.String()
}

func stockCaption(p models.StockPhoto) string {
	author := html.EscapeString(p.AuthorName)
	if author == "" {
		author = "unknown"
	}
	if p.AuthorURL != "" {
		author = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(p.AuthorURL), author)
	}
	site := html.EscapeString(p.Source)
	if p.SourceURL != "" {
		site = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(p.SourceURL), site)
	}
	return fmt.Sprintf("Photo by %s on %s", author, site)
}
