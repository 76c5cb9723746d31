package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/h2non/filetype"

	"github.com/maheshrc27/autopost-api/internal/models"
	"github.com/maheshrc27/autopost-api/internal/service"
	"github.com/maheshrc27/autopost-api/internal/transfer"
)

const maxUploadFiles = 10

var allowedImageTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "gif": {}, "webp": {},
}

func GetUserID(c *fiber.Ctx) int64 {
	raw, _ := c.Locals("user_id").(string)
	userID, _ := strconv.ParseInt(raw, 10, 64)
	return userID
}

// statusForKind maps pipeline error kinds to HTTP status codes.
func statusForKind(kind string) int {
	switch service.ErrorKind(kind) {
	case service.KindInvalidInput:
		return fiber.StatusBadRequest
	case service.KindRateLimited:
		return fiber.StatusTooManyRequests
	case service.KindCredentialMissing:
		return fiber.StatusUnprocessableEntity
	case service.KindMisconfigured:
		return fiber.StatusFailedDependency
	case service.KindConnectivity, service.KindRemoteRejected, service.KindUpstreamUnavailable:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func errorResponse(c *fiber.Ctx, err error) error {
	kind := service.KindOf(err)
	return c.Status(statusForKind(string(kind))).JSON(fiber.Map{
		"error":      err.Error(),
		"error_kind": kind,
	})
}

// parsePostingRequest reads the posting form, files included.
func parsePostingRequest(c *fiber.Ctx) (*transfer.PostingRequest, error) {
	req := &transfer.PostingRequest{
		Keyword:         c.FormValue("keyword"),
		Keywords:        c.FormValue("keywords"),
		Title:           c.FormValue("title"),
		Content:         c.FormValue("content"),
		Style:           c.FormValue("style"),
		ContentStrategy: c.FormValue("content_strategy"),
		ImageStrategy:   c.FormValue("image_strategy"),
		ScheduledAt:     c.FormValue("scheduled_at"),
	}

	var err error
	if v := c.FormValue("complexity"); v != "" {
		if req.Complexity, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("complexity must be a number")
		}
	}
	if v := c.FormValue("platform_id"); v != "" {
		if req.PlatformID, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("platform_id must be a number")
		}
	}
	if v := c.FormValue("dry_run"); v != "" {
		if req.DryRun, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("dry_run must be a boolean")
		}
	}
	if v := c.FormValue("save_to_library"); v != "" {
		if req.SaveToLibrary, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("save_to_library must be a boolean")
		}
	}

	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return nil, fmt.Errorf("unable to parse form")
		}
		req.Uploads, err = readUploads(form.File["files"])
		if err != nil {
			return nil, err
		}
	}
	return req, nil
}

func readUploads(files []*multipart.FileHeader) ([]models.UploadedFile, error) {
	if len(files) > maxUploadFiles {
		return nil, fmt.Errorf("at most %d files may be uploaded", maxUploadFiles)
	}

	uploads := make([]models.UploadedFile, 0, len(files))
	for _, file := range files {
		data, err := readFile(file)
		if err != nil {
			return nil, fmt.Errorf("error reading file %s: %w", file.Filename, err)
		}

		kind, err := filetype.Match(data)
		if err != nil || kind == filetype.Unknown {
			return nil, fmt.Errorf("unsupported file type: %s", file.Filename)
		}
		if _, ok := allowedImageTypes[kind.Extension]; !ok {
			return nil, fmt.Errorf("file type %s is not allowed", kind.Extension)
		}

		uploads = append(uploads, models.UploadedFile{
			FileName:    file.Filename,
			ContentType: kind.MIME.Value,
			Data:        data,
		})
	}
	return uploads, nil
}

func readFile(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
