package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
)

const (
	maxImageBytes = 5 << 20
	maxFormBytes  = 15 << 20
)

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// sniffMIME reads the first 512 bytes and rewinds the file.
func sniffMIME(f multipart.File) (string, error) {
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// parseImageForm limits the request body and parses a multipart form.
func parseImageForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}

// uploadFormImage uploads the image in the given form field. ok is false
// when the field is absent.
func (app *application) uploadFormImage(ctx context.Context, r *http.Request, field, folder string) (imageURL string, ok bool, err error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &invalidImageError{fmt.Sprintf("read %s: %v", field, err)}
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		return "", false, &invalidImageError{fmt.Sprintf("%s exceeds %d MB", field, maxImageBytes>>20)}
	}

	mimeType, err := sniffMIME(file)
	if err != nil {
		return "", false, &invalidImageError{fmt.Sprintf("read %s: %v", field, err)}
	}
	if _, allowed := allowedImageTypes[mimeType]; !allowed {
		return "", false, &invalidImageError{fmt.Sprintf("%s must be a JPEG, PNG or WebP image", field)}
	}

	imageURL, err = app.images.Upload(ctx, file, folder, uuid.NewString())
	if err != nil {
		return "", false, err
	}
	return imageURL, true, nil
}

// deleteImageLater removes a hosted image after the response is sent.
func (app *application) deleteImageLater(imageURL string) {
	if imageURL == "" {
		return
	}
	app.background("delete image", func(ctx context.Context) error {
		err := app.images.Delete(ctx, imageURL)
		if errors.Is(err, errImagesDisabled) {
			return nil
		}
		return err
	})
}

type invalidImageError struct{ msg string }

func (e *invalidImageError) Error() string { return e.msg }

func (app *application) imageUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *invalidImageError
	switch {
	case errors.As(err, &invalid):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, errImagesDisabled):
		app.serviceUnavailableResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}
