package storage

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"foodgram/internal/apperr"
	"foodgram/internal/metrics"
)

const RecipeFolder = "recipes"

var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is a decoded upload ready to be stored.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeDataURI parses "data:image/<type>;base64,<payload>". The declared
// type must agree with the sniffed content.
func DecodeDataURI(uri string, maxBytes int64) (*Image, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, apperr.Validation("invalid_image", "image must be a base64 data URI",
			apperr.Violation{Field: "image", Rule: "data_uri", Message: "expected data:image/<type>;base64,<payload>"})
	}
	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, imageTooLarge()
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, apperr.Validation("invalid_image", "image payload is not valid base64",
			apperr.Violation{Field: "image", Rule: "base64", Message: err.Error()})
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, imageTooLarge()
	}

	detected := mimetype.Detect(data).String()
	ext, allowed := allowedImageTypes[detected]
	declared := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	if !allowed || declared != detected {
		return nil, apperr.Validation("invalid_image", "unsupported image type",
			apperr.Violation{Field: "image", Rule: "image_type", Message: "allowed: png, jpeg, gif, webp"})
	}
	return &Image{Data: data, ContentType: detected, Ext: ext}, nil
}

func imageTooLarge() error {
	return apperr.Validation("image_too_large", "image exceeds the upload limit",
		apperr.Violation{Field: "image", Rule: "max_size", Message: "image is too large"})
}

// SaveRecipeImage decodes uri and stores it under a fresh name, returning
// the public URL.
func SaveRecipeImage(ctx context.Context, store Store, uri string, maxBytes int64) (string, error) {
	img, err := DecodeDataURI(uri, maxBytes)
	if err != nil {
		metrics.ImageUploadsTotal.WithLabelValues(store.Backend(), "rejected").Inc()
		return "", err
	}
	key, err := store.Save(ctx, RecipeFolder, uuid.NewString()+img.Ext, img.Data, img.ContentType)
	metrics.ImageUploadsTotal.WithLabelValues(store.Backend(), metrics.Outcome(err)).Inc()
	if err != nil {
		return "", err
	}
	return store.PublicURL(key), nil
}
