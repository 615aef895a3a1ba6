// Package content loads the editable homepage payload (banners, announcement,
// featured categories) from a JSON document, optionally gzip-compressed,
// stored on local disk or in S3.
package content

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"bulkmart/internal/model"
)

// Loader reads homepage content from a named document.
type Loader interface {
	Load(ctx context.Context, path string) (*model.HomeContent, error)
}

// decode parses a content document. Gzip input is detected by its magic
// bytes so callers need not care how the object was stored.
func decode(r io.Reader) (*model.HomeContent, error) {
	br := bufio.NewReader(r)

	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	var hc model.HomeContent
	if err := json.NewDecoder(src).Decode(&hc); err != nil {
		return nil, fmt.Errorf("failed to decode home content: %w", err)
	}

	if err := Validate(&hc); err != nil {
		return nil, err
	}
	return &hc, nil
}

// Validate checks that every banner can be rendered.
func Validate(hc *model.HomeContent) error {
	for i, b := range hc.Banners {
		if strings.TrimSpace(b.Image) == "" {
			return model.NewDomainError(model.ErrCodeMissingField, fmt.Sprintf("Banner %d has no image", i+1))
		}
		if strings.TrimSpace(b.Title) == "" {
			return model.NewDomainError(model.ErrCodeMissingField, fmt.Sprintf("Banner %d has no title", i+1))
		}
	}
	if hc.Banners == nil {
		hc.Banners = []model.Banner{}
	}
	return nil
}

// Default is served until content has been loaded successfully.
func Default() model.HomeContent {
	return model.HomeContent{
		Banners: []model.Banner{
			{
				Title:    "Wholesale prices on every order",
				Subtitle: "Buy in bulk and unlock tiered discounts",
				Image:    "/images/banners/wholesale.jpg",
				Link:     "/products",
			},
		},
	}
}
