package store

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notesh/internal/apperr"
)

// Limits enforced at the store boundary.
const (
	MaxTitleLength      = 200
	MaxTags             = 20
	MaxTagLength        = 40
	MaxFolderNameLength = 100
)

var errSlash = errors.New("must not contain '/'")

func sanitizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if err := validation.Validate(title,
		validation.Required.Error("is required"),
		validation.RuneLength(1, MaxTitleLength),
	); err != nil {
		return "", fmt.Errorf("%w: title %v", apperr.ErrInvalid, err)
	}
	return title, nil
}

// sanitizeTags trims, strips a leading '#', lowercases and de-duplicates tags,
// keeping first-seen order.
func sanitizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if err := validation.Validate(out,
		validation.Length(0, MaxTags),
		validation.Each(validation.RuneLength(1, MaxTagLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: tags %v", apperr.ErrInvalid, err)
	}
	return out, nil
}

func sanitizeFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := validation.Validate(name,
		validation.Required.Error("is required"),
		validation.RuneLength(1, MaxFolderNameLength),
		validation.By(func(v any) error {
			if strings.Contains(v.(string), "/") {
				return errSlash
			}
			return nil
		}),
	); err != nil {
		return "", fmt.Errorf("%w: folder name %v", apperr.ErrInvalid, err)
	}
	return name, nil
}
