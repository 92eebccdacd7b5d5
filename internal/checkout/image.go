package checkout

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

// MaxImageBytes bounds a single captured image.
const MaxImageBytes = 10 << 20

var acceptedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/heic", "image/heif"}

// Image is a captured photo: a transfer proof or the identity verification.
// ContentType is always the sniffed type, never the caller's claim.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewImage sniffs data and accepts only photo formats.
func NewImage(name string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, pkgerrors.New(pkgerrors.CodeValidation, "image is empty")
	}
	if len(data) > MaxImageBytes {
		return Image{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("image exceeds %d MB", MaxImageBytes>>20))
	}
	mt := mimetype.Detect(data)
	accepted := false
	for _, t := range acceptedImageTypes {
		if mt.Is(t) {
			accepted = true
			break
		}
	}
	if !accepted {
		return Image{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported image type %s", mt.String())).
			WithDetails(map[string]any{"content_type": mt.String(), "accepted": acceptedImageTypes})
	}
	return Image{
		Name:        name,
		ContentType: mt.String(),
		Data:        append([]byte(nil), data...),
	}, nil
}

func (i Image) empty() bool {
	return len(i.Data) == 0
}
