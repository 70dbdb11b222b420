package sensepanel

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/corona10/goimagehash"
	"github.com/k1LoW/errors"
)

// similarityThreshold is the largest perceptual hash distance still treated as the same picture.
const similarityThreshold = 5

// Image is an encoded picture with lazily computed checksum and perceptual hash.
// It is used to compare rendered dashboards.
type Image struct {
	i        image.Image
	b        []byte
	checksum uint32
	pHash    *goimagehash.ImageHash
}

// NewImageFromFile reads an encoded image from path.
func NewImageFromFile(path string) (_ *Image, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
	}
	defer f.Close()
	return newImageFromBuffer(f)
}

// NewImageFromBytes wraps encoded image data.
func NewImageFromBytes(b []byte) (_ *Image, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	return newImageFromBuffer(bytes.NewReader(b))
}

func newImageFromBuffer(r io.Reader) (_ *Image, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return &Image{b: b}, nil
}

// Image returns the decoded picture.
func (i *Image) Image() (image.Image, error) {
	if i == nil {
		return nil, fmt.Errorf("image is nil")
	}
	if i.i == nil {
		img, _, err := image.Decode(bytes.NewReader(i.b))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
		i.i = img
	}
	return i.i, nil
}

func (i *Image) Checksum() uint32 {
	if i == nil {
		return 0
	}
	if i.checksum == 0 {
		i.checksum = crc32.ChecksumIEEE(i.b)
	}
	return i.checksum
}

func (i *Image) PHash() (_ *goimagehash.ImageHash, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	if i == nil {
		return nil, fmt.Errorf("image is nil")
	}
	img, err := i.Image()
	if err != nil {
		return nil, err
	}
	if i.pHash == nil {
		pHash, err := goimagehash.PerceptionHash(img)
		if err != nil {
			return nil, fmt.Errorf("failed to compute perceptual hash: %w", err)
		}
		i.pHash = pHash
	}
	return i.pHash, nil
}

// Identical reports whether both images have the same encoded bytes.
func (i *Image) Identical(ii *Image) bool {
	if i == nil || ii == nil {
		return false
	}
	return i.Checksum() == ii.Checksum() && bytes.Equal(i.b, ii.b)
}

// Distance returns the perceptual hash distance between the images.
func (i *Image) Distance(ii *Image) (_ int, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	aHash, err := i.PHash()
	if err != nil {
		return 0, err
	}
	bHash, err := ii.PHash()
	if err != nil {
		return 0, err
	}
	return aHash.Distance(bHash)
}

// Equivalent reports whether the images are identical or perceptually close.
func (i *Image) Equivalent(ii *Image) bool {
	if i == nil || ii == nil {
		return false
	}
	if i.Identical(ii) {
		return true
	}
	d, err := i.Distance(ii)
	if err != nil {
		return false
	}
	return d < similarityThreshold
}

func (i *Image) Bytes() []byte {
	if i == nil {
		return nil
	}
	return i.b
}
