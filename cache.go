package sensepanel

import (
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/k1LoW/errors"
)

var globalCache = &cache{}

type cache struct {
	m sync.Map
}

type cachedIcon struct {
	img     image.Image
	modTime time.Time
}

func loadIconCache(key string) (*cachedIcon, bool) {
	if v, ok := globalCache.m.Load(key); ok {
		if i, ok := v.(*cachedIcon); ok {
			return i, true
		}
	}
	return nil, false
}

func storeIconCache(key string, i *cachedIcon) {
	if i == nil {
		return
	}
	globalCache.m.Store(key, i)
}

// LoadIcon decodes the icon at path. Decoded icons are kept until the file's modification time changes.
func LoadIcon(path string) (_ image.Image, err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat icon file %s: %w", path, err)
	}
	if c, ok := loadIconCache(path); ok && c.modTime.Equal(fi.ModTime()) {
		return c.img, nil
	}
	i, err := NewImageFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load icon: %w", err)
	}
	img, err := i.Image()
	if err != nil {
		return nil, fmt.Errorf("failed to load icon: %w", err)
	}
	storeIconCache(path, &cachedIcon{img: img, modTime: fi.ModTime()})
	return img, nil
}
