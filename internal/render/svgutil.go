package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

func sanitizeSVG(svg []byte) []byte {
	fixed := bytes.ReplaceAll(svg, []byte("fill:000000"), []byte("fill:#000000"))
	fixed = bytes.ReplaceAll(fixed, []byte("fill: 000000"), []byte("fill:#000000"))
	fixed = bytes.ReplaceAll(fixed, []byte("stroke: 000000"), []byte("stroke:#000000"))
	fixed = bytes.ReplaceAll(fixed, []byte("fill: #"), []byte("fill:#"))
	fixed = bytes.ReplaceAll(fixed, []byte("stroke: #"), []byte("stroke:#"))
	fixed = bytes.ReplaceAll(fixed, []byte("stop-color: #"), []byte("stop-color:#"))
	return fixed
}

type iconCacheKey struct {
	name string
	size int
}

var (
	iconCache   = map[iconCacheKey]image.Image{}
	iconCacheMu sync.RWMutex
)

// rasterizeIcon renders a named inline SVG asset at the given square size,
// cached per size.
func rasterizeIcon(name string, size int) (image.Image, error) {
	key := iconCacheKey{name: name, size: size}

	iconCacheMu.RLock()
	if img, ok := iconCache[key]; ok {
		iconCacheMu.RUnlock()
		return img, nil
	}
	iconCacheMu.RUnlock()

	data, ok := iconAssets[name]
	if !ok {
		return nil, fmt.Errorf("unknown icon asset: %s", name)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(sanitizeSVG([]byte(data))))
	if err != nil {
		return nil, fmt.Errorf("parse icon svg: %w", err)
	}

	w := int(icon.ViewBox.W)
	h := int(icon.ViewBox.H)
	if w <= 0 {
		w = size
		icon.ViewBox.W = float64(w)
	}
	if h <= 0 {
		h = size
		icon.ViewBox.H = float64(h)
	}

	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	iconCacheMu.Lock()
	iconCache[key] = img
	iconCacheMu.Unlock()

	return img, nil
}
