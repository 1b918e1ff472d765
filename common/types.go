// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "image"

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
// The overlay rasterizer fills one of these each time the panel image changes.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// StagingFromImage copies an image into tightly packed RGBA staging data.
// *image.RGBA sources with a matching stride are copied row by row without conversion.
//
// Parameters:
//   - img: the source image
//
// Returns:
//   - TextureStagingData: the packed pixel data
func StagingFromImage(img image.Image) TextureStagingData {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := TextureStagingData{
		Pixels: make([]byte, w*h*4),
		Width:  uint32(w),
		Height: uint32(h),
	}
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < h; y++ {
			src := rgba.Pix[(y+b.Min.Y-rgba.Rect.Min.Y)*rgba.Stride+(b.Min.X-rgba.Rect.Min.X)*4:]
			copy(out.Pixels[y*w*4:(y+1)*w*4], src[:w*4])
		}
		return out
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			i := (y*w + x) * 4
			out.Pixels[i] = uint8(r >> 8)
			out.Pixels[i+1] = uint8(g >> 8)
			out.Pixels[i+2] = uint8(bl >> 8)
			out.Pixels[i+3] = uint8(a >> 8)
		}
	}
	return out
}
