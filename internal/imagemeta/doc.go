// Package imagemeta extracts header-level metadata from an image payload.
//
// Only the image header is decoded (image.DecodeConfig), so extraction cost is
// independent of pixel count. Supported formats are PNG, JPEG and GIF from the
// standard library plus WebP, BMP and TIFF from golang.org/x/image.
//
// Color models are reported with the short mode identifiers used by common
// imaging tools:
//
//	L      8-bit grayscale
//	I;16   16-bit grayscale
//	P      paletted
//	RGB    opaque true color (including JPEG/WebP YCbCr)
//	RGBA   true color with alpha
//	CMYK   four-channel JPEG
//	A      alpha-only
package imagemeta
