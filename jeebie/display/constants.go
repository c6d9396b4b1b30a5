// Package display holds the pixel format shared by the frame buffer consumers.
package display

// RGBA pixel format constants. Frame buffer pixels are 0xRRGGBBAA.
const (
	// RGBABytesPerPixel is the number of bytes per pixel in RGBA format
	RGBABytesPerPixel = 4
	// RGBARShift is the bit shift for the red component in RGBA format
	RGBARShift = 24
	// RGBAGShift is the bit shift for the green component in RGBA format
	RGBAGShift = 16
	// RGBABShift is the bit shift for the blue component in RGBA format
	RGBABShift = 8
	// RGBAColorMask is the mask for extracting color components
	RGBAColorMask = 0xFF
)

// Unpack splits a frame buffer pixel into its components.
func Unpack(pixel uint32) (r, g, b, a uint8) {
	return uint8(pixel >> RGBARShift & RGBAColorMask),
		uint8(pixel >> RGBAGShift & RGBAColorMask),
		uint8(pixel >> RGBABShift & RGBAColorMask),
		uint8(pixel & RGBAColorMask)
}

// Luma returns the perceived brightness of a pixel, 0-255.
func Luma(pixel uint32) uint8 {
	r, g, b, _ := Unpack(pixel)
	return uint8((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
}
