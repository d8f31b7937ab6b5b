// Package raster implements the run-length encoded, bit-packed raster
// segment of a BSB/KAP chart.
//
// # Variable-Length Values
//
// Row numbers and runs are stored as base-128 values. Every byte carries 7
// bits of payload; the high bit marks that another byte follows. The first
// byte read is the most significant:
//
//	0x05           -> 5
//	0x81 0x00      -> 128
//	0x82 0x83 0x04 -> 2*128*128 + 3*128 + 4
//
// # Runs
//
// A run header is a variable-length value whose first byte is split by the
// chart's bit depth d (1-7). The top d bits of its 7-bit payload hold the
// palette index, the remaining 7-d bits are the most significant bits of the
// run length. Continuation bytes add 7 length bits each. The stored length is
// one less than the number of pixels:
//
//	d = 4, first byte 0x78 = 0 1111 000
//	                          | |    |
//	                          | |    +-- length bits: 0 -> 1 pixel
//	                          | +------- colour index 15
//	                          +--------- no continuation
//
// # Compositing
//
// WriteSegment paints decoded rows into a caller-supplied RGBA framebuffer
// using an external palette. Row numbers are 1-based.
package raster
