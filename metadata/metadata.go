// Package metadata extracts well-known chart properties from the tokenized
// header of a BSB/KAP chart.
//
// Extraction is lenient: an entry that does not have the expected shape is
// skipped, never reported as an error. A chart with a damaged palette line
// still renders with the colours that did parse.
package metadata

import (
	"cmp"
	"image/color"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/arloliu/bsbkap/raster"
	"github.com/arloliu/bsbkap/text"
)

// Entry types with a meaning to Parse.
const (
	ChartType   = "BSB"
	PaletteType = "RGB"
	BorderType  = "PLY"
)

// AltPaletteTypes are the entry types of the alternative palettes a chart
// may carry next to RGB. They share the RGB line layout.
var AltPaletteTypes = []string{"DAY", "DSK", "NGT", "NGR", "GRY", "PRC", "PRG"}

var (
	sizePattern    = regexp.MustCompile(`RA=(\d+),(\d+)`)
	palettePattern = regexp.MustCompile(`^(\d+),(\d+),(\d+),(\d+)$`)
	borderPattern  = regexp.MustCompile(`^(\d+),(-?[\d.]+),(-?[\d.]+)$`)
)

// Size is the raster size declared by the header.
type Size struct {
	Width  int
	Height int
}

// Point is one vertex of the chart border polygon.
type Point struct {
	Order int
	Lat   float64
	Lon   float64
}

// Metadata holds the properties found in a chart header.
type Metadata struct {
	// Name is the NA= field of the BSB entry, or "" when absent.
	Name string
	// Size is nil when no BSB entry declares RA=.
	Size *Size
	// Palette is the primary palette from the RGB entries. It is nil when
	// the header has no usable RGB entry.
	Palette raster.Palette
	// AltPalettes holds the palettes of the AltPaletteTypes entries, keyed
	// by entry type. Types without usable entries are absent.
	AltPalettes map[string]raster.Palette
	// Border is the PLY polygon sorted by vertex order.
	Border []Point
}

// Parse extracts metadata from header entries in stream order. A later
// entry overrides what an earlier one declared: the last RA= wins and a
// repeated palette index takes the later colour.
func Parse(entries []text.Entry) Metadata {
	var md Metadata

	for _, e := range entries {
		if len(e.Lines) == 0 {
			continue
		}

		switch e.Type {
		case ChartType:
			md.parseChart(e)
		case PaletteType:
			md.Palette = addColor(md.Palette, e.Lines[0])
		case BorderType:
			if p, ok := parsePoint(e.Lines[0]); ok {
				md.Border = append(md.Border, p)
			}
		default:
			if slices.Contains(AltPaletteTypes, e.Type) {
				md.addAltColor(e.Type, e.Lines[0])
			}
		}
	}

	slices.SortStableFunc(md.Border, func(a, b Point) int {
		return cmp.Compare(a.Order, b.Order)
	})

	return md
}

func (md *Metadata) parseChart(e text.Entry) {
	for _, line := range e.Lines {
		if m := sizePattern.FindStringSubmatch(line); m != nil {
			w, errW := strconv.Atoi(m[1])
			h, errH := strconv.Atoi(m[2])
			if errW == nil && errH == nil {
				md.Size = &Size{Width: w, Height: h}
			}

			break
		}
	}

	for _, line := range e.Lines {
		if name, ok := field(line, "NA="); ok {
			md.Name = name
			break
		}
	}
}

func (md *Metadata) addAltColor(entryType, line string) {
	p := addColor(nil, line)
	if p == nil {
		return
	}
	if md.AltPalettes == nil {
		md.AltPalettes = make(map[string]raster.Palette)
	}

	dst := md.AltPalettes[entryType]
	if dst == nil {
		dst = make(raster.Palette, 1)
		md.AltPalettes[entryType] = dst
	}
	for idx, c := range p {
		dst[idx] = c
	}
}

// addColor parses one palette line into p, allocating p on first use.
func addColor(p raster.Palette, line string) raster.Palette {
	m := palettePattern.FindStringSubmatch(line)
	if m == nil {
		return p
	}

	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return p
	}

	var rgb [3]uint8
	for i := range rgb {
		v, err := strconv.ParseUint(m[i+2], 10, 8)
		if err != nil {
			return p
		}
		rgb[i] = uint8(v)
	}

	if p == nil {
		p = make(raster.Palette)
	}
	p[idx] = raster.RGB(rgb[0], rgb[1], rgb[2])

	return p
}

func parsePoint(line string) (Point, bool) {
	m := borderPattern.FindStringSubmatch(line)
	if m == nil {
		return Point{}, false
	}

	order, err := strconv.Atoi(m[1])
	if err != nil {
		return Point{}, false
	}
	lat, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Point{}, false
	}
	lon, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return Point{}, false
	}

	return Point{Order: order, Lat: lat, Lon: lon}, true
}

// field returns the value of a KEY= field in a comma separated line.
func field(line, key string) (string, bool) {
	for _, part := range strings.Split(line, ",") {
		if v, ok := strings.CutPrefix(part, key); ok {
			return v, true
		}
	}

	return "", false
}

// Color returns the primary palette colour for idx and whether it is defined.
func (md Metadata) Color(idx int) (color.NRGBA, bool) {
	c, ok := md.Palette[idx]
	return c, ok
}
