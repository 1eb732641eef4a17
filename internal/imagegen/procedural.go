package imagegen

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

type palette struct {
	top    color.RGBA
	bottom color.RGBA
}

// Keyword-matched backdrops keep the fallback cards loosely on-theme.
var palettes = []struct {
	keywords []string
	colors   palette
}{
	{[]string{"parliament", "sansad", "arena"}, palette{color.RGBA{40, 40, 70, 255}, color.RGBA{20, 20, 50, 255}}},
	{[]string{"petrol", "pump"}, palette{color.RGBA{255, 200, 150, 255}, color.RGBA{200, 120, 80, 255}}},
	{[]string{"school", "student", "degree"}, palette{color.RGBA{200, 230, 255, 255}, color.RGBA{150, 180, 220, 255}}},
	{[]string{"bulldozer", "law"}, palette{color.RGBA{255, 180, 100, 255}, color.RGBA{200, 130, 60, 255}}},
	{[]string{"reel", "social", "media"}, palette{color.RGBA{100, 50, 150, 255}, color.RGBA{60, 20, 100, 255}}},
	{[]string{"family", "tv", "common"}, palette{color.RGBA{180, 200, 180, 255}, color.RGBA{130, 150, 130, 255}}},
	{[]string{"vote", "remote", "public"}, palette{color.RGBA{200, 180, 50, 255}, color.RGBA{150, 130, 30, 255}}},
}

var defaultPalette = palette{color.RGBA{80, 100, 140, 255}, color.RGBA{40, 50, 80, 255}}

var characterColors = []color.RGBA{
	{255, 153, 51, 255},
	{65, 105, 225, 255},
	{50, 205, 50, 255},
	{220, 20, 60, 255},
}

var namePattern = regexp.MustCompile(`(?i)(Modi|Rahul|Kejriwal|Yogi|Shah|Common Man)`)

// RenderCard draws a procedural scene card: a themed vertical gradient, a
// floor band, and simple cartoon figures for any politician names found in
// the visual description. It is the last resort of the provider chain and
// must always succeed.
func RenderCard(visual string, width, height int, outputPath string) error {
	pal := pickPalette(visual)
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	floorY := height * 72 / 100
	floor := dimColor(pal.bottom, 30)
	for y := 0; y < height; y++ {
		var row color.RGBA
		if y >= floorY {
			row = floor
		} else {
			row = lerpColor(pal.top, pal.bottom, float64(y)/float64(height))
		}
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, row)
		}
	}

	names := matchNames(visual)
	for i := range names {
		cx := width * (i + 1) / (len(names) + 1)
		drawFigure(img, cx, floorY, height, characterColors[i%len(characterColors)])
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode card: %w", err)
	}
	return nil
}

func pickPalette(visual string) palette {
	lower := strings.ToLower(visual)
	for _, p := range palettes {
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				return p.colors
			}
		}
	}
	return defaultPalette
}

func matchNames(visual string) []string {
	found := namePattern.FindAllString(visual, -1)
	seen := make(map[string]struct{}, len(found))
	var names []string
	for _, name := range found {
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
		if len(names) == 4 {
			break
		}
	}
	if len(names) == 0 {
		names = []string{"Leader 1", "Leader 2"}
	}
	return names
}

func drawFigure(img *image.RGBA, cx, floorY, height int, body color.RGBA) {
	skin := color.RGBA{255, 220, 185, 255}
	bodyTop := height * 42 / 100
	bodyHalf := height / 32
	headRadius := height / 38
	headCY := bodyTop - headRadius + headRadius/5

	for y := bodyTop; y < floorY-10; y++ {
		for x := cx - bodyHalf; x <= cx+bodyHalf; x++ {
			setPixel(img, x, y, body)
		}
	}
	for y := headCY - headRadius; y <= headCY+headRadius; y++ {
		for x := cx - headRadius; x <= cx+headRadius; x++ {
			dx, dy := x-cx, y-headCY
			if dx*dx+dy*dy <= headRadius*headRadius {
				setPixel(img, x, y, skin)
			}
		}
	}
	// Eyes
	eyeOffset := headRadius / 3
	eyeRadius := headRadius / 8
	for _, ex := range []int{cx - eyeOffset, cx + eyeOffset} {
		for y := headCY - eyeRadius; y <= headCY+eyeRadius; y++ {
			for x := ex - eyeRadius; x <= ex+eyeRadius; x++ {
				dx, dy := x-ex, y-headCY
				if dx*dx+dy*dy <= eyeRadius*eyeRadius {
					setPixel(img, x, y, color.RGBA{0, 0, 0, 255})
				}
			}
		}
	}
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Rect) {
		img.SetRGBA(x, y, c)
	}
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	lerp := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.RGBA{lerp(a.R, b.R), lerp(a.G, b.G), lerp(a.B, b.B), 255}
}

func dimColor(c color.RGBA, by uint8) color.RGBA {
	sub := func(v, d uint8) uint8 {
		if v < d {
			return 0
		}
		return v - d
	}
	return color.RGBA{sub(c.R, by), sub(c.G, by), sub(c.B, by), 255}
}
