package core

// Palette is assigned by series index when a series has no explicit color.
var Palette = [...]string{
	"#3b82f6", "#ef4444", "#10b981", "#f59e0b", "#8b5cf6",
	"#ec4899", "#06b6d4", "#f97316", "#14b8a6", "#6366f1",
}

// ColorAt returns the palette color for index i, wrapping around.
func ColorAt(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// SeriesColor returns the explicit series color or the palette color for index.
func SeriesColor(s Series, index int) string {
	if s.Color != "" {
		return s.Color
	}
	return ColorAt(index)
}
