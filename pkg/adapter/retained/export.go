package retained

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/raykavin/pikachart/pkg/core"
)

// ExportImage returns the last PNG frame, or re-renders the held chart
// object through go-chart's SVG renderer.
func (a *Adapter) ExportImage(ctx context.Context, format core.ImageFormat) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	a.Lock()
	defer a.Unlock()

	if a.destroyed {
		return nil, core.ErrDestroyed
	}
	if !a.rendered || a.canvas == nil {
		return nil, core.ErrNotRendered
	}

	switch format {
	case core.FormatPNG:
		return append([]byte(nil), a.frame...), nil
	case core.FormatSVG:
		var (
			buf bytes.Buffer
			err error
		)
		switch {
		case a.chart != nil:
			err = a.chart.Render(chart.SVG, &buf)
		case a.pie != nil, a.donut != nil:
			err = a.renderRadial(core.FormatSVG, &buf)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: svg export: %w", Name, err)
		}
		if !a.alive() {
			return nil, core.ErrDestroyed
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %s via %s", core.ErrUnsupportedFormat, format, Name)
}
