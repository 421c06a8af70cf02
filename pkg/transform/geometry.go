package transform

import (
	"fmt"
	"math"

	"github.com/screenwerk/screensync/pkg/profile"
	"gitlab.com/tozd/go/errors"
)

// Geometry is the fully resolved crop/scale/pad pipeline for one input.
// It is a pure function of the input dimensions and the profile, computed
// before the executor is invoked so the decision is testable on its own.
type Geometry struct {
	CropW, CropH, CropX, CropY int
	ScaleW, ScaleH             int
	PadW, PadH, PadX, PadY     int
}

// ComputeGeometry derives the transform geometry for an input of inW x inH
// pixels under profile p.
//
// Crop: the largest centered window matching p.CropRatio. If the input is
// wider than the ratio the width is cut to height*ratio, otherwise the
// height is cut to width/ratio. A zero-sized window is an error.
// Scale: target resolution multiplied by the per-axis scale factors.
// Pad: the player resolution, black-filled, anchored per p.Align.
func ComputeGeometry(inW, inH int, p *profile.Profile) (Geometry, error) {
	if inW <= 0 || inH <= 0 {
		return Geometry{}, errors.Errorf("invalid input dimensions %dx%d", inW, inH)
	}

	var g Geometry

	inAspect := float64(inW) / float64(inH)
	if inAspect > p.CropRatio {
		g.CropH = inH
		g.CropW = int(float64(inH) * p.CropRatio)
	} else {
		g.CropW = inW
		g.CropH = int(float64(inW) / p.CropRatio)
	}
	if g.CropW <= 0 || g.CropH <= 0 {
		return Geometry{}, errors.Errorf("crop window is empty for %dx%d at ratio %.4f", inW, inH, p.CropRatio)
	}
	g.CropX = (inW - g.CropW) / 2
	g.CropY = (inH - g.CropH) / 2

	g.ScaleW = int(math.Round(float64(p.Width) * p.HScale))
	g.ScaleH = int(math.Round(float64(p.Height) * p.VScale))
	if g.ScaleW <= 0 || g.ScaleH <= 0 {
		return Geometry{}, errors.Errorf("scaled size is empty for profile %q", p.Name)
	}

	g.PadW = p.PlayerWidth
	g.PadH = p.PlayerHeight
	if g.PadW < g.ScaleW || g.PadH < g.ScaleH {
		return Geometry{}, errors.Errorf("profile %q: scaled content %dx%d exceeds player %dx%d",
			p.Name, g.ScaleW, g.ScaleH, g.PadW, g.PadH)
	}
	if p.Align == profile.AlignCenter {
		g.PadX = (g.PadW - g.ScaleW) / 2
		g.PadY = (g.PadH - g.ScaleH) / 2
	}

	return g, nil
}

// Filter renders the geometry as an ffmpeg -vf chain.
func (g Geometry) Filter() string {
	return fmt.Sprintf("crop=%d:%d:%d:%d,scale=%d:%d,pad=%d:%d:%d:%d:black",
		g.CropW, g.CropH, g.CropX, g.CropY,
		g.ScaleW, g.ScaleH,
		g.PadW, g.PadH, g.PadX, g.PadY)
}
