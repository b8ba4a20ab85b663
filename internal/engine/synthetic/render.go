package synthetic

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/mitchelldurbincs/DoomGatherer/internal/engine"
)

// Scene colors
var (
	CeilingColor     = color.RGBA{70, 70, 82, 255}
	WallColor        = color.RGBA{122, 112, 98, 255}
	FloorColor       = color.RGBA{96, 78, 58, 255}
	MonsterBodyColor = color.RGBA{160, 42, 38, 255}
	MonsterHeadColor = color.RGBA{204, 164, 124, 255}
	DecalColor       = color.RGBA{30, 28, 26, 255}
	WeaponColor      = color.RGBA{90, 90, 96, 255}
	CrosshairColor   = color.RGBA{255, 255, 255, 255}
	HUDColor         = color.RGBA{40, 36, 30, 255}
	AmmoBarColor     = color.RGBA{220, 190, 40, 255}
)

// render draws the current scene into a fresh State
func (e *Engine) render() {
	w, h := e.width, e.height
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	wallTop, wallBottom := h*3/10, h*6/10
	fill(img, image.Rect(0, 0, w, wallTop), CeilingColor)
	fill(img, image.Rect(0, wallTop, w, wallBottom), WallColor)
	fill(img, image.Rect(0, wallBottom, w, h), FloorColor)

	if e.cfg.Render.Decals {
		for _, x := range e.decals {
			sx := e.screenX(x)
			fill(img, image.Rect(sx-2, h/2-2, sx+2, h/2+2), DecalColor)
		}
	}

	if e.monsterAlive {
		cx := e.screenX(e.monsterX)
		half := int(monsterHalfWidth / viewHalfWidth * float64(w) / 2)
		top, bottom := h*35/100, h*65/100
		head := top + (bottom-top)/4
		fill(img, image.Rect(cx-half/2, top, cx+half/2, head), MonsterHeadColor)
		fill(img, image.Rect(cx-half, head, cx+half, bottom), MonsterBodyColor)
	}

	if e.cfg.Render.Weapon {
		fill(img, image.Rect(w/2-w/20, h*8/10, w/2+w/20, h), WeaponColor)
	}

	if e.cfg.Render.Crosshair {
		fill(img, image.Rect(w/2-4, h/2, w/2+5, h/2+1), CrosshairColor)
		fill(img, image.Rect(w/2, h/2-4, w/2+1, h/2+5), CrosshairColor)
	}

	if e.cfg.Render.HUD {
		hudTop := h * 88 / 100
		if e.cfg.Render.MinimalHUD {
			hudTop = h * 95 / 100
		}
		fill(img, image.Rect(0, hudTop, w, h), HUDColor)
		barWidth := e.ammo * (w / 4) / startingAmmo
		fill(img, image.Rect(4, hudTop+2, 4+barWidth, h-2), AmmoBarColor)
	}

	e.state = &engine.State{
		Tic:           e.tic,
		ScreenBuffer:  toRGB24(img),
		Width:         w,
		Height:        h,
		GameVariables: e.gameVariables(),
	}
}

// screenX projects a world x coordinate to a screen column
func (e *Engine) screenX(worldX float64) int {
	rel := (worldX - e.playerX) / viewHalfWidth
	return int(float64(e.width) / 2 * (1 + rel))
}

func (e *Engine) gameVariables() []float64 {
	vars := make([]float64, len(e.cfg.Variables))
	for i, v := range e.cfg.Variables {
		switch v {
		case engine.VariableAmmo2:
			vars[i] = float64(e.ammo)
		}
	}
	return vars
}

func fill(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r.Intersect(img.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// toRGB24 drops the alpha channel of img
func toRGB24(img *image.RGBA) []uint8 {
	b := img.Bounds()
	out := make([]uint8, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			out = append(out, row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return out
}
