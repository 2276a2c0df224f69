package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strconv"
	"strings"

	"github.com/Marinerbyte/Cli-bot/internal/snakeladder"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// BoardRenderer draws the Snake & Ladder board as a PNG.
type BoardRenderer interface {
	RenderBoard(ctx context.Context, view snakeladder.GameView) ([]byte, error)
}

type boardRenderer struct{}

func NewBoardRenderer() BoardRenderer { return &boardRenderer{} }

var (
	lightCell     = color.RGBA{236, 224, 200, 255}
	darkCell      = color.RGBA{205, 183, 158, 255}
	gridLineColor = color.NRGBA{120, 100, 80, 255}
	hudPanelColor = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTextColor  = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	cellNumColor  = color.NRGBA{90, 74, 60, 255}
	remapTextClr  = color.NRGBA{40, 40, 40, 255}

	tokenPalette = []color.NRGBA{
		{214, 69, 65, 255},
		{65, 131, 215, 255},
		{38, 166, 91, 255},
		{244, 179, 80, 255},
		{155, 89, 182, 255},
		{52, 73, 94, 255},
		{230, 126, 34, 255},
		{22, 160, 133, 255},
		{192, 57, 43, 255},
		{41, 128, 185, 255},
	}
)

func (r *boardRenderer) RenderBoard(ctx context.Context, view snakeladder.GameView) ([]byte, error) {
	const (
		cellSize   = 64
		gridCells  = 10
		boardSize  = cellSize * gridCells
		sideMargin = 24
		topMargin  = 72
		botMargin  = 24
	)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	totalW := boardSize + sideMargin*2
	totalH := boardSize + topMargin + botMargin
	origin := image.Point{X: sideMargin, Y: topMargin}

	img := image.NewRGBA(image.Rect(0, 0, totalW, totalH))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, imagedraw.Src)

	drawHeader(img, view, totalW, topMargin)
	drawCells(img, cellSize, origin)
	if err := drawRemaps(img, cellSize, origin); err != nil {
		return nil, err
	}
	drawTokens(img, view, cellSize, origin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

// cellRect returns the pixel rect of a board cell. Cell 1 is bottom-left
// and numbering snakes row by row.
func cellRect(cell, cellSize int, origin image.Point) image.Rectangle {
	row := (cell - 1) / 10
	col := (cell - 1) % 10
	if row%2 == 1 {
		col = 9 - col
	}
	x := origin.X + col*cellSize
	y := origin.Y + (9-row)*cellSize
	return image.Rect(x, y, x+cellSize, y+cellSize)
}

func drawHeader(img *image.RGBA, view snakeladder.GameView, totalW, topMargin int) {
	panel := image.Rect(16, 12, totalW-16, topMargin-12)
	imagedraw.Draw(img, panel, image.NewUniform(hudPanelColor), image.Point{}, imagedraw.Over)

	title := "SNAKE & LADDER"
	if view.CurrentPlayer != "" {
		title += "  ·  turn: " + view.CurrentPlayer
	}
	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13, Src: image.NewUniform(hudTextColor)}
	width := drawer.MeasureString(title).Round()
	drawer.Dot = fixed.P(panel.Min.X+(panel.Dx()-width)/2, panel.Min.Y+(panel.Dy()+10)/2)
	drawer.DrawString(title)
}

func drawCells(img *image.RGBA, cellSize int, origin image.Point) {
	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	for cell := 1; cell <= 100; cell++ {
		rect := cellRect(cell, cellSize, origin)
		clr := lightCell
		if (cell+((cell-1)/10))%2 == 0 {
			clr = darkCell
		}
		imagedraw.Draw(img, rect, image.NewUniform(clr), image.Point{}, imagedraw.Src)
		// thin cell border
		imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+1), image.NewUniform(gridLineColor), image.Point{}, imagedraw.Over)
		imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+1, rect.Max.Y), image.NewUniform(gridLineColor), image.Point{}, imagedraw.Over)

		drawer.Src = image.NewUniform(cellNumColor)
		drawer.Dot = fixed.P(rect.Min.X+4, rect.Min.Y+13)
		drawer.DrawString(strconv.Itoa(cell))
	}
}

func drawRemaps(img *image.RGBA, cellSize int, origin image.Point) error {
	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13, Src: image.NewUniform(remapTextClr)}
	for from, to := range snakeladder.Remaps() {
		name := "ladder"
		if to < from {
			name = "snake"
		}
		icon, err := rasterizeIcon(name, cellSize-20)
		if err != nil {
			return err
		}
		rect := cellRect(from, cellSize, origin)
		iconOrigin := image.Point{X: rect.Min.X + 10, Y: rect.Min.Y + 14}
		imagedraw.Draw(img, image.Rectangle{Min: iconOrigin, Max: iconOrigin.Add(icon.Bounds().Size())}, icon, image.Point{}, imagedraw.Over)

		label := "->" + strconv.Itoa(to)
		drawer.Dot = fixed.P(rect.Min.X+4, rect.Max.Y-4)
		drawer.DrawString(label)
	}
	return nil
}

func drawTokens(img *image.RGBA, view snakeladder.GameView, cellSize int, origin image.Point) {
	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13, Src: image.NewUniform(color.White)}
	// group players per cell so shared squares fan out
	byCell := map[int][]int{}
	for i, p := range view.Players {
		if p.Status != snakeladder.PlayerPlaying {
			continue
		}
		byCell[p.Position] = append(byCell[p.Position], i)
	}
	for cell, idxs := range byCell {
		rect := cellRect(cell, cellSize, origin)
		for slot, i := range idxs {
			p := view.Players[i]
			clr := tokenPalette[i%len(tokenPalette)]
			cx := rect.Min.X + 16 + (slot%3)*16
			cy := rect.Max.Y - 16 - (slot/3)*16
			drawDisc(img, image.Point{X: cx, Y: cy}, 9, clr)
			initial := strings.ToUpper(string([]rune(p.Username)[0]))
			w := drawer.MeasureString(initial).Round()
			drawer.Dot = fixed.P(cx-w/2, cy+5)
			drawer.DrawString(initial)
		}
	}
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	rSquared := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y > rSquared {
				continue
			}
			px, py := center.X+x, center.Y+y
			if image.Pt(px, py).In(img.Bounds()) {
				img.Set(px, py, clr)
			}
		}
	}
}
