package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	_ "image/jpeg"
	"image/png"

	"github.com/Marinerbyte/Cli-bot/internal/duel"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CardRenderer draws the summary cards: duel outcomes and ship results.
// Avatar bytes may be nil; a flat placeholder disc is used instead.
type CardRenderer interface {
	RenderDuelCard(ctx context.Context, res duel.Result, avatarWinner, avatarLoser []byte) ([]byte, error)
	RenderShipCard(ctx context.Context, nameA, nameB string, avatarA, avatarB []byte, percent int) ([]byte, error)
	RenderProfileCard(ctx context.Context, name string, avatar []byte, duelWins, boardWins int) ([]byte, error)
}

type cardRenderer struct{}

func NewCardRenderer() CardRenderer { return &cardRenderer{} }

var (
	cardBG        = color.NRGBA{24, 26, 38, 255}
	cardAccent    = color.NRGBA{245, 197, 66, 255}
	cardText      = color.NRGBA{236, 239, 255, 255}
	cardSubText   = color.NRGBA{160, 168, 196, 255}
	placeholderBG = color.NRGBA{70, 76, 100, 255}
)

const (
	cardW      = 480
	cardH      = 240
	avatarSize = 96
)

func (r *cardRenderer) RenderDuelCard(ctx context.Context, res duel.Result, avatarWinner, avatarLoser []byte) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, cardW, cardH))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(cardBG), image.Point{}, imagedraw.Src)

	header := "EMOJI DUEL"
	var lineA, lineB string
	if res.Tie {
		lineA = fmt.Sprintf("%s  %d - %d  %s", res.P1.Name, res.P1.Score, res.P2.Score, res.P2.Name)
		lineB = "IT'S A TIE"
		drawAvatarDisc(img, avatarWinner, image.Pt(cardW/2-avatarSize-24, 64))
		drawAvatarDisc(img, avatarLoser, image.Pt(cardW/2+24, 64))
	} else {
		lineA = fmt.Sprintf("%s defeats %s", res.Winner.Name, res.Loser.Name)
		lineB = fmt.Sprintf("%d - %d", res.Winner.Score, res.Loser.Score)
		drawAvatarDisc(img, avatarWinner, image.Pt(cardW/2-avatarSize-24, 64))
		drawAvatarDisc(img, avatarLoser, image.Pt(cardW/2+24, 64))
		if icon, err := rasterizeIcon("trophy", 40); err == nil {
			at := image.Pt(cardW/2-20, 92)
			imagedraw.Draw(img, image.Rectangle{Min: at, Max: at.Add(icon.Bounds().Size())}, icon, image.Point{}, imagedraw.Over)
		}
	}

	drawCardText(img, header, 28, cardAccent)
	drawCardText(img, lineA, cardH-44, cardText)
	drawCardText(img, lineB, cardH-24, cardSubText)

	return encodePNG(img)
}

func (r *cardRenderer) RenderShipCard(ctx context.Context, nameA, nameB string, avatarA, avatarB []byte, percent int) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, cardW, cardH))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(cardBG), image.Point{}, imagedraw.Src)

	drawAvatarDisc(img, avatarA, image.Pt(cardW/2-avatarSize-56, 56))
	drawAvatarDisc(img, avatarB, image.Pt(cardW/2+56, 56))
	if icon, err := rasterizeIcon("heart", 64); err == nil {
		at := image.Pt(cardW/2-32, 72)
		imagedraw.Draw(img, image.Rectangle{Min: at, Max: at.Add(icon.Bounds().Size())}, icon, image.Point{}, imagedraw.Over)
	}

	drawCardText(img, "SHIP METER", 28, cardAccent)
	drawCardText(img, fmt.Sprintf("%s  x  %s", nameA, nameB), cardH-44, cardText)
	drawCardText(img, fmt.Sprintf("%d%%", percent), cardH-24, cardAccent)

	return encodePNG(img)
}

func (r *cardRenderer) RenderProfileCard(ctx context.Context, name string, avatar []byte, duelWins, boardWins int) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, cardW, cardH))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(cardBG), image.Point{}, imagedraw.Src)

	drawAvatarDisc(img, avatar, image.Pt(cardW/2-avatarSize/2, 48))
	if duelWins+boardWins > 0 {
		if icon, err := rasterizeIcon("trophy", 32); err == nil {
			at := image.Pt(cardW/2+avatarSize/2-8, 48)
			imagedraw.Draw(img, image.Rectangle{Min: at, Max: at.Add(icon.Bounds().Size())}, icon, image.Point{}, imagedraw.Over)
		}
	}

	drawCardText(img, "PLAYER PROFILE", 28, cardAccent)
	drawCardText(img, name, cardH-44, cardText)
	drawCardText(img, fmt.Sprintf("duel wins: %d   board wins: %d", duelWins, boardWins), cardH-24, cardSubText)

	return encodePNG(img)
}

// drawAvatarDisc circle-crops a decoded avatar into an avatarSize square
// at origin; a flat disc stands in when decoding fails.
func drawAvatarDisc(img *image.RGBA, avatar []byte, origin image.Point) {
	center := origin.Add(image.Pt(avatarSize/2, avatarSize/2))
	radius := avatarSize / 2

	src := decodeAvatar(avatar)
	if src == nil {
		drawDisc(img, center, radius, placeholderBG)
		return
	}

	scaled := image.NewRGBA(image.Rect(0, 0, avatarSize, avatarSize))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Over, nil)

	rSquared := radius * radius
	for y := 0; y < avatarSize; y++ {
		for x := 0; x < avatarSize; x++ {
			dx, dy := x-radius, y-radius
			if dx*dx+dy*dy > rSquared {
				continue
			}
			img.Set(origin.X+x, origin.Y+y, scaled.At(x, y))
		}
	}
}

func decodeAvatar(data []byte) image.Image {
	if len(data) == 0 {
		return nil
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return src
}

func drawCardText(img *image.RGBA, text string, baseline int, clr color.Color) {
	if text == "" {
		return
	}
	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13, Src: image.NewUniform(clr)}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P((cardW-width)/2, baseline)
	drawer.DrawString(text)
}

func encodePNG(img *image.RGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
