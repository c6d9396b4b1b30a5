package debug

import (
	"fmt"

	"github.com/valerio/jeebie-cycle/jeebie/video"
)

const (
	OAMSpriteCount    = 40
	MaxSpritesPerLine = 10
)

type SpriteInfo struct {
	Index     int
	Sprite    video.Sprite
	IsVisible bool
}

type OAMData struct {
	Sprites       []SpriteInfo
	CurrentLine   int
	ActiveSprites int
	SpriteHeight  int
}

// ExtractOAMData decodes OAM and marks the sprites that cover currentLine.
// The sprite height follows LCDC.
func ExtractOAMData(reader video.Reader, currentLine int) *OAMData {
	sprites := video.ReadSprites(reader)
	data := &OAMData{
		Sprites:     make([]SpriteInfo, len(sprites)),
		CurrentLine: currentLine,
	}
	for i, s := range sprites {
		data.SpriteHeight = s.Height
		visible := s.OnLine(currentLine)
		if visible {
			data.ActiveSprites++
		}
		data.Sprites[i] = SpriteInfo{Index: i, Sprite: s, IsVisible: visible}
	}
	return data
}

func (s *SpriteInfo) String() string {
	status := "OFF"
	if s.IsVisible {
		status = "ACTIVE"
	}
	return fmt.Sprintf("Sprite %2d: Y=%3d X=%3d  Tile=0x%02X Flags=0x%02X [%s]",
		s.Index, s.Sprite.Y, s.Sprite.X, s.Sprite.TileIndex, s.Sprite.Flags, status)
}

func (data *OAMData) GetVisibleSprites() []SpriteInfo {
	visible := make([]SpriteInfo, 0, data.ActiveSprites)
	for _, sprite := range data.Sprites {
		if sprite.IsVisible {
			visible = append(visible, sprite)
		}
	}
	return visible
}

// FormatSummary reports how many sprites cover the line. Only the first
// MaxSpritesPerLine of them are drawn.
func (data *OAMData) FormatSummary() string {
	return fmt.Sprintf("Current Line: %d | Active Sprites: %d/%d | Height: %dpx",
		data.CurrentLine, data.ActiveSprites, MaxSpritesPerLine, data.SpriteHeight)
}
