package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/valerio/jeebie-cycle/jeebie/addr"
	"github.com/valerio/jeebie-cycle/jeebie/memory"
)

func writeSprite(b *memory.Bus, index int, y, x, tile, attrs uint8) {
	base := addr.OAMStart + uint16(index*4)
	b.Write(base, y)
	b.Write(base+1, x)
	b.Write(base+2, tile)
	b.Write(base+3, attrs)
}

func TestExtractOAMData(t *testing.T) {
	b := memory.New(false)
	writeSprite(b, 0, 16+50, 8+30, 0x42, 0x80)
	writeSprite(b, 1, 16+60, 8+40, 0x24, 0x00)

	oamData := ExtractOAMData(b, 55)

	assert.Len(t, oamData.Sprites, OAMSpriteCount)
	assert.Equal(t, 55, oamData.CurrentLine)
	assert.Equal(t, 8, oamData.SpriteHeight)

	sprite0 := oamData.Sprites[0]
	assert.Equal(t, 50, sprite0.Sprite.Y)
	assert.Equal(t, 30, sprite0.Sprite.X)
	assert.Equal(t, uint8(0x42), sprite0.Sprite.TileIndex)
	assert.True(t, sprite0.Sprite.BehindBG)
	assert.True(t, sprite0.IsVisible)

	sprite1 := oamData.Sprites[1]
	assert.Equal(t, 1, sprite1.Index)
	assert.Equal(t, 60, sprite1.Sprite.Y)
	assert.False(t, sprite1.IsVisible)

	assert.Equal(t, 1, oamData.ActiveSprites)
}

func TestSpriteVisibility(t *testing.T) {
	tests := []struct {
		name        string
		spriteY     uint8
		currentLine int
		lcdc        uint8
		expected    bool
	}{
		{"Sprite above line", 16 + 10, 20, 0x91, false},
		{"Sprite on line", 16 + 20, 20, 0x91, true},
		{"Sprite covers line", 16 + 15, 20, 0x91, true},
		{"Sprite below line", 16 + 25, 20, 0x91, false},
		{"16px sprite", 16 + 10, 20, 0x95, true},
		{"8px sprite same position", 16 + 10, 20, 0x91, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := memory.New(false)
			b.Write(addr.LCDC, tt.lcdc)
			writeSprite(b, 0, tt.spriteY, 8+10, 0, 0)

			oamData := ExtractOAMData(b, tt.currentLine)
			assert.Equal(t, tt.expected, oamData.Sprites[0].IsVisible)
		})
	}
}

func TestGetVisibleSprites(t *testing.T) {
	b := memory.New(false)
	writeSprite(b, 0, 16+20, 8+10, 0x01, 0)
	writeSprite(b, 1, 16+100, 8+20, 0x02, 0)
	writeSprite(b, 2, 16+18, 8+30, 0x03, 0)

	visibleSprites := ExtractOAMData(b, 22).GetVisibleSprites()

	assert.Len(t, visibleSprites, 2)
	assert.Equal(t, 0, visibleSprites[0].Index)
	assert.Equal(t, 2, visibleSprites[1].Index)
}

func TestFormatSummary(t *testing.T) {
	oamData := &OAMData{
		CurrentLine:   144,
		ActiveSprites: 3,
		SpriteHeight:  8,
	}

	assert.Equal(t, "Current Line: 144 | Active Sprites: 3/10 | Height: 8px", oamData.FormatSummary())
}
