package receipt

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleRowsJoinsColumns(t *testing.T) {
	frags := []TextFragment{
		{Text: "4.98 F", X: 400, Y: 102, Height: 20},
		{Text: "BLK RIFLE COFFEE", X: 20, Y: 100, Height: 20},
		{Text: "TOTAL", X: 20, Y: 160, Height: 20},
		{Text: "50.00", X: 400, Y: 158, Height: 20},
	}

	text := AssembleRows(frags)

	assert.Equal(t, "BLK RIFLE COFFEE   4.98 F\nTOTAL   50.00", text)

	out := Extract(text)
	require.Len(t, out.Lines, 1)
	assert.Equal(t, "BLK RIFLE COFFEE", out.Lines[0].Description)
	require.NotNil(t, out.Total)
}

func TestAssembleRowsEmpty(t *testing.T) {
	assert.Equal(t, "", AssembleRows(nil))
}

func TestParseBox(t *testing.T) {
	assert.Equal(t, []int{10, 20, 300, 18}, parseBox("10,20,300,18"))
	assert.Nil(t, parseBox("10,x"))
}

func TestEnhanceProducesJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, err := Enhance(buf.Bytes())
	require.NoError(t, err)
	require.True(t, len(out) > 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, out[:2])
}

func TestEnhanceRejectsGarbage(t *testing.T) {
	_, err := Enhance([]byte("not an image"))
	assert.Error(t, err)
}
