package ws281x

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGammaIdentity(t *testing.T) {
	dst := make([]uint8, 256*maxLanes)
	buildGammaTable(dst, 1.0, 0xFFFFFFFF, 0xFFFFFFFF)
	for v := 0; v < 256; v++ {
		for j := 0; j < maxLanes; j++ {
			if dst[v*maxLanes+j] != uint8(v) {
				t.Fatalf("identity table broken at value %d lane %d: %d", v, j, dst[v*maxLanes+j])
			}
		}
	}
}

func TestGammaCorrectionScalesOneLane(t *testing.T) {
	dst := make([]uint8, 256*maxLanes)
	// Green lane halved, everything else full.
	buildGammaTable(dst, 1.0, 0xFFFF80FF, 0xFFFFFFFF)

	assert.Equal(t, uint8(255), dst[255*maxLanes+0], "red lane")
	assert.Equal(t, uint8(128), dst[255*maxLanes+1], "green lane")
	assert.Equal(t, uint8(255), dst[255*maxLanes+2], "blue lane")
	assert.Equal(t, uint8(255), dst[255*maxLanes+3], "white lane")
}

func TestGammaTemperatureCombines(t *testing.T) {
	dst := make([]uint8, 256*maxLanes)
	// Both correction and temperature halve the blue lane: 128*128/255 ~ 64.
	buildGammaTable(dst, 1.0, 0xFFFFFF80, 0xFFFFFF80)
	assert.InDelta(t, 64, int(dst[255*maxLanes+2]), 1)
}

func TestGammaCurveShape(t *testing.T) {
	dst := make([]uint8, 256*maxLanes)
	buildGammaTable(dst, 2.2, 0xFFFFFFFF, 0xFFFFFFFF)

	assert.Zero(t, dst[0])
	assert.Equal(t, uint8(255), dst[255*maxLanes])
	prev := uint8(0)
	for v := 0; v < 256; v++ {
		cur := dst[v*maxLanes]
		if cur < prev {
			t.Fatalf("curve not monotonic at %d: %d < %d", v, cur, prev)
		}
		prev = cur
	}
	// A 2.2 exponent pushes midtones down hard.
	assert.Less(t, dst[128*maxLanes], uint8(64))
}

func TestDeviceSettersRegenerate(t *testing.T) {
	dev, err := MakeDevice(&DefaultOptions, &fakeTransport{})
	assert.NoError(t, err)
	assert.NoError(t, dev.Init())
	defer dev.Fini()

	ch := dev.channels[0]
	assert.Equal(t, uint8(128), ch.gamma[128*maxLanes])

	dev.SetGammaFactor(2.2)
	assert.Less(t, ch.gamma[128*maxLanes], uint8(64))

	dev.SetGammaFactor(1.0)
	dev.SetColorCorrection(0x00FF0000) // zero green, blue and white factors
	assert.Equal(t, uint8(255), ch.gamma[255*maxLanes+0])
	assert.Zero(t, ch.gamma[255*maxLanes+1])

	dev.SetColorCorrection(0xFFFFFFFF)
	dev.SetColorTemperature(0xFFFF8080)
	assert.Equal(t, uint8(128), ch.gamma[255*maxLanes+1])
	assert.Equal(t, uint8(128), ch.gamma[255*maxLanes+2])
}
