// Package config loads the demo binary's yaml configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/glowkit/strandlight/ws281x"
)

type ChannelCfg struct {
	Bus        int    `yaml:"bus"`         // e.g. 0 for /dev/spidev0.x
	Device     int    `yaml:"device"`      // chip select
	Leds       int    `yaml:"leds"`        // strip length
	StripType  string `yaml:"strip_type"`  // e.g. GRB, RGB, GRBW
	Brightness uint8  `yaml:"brightness"`  // 0..255
	Invert     bool   `yaml:"invert"`
}

type PowerCfg struct {
	BudgetMilliwatts uint32 `yaml:"budget_mw"` // 0 disables capping
}

type Config struct {
	FPS         int          `yaml:"fps"`
	GammaFactor float64      `yaml:"gamma_factor"`
	Power       PowerCfg     `yaml:"power"`
	Channels    []ChannelCfg `yaml:"channels"`

	Sim     bool   `yaml:"sim"`      // websocket simulator instead of SPI
	Addr    string `yaml:"addr"`     // simulator listen address
	BMP280  bool   `yaml:"bmp280"`   // track ambient temperature
	I2CBus  string `yaml:"i2c_bus"`  // e.g. "1"; empty for the first bus
}

var stripTypes = map[string]ws281x.StripType{
	"RGB":  ws281x.WS2811StripRGB,
	"RBG":  ws281x.WS2811StripRBG,
	"GRB":  ws281x.WS2811StripGRB,
	"GBR":  ws281x.WS2811StripGBR,
	"BRG":  ws281x.WS2811StripBRG,
	"BGR":  ws281x.WS2811StripBGR,
	"RGBW": ws281x.SK6812StripRGBW,
	"RBGW": ws281x.SK6812StripRBGW,
	"GRBW": ws281x.SK6812StripGRBW,
	"GBRW": ws281x.SK6812StripGBRW,
	"BRGW": ws281x.SK6812StripBRGW,
	"BGRW": ws281x.SK6812StripBGRW,
}

// StripTypeValue resolves the yaml ordering name; empty means GRB (WS2812).
func (c ChannelCfg) StripTypeValue() (ws281x.StripType, error) {
	if c.StripType == "" {
		return ws281x.WS2812Strip, nil
	}
	st, ok := stripTypes[c.StripType]
	if !ok {
		return 0, fmt.Errorf("unknown strip type %q", c.StripType)
	}
	return st, nil
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
