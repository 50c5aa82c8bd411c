package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/glowkit/strandlight/internal/config"
	"github.com/glowkit/strandlight/ledcolor"
	"github.com/glowkit/strandlight/simweb"
	"github.com/glowkit/strandlight/ws281x"
)

func main() {
	// ---- Flags (config.yaml can override most) ----
	var (
		leds       = flag.Int("leds", 16, "LEDs per strip")
		colorOrder = flag.String("color", "GRB", "LED color order (e.g. GRB, RGBW)")
		brightness = flag.Int("brightness", int(ws281x.DefaultBrightness), "global brightness 0..255")
		fps        = flag.Int("fps", 30, "target frames per second")
		budget     = flag.Int("budget-mw", 0, "power budget in milliwatts (0 = uncapped)")
		gamma      = flag.Float64("gamma", 1.0, "gamma correction exponent")
		sim        = flag.Bool("sim", false, "drive a websocket simulator instead of SPI")
		addr       = flag.String("addr", ":8080", "simulator HTTP listen address")
		bmp        = flag.Bool("bmp280", false, "track ambient temperature via a BMP280")
		configPath = flag.String("config", "", "path to config.yaml")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Load config.yaml (optional) ----
	var cfg *config.Config
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		} else {
			cfg = c
		}
	}

	// ---- Effective params ----
	opts := ws281x.DefaultOptions
	opts.Channels = []ws281x.ChannelOption{{
		LedCount:   *leds,
		Brightness: uint8(*brightness),
	}}
	opts.MaxPowerMilliwatts = uint32(*budget)
	eFPS := *fps
	eGamma := *gamma
	eSim, eAddr := *sim, *addr
	eBMP, eI2CBus := *bmp, ""
	order := *colorOrder

	if cfg != nil {
		if cfg.FPS > 0 {
			eFPS = cfg.FPS
		}
		if cfg.GammaFactor > 0 {
			eGamma = cfg.GammaFactor
		}
		if cfg.Power.BudgetMilliwatts > 0 {
			opts.MaxPowerMilliwatts = cfg.Power.BudgetMilliwatts
		}
		if len(cfg.Channels) > 0 {
			opts.Channels = opts.Channels[:0]
			for _, cc := range cfg.Channels {
				st, err := cc.StripTypeValue()
				if err != nil {
					log.Fatal().Err(err).Msg("bad channel config")
				}
				opts.Channels = append(opts.Channels, ws281x.ChannelOption{
					Bus:        cc.Bus,
					Device:     cc.Device,
					LedCount:   cc.Leds,
					StripType:  st,
					Brightness: cc.Brightness,
					Invert:     cc.Invert,
				})
			}
		}
		if cfg.Sim {
			eSim = true
		}
		if cfg.Addr != "" {
			eAddr = cfg.Addr
		}
		eBMP, eI2CBus = cfg.BMP280, cfg.I2CBus
	} else {
		st, err := config.ChannelCfg{StripType: order}.StripTypeValue()
		if err != nil {
			log.Fatal().Err(err).Msg("bad color order")
		}
		opts.Channels[0].StripType = st
	}
	for i := range opts.Channels {
		opts.Channels[i].GammaFactor = eGamma
	}

	if _, err := host.Init(); err != nil {
		log.Fatal().Err(err).Msg("host init failed")
	}

	// ---- Transport selection ----
	var (
		tr  ws281x.Transport
		hub *simweb.Hub
	)
	if eSim {
		hub = simweb.NewHub()
		go hub.Run()
		s := simweb.NewSimulator(hub)
		for _, c := range opts.Channels {
			s.AddStrip(c.Bus, c.Device, c.LedCount, c.StripType.Lanes(), c.Invert)
		}
		tr = s
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			simweb.ServeWs(hub, w, r)
		})
		go func() {
			log.Info().Str("addr", eAddr).Msg("simulator HTTP server starting")
			if err := http.ListenAndServe(eAddr, mux); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("http server crashed")
			}
		}()
	}

	dev, err := ws281x.MakeDevice(&opts, tr)
	if err != nil {
		log.Fatal().Err(err).Msg("device setup failed")
	}
	dev.SetLogger(log.Logger)
	err = dev.Init()
	if err != nil && !eSim {
		// No usable SPI port; draw frames at the console instead.
		log.Warn().Err(err).Msg("SPI init failed; printing at the console")
		dev.Fini()
		dev, err = ws281x.MakeDevice(&opts, newConsoleTransport(&opts))
		if err == nil {
			dev.SetLogger(log.Logger)
			err = dev.Init()
		}
	}
	if err != nil {
		log.Fatal().Err(err).Msg("device init failed")
	}
	defer dev.Fini()

	if eBMP {
		go trackTemperature(dev, eI2CBus)
	}

	// ---- Animation loop & graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(eFPS))
	defer ticker.Stop()

	var hue uint8
	for {
		select {
		case <-ticker.C:
			for i := 0; i < dev.ChannelCount(); i++ {
				strip := dev.Leds(i)
				delta := uint8(255 / max(len(strip), 1))
				ledcolor.FillRainbow(strip, hue, delta)
			}
			hue++
			if err := dev.Render(); err != nil {
				log.Error().Err(err).Msg("render failed")
			}
		case s := <-quit:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			dev.Clear()
			if err := dev.Render(); err != nil {
				log.Error().Err(err).Msg("final clear failed")
			}
			return
		}
	}
}

// trackTemperature polls a BMP280 and nudges the strips' color temperature
// toward warm white when the room runs warm.
func trackTemperature(dev *ws281x.Device, busName string) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		log.Warn().Err(err).Msg("no I2C bus; temperature tracking disabled")
		return
	}
	defer bus.Close()
	sensor, err := bmxx80.NewI2C(bus, 0x76, &bmxx80.DefaultOpts)
	if err != nil {
		log.Warn().Err(err).Msg("no BMP280; temperature tracking disabled")
		return
	}
	defer sensor.Halt()

	for range time.Tick(30 * time.Second) {
		var env physic.Env
		if err := sensor.Sense(&env); err != nil {
			log.Warn().Err(err).Msg("BMP280 read failed")
			continue
		}
		dev.SetColorTemperature(temperatureTint(env.Temperature))
		log.Debug().Str("ambient", env.Temperature.String()).Msg("color temperature updated")
	}
}

// temperatureTint maps ambient temperature to a 0xWWRRGGBB tint: full output
// below 18 C, fading the blue lane toward a candle tone at 30 C and above.
func temperatureTint(t physic.Temperature) uint32 {
	c := float64(t-physic.ZeroCelsius) / float64(physic.Kelvin)
	switch {
	case c <= 18:
		return 0xffffffff
	case c >= 30:
		return 0xffffff80
	default:
		blue := 0xff - uint32((c-18)/12*0x7f)
		return 0xffffff00 | blue
	}
}
