package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	fallbackWidth  = 1280
	fallbackHeight = 800
)

var errNoVideoDriver = errors.New("all SDL2 video drivers failed")

// videoDrivers lists the drivers to try, the environment's choice first.
func videoDrivers() []string {
	if env := os.Getenv("SDL_VIDEODRIVER"); env != "" {
		return []string{env, "software", "dummy"}
	}
	if runtime.GOOS == "darwin" {
		return []string{"cocoa", "software", "dummy"}
	}
	return []string{"kmsdrm", "wayland", "x11", "fbcon", "software", "dummy"}
}

// initializeSDL2 initializes SDL2 with fallback video drivers.
func initializeSDL2(logger zerolog.Logger) error {
	for _, driver := range videoDrivers() {
		if err := tryDriver(driver); err != nil {
			logger.Warn().Err(err).Str("driver", driver).Msg("sdl: driver failed")
			continue
		}
		logger.Info().Str("driver", driver).Msg("sdl: initialized")
		return nil
	}
	return errNoVideoDriver
}

func tryDriver(driver string) error {
	sdl.Quit()
	os.Setenv("SDL_VIDEODRIVER", driver)
	sdl.SetHint(sdl.HINT_VIDEODRIVER, driver)

	switch driver {
	case "kmsdrm":
		sdl.SetHint("SDL_KMSDRM_REQUIRE_DRM_MASTER", "1")
		sdl.SetHint(sdl.HINT_RENDER_DRIVER, "opengles2")
	case "cocoa":
		sdl.SetHint(sdl.HINT_RENDER_DRIVER, "opengl")
	case "fbcon":
		sdl.SetHint("SDL_FBDEV", "/dev/fb0")
		sdl.SetHint(sdl.HINT_RENDER_DRIVER, "software")
	default:
		sdl.SetHint(sdl.HINT_RENDER_DRIVER, "software")
	}
	sdl.SetHint(sdl.HINT_RENDER_BATCHING, "1")
	sdl.SetHint(sdl.HINT_VIDEO_MINIMIZE_ON_FOCUS_LOSS, "0")

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("SDL_INIT_VIDEO: %w", err)
	}
	if _, err := sdl.GetCurrentVideoDriver(); err != nil {
		return fmt.Errorf("video driver: %w", err)
	}
	return nil
}

// displayDimensions returns the primary display size or a fallback.
func displayDimensions(logger zerolog.Logger) (int32, int32) {
	mode, err := sdl.GetCurrentDisplayMode(0)
	if err != nil || mode.W == 0 || mode.H == 0 {
		logger.Warn().Err(err).Msg("sdl: display mode unavailable, using fallback size")
		return fallbackWidth, fallbackHeight
	}
	logger.Info().Int32("width", mode.W).Int32("height", mode.H).Int32("refresh", mode.RefreshRate).Msg("sdl: display")
	return mode.W, mode.H
}

func createWindow(title string, width, height int32) (*sdl.Window, error) {
	flags := uint32(sdl.WINDOW_SHOWN | sdl.WINDOW_RESIZABLE)
	if os.Getenv("WINDOWED") == "" {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}
	return sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED, width, height, flags)
}

// createRenderer prefers an accelerated vsync renderer and falls back to
// software.
func createRenderer(window *sdl.Window, logger zerolog.Logger) (*sdl.Renderer, error) {
	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		logger.Warn().Err(err).Msg("sdl: hardware renderer failed, using software")
		renderer, err = sdl.CreateRenderer(window, -1, sdl.RENDERER_SOFTWARE)
		if err != nil {
			return nil, err
		}
	}
	renderer.SetDrawBlendMode(sdl.BLENDMODE_BLEND)
	return renderer, nil
}
