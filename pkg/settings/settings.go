package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"autoplay/pkg/scheduler"
)

// Settings represents user-tunable configuration that should persist across
// application restarts.
type Settings struct {
	VisibleThreshold float64 `json:"visibleThreshold"`
	Autoplay         string  `json:"autoplay"`
	Fullscreen       string  `json:"fullscreen"`
	BindTimeout      string  `json:"bindTimeout"`
	ScrollTickHz     float64 `json:"scrollTickHz"`
}

var defaultSettings = Settings{
	VisibleThreshold: scheduler.DefaultThreshold,
	Autoplay:         scheduler.AutoplayRespectUserPause.String(),
	Fullscreen:       scheduler.FullscreenToggleOnSecondTap.String(),
	BindTimeout:      "8s",
	ScrollTickHz:     30,
}

func Defaults() Settings { return defaultSettings }

// Load reads the settings file from disk. When the file is missing or cannot
// be parsed, sane defaults are returned instead so the application can
// continue running.
func Load(path string) Settings {
	data, err := os.ReadFile(path)
	if err != nil {
		return defaultSettings
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return defaultSettings
	}
	return s.normalize()
}

// normalize replaces zero and out-of-range values by defaults so partially
// written files keep working.
func (s Settings) normalize() Settings {
	if !(s.VisibleThreshold > 0 && s.VisibleThreshold <= 1) {
		s.VisibleThreshold = defaultSettings.VisibleThreshold
	}
	if _, err := scheduler.ParseAutoplayPolicy(s.Autoplay); err != nil || s.Autoplay == "" {
		s.Autoplay = defaultSettings.Autoplay
	}
	if _, err := scheduler.ParseFullscreenPolicy(s.Fullscreen); err != nil || s.Fullscreen == "" {
		s.Fullscreen = defaultSettings.Fullscreen
	}
	if d, err := time.ParseDuration(s.BindTimeout); err != nil || d < 0 {
		s.BindTimeout = defaultSettings.BindTimeout
	}
	if s.ScrollTickHz <= 0 {
		s.ScrollTickHz = defaultSettings.ScrollTickHz
	}
	return s
}

// Policy converts the settings into a scheduling policy.
func (s Settings) Policy() scheduler.Policy {
	s = s.normalize()
	autoplay, _ := scheduler.ParseAutoplayPolicy(s.Autoplay)
	fullscreen, _ := scheduler.ParseFullscreenPolicy(s.Fullscreen)
	return scheduler.Policy{
		VisibleThreshold: s.VisibleThreshold,
		Autoplay:         autoplay,
		Fullscreen:       fullscreen,
	}
}

func (s Settings) BindTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(s.normalize().BindTimeout)
	return d
}

// Save writes the settings to path through a temporary file so watchers never
// observe a half-written document.
func Save(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Watch calls onChange with the reloaded settings whenever path changes,
// until ctx is done. Bursts of events within debounce collapse into one
// reload. The directory is watched so rename-based saves are seen.
func Watch(ctx context.Context, path string, debounce time.Duration, log zerolog.Logger, onChange func(Settings)) error {
	if path == "" {
		return errors.New("settings: empty path")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings: create watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("settings: watch %s: %w", dir, err)
	}
	name := filepath.Clean(path)
	log.Info().Str("path", path).Msg("settings: watching for changes")

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				log.Debug().Str("op", ev.Op.String()).Msg("settings: file changed")
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("settings: watcher error")
		case <-timer.C:
			s := Load(path)
			log.Info().
				Float64("threshold", s.VisibleThreshold).
				Str("autoplay", s.Autoplay).
				Str("fullscreen", s.Fullscreen).
				Msg("settings: reloaded")
			onChange(s)
		}
	}
}
