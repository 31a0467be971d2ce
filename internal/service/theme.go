package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sakif/portfolio/internal/repository"
	"github.com/sakif/portfolio/internal/signal"
)

// ThemePreference is what the user picked.
type ThemePreference string

const (
	ThemeLight  ThemePreference = "light"
	ThemeDark   ThemePreference = "dark"
	ThemeSystem ThemePreference = "system"
)

// ParseThemePreference accepts light, dark or system (any case).
func ParseThemePreference(s string) (ThemePreference, error) {
	switch p := ThemePreference(strings.ToLower(strings.TrimSpace(s))); p {
	case ThemeLight, ThemeDark, ThemeSystem:
		return p, nil
	}
	return "", fmt.Errorf("unknown theme %q (want light, dark or system)", s)
}

// SystemThemeFunc reports the platform's light/dark setting.
type SystemThemeFunc func() ThemePreference

// EnvSystemTheme reads COLORFGBG (set by many terminals as "fg;bg"). A
// background colour index of 0-6 or 8 means a dark terminal. Anything else
// is light.
func EnvSystemTheme() ThemePreference {
	v := os.Getenv("COLORFGBG")
	if i := strings.LastIndex(v, ";"); i >= 0 {
		switch v[i+1:] {
		case "0", "1", "2", "3", "4", "5", "6", "8":
			return ThemeDark
		}
	}
	return ThemeLight
}

// Theme holds the theme preference and the theme it resolves to.
//
//	preference: light | dark | system   (persisted)
//	resolved:   light | dark            (system → SystemThemeFunc)
type Theme struct {
	preference *signal.Signal[ThemePreference]
	resolved   *signal.Computed[ThemePreference]

	store  repository.KeyValueStore
	logger *slog.Logger
}

// NewTheme reads the stored preference; missing or unknown values mean
// system. system may be nil, in which case EnvSystemTheme is used.
func NewTheme(ctx context.Context, store repository.KeyValueStore, system SystemThemeFunc, logger *slog.Logger) (*Theme, error) {
	if system == nil {
		system = EnvSystemTheme
	}

	initial := ThemeSystem
	raw, found, err := store.Get(ctx, repository.KeyThemePreference)
	if err != nil {
		return nil, fmt.Errorf("loading theme preference: %w", err)
	}
	if found {
		if p, err := ParseThemePreference(raw); err == nil {
			initial = p
		} else {
			logger.Warn("ignoring stored theme", slog.String("value", raw))
		}
	}

	t := &Theme{
		preference: signal.New(initial),
		store:      store,
		logger:     logger,
	}
	t.resolved = signal.Derive(func() ThemePreference {
		if p := t.preference.Get(); p != ThemeSystem {
			return p
		}
		return system()
	}, t.preference)
	return t, nil
}

func (t *Theme) Preference() signal.Readable[ThemePreference] { return t.preference }

// Resolved is the theme actually in effect: never system.
func (t *Theme) Resolved() ThemePreference { return t.resolved.Get() }

// Set changes and persists the preference. A failed write is logged; the
// in-memory choice still applies.
func (t *Theme) Set(ctx context.Context, p ThemePreference) {
	t.preference.Set(p)
	if err := t.store.Set(ctx, repository.KeyThemePreference, string(p)); err != nil {
		t.logger.Warn("persisting theme preference", slog.String("error", err.Error()))
	}
}

// Toggle flips between light and dark based on what is currently shown, so
// toggling from system pins the opposite of the system theme.
func (t *Theme) Toggle(ctx context.Context) ThemePreference {
	next := ThemeDark
	if t.Resolved() == ThemeDark {
		next = ThemeLight
	}
	t.Set(ctx, next)
	return next
}
