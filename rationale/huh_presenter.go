package rationale

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/huh"
)

// HuhPresenter shows the rationale as a terminal confirm dialog.
type HuhPresenter struct {
	Title       string
	Affirmative string
	Negative    string
}

// NewHuhPresenter creates a presenter with the default button labels.
func NewHuhPresenter() *HuhPresenter {
	return &HuhPresenter{
		Title:       "Permission required",
		Affirmative: "Open settings",
		Negative:    "Cancel",
	}
}

// Present implements Presenter.
func (p *HuhPresenter) Present(ctx context.Context, message string) (bool, error) {
	var open bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(p.Title).
				Description(message).
				Affirmative(p.Affirmative).
				Negative(p.Negative).
				Value(&open),
		),
	).RunWithContext(ctx)
	if err != nil {
		return false, err
	}
	return open, nil
}

// LogOpener is a SettingsOpener for hosts without a settings screen; it logs the link.
func LogOpener(logger *slog.Logger) SettingsOpener {
	if logger == nil {
		logger = slog.Default()
	}
	return SettingsOpenerFunc(func(ctx context.Context, uri string) error {
		logger.InfoContext(ctx, "open application settings", "uri", uri)
		return nil
	})
}
