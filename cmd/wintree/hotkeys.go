package main

import (
	"log/slog"

	"github.com/1broseidon/wintree/internal/tree"
)

// hotkeyActions returns the loop callbacks for the actions named in
// config.HotkeyActions.
func hotkeyActions(logger *slog.Logger) map[string]tree.Callback {
	setAll := func(visible bool) tree.Callback {
		return func(ctx *tree.Context) error {
			n := 0
			for _, idx := range ctx.Tx.Roots() {
				w, ok := ctx.Tx.Window(idx)
				if !ok || w.IsVisible() == visible {
					continue
				}
				w.SetVisible(visible)
				n++
			}
			logger.Debug("hotkey changed visibility", "visible", visible, "windows", n)
			return nil
		}
	}
	return map[string]tree.Callback{
		"show_all": setAll(true),
		"hide_all": setAll(false),
		"quit": func(ctx *tree.Context) error {
			logger.Info("quit requested by hotkey")
			ctx.Emit.Exit()
			return nil
		},
	}
}
