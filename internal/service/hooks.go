package service

import (
	"github.com/cadre-oss/brains/internal/config"
	"github.com/cadre-oss/brains/internal/event"
	"github.com/cadre-oss/brains/internal/telemetry"
)

// registerHooks attaches the configured lifecycle hooks to bus.
func registerHooks(bus *event.Bus, cfg config.HooksConfig, logger *telemetry.Logger) {
	if !cfg.Enabled {
		return
	}
	for _, h := range cfg.Hooks {
		events := make([]event.EventType, 0, len(h.Events))
		for _, e := range h.Events {
			events = append(events, event.EventType(e))
		}
		if len(events) == 0 {
			events = nil
		}

		switch h.Type {
		case "webhook":
			bus.Register(event.NewWebhookHook(h.Name, h.URL, events, h.Blocking))
		case "log":
			bus.Register(event.NewLogHook(h.Name, events, logger, h.Level))
		default:
			logger.Warn("Skipping hook with unknown type", "hook", h.Name, "type", h.Type)
			continue
		}
		logger.Debug("Registered hook", "hook", h.Name, "type", h.Type, "events", len(events))
	}
}
