package api

import (
	"encoding/json"
	"net/http"
	"time"

	"skyplan/internal/buildinfo"
)

func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"sessions": map[string]any{
			"live": s.Sessions.Live(),
			"max":  s.Config.MaxSessions,
		},
		"config": map[string]any{
			"PORT":             s.Config.Port,
			"RATE_RPS":         s.Config.RateRPS,
			"RATE_BURST":       s.Config.RateBurst,
			"LOG_LEVEL":        s.Config.LogLevel,
			"OPT_SEED":         s.Config.Seed,
			"HAS_DATABASE_URL": s.Config.DatabaseURL != "",
			"HAS_REDIS_URL":    s.Config.RedisURL != "",
		},
		"optimizer": s.Config.Optimizer,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}
