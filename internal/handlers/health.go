package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"foliowatch/backend-go/internal/models"
)

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := []string{}
	missing := []string{}
	depsStatus := map[string]models.DepStatus{}
	if err := a.analysis.Health(ctx); err != nil {
		missing = append(missing, "analysis_unreachable")
		depsStatus["analysis"] = models.DepStatus{Ok: false, Error: err.Error()}
	} else {
		deps = append(deps, "analysis")
		depsStatus["analysis"] = models.DepStatus{Ok: true}
	}

	resp := models.HealthResponse{
		Ok:          len(missing) == 0,
		TsISO:       nowISO(),
		Service:     "backend-go",
		Version:     os.Getenv("SERVICE_VERSION"),
		Deps:        deps,
		DepsStatus:  depsStatus,
		DataMissing: missing,
		Env: map[string]bool{
			"ANALYSIS_BASE_URL":    os.Getenv("ANALYSIS_BASE_URL") != "",
			"MARKET_DATA_BASE_URL": os.Getenv("MARKET_DATA_BASE_URL") != "",
			"REDIS_URL":            os.Getenv("REDIS_URL") != "",
		},
	}
	writeJSON(w, http.StatusOK, resp)
}
