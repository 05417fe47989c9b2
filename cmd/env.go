package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/meridian-bio/triage-cli/internal/landscape"
	"github.com/meridian-bio/triage-cli/internal/resilience"
	"github.com/meridian-bio/triage-cli/internal/safety"
	"github.com/meridian-bio/triage-cli/internal/store"
	"github.com/meridian-bio/triage-cli/internal/triage"
	"github.com/meridian-bio/triage-cli/pkg/chembl"
	"github.com/meridian-bio/triage-cli/pkg/ctgov"
	"github.com/meridian-bio/triage-cli/pkg/europepmc"
	"github.com/meridian-bio/triage-cli/pkg/opentargets"
)

// triageEnv holds the initialized store and orchestrator shared by the
// triage/batch/serve commands.
type triageEnv struct {
	Store        store.Store
	Orchestrator *triage.Orchestrator
}

// Close releases resources held by the environment.
func (env *triageEnv) Close() {
	if env.Store != nil {
		_ = env.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "triage.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv sets up the store, the four provider clients and the
// orchestrator. Callers should defer env.Close().
func initEnv(ctx context.Context) (*triageEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	targetsClient := opentargets.NewClient(opentargets.WithBaseURL(cfg.OpenTargets.BaseURL))
	chemblClient := chembl.NewClient(chembl.WithBaseURL(cfg.ChEMBL.BaseURL))
	pmcClient := europepmc.NewClient(
		europepmc.WithBaseURL(cfg.EuropePMC.BaseURL),
		europepmc.WithRateLimit(cfg.EuropePMC.RequestsPerSec),
		europepmc.WithMaxRetries(cfg.EuropePMC.MaxRetries),
	)
	ctgovClient := ctgov.NewClient(
		ctgov.WithBaseURL(cfg.CTGov.BaseURL),
		ctgov.WithPageSize(cfg.CTGov.PageSize),
	)

	investigator := safety.NewInvestigator(targetsClient, pmcClient, chemblClient, cfg.Triage.MaxLiteratureHits)
	analyzer := landscape.NewAnalyzer(ctgovClient)

	orch := triage.NewOrchestrator(targetsClient, investigator, analyzer, st, triage.Options{
		GeneTimeout: time.Duration(cfg.Triage.GeneTimeoutSecs) * time.Second,
		TopTargets:  cfg.Triage.TopTargets,
		Retry:       resilience.DefaultRetryConfig(),
	})

	return &triageEnv{
		Store:        st,
		Orchestrator: orch,
	}, nil
}
