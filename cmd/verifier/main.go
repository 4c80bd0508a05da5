package main

import (
	"log/slog"
	"os"

	"github.com/gradelab/circuit-integrity/go-verifier/internal/relay"
	"github.com/gradelab/circuit-integrity/go-verifier/internal/store"
)

// #region main
func main() {
	addr := envOr("VERIFIER_ADDR", ":8090")
	dbPath := envOr("VERIFIER_DB", "circuit_verifier.db")
	policyDir := envOr("VERIFIER_POLICIES", "policies")
	staticDir := os.Getenv("VERIFIER_STATIC")

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var st *store.Store
	if dbPath != "none" {
		var err error
		st, err = store.NewStore(dbPath)
		if err != nil {
			log.Error("open store", "path", dbPath, "err", err)
			os.Exit(1)
		}
		defer st.Close()
	}

	srv := relay.NewServer(log, st, relay.Config{
		PolicyDir: policyDir,
		StaticDir: staticDir,
	})

	log.Info("verifier relay listening", "addr", addr, "db", dbPath, "policies", policyDir)
	if err := srv.Router().Run(addr); err != nil {
		log.Error("serve", "err", err)
		os.Exit(1)
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
