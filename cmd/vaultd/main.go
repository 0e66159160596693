package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vaultd/config"
	"vaultd/crypto"
	"vaultd/native/stake"
	"vaultd/native/vault"
	"vaultd/observability/logging"
	"vaultd/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	metricsAddr := flag.String("metrics", ":9464", "Listen address for the metrics endpoint")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("VAULTD_ENV"))
	logger := logging.Setup("vaultd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	configurer, err := resolveConfigurer(cfg.Configurer)
	if err != nil {
		logger.Error("Failed to resolve configurer address", slog.Any("error", err))
		os.Exit(1)
	}

	state := storage.NewMemoryState()

	vaultEngine := vault.NewEngine(
		crypto.ModuleAddress("vault"),
		configurer,
		vault.Asset(cfg.ReferenceAsset),
		vault.Asset(cfg.WrappedNativeAsset),
	)
	vaultEngine.SetState(state)
	vaultEngine.SetPauses(cfg.Pauses)
	oracle := vault.NewOracleAdapter(time.Duration(cfg.OracleMaxAgeSeconds) * time.Second)
	vaultEngine.SetOracle(oracle)
	if err := vaultEngine.SetFeeRate(configurer, cfg.FeeRateBps); err != nil {
		logger.Error("Failed to apply flash-loan fee rate", slog.Any("error", err))
		os.Exit(1)
	}

	maxReward, err := cfg.MaxReward()
	if err != nil {
		logger.Error("Failed to parse max reward", slog.Any("error", err))
		os.Exit(1)
	}
	flashFee, err := cfg.StakeFlashFee()
	if err != nil {
		logger.Error("Failed to parse stake flash-loan fee", slog.Any("error", err))
		os.Exit(1)
	}
	stakeEngine, err := stake.NewEngine(crypto.ModuleAddress("stake"), stake.Params{
		MinLockSeconds: cfg.MinLockSeconds,
		MaxLockSeconds: cfg.MaxLockSeconds,
		MaxReward:      maxReward,
		FlashLoanFee:   flashFee,
	})
	if err != nil {
		logger.Error("Failed to construct stake engine", slog.Any("error", err))
		os.Exit(1)
	}
	stakeEngine.SetState(state)
	stakeEngine.SetPauses(cfg.Pauses)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("Metrics endpoint listening", slog.String("addr", *metricsAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics endpoint failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	logger.Info("Vault ledger ready",
		slog.String("reference_asset", cfg.ReferenceAsset),
		slog.String("vault_module", vaultEngine.ModuleAddress().String()),
		slog.String("configurer", configurer.String()),
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")
	_ = server.Close()
}

// resolveConfigurer decodes the configured administrative address, falling
// back to a module-derived treasury address when the config leaves it unset.
func resolveConfigurer(raw string) (crypto.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return crypto.ModuleAddress("vault/configurer"), nil
	}
	return crypto.DecodeAddress(trimmed)
}
