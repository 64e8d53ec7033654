package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/stake-plus/middlefinger/src/config"
	"github.com/stake-plus/middlefinger/src/contract"
	"github.com/stake-plus/middlefinger/src/data"
	"github.com/stake-plus/middlefinger/src/feed"
	"github.com/stake-plus/middlefinger/src/logging"
	"github.com/stake-plus/middlefinger/src/notify"
	"github.com/stake-plus/middlefinger/src/view"
	"github.com/stake-plus/middlefinger/src/wallet"
	"github.com/stake-plus/middlefinger/src/webclient"
	"github.com/stake-plus/middlefinger/src/webserver"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	// Settings stored in MySQL override the environment.
	if cfg.MySQLDSN != "" {
		db, err := data.ConnectMySQL(cfg.MySQLDSN, data.WithDSNParam("timeout", cfg.Timeout.String()))
		if err != nil {
			log.Fatal().Err(err).Msg("mysql")
		}
		if err := db.AutoMigrate(&data.Setting{}); err != nil {
			log.Fatal().Err(err).Msg("migrate settings")
		}
		if err := data.LoadSettings(db); err != nil {
			log.Fatal().Err(err).Msg("load settings")
		}
		if cfg, err = config.Load(); err != nil {
			log.Fatal().Err(err).Msg("config")
		}
		logging.Setup(cfg.LogLevel, cfg.LogPretty)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = log.Logger.WithContext(ctx)

	session := wallet.NewSession(dialWallet(ctx, cfg))

	chain, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.RPCURL).Msg("dial chain rpc")
	}
	defer chain.Close()

	newGateway := func(s *wallet.Session) (feed.Gateway, error) {
		gw, err := contract.NewGateway(cfg.ContractAddress, chain, s, contract.WithGasLimit(cfg.GasLimit))
		if err != nil {
			return nil, err
		}
		return feed.FromContract(gw), nil
	}

	opts := []feed.Option{}
	if fanout := notifications(ctx, cfg); fanout.Len() > 0 {
		opts = append(opts, feed.WithSubmissionHook(fanout.Hook))
	}
	ctrl := feed.NewController(session, newGateway, opts...)

	renderer, err := view.New(time.Local)
	if err != nil {
		log.Fatal().Err(err).Msg("view")
	}

	httpSrv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     webserver.New(ctx, cfg, ctrl, renderer),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go ctrl.Mount(ctx)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("contract", cfg.ContractAddress.Hex()).Msg("Middle Finger Giver listening")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctrl.Unmount()
	cancel()

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}

// dialWallet returns nil when no wallet is configured or reachable; the
// controller then shows the missing wallet notice.
func dialWallet(ctx context.Context, cfg config.Config) wallet.Provider {
	if cfg.WalletURL == "" {
		return nil
	}
	p, err := wallet.DialProvider(ctx, cfg.WalletURL, webclient.NewDefault(cfg.Timeout))
	if err != nil {
		log.Warn().Err(err).Str("url", cfg.WalletURL).Msg("wallet unavailable")
		return nil
	}
	return p
}

func notifications(ctx context.Context, cfg config.Config) *notify.Fanout {
	var sinks []notify.Sink
	if cfg.DiscordToken != "" && cfg.DiscordChannelID != "" {
		d, err := notify.NewDiscord(cfg.DiscordToken, cfg.DiscordChannelID)
		if err != nil {
			log.Warn().Err(err).Msg("discord notifications disabled")
		} else {
			sinks = append(sinks, d)
		}
	}
	if cfg.RedisURL != "" {
		rdb, err := data.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis notifications disabled")
		} else {
			sinks = append(sinks, notify.NewRedis(rdb))
		}
	}
	return notify.NewFanout(cfg.Timeout, sinks...)
}
