package main

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/pollux-labs/garuda/adapters/events"
	"github.com/pollux-labs/garuda/adapters/ledger"
	"github.com/pollux-labs/garuda/adapters/signer"
	"github.com/pollux-labs/garuda/adapters/sponsor"
	"github.com/pollux-labs/garuda/adapters/store"
	"github.com/pollux-labs/garuda/core"
	"github.com/pollux-labs/garuda/ports"
	"github.com/pollux-labs/garuda/service"
	"github.com/pollux-labs/garuda/transport/http"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("GARUDA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("listen", ":9000")
	viper.SetDefault("network", "testnet")
	viper.SetDefault("chain_id", 2)
	viper.SetDefault("ledger.url", "http://localhost:8080")
	viper.SetDefault("sponsor.url", "http://localhost:8090")
	viper.SetDefault("signer.mode", "local")
	viper.SetDefault("gas.max_amount", 20000)
	viper.SetDefault("gas.unit_price", 100)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logger.Fatal().Err(err).Msg("failed to read config")
		}
	}

	// Redis is optional: without it the service falls back to in-process
	// idempotency and event delivery, which is fine for a single instance.
	var (
		idempotencyStore ports.Store
		publisher        message.Publisher
	)
	if redisURL := viper.GetString("redis.url"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to parse Redis URL")
		}
		redisClient := redis.NewClient(opts)

		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create Redis publisher")
		}

		idempotencyStore = store.NewRedisStore(redisClient)
	} else {
		publisher = gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
		idempotencyStore = store.NewMemoryStore()
	}

	boundSigner, err := buildSigner()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure signer")
	}

	ledgerClient := ledger.NewClient(viper.GetString("ledger.url"), nil)
	sponsorClient := sponsor.NewClient(viper.GetString("sponsor.url"), viper.GetString("network"), nil)
	eventPub := events.NewWatermillPublisher(publisher)

	txService := service.NewTxService(
		ledgerClient,
		sponsorClient,
		boundSigner,
		eventPub,
		uint8(viper.GetUint("chain_id")),
		logger,
	)
	txService.SetGasParameters(viper.GetUint64("gas.max_amount"), viper.GetUint64("gas.unit_price"))

	router := http.SetupRouter(txService, idempotencyStore, logger)

	listen := viper.GetString("listen")
	logger.Info().Str("listen", listen).Str("network", viper.GetString("network")).Msg("starting garuda")
	if err := router.Run(listen); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

// buildSigner binds the signer capability selected by configuration: a
// local ed25519 key, or a remote custodial signing service.
func buildSigner() (ports.Signer, error) {
	switch mode := viper.GetString("signer.mode"); mode {
	case "local":
		seed, err := hexutil.Decode(viper.GetString("signer.private_key"))
		if err != nil {
			return nil, err
		}
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("signer.private_key must be a %d-byte seed", ed25519.SeedSize)
		}
		return signer.NewLocalKeySigner(ed25519.NewKeyFromSeed(seed))

	case "remote":
		address, err := core.ParseAddress(viper.GetString("signer.address"))
		if err != nil {
			return nil, err
		}
		return signer.NewRemoteSigner(
			viper.GetString("signer.url"),
			viper.GetString("signer.api_secret"),
			address,
			viper.GetString("signer.public_key"),
			nil,
		), nil

	default:
		return nil, core.ErrSignerUnavailable
	}
}
