// Command spvnode connects to a single Bitcoin full node, validates
// and persists its header chain, and tracks one wallet's balance from
// the blocks it downloads.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nyxchain/spvnode/metrics"
	"github.com/nyxchain/spvnode/node"
	"github.com/nyxchain/spvnode/peer"
	"github.com/nyxchain/spvnode/storage"
	"github.com/nyxchain/spvnode/wire"
)

var (
	cfgFile string
	logger  = logrus.New()
	log     *logrus.Entry
)

// Config is this node's runtime configuration, bound from flags, a
// TOML config file, and environment variables via viper.
type Config struct {
	NetworkMagic    uint32
	ProtocolVersion int32
	UserAgent       string
	Services        uint64
	PeerAddr        string
	DataDir         string
	LogLevel        int
	LogFile         string
	MetricsAddr     string
	WalletName      string
	WalletPubKey    string
	WalletPrivKey   string
}

var rootCmd = &cobra.Command{
	Use:   "spvnode",
	Short: "spvnode is a lightweight Bitcoin SPV node",
	Long:  "spvnode validates headers and tracks a wallet's balance against a single full node peer, without downloading the full chain.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := &Config{
			NetworkMagic:    uint32(viper.GetInt64("network-magic")),
			ProtocolVersion: int32(viper.GetInt("protocol-version")),
			UserAgent:       viper.GetString("user-agent"),
			Services:        uint64(viper.GetInt64("services")),
			PeerAddr:        viper.GetString("peer-addr"),
			DataDir:         viper.GetString("data-dir"),
			LogLevel:        viper.GetInt("log-level"),
			LogFile:         viper.GetString("log-file"),
			MetricsAddr:     viper.GetString("metrics-addr"),
			WalletName:      viper.GetString("wallet-name"),
			WalletPubKey:    viper.GetString("wallet-pubkey"),
			WalletPrivKey:   viper.GetString("wallet-privkey"),
		}

		log.WithField("config", fmt.Sprintf("%+v", cfg)).Debug("starting with configuration")

		if err := run(cfg); err != nil {
			log.WithError(err).Fatal("spvnode exited")
		}
	},
}

func run(cfg *Config) error {
	logger.SetLevel(logrus.Level(cfg.LogLevel))
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logger.SetOutput(f)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	store, err := storage.Open(filepath.Join(cfg.DataDir, "spvnode.db"))
	if err != nil {
		return fmt.Errorf("opening data directory: %w", err)
	}
	defer store.Close()

	state := node.New()
	node.Log = log

	if cfg.WalletPubKey != "" {
		w := node.NewWallet(cfg.WalletName, cfg.WalletPubKey, cfg.WalletPrivKey)
		state.SetWallet(w)
		if err := store.StoreWallet(w); err != nil {
			log.WithError(err).Warn("persisting configured wallet")
		}
	} else if wallets, err := store.LoadWallets(); err == nil && len(wallets) > 0 {
		state.SetWallet(wallets[0])
	}

	if headers, err := store.LoadHeaders(); err == nil {
		if err := state.AppendHeaders(headers); err != nil {
			log.WithError(err).Warn("ignoring corrupt persisted headers")
		}
	}
	metrics.ChainHeight.Set(float64(state.Height()))
	metrics.WalletBalance.Set(float64(state.GetBalance()))

	// Mirrors original_source/src/gui/balance.rs's WalletChanged
	// handler: on every wallet-state notification, re-read the
	// balance and republish it, here as a gauge instead of a label.
	go func() {
		for range state.Subscribe() {
			metrics.WalletBalance.Set(float64(state.GetBalance()))
		}
	}()

	go func() {
		if err := metrics.StartServer(cfg.MetricsAddr); err != nil {
			log.WithError(err).Error("metrics server exited")
		}
	}()

	conn, err := net.Dial("tcp", cfg.PeerAddr)
	if err != nil {
		return fmt.Errorf("dialing peer %s: %w", cfg.PeerAddr, err)
	}
	defer conn.Close()

	if err := handshake(conn, cfg); err != nil {
		return fmt.Errorf("handshaking with %s: %w", cfg.PeerAddr, err)
	}
	metrics.PeerConnections.Set(1)

	actions := make(chan peer.NodeAction, 64)
	consumer := peer.NewConsumer(state, log, store)
	loop := peer.NewStreamLoop(conn, cfg.NetworkMagic, cfg.ProtocolVersion, actions, log)

	go consumer.Run(instrumented(actions), loop)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-signals
		log.WithField("signal", s.String()).Info("shutting down")
		os.Exit(0)
	}()

	locator := state.Tip()
	if err := wire.SendMessage(conn, cfg.NetworkMagic, wire.NewGetHeaders(cfg.ProtocolVersion, locator)); err != nil {
		return fmt.Errorf("requesting initial headers: %w", err)
	}

	return loop.Run()
}

// instrumented wraps actions so every value that flows through also
// increments metrics.ActionsTotal before the consumer sees it.
func instrumented(actions chan peer.NodeAction) chan peer.NodeAction {
	out := make(chan peer.NodeAction, cap(actions))
	go func() {
		defer close(out)
		for a := range actions {
			metrics.ActionsTotal.WithLabelValues(actionKindLabel(a.Kind)).Inc()
			out <- a
		}
	}()
	return out
}

func actionKindLabel(k peer.ActionKind) string {
	switch k {
	case peer.ActionNewHeaders:
		return "new_headers"
	case peer.ActionGetHeadersError:
		return "get_headers_error"
	case peer.ActionBlock:
		return "block"
	case peer.ActionGetDataError:
		return "get_data_error"
	case peer.ActionWalletChanged:
		return "wallet_changed"
	default:
		return "unknown"
	}
}

func handshake(conn net.Conn, cfg *Config) error {
	version := wire.NewVersionMessage(cfg.ProtocolVersion, cfg.Services, cfg.UserAgent, 0)
	if err := wire.SendMessage(conn, cfg.NetworkMagic, version); err != nil {
		return err
	}

	for i := 0; i < 2; i++ {
		header, err := wire.ReadMessageHeader(conn)
		if err != nil {
			return err
		}
		switch header.Command {
		case "version":
			payload, err := wire.ReadPayload(conn, header)
			if err != nil {
				return err
			}
			if _, err := wire.ParseVersion(payload); err != nil {
				return err
			}
			if err := wire.SendMessage(conn, cfg.NetworkMagic, &wire.VerAckMessage{}); err != nil {
				return err
			}
		case "verack":
			if err := wire.DrainPayload(conn, header.PayloadLength); err != nil {
				return err
			}
		default:
			if err := wire.DrainPayload(conn, header.PayloadLength); err != nil {
				return err
			}
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./spvnode.toml)")
	rootCmd.Flags().Int64("network-magic", 0xd9b4bef9, "network magic bytes identifying the chain")
	rootCmd.Flags().Int("protocol-version", 70015, "protocol version advertised in the handshake")
	rootCmd.Flags().String("user-agent", "/spvnode:0.1.0/", "user agent string advertised in the handshake")
	rootCmd.Flags().Int64("services", 0, "services bitmask advertised in the handshake")
	rootCmd.Flags().String("peer-addr", "127.0.0.1:8333", "address of the full node peer to connect to")
	rootCmd.Flags().String("data-dir", "./data", "directory for the sqlite3 header and wallet database")
	rootCmd.Flags().Int("log-level", int(logrus.InfoLevel), "log level (logrus 0-6)")
	rootCmd.Flags().String("log-file", "", "log file to write to; empty means stderr")
	rootCmd.Flags().String("metrics-addr", "127.0.0.1:9100", "address to serve /metrics on")
	rootCmd.Flags().String("wallet-name", "default", "name of the wallet to track")
	rootCmd.Flags().String("wallet-pubkey", "", "hex-encoded public key of the wallet to track")
	rootCmd.Flags().String("wallet-privkey", "", "hex-encoded private key of the wallet to track")

	for _, name := range []string{
		"network-magic", "protocol-version", "user-agent", "services", "peer-addr",
		"data-dir", "log-level", "log-file", "metrics-addr",
		"wallet-name", "wallet-pubkey", "wallet-privkey",
	} {
		viper.BindPFlag(name, rootCmd.Flags().Lookup(name))
	}

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:          true,
		DisableLevelTruncation: true,
	})
	log = logger.WithFields(logrus.Fields{"app": "spvnode"})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("spvnode")
		viper.SetConfigType("toml")
	}

	replacer := strings.NewReplacer("-", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.WithField("file", viper.ConfigFileUsed()).Info("using config file")
	}
}
