package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/BioSummitBR/eventbot/internal/api"
	"github.com/BioSummitBR/eventbot/internal/email"
	"github.com/BioSummitBR/eventbot/internal/engine"
	"github.com/BioSummitBR/eventbot/internal/genai"
	"github.com/BioSummitBR/eventbot/internal/lockfile"
	"github.com/BioSummitBR/eventbot/internal/messaging"
	"github.com/BioSummitBR/eventbot/internal/promptctx"
	"github.com/BioSummitBR/eventbot/internal/registration"
	"github.com/BioSummitBR/eventbot/internal/session"
	"github.com/BioSummitBR/eventbot/internal/store"
	"github.com/BioSummitBR/eventbot/internal/twiliowhatsapp"
	"github.com/BioSummitBR/eventbot/internal/util"
	"github.com/BioSummitBR/eventbot/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for eventbot state data
	DefaultStateDir = "/var/lib/eventbot"
	// DefaultAppDBFileName is the default SQLite database filename for
	// participants and sessions
	DefaultAppDBFileName = "eventbot.db"
	// DefaultWhatsAppDBFileName is the default SQLite database filename for
	// the Whatsmeow device store
	DefaultWhatsAppDBFileName = "whatsmeow.db"
)

// Messaging channel names accepted by BOT_CHANNEL / -channel.
const (
	channelWhatsApp = "whatsapp"
	channelTwilio   = "twilio"
	channelNone     = "none"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Two instances sharing the same state directory corrupt the SQLite
	// databases; refuse to start while another instance holds the lock.
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping eventbot with configured modules")
	if err := run(ctx, config, flags); err != nil {
		slog.Error("eventbot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("eventbot exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir         string
	ApplicationDBDSN string
	WhatsAppDBDSN    string
	OpenAIKey        string
	OpenAIModel      string
	APIAddr          string
	APIKey           string
	Channel          string
	MockEventData    bool
	MaxStoredTurns   int
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	SMTPFrom         string
}

// Flags holds command line flag values
type Flags struct {
	qrOutput      *string
	numeric       *bool
	stateDir      *string
	appDBDSN      *string
	whatsappDBDSN *string
	openaiKey     *string
	apiAddr       *string
	channel       *string
}

// initializeLogger sets up structured logging. EVENTBOT_DEBUG enables debug
// level output.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("EVENTBOT_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:         os.Getenv("EVENTBOT_STATE_DIR"),
		ApplicationDBDSN: os.Getenv("DATABASE_URL"),
		WhatsAppDBDSN:    os.Getenv("WHATSAPP_DB_DSN"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      os.Getenv("OPENAI_MODEL"),
		APIAddr:          os.Getenv("API_ADDR"),
		APIKey:           os.Getenv("BOT_API_KEY"),
		Channel:          util.GetEnvOrDefault("BOT_CHANNEL", channelNone),
		MockEventData:    util.ParseBoolEnv("BIOSUMMIT_MOCK_EVENT_DATA", false),
		MaxStoredTurns:   util.ParseIntEnv("MAX_STORED_TURNS", 0),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         util.ParseIntEnv("SMTP_PORT", 0),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:         os.Getenv("SMTP_FROM"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No EVENTBOT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no application database is provided, default to SQLite in the
	// state directory.
	if config.ApplicationDBDSN == "" {
		config.ApplicationDBDSN = filepath.Join(config.StateDir, DefaultAppDBFileName)
		slog.Debug("No DATABASE_URL provided, defaulting to SQLite", "sqlite_path", config.ApplicationDBDSN)
	}

	// The Whatsmeow device store defaults to its own SQLite file so a
	// Postgres application DSN does not silently absorb device state.
	if config.WhatsAppDBDSN == "" {
		config.WhatsAppDBDSN = filepath.Join(config.StateDir, DefaultWhatsAppDBFileName)
		slog.Debug("No WHATSAPP_DB_DSN provided, defaulting to SQLite", "sqlite_path", config.WhatsAppDBDSN)
	}

	slog.Debug("environment variables loaded",
		"EVENTBOT_STATE_DIR", config.StateDir,
		"DATABASE_URL_SET", config.ApplicationDBDSN != "",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDBDSN != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPENAI_MODEL", config.OpenAIModel,
		"API_ADDR", config.APIAddr,
		"BOT_API_KEY_SET", config.APIKey != "",
		"BOT_CHANNEL", config.Channel,
		"BIOSUMMIT_MOCK_EVENT_DATA", config.MockEventData,
		"SMTP_HOST_SET", config.SMTPHost != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		qrOutput:      flag.String("qr-output", "", "path to write login QR code"),
		numeric:       flag.Bool("numeric-code", false, "use numeric login code instead of QR code"),
		stateDir:      flag.String("state-dir", config.StateDir, "state directory for eventbot data (overrides $EVENTBOT_STATE_DIR)"),
		appDBDSN:      flag.String("db-dsn", config.ApplicationDBDSN, "database DSN for participants and sessions (overrides $DATABASE_URL)"),
		whatsappDBDSN: flag.String("whatsapp-db-dsn", config.WhatsAppDBDSN, "database DSN for the Whatsmeow device store (overrides $WHATSAPP_DB_DSN)"),
		openaiKey:     flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		channel:       flag.String("channel", config.Channel, "messaging channel: whatsapp, twilio or none (overrides $BOT_CHANNEL)"),
	}

	flag.Parse()

	// Re-derive default DSNs when the state directory changed on the
	// command line but the DSNs did not.
	if *flags.appDBDSN == config.ApplicationDBDSN && config.ApplicationDBDSN == filepath.Join(config.StateDir, DefaultAppDBFileName) && *flags.stateDir != config.StateDir {
		*flags.appDBDSN = filepath.Join(*flags.stateDir, DefaultAppDBFileName)
	}
	if *flags.whatsappDBDSN == config.WhatsAppDBDSN && config.WhatsAppDBDSN == filepath.Join(config.StateDir, DefaultWhatsAppDBFileName) && *flags.stateDir != config.StateDir {
		*flags.whatsappDBDSN = filepath.Join(*flags.stateDir, DefaultWhatsAppDBFileName)
	}

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"appDBDSN_set", *flags.appDBDSN != "",
		"whatsappDBDSN_set", *flags.whatsappDBDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"channel", *flags.channel)

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	for _, dsn := range []string{*flags.appDBDSN, *flags.whatsappDBDSN} {
		if dsn == "" || store.DetectDSNType(dsn) == "postgres" {
			continue
		}
		dir := filepath.Dir(strings.TrimPrefix(dsn, "file:"))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// buildStore opens the participant and session store for the configured DSN.
func buildStore(flags Flags) (store.Store, error) {
	dsn := *flags.appDBDSN
	if dsn == "" {
		slog.Debug("No database DSN provided, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(store.WithDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
	return store.NewSQLiteStore(store.WithDSN(dsn))
}

// buildEmailSender constructs the confirmation email sender. Without an SMTP
// host configured, confirmations go to the log.
func buildEmailSender(config Config) email.Sender {
	var opts []email.Option
	if config.SMTPHost != "" {
		opts = append(opts, email.WithHost(config.SMTPHost))
	}
	if config.SMTPPort != 0 {
		opts = append(opts, email.WithPort(config.SMTPPort))
	}
	if config.SMTPUsername != "" || config.SMTPPassword != "" {
		opts = append(opts, email.WithCredentials(config.SMTPUsername, config.SMTPPassword))
	}
	if config.SMTPFrom != "" {
		opts = append(opts, email.WithFrom(config.SMTPFrom))
	}
	return email.NewSender(opts...)
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(config Config, flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if config.OpenAIModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(config.OpenAIModel))
	}
	return genaiOpts
}

// buildWhatsAppOptions constructs WhatsApp configuration options
func buildWhatsAppOptions(flags Flags) []whatsapp.Option {
	var waOpts []whatsapp.Option
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}
	if *flags.whatsappDBDSN != "" {
		waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.whatsappDBDSN))
	}
	return waOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(config Config, flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if config.APIKey != "" {
		apiOpts = append(apiOpts, api.WithAPIKey(config.APIKey))
	}
	return apiOpts
}

// buildMessagingService selects and constructs the outbound/inbound channel.
// A nil service means API-only operation.
func buildMessagingService(flags Flags) (messaging.Service, error) {
	switch *flags.channel {
	case channelWhatsApp:
		waClient, err := whatsapp.NewClient(buildWhatsAppOptions(flags)...)
		if err != nil {
			return nil, err
		}
		return messaging.NewWhatsAppService(waClient), nil
	case channelTwilio:
		twilioClient, err := twiliowhatsapp.NewClient()
		if err != nil {
			return nil, err
		}
		return messaging.NewTwilioService(twilioClient), nil
	default:
		slog.Info("No messaging channel configured, running API-only")
		return nil, nil
	}
}

// run wires the full stack and serves until the context is cancelled.
func run(ctx context.Context, config Config, flags Flags) error {
	st, err := buildStore(flags)
	if err != nil {
		return err
	}
	defer st.Close()

	model, err := genai.NewClient(buildGenAIOptions(config, flags)...)
	if err != nil {
		return err
	}

	prompts := promptctx.NewManager(
		promptctx.NewBasePromptProvider(""),
		promptctx.NewEventInfoProvider(config.MockEventData),
		promptctx.NewRegistrationProvider(),
		promptctx.NewAmigoProvider(),
	)

	flow := registration.NewManager(st, buildEmailSender(config))
	sessions := session.NewStoreManager(st, config.MaxStoredTurns)
	eng := engine.New(sessions, flow, prompts, model)

	server := api.NewServer(eng, st, buildAPIOptions(config, flags)...)

	service, err := buildMessagingService(flags)
	if err != nil {
		return err
	}
	if service != nil {
		if twilioService, ok := service.(*messaging.TwilioService); ok {
			server.RegisterTwilioWebhook(twilioService.TwilioWebhookHandler)
		}
		if err := service.Start(ctx); err != nil {
			return err
		}
		defer service.Stop()

		responder := messaging.NewResponder(service, eng, nil)
		go responder.Run(ctx)
	}

	return server.Run(ctx)
}
