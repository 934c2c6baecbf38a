// Command api exposes the user authentication HTTP API.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/smtp"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/oklog/run"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/guardianauth/guardian/internal/entropy"
	"github.com/guardianauth/guardian/internal/loginapi"
	"github.com/guardianauth/guardian/internal/mail"
	"github.com/guardianauth/guardian/internal/messaging"
	"github.com/guardianauth/guardian/internal/oauth"
	"github.com/guardianauth/guardian/internal/oauthapi"
	"github.com/guardianauth/guardian/internal/otp"
	"github.com/guardianauth/guardian/internal/password"
	"github.com/guardianauth/guardian/internal/pg"
	"github.com/guardianauth/guardian/internal/refresh"
	"github.com/guardianauth/guardian/internal/session"
	"github.com/guardianauth/guardian/internal/signupapi"
	"github.com/guardianauth/guardian/internal/smsapi"
	"github.com/guardianauth/guardian/internal/token"
	"github.com/guardianauth/guardian/internal/tokenapi"
	"github.com/guardianauth/guardian/internal/twilio"
	"github.com/guardianauth/guardian/internal/webauthn"
	"github.com/guardianauth/guardian/internal/webauthnapi"
)

func main() {
	var err error

	var logger log.Logger
	{
		logger = log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	var configPath string
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	{
		fs.Bool("api.debug", false, "Enable debug logging")
		fs.String("api.http-addr", ":8080", "Address to listen on")
		fs.String("api.allowed-origins", "*", "Comma separated list of allowed origins")
		fs.String("pg.conn-string", "", "Postgres connection string")
		fs.String("redis.conn-string", "", "Redis connection string")
		fs.Int("password.min-length", 8, "Minimum password length")
		fs.Int("password.max-length", 1000, "Maximum password length")
		fs.Duration("otp.code-expiry", time.Minute, "Lifetime of a login code")
		fs.Duration("otp.sms-code-expiry", time.Minute*2, "Lifetime of an SMS login code")
		fs.Duration("refresh.expires-in", time.Hour*24*7, "Refresh token expiry time")
		fs.Duration("token.expires-in", time.Minute*15, "JWT token expiry time")
		fs.String("token.issuer", "guardian", "JWT token issuer")
		fs.String("token.secret", "", "JWT token secret")
		fs.String("webauthn.display-name", "Guardian", "WebAuthn display name")
		fs.String("webauthn.domain", "guardian.local", "Public client domain")
		fs.String("webauthn.request-origin", "guardian.local", "Origin URL for client requests")
		fs.String("twilio.account-sid", "", "Account SID from Twilio")
		fs.String("twilio.token", "", "Authentication token for Twilio API")
		fs.String("twilio.sms-sender", "", "Origin phone number for outgoing SMS")
		fs.String("mail.server-addr", "", "Outgoing mail server")
		fs.String("mail.from-addr", "", "Origin email address for outgoing email")
		fs.String("mail.auth.username", "", "Username for mailing service")
		fs.String("mail.auth.password", "", "Password for mailing service")
		fs.String("mail.auth.hostname", "", "Hostname for mailing service")
		fs.String("oauth.google.client-id", "", "Google OAuth2 client ID")
		fs.String("oauth.google.client-secret", "", "Google OAuth2 client secret")
		fs.String("oauth.google.redirect-url", "", "Google OAuth2 redirect URL")
		fs.String("oauth.facebook.client-id", "", "Facebook OAuth2 client ID")
		fs.String("oauth.facebook.client-secret", "", "Facebook OAuth2 client secret")
		fs.String("oauth.facebook.redirect-url", "", "Facebook OAuth2 redirect URL")

		fs.StringVar(&configPath, "config", "", "Path to the config file")
		err = fs.Parse(os.Args[1:])
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		if err != nil {
			logger.Log("message", "failed to parse cli flags", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
	}

	if _, err = os.Stat(configPath); !os.IsNotExist(err) {
		viper.SetConfigFile(configPath)
		err = viper.ReadInConfig()
		if err != nil {
			logger.Log("message", "failed to load config file", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
	}
	if err = viper.BindPFlags(fs); err != nil {
		logger.Log("message", "failed to load cli flags", "error", err, "source", "cmd/api")
		os.Exit(1)
	}

	if viper.GetBool("api.debug") {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	passwordSvc := password.NewPassword(
		password.WithMinLength(viper.GetInt("password.min-length")),
		password.WithMaxLength(viper.GetInt("password.max-length")),
	)

	var pgDB *sql.DB
	{
		pgDB, err = sql.Open("postgres", viper.GetString("pg.conn-string"))
		if err != nil {
			logger.Log("message", "postgres connection failed", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
		if err = pgDB.Ping(); err != nil {
			logger.Log("message", "postgres did not respond", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
		defer func() {
			if err = pgDB.Close(); err != nil {
				logger.Log(
					"message", "failed to close postgres connection",
					"error", err,
					"source", "cmd/api",
				)
			}
		}()
	}

	var redisDB *redis.Client
	{
		redisConf, err := redis.ParseURL(viper.GetString("redis.conn-string"))
		if err != nil {
			logger.Log("message", "invalid redis configuration", "error", err, "source", "cmd/api")
			os.Exit(1)
		}
		redisDB = redis.NewClient(redisConf)
		closeRedis := func() {
			if err = redisDB.Close(); err != nil {
				logger.Log(
					"message", "failed to close redis connection",
					"error", err,
					"source", "cmd/api",
				)
			}
		}

		if _, err = redisDB.Ping(ctx).Result(); err != nil {
			logger.Log("message", "redis connection failed", "error", err, "source", "cmd/api")
			closeRedis()
			os.Exit(1)
		}
		defer closeRedis()
	}

	repoMngr := pg.NewClient(
		pg.WithLogger(logger),
		pg.WithEntropy(entropy.New()),
		pg.WithDB(pgDB),
	)

	otpSvc := otp.NewService(
		otp.WithLogger(logger),
		otp.WithRepoManager(repoMngr),
		otp.WithHasher(passwordSvc),
		otp.WithCodeExpiry(viper.GetDuration("otp.code-expiry")),
		otp.WithSMSCodeExpiry(viper.GetDuration("otp.sms-code-expiry")),
	)

	refreshSvc := refresh.NewService(
		refresh.WithLogger(logger),
		refresh.WithRepoManager(repoMngr),
		refresh.WithHasher(passwordSvc),
		refresh.WithTokenExpiry(viper.GetDuration("refresh.expires-in")),
	)

	sessionSvc := session.NewService(
		session.WithLogger(logger),
		session.WithRepoManager(repoMngr),
	)

	tokenSvc := token.NewService(
		token.WithLogger(logger),
		token.WithTokenExpiry(viper.GetDuration("token.expires-in")),
		token.WithIssuer(viper.GetString("token.issuer")),
		token.WithSecret(viper.GetString("token.secret")),
	)

	webauthnSvc, err := webauthn.NewService(
		webauthn.WithDB(redisDB),
		webauthn.WithDisplayName(viper.GetString("webauthn.display-name")),
		webauthn.WithDomain(viper.GetString("webauthn.domain")),
		webauthn.WithRequestOrigin(viper.GetString("webauthn.request-origin")),
		webauthn.WithRepoManager(repoMngr),
	)
	if err != nil {
		logger.Log("message", "failed to build webauthn service", "error", err, "source", "cmd/api")
		os.Exit(1)
	}

	oauthSvc := oauth.NewService(
		oauth.WithLogger(logger),
		oauth.WithRepoManager(repoMngr),
	)

	smsLib := twilio.NewClient(twilio.WithDefaults(
		viper.GetString("twilio.account-sid"),
		viper.GetString("twilio.token"),
		viper.GetString("twilio.sms-sender"),
	))

	emailLib := mail.NewService(mail.WithDefaults(
		viper.GetString("mail.server-addr"),
		viper.GetString("mail.from-addr"),
		smtp.PlainAuth(
			"",
			viper.GetString("mail.auth.username"),
			viper.GetString("mail.auth.password"),
			viper.GetString("mail.auth.hostname"),
		),
	))

	messagingSvc := messaging.NewService(
		messaging.WithLogger(logger),
		messaging.WithSMS(smsLib),
		messaging.WithEmail(emailLib),
	)

	signupAPI := signupapi.NewService(
		signupapi.WithLogger(logger),
		signupapi.WithRepoManager(repoMngr),
		signupapi.WithPassword(passwordSvc),
	)

	loginAPI := loginapi.NewService(
		loginapi.WithLogger(logger),
		loginapi.WithTokenService(tokenSvc),
		loginapi.WithRepoManager(repoMngr),
		loginapi.WithOTP(otpSvc),
		loginapi.WithPassword(passwordSvc),
		loginapi.WithRefresh(refreshSvc),
		loginapi.WithSession(sessionSvc),
		loginapi.WithMessaging(messagingSvc),
	)

	tokenAPI := tokenapi.NewService(
		tokenapi.WithLogger(logger),
		tokenapi.WithTokenService(tokenSvc),
		tokenapi.WithRepoManager(repoMngr),
		tokenapi.WithRefresh(refreshSvc),
		tokenapi.WithSession(sessionSvc),
	)

	smsAPI := smsapi.NewService(
		smsapi.WithLogger(logger),
		smsapi.WithTokenService(tokenSvc),
		smsapi.WithRepoManager(repoMngr),
		smsapi.WithOTP(otpSvc),
		smsapi.WithRefresh(refreshSvc),
		smsapi.WithSession(sessionSvc),
		smsapi.WithMessaging(messagingSvc),
	)

	webauthnAPI := webauthnapi.NewService(
		webauthnapi.WithLogger(logger),
		webauthnapi.WithTokenService(tokenSvc),
		webauthnapi.WithRepoManager(repoMngr),
		webauthnapi.WithWebAuthn(webauthnSvc),
		webauthnapi.WithRefresh(refreshSvc),
		webauthnapi.WithSession(sessionSvc),
	)

	oauthOptions := []oauthapi.ConfigOption{
		oauthapi.WithLogger(logger),
		oauthapi.WithTokenService(tokenSvc),
		oauthapi.WithOAuth(oauthSvc),
		oauthapi.WithRefresh(refreshSvc),
		oauthapi.WithSession(sessionSvc),
		oauthapi.WithRedis(redisDB),
	}
	if viper.GetString("oauth.google.client-id") != "" {
		oauthOptions = append(oauthOptions, oauthapi.WithGoogle(
			viper.GetString("oauth.google.client-id"),
			viper.GetString("oauth.google.client-secret"),
			viper.GetString("oauth.google.redirect-url"),
		))
	}
	if viper.GetString("oauth.facebook.client-id") != "" {
		oauthOptions = append(oauthOptions, oauthapi.WithFacebook(
			viper.GetString("oauth.facebook.client-id"),
			viper.GetString("oauth.facebook.client-secret"),
			viper.GetString("oauth.facebook.redirect-url"),
		))
	}
	oauthAPI := oauthapi.NewService(oauthOptions...)

	router := mux.NewRouter()
	router.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	signupapi.SetupHTTPHandler(signupAPI, router, logger)
	loginapi.SetupHTTPHandler(loginAPI, router, tokenSvc, logger)
	tokenapi.SetupHTTPHandler(tokenAPI, router, tokenSvc, logger)
	smsapi.SetupHTTPHandler(smsAPI, router, logger)
	webauthnapi.SetupHTTPHandler(webauthnAPI, router, logger)
	oauthapi.SetupHTTPHandler(oauthAPI, router, logger)

	server := http.Server{
		Addr: viper.GetString("api.http-addr"),
		Handler: handlers.CORS(
			handlers.AllowedOrigins(strings.Split(
				viper.GetString("api.allowed-origins"), ","),
			),
			handlers.AllowedHeaders([]string{
				"X-Requested-With",
				"Content-Type",
				"Authorization",
			}),
			handlers.AllowCredentials(),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "OPTIONS", "HEAD"}),
		)(router),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	var g run.Group
	{
		g.Add(func() error {
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			return fmt.Errorf("signal received: %v", <-sig)
		}, func(err error) {
			logger.Log("message", "program was interrupted", "error", err, "source", "cmd/api")
			cancel()
		})
	}
	{
		g.Add(func() error {
			logger.Log(
				"message", "API server is starting",
				"address", server.Addr,
				"source", "cmd/api",
			)
			return server.ListenAndServe()
		}, func(err error) {
			logger.Log(
				"message", "API server was interrupted",
				"error", err,
				"source", "cmd/api",
			)
			logger.Log(
				"message", "API server shut down",
				"error", server.Shutdown(ctx),
				"source", "cmd/api",
			)
		})
	}

	err = g.Run()
	logger.Log("message", "actors stopped", "error", err, "source", "cmd/api")
}
