package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	domcfdi "github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/catalog"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/cfdi"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/mail"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/metrics"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/pac"
	infrapdf "github.com/jhoicas/cfdi-api/internal/infrastructure/pdf"
	"github.com/jhoicas/cfdi-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/cfdi-api/internal/interfaces/http"
	"github.com/jhoicas/cfdi-api/pkg/config"
	"github.com/jhoicas/cfdi-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("emisor", cfg.CFDI.IssuerRFC).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	docRepo := postgres.NewDocumentRepository(pool)
	receiverRepo := postgres.NewReceiverRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Catálogos del SAT: sin archivos se valida solo contra las tablas embebidas.
	cat, err := catalog.Load(cfg.Catalog.ProductsCSV, cfg.Catalog.TablesYAML)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar catálogos del SAT")
	}
	log.Info().Int("productos", cat.Len()).Msg("catálogo cargado")
	validator := domcfdi.NewCatalogValidator(cat)

	issuer := cfdi.Issuer{
		RFC:        cfg.CFDI.IssuerRFC,
		Name:       cfg.CFDI.IssuerName,
		Regime:     cfg.CFDI.IssuerRegime,
		PostalCode: cfg.CFDI.IssuerPostalCode,
	}
	builderOpts := []cfdi.Option{
		cfdi.WithLogger(log.Component("builder")),
		cfdi.WithDefaultPostalCode(cfg.CFDI.DefaultPostalCode),
		cfdi.WithDefaultVersion(cfg.CFDI.CartaPorteVersion),
	}
	cartaPorteBuilder := cfdi.NewCartaPorteBuilder(issuer, validator, builderOpts...)
	creditNoteBuilder := cfdi.NewCreditNoteBuilder(issuer, validator, builderOpts...)

	m := metrics.New()

	// PAC: sin URL de timbrado todo queda PENDIENTE_TIMBRADO.
	soapClient := pac.NewSOAPClient(pac.Config{
		StampURL:  cfg.PAC.StampURL,
		CancelURL: cfg.PAC.CancelURL,
		Username:  cfg.PAC.Username,
		Password:  cfg.PAC.Password,
		Timeout:   cfg.PAC.Timeout,
	}, m, log.Zerolog())
	stamper := pac.NewRetryingStamper(soapClient, log.Zerolog(),
		pac.WithAttempts(cfg.PAC.StampAttempts),
		pac.WithDelay(cfg.PAC.StampDelay),
		pac.WithMetrics(m),
	)
	if cfg.PAC.StampURL == "" {
		log.Warn().Msg("PAC_STAMP_URL vacío: los comprobantes se guardarán sin timbrar")
	}

	formats, err := mail.NewFormatStore(cfg.Mail.FormatPath)
	if err != nil {
		log.Fatal().Err(err).Msg("formato de correo")
	}
	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	issueUC := billing.NewIssueUseCase(
		cartaPorteBuilder, creditNoteBuilder, stamper,
		txRunner, docRepo, receiverRepo,
		cfg.CFDI.IssuerRFC, m, log.Zerolog(),
	)
	cancelUC := billing.NewCancelUseCase(docRepo, stamper, cfg.CFDI.IssuerRFC, log.Zerolog())
	documentUC := billing.NewDocumentUseCase(
		docRepo, cfdi.NewParser(log.Component("parser")),
		infrapdf.NewMarotoPDFGenerator(), mailer, formats,
		cfg.CFDI.IssuerName, log.Zerolog(),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.HTTP.BodyLimit,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // timbrado con reintentos
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "CFDI Carta Porte API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Issue:     issueUC,
		Cancel:    cancelUC,
		Documents: documentUC,
		JWTSecret: cfg.JWT.Secret,
		Log:       log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
