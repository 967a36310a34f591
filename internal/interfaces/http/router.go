package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jhoicas/cfdi-api/internal/application/billing"
	"github.com/jhoicas/cfdi-api/internal/application/dto"
	"github.com/jhoicas/cfdi-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Issue     *billing.IssueUseCase
	Cancel    *billing.CancelUseCase
	Documents *billing.DocumentUseCase
	JWTSecret string
	Log       zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(dto.HealthResponse{Status: "ok", Time: time.Now().UTC()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	issuers := RequireRole(jwt.RoleAdmin, jwt.RoleFacturista)
	readers := RequireRole(jwt.RoleAdmin, jwt.RoleFacturista, jwt.RoleConsulta)

	cfdiHandler := NewCFDIHandler(deps.Issue, deps.Cancel, deps.Documents, deps.Log)
	cfdi := api.Group("/cfdi")
	cfdi.Post("/carta-porte", issuers, cfdiHandler.IssueCartaPorte)
	cfdi.Post("/carta-porte/preview", readers, cfdiHandler.PreviewCartaPorte)
	cfdi.Post("/credit-notes", issuers, cfdiHandler.IssueCreditNote)
	cfdi.Post("/credit-notes/preview", readers, cfdiHandler.PreviewCreditNote)
	cfdi.Post("/parse", readers, cfdiHandler.Parse)
	cfdi.Post("/pending/retry", issuers, cfdiHandler.RetryPending)
	cfdi.Post("/:uuid/cancel", issuers, cfdiHandler.Cancel)
	cfdi.Get("/:uuid/pdf", readers, cfdiHandler.PDF)
	cfdi.Post("/:uuid/email", issuers, cfdiHandler.Email)

	formatHandler := NewEmailFormatHandler(deps.Documents, deps.Log)
	api.Get("/email-format", readers, formatHandler.Get)
	api.Put("/email-format", RequireRole(jwt.RoleAdmin), formatHandler.Update)
}
