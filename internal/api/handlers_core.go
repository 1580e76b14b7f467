package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mistermandob/mandob/internal/services"
)

const (
	authCookieName = "mandob_session"

	defaultAuthTokenTTL  = 7 * 24 * time.Hour
	rememberAuthTokenTTL = 30 * 24 * time.Hour
)

// Handler is the JSON seam between the (external) presentation layer and
// the engine. Handlers stay thin; semantics live in the services.
type Handler struct {
	identity     *services.IdentityService
	session      *services.SessionService
	sync         *services.SyncService
	transfer     *services.TransferService
	secretKey    []byte
	cookieSecure bool
}

type authClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func NewHandler(
	identity *services.IdentityService,
	session *services.SessionService,
	syncService *services.SyncService,
	transfer *services.TransferService,
	secret string,
	cookieSecure bool,
) *Handler {
	return &Handler{
		identity:     identity,
		session:      session,
		sync:         syncService,
		transfer:     transfer,
		secretKey:    []byte(secret),
		cookieSecure: cookieSecure,
	}
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
