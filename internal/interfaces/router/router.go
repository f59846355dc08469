package router

import (
	"net/http"

	"causeway-backend/internal/application/access"
	authsvc "causeway-backend/internal/application/auth"
	causesvc "causeway-backend/internal/application/causes"
	emailsvc "causeway-backend/internal/application/emails"
	invsvc "causeway-backend/internal/application/invitations"
	listsvc "causeway-backend/internal/application/listings"
	ordersvc "causeway-backend/internal/application/orders"
	orgsvc "causeway-backend/internal/application/org"
	usersvc "causeway-backend/internal/application/user"
	"causeway-backend/internal/config"
	"causeway-backend/internal/infrastructure/database"
	authhandler "causeway-backend/internal/interfaces/handlers/auth"
	causehandler "causeway-backend/internal/interfaces/handlers/causes"
	dashhandler "causeway-backend/internal/interfaces/handlers/dashboard"
	healthhandler "causeway-backend/internal/interfaces/handlers/health"
	invhandler "causeway-backend/internal/interfaces/handlers/invitations"
	listhandler "causeway-backend/internal/interfaces/handlers/listings"
	orderhandler "causeway-backend/internal/interfaces/handlers/orders"
	orghandler "causeway-backend/internal/interfaces/handlers/org"
	payhandler "causeway-backend/internal/interfaces/handlers/payments"
	userhandler "causeway-backend/internal/interfaces/handlers/user"
	"causeway-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp wires the full application: middleware chain, route guard,
// and every handler group. The Stripe webhook is mounted before the
// session middleware so its raw body survives for signature checking.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	stripeWebhook := &payhandler.WebhookHandler{WebhookSecret: cfg.StripeWebhookSecret}
	app.Post("/api/v1/stripe/webhook", func(c *fiber.Ctx) error {
		return stripeWebhook.HandleWebhook(c)
	})

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.ResponseFormatter())
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{Rdb: rdb}
	app.Get("/health/json", hh.JSON)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		hh.DB = &gormDBPinger{db: db}
	}

	var userFinder authsvc.UserFinder
	if db != nil {
		userFinder = &authsvc.GormUserFinder{DB: db}
	}
	ah := &authhandler.Handlers{
		UserFinder: userFinder,
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	if db == nil || rdb == nil {
		return app, db, rdb, nil
	}

	ev := &access.Evaluator{DB: db}

	// Prefix guard for the role-scoped surfaces; everything matched here
	// is re-checked inside the services.
	app.Use(middleware.RouteGuard(ev))

	var emailSender emailsvc.Sender
	if cfg.SendinblueAPIKey != "" {
		emailSender = &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom}
	}

	// Users — registration is public.
	us := &usersvc.Service{DB: db, Rdb: rdb, EmailSender: emailSender}
	uh := &userhandler.Handlers{Service: us, Config: sessionCfg}
	app.Post("/api/v1/users/create-user", uh.CreateUser)
	ug := app.Group("/api/v1/users", middleware.RequireAuth())
	ug.Get("/view-user", uh.ViewUser)
	ug.Put("/update-user", uh.UpdateUser)

	// Orgs
	os := &orgsvc.Service{DB: db, Access: ev}
	oh := &orghandler.Handlers{Service: os}
	app.Get("/api/v1/orgs/:org_id", middleware.RequireAuth(), oh.ViewOrg)

	// Causes — org listing is public, mutation is org-admin surface.
	cs := &causesvc.Service{DB: db, Access: ev}
	ch := &causehandler.Handlers{Service: cs}
	app.Get("/api/v1/orgs/:org_id/causes", ch.ListCauses)

	// Listings — browse is public, create/edit authenticated.
	ls := &listsvc.Service{DB: db, Access: ev}
	lh := &listhandler.Handlers{Service: ls}
	app.Get("/api/v1/causes/:cause_id/listings", lh.ListForCause)
	app.Get("/api/v1/listings/:listing_id", lh.GetListing)
	app.Post("/api/v1/listings", middleware.RequireAuth(), lh.CreateListing)
	app.Patch("/api/v1/listings/:listing_id", middleware.RequireAuth(), lh.EditListing)

	// Orders — checkout is public (buyers have no account); fulfillment
	// is authorized per order inside the service.
	ords := &ordersvc.Service{
		DB:     db,
		Access: ev,
		Stripe: &ordersvc.RealStripeCreator{SecretKey: cfg.StripeSecretKey},
	}
	stripeWebhook.Orders = ords
	odh := &orderhandler.Handlers{Service: ords}
	app.Post("/api/v1/checkout", odh.Checkout)
	app.Post("/api/v1/orders/:order_id/fulfill", middleware.RequireAuth(), odh.Fulfill)
	app.Post("/api/v1/orders/:order_id/cancel", middleware.RequireAuth(), odh.Cancel)
	app.Get("/api/v1/orgs/:org_id/orders", middleware.RequireAuth(), odh.ListOrgOrders)

	// Invitations — token resolution and redemption are public links.
	is := &invsvc.Service{
		DB:            db,
		Access:        ev,
		EmailSender:   emailSender,
		InviteBaseURL: cfg.InviteBaseURL,
		TTL:           cfg.InviteTTL,
	}
	ih := &invhandler.Handlers{Service: is}
	app.Get("/api/v1/invitations/token/:token", ih.CheckToken)
	app.Post("/api/v1/invitations/token/:token/redeem", ih.Redeem)

	dh := &dashhandler.Handlers{}

	// Super-admin surface.
	sg := app.Group("/admin/super")
	sg.Get("/overview", dh.SuperOverview)
	sg.Post("/orgs", oh.CreateOrg)

	// Org-admin surface (guard resolves :org_id membership).
	og := app.Group("/org/:org_id")
	og.Get("/overview", dh.OrgOverview)
	og.Patch("/", oh.UpdateOrg)
	og.Delete("/members/:user_id", oh.RemoveMember)
	og.Post("/causes", ch.CreateCause)
	og.Patch("/causes/:cause_id", ch.EditCause)
	og.Post("/invitations", ih.CreateInvite)
	og.Get("/invitations", ih.ListInvites)
	og.Patch("/invitations/:invite_id/revoke", ih.RevokeInvite)
	og.Post("/invitations/resend", ih.ResendInvite)
	og.Get("/orders", odh.ListOrgOrders)

	// Volunteer surface.
	vg := app.Group("/volunteer-dashboard")
	vg.Get("/home", dh.VolunteerHome)
	vg.Get("/listings", lh.ListMine)

	// Shared admin surface; volunteers are redirected by the guard.
	ag := app.Group("/dashboard")
	ag.Get("/home", dh.AdminHome)

	return app, db, rdb, nil
}

// Handler adapts the Fiber app to net/http (serverless entrypoints).
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
