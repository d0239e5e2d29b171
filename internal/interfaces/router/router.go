package router

import (
	"context"
	"fmt"
	"net/http"

	authsvc "rightsdesk-backend/internal/application/auth"
	catalogsvc "rightsdesk-backend/internal/application/catalog"
	contractsvc "rightsdesk-backend/internal/application/contracts"
	emailsvc "rightsdesk-backend/internal/application/emails"
	"rightsdesk-backend/internal/application/esign"
	healthsvc "rightsdesk-backend/internal/application/health"
	linksvc "rightsdesk-backend/internal/application/smartlinks"
	songsvc "rightsdesk-backend/internal/application/songs"
	splitsvc "rightsdesk-backend/internal/application/splits"
	uploadsvc "rightsdesk-backend/internal/application/uploads"
	usersvc "rightsdesk-backend/internal/application/user"
	"rightsdesk-backend/internal/config"
	"rightsdesk-backend/internal/constants"
	"rightsdesk-backend/internal/infrastructure/database"
	authhandler "rightsdesk-backend/internal/interfaces/handlers/auth"
	cataloghandler "rightsdesk-backend/internal/interfaces/handlers/catalog"
	contracthandler "rightsdesk-backend/internal/interfaces/handlers/contracts"
	emailhandler "rightsdesk-backend/internal/interfaces/handlers/emails"
	healthhandler "rightsdesk-backend/internal/interfaces/handlers/health"
	linkhandler "rightsdesk-backend/internal/interfaces/handlers/smartlinks"
	songhandler "rightsdesk-backend/internal/interfaces/handlers/songs"
	splithandler "rightsdesk-backend/internal/interfaces/handlers/splits"
	uploadhandler "rightsdesk-backend/internal/interfaces/handlers/uploads"
	userhandler "rightsdesk-backend/internal/interfaces/handlers/user"
	"rightsdesk-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ServiceName labels metrics and the health payload.
const ServiceName = "rightsdesk-api"

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

// Deps are the connections and vendor clients the routes run against. Nil vendor clients make
// the matching endpoints answer 503.
type Deps struct {
	DB      *gorm.DB
	Rdb     *redis.Client
	ESign   esign.Client
	Mailer  emailsvc.Sender
	Catalog catalogsvc.Searcher
	Storage uploadsvc.StorageClient
	Targets []healthsvc.Target
}

// CreateApp connects to the database and Redis, migrates the schema and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	db, err := database.Open(database.Options{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, fmt.Errorf("migrate: %w", err)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	deps := Deps{
		DB:      db,
		Rdb:     rdb,
		Catalog: &catalogsvc.SpotifyClient{ClientID: cfg.SpotifyClientID, ClientSecret: cfg.SpotifyClientSecret},
		Storage: &uploadsvc.SupabaseClient{BaseURL: cfg.StorageURL, SecretKey: cfg.StorageSecretKey},
		Targets: VendorTargets(cfg),
	}
	if cfg.ESignBaseURL != "" && cfg.ESignAPIKey != "" {
		deps.ESign = &esign.HTTPClient{BaseURL: cfg.ESignBaseURL, APIKey: cfg.ESignAPIKey}
	}
	if cfg.BrevoAPIKey != "" {
		deps.Mailer = &emailsvc.BrevoClient{APIKey: cfg.BrevoAPIKey, MailFrom: cfg.MailFrom, SenderName: cfg.LabelName}
	}
	return NewApp(cfg, deps), db, rdb, nil
}

// VendorTargets lists the outbound services shown on the health dashboard. Unset ones report
// "unconfigured".
func VendorTargets(cfg *config.Config) []healthsvc.Target {
	targets := []healthsvc.Target{{Name: "esignature", URL: cfg.ESignBaseURL}, {Name: "brevo"}, {Name: "spotify"}, {Name: "storage", URL: cfg.StorageURL}}
	if cfg.BrevoAPIKey != "" {
		targets[1].URL = "https://api.brevo.com/v3"
	}
	if cfg.SpotifyClientID != "" {
		targets[2].URL = catalogsvc.DefaultAPIURL
	}
	return targets
}

// NewApp registers middleware and routes over deps.
func NewApp(cfg *config.Config, deps Deps) *fiber.App {
	db, rdb := deps.DB, deps.Rdb

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Metrics(app, ServiceName))

	hh := &healthhandler.Handlers{
		Service:        ServiceName,
		Rdb:            rdb,
		DB:             &gormDBPinger{db: db},
		Targets:        deps.Targets,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	// Vendor callbacks authenticate by signature, not by session.
	contracts := &contractsvc.Service{DB: db, ESign: deps.ESign, LabelName: cfg.LabelName}
	ch := &contracthandler.Handlers{Service: contracts, WebhookSecret: cfg.ESignWebhookSecret}
	app.Post("/api/webhooks/esignature", ch.Webhook)

	links := &linksvc.Service{DB: db, Rdb: rdb, BaseURL: cfg.SmartLinkBaseURL}
	lh := &linkhandler.Handlers{Service: links}
	app.Get("/l/:slug", lh.Public)

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}
	app.Use(middleware.Session(sessionCfg, rdb))

	ah := &authhandler.Handlers{
		UserFinder: &authsvc.GormUserFinder{DB: db},
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/auth")
	authGroup.Post("/login", middleware.LoginRateLimit(), ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	view := middleware.AuthorizePermission(constants.ViewData)

	uh := &userhandler.Handlers{Service: &usersvc.Service{DB: db, Rdb: rdb}}
	ug := app.Group("/api/users", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageUsers))
	ug.Post("/", uh.CreateUser)
	ug.Get("/", uh.ListUsers)
	ug.Patch("/:id/role", uh.UpdateRole)
	ug.Delete("/:id", uh.RemoveUser)

	songs := &songsvc.Service{DB: db}
	sh := &songhandler.Handlers{Service: songs}
	manageSongs := middleware.AuthorizePermission(constants.ManageSongs)
	sg := app.Group("/api/songs", middleware.RequireAuth())
	sg.Post("/", manageSongs, sh.CreateSong)
	sg.Get("/", view, sh.ListSongs)
	sg.Get("/:id", view, sh.GetSong)
	sg.Post("/:id/collaborators", manageSongs, sh.AddCollaborator)
	sg.Delete("/:id/collaborators/:scId", manageSongs, sh.RemoveCollaborator)
	sg.Post("/:id/publishing-entities", manageSongs, sh.AttachPublishingEntity)
	cg := app.Group("/api/collaborators", middleware.RequireAuth())
	cg.Post("/", manageSongs, sh.CreateCollaborator)
	cg.Get("/", view, sh.ListCollaborators)
	pg := app.Group("/api/publishing-entities", middleware.RequireAuth())
	pg.Post("/", manageSongs, sh.CreatePublishingEntity)
	pg.Get("/", view, sh.ListPublishingEntities)

	sph := &splithandler.Handlers{Service: &splitsvc.Service{DB: db}}
	manageSplits := middleware.AuthorizePermission(constants.ManageSplits)
	spg := app.Group("/api/splits", middleware.RequireAuth())
	spg.Post("/publishing", manageSplits, sph.SavePublishing)
	spg.Patch("/publishing", manageSplits, sph.LockPublishing)
	spg.Post("/master", manageSplits, sph.SaveMaster)
	spg.Patch("/master", manageSplits, sph.LockMaster)
	spg.Get("/:songId", view, sph.Get)

	manageContracts := middleware.AuthorizePermission(constants.ManageContracts)
	ctg := app.Group("/api/contracts", middleware.RequireAuth())
	ctg.Post("/", manageContracts, ch.Generate)
	ctg.Get("/", view, ch.List)
	ctg.Get("/:id", view, ch.Get)
	ctg.Post("/:id/send", manageContracts, ch.Send)

	broadcasts := &emailsvc.BroadcastService{
		DB:      db,
		Sender:  deps.Mailer,
		Limiter: emailsvc.NewLimiter(cfg.EmailRatePerSecond),
		Brand:   cfg.LabelName,
	}
	eh := &emailhandler.Handlers{Service: broadcasts}
	eg := app.Group("/api/emails", middleware.RequireAuth())
	eg.Post("/broadcast", middleware.AuthorizePermission(constants.SendBroadcasts), eh.Broadcast)
	eg.Get("/broadcasts", view, eh.List)

	cat := &cataloghandler.Handlers{Service: &catalogsvc.Service{Searcher: deps.Catalog, Rdb: rdb}}
	app.Get("/api/catalog/search", middleware.RequireAuth(), view, cat.Search)

	manageLinks := middleware.AuthorizePermission(constants.ManageSmartLink)
	lg := app.Group("/api/smart-links", middleware.RequireAuth())
	lg.Post("/", manageLinks, lh.Create)
	lg.Get("/", view, lh.List)
	lg.Put("/:id", manageLinks, lh.Update)
	lg.Delete("/:id", manageLinks, lh.Delete)
	lg.Get("/:id/stats", view, lh.Stats)

	artwork := &uploadsvc.ArtworkService{Client: deps.Storage, StorageURL: cfg.StorageURL, Bucket: cfg.ArtworkBucket}
	uph := &uploadhandler.Handlers{Service: artwork}
	app.Post("/api/uploads/artwork", middleware.RequireAuth(), manageLinks, uph.UploadArtwork)

	return app
}

// Ping checks both backing stores, for startup.
func Ping(ctx context.Context, db *gorm.DB, rdb *redis.Client) error {
	if err := (&gormDBPinger{db: db}).Ping(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// Handler adapts app to net/http for serverless runtimes.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
