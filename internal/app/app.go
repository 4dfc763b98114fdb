package app

import (
	"net/http"

	"bricknest-backend/internal/auth"
	"bricknest-backend/internal/config"
	"bricknest-backend/internal/constants"
	"bricknest-backend/internal/health"
	"bricknest-backend/internal/infrastructure/database"
	"bricknest-backend/internal/inventory"
	"bricknest-backend/internal/market"
	"bricknest-backend/internal/marketplace"
	"bricknest-backend/internal/middleware"
	"bricknest-backend/internal/notifications"
	"bricknest-backend/internal/offerings"
	"bricknest-backend/internal/portfolio"
	"bricknest-backend/internal/properties"
	"bricknest-backend/internal/requests"
	"bricknest-backend/internal/uploads"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and route registration.
func CreateApp(cfg *config.Config) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	// CORS (before session)
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	// Session (Redis); need Redis client for health marker too
	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, err
	}
	app.Use(sessionHandler)

	// Health request marker (after session)
	app.Use(middleware.HealthMarker(rdb))

	// Response formatter (inject helpers)
	app.Use(middleware.ResponseFormatter())

	// Tracing + route logger
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, errDB
		}
	}

	// --- Routes (no auth) ---
	healthHandlers := &health.Handlers{
		Rdb:            rdb,
		DB:             dbPinger(db),
		BlobStoreURL:   cfg.BlobStoreURL,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/reset", healthHandlers.Reset)
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/errors", healthHandlers.Errors)

	var userFinder auth.UserFinder
	if db != nil {
		userFinder = &auth.GormUserFinder{DB: db}
	}
	authHandlers := &auth.Handlers{
		UserFinder: userFinder,
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", authHandlers.Login)
	authGroup.Get("/me", authHandlers.Me)
	authGroup.Delete("/logout", authHandlers.Logout)

	// --- Protected modules (auth required) ---
	if db != nil && rdb != nil {
		emitter := &notifications.Emitter{DB: db}
		inventoryService := &inventory.Service{DB: db}

		// Properties module
		propertyService := &properties.Service{DB: db}
		propertyHandlers := &properties.Handlers{Service: propertyService}
		propertyGroup := app.Group("/api/v1/properties", middleware.RequireAuth())
		propertyGroup.Post("/create-property", middleware.AuthorizePermission(constants.CreateProperty), propertyHandlers.CreateProperty)
		propertyGroup.Get("/get-property/:property_id", propertyHandlers.GetProperty)
		propertyGroup.Get("/get-my-properties", propertyHandlers.GetMyProperties)

		// Offerings module
		offeringService := &offerings.Service{DB: db, Notifier: emitter}
		offeringHandlers := &offerings.Handlers{Service: offeringService}
		offeringGroup := app.Group("/api/v1/offerings", middleware.RequireAuth())
		offeringGroup.Post("/create-offering", middleware.AuthorizePermission(constants.CreateOffering), offeringHandlers.CreateOffering)
		offeringGroup.Post("/activate-offering", middleware.AuthorizePermission(constants.ActivateOffering), offeringHandlers.ActivateOffering)
		offeringGroup.Post("/close-offering", middleware.AuthorizePermission(constants.CloseOffering), offeringHandlers.CloseOffering)
		offeringGroup.Get("/get-offering/:offering_id", offeringHandlers.GetOffering)
		offeringGroup.Get("/get-active-offerings", offeringHandlers.GetActiveOfferings)
		offeringGroup.Get("/get-my-offerings", offeringHandlers.GetMyOfferings)

		// Purchase requests module
		requestService := &requests.Service{DB: db, Inventory: inventoryService, Notifier: emitter}
		requestHandlers := &requests.Handlers{Service: requestService}
		requestGroup := app.Group("/api/v1/requests", middleware.RequireAuth())
		requestGroup.Post("/submit-request", middleware.AuthorizePermission(constants.SubmitRequest), requestHandlers.SubmitRequest)
		requestGroup.Post("/approve-request", requestHandlers.ApproveRequest)
		requestGroup.Post("/reject-request", requestHandlers.RejectRequest)
		requestGroup.Post("/upload-payment-proof", requestHandlers.UploadPaymentProof)
		requestGroup.Post("/confirm-payment", requestHandlers.ConfirmPayment)
		requestGroup.Post("/assign-tokens", requestHandlers.AssignTokens)
		requestGroup.Post("/complete-request", requestHandlers.CompleteRequest)
		requestGroup.Post("/cancel-request", requestHandlers.CancelRequest)
		requestGroup.Post("/sign-agreement", requestHandlers.SignAgreement)
		requestGroup.Get("/get-request/:request_id", requestHandlers.GetRequest)
		requestGroup.Get("/get-my-requests", requestHandlers.GetMyRequests)
		requestGroup.Get("/get-incoming-requests", requestHandlers.GetIncomingRequests)

		// P2P market module
		marketService := &market.Service{DB: db, Inventory: inventoryService, Notifier: emitter}
		marketHandlers := &market.Handlers{Service: marketService, SweepAdminKey: cfg.SweepAdminKey}
		// Expiry sweep is key-guarded, not session-guarded (called by cron).
		app.Post("/api/v1/market/expire-listings", marketHandlers.ExpireListings)
		marketGroup := app.Group("/api/v1/market", middleware.RequireAuth())
		marketGroup.Post("/create-listing", middleware.AuthorizePermission(constants.CreateListing), marketHandlers.CreateListing)
		marketGroup.Post("/update-listing", marketHandlers.UpdateListing)
		marketGroup.Post("/cancel-listing", marketHandlers.CancelListing)
		marketGroup.Post("/purchase-listing", middleware.AuthorizePermission(constants.PurchaseListing), marketHandlers.PurchaseListing)
		marketGroup.Get("/get-listing/:listing_id", marketHandlers.GetListing)
		marketGroup.Get("/get-active-listings", marketHandlers.GetActiveListings)
		marketGroup.Get("/get-my-listings", marketHandlers.GetMyListings)

		// Marketplace browse (combined feed)
		marketplaceService := &marketplace.Service{DB: db}
		marketplaceHandlers := &marketplace.Handlers{Service: marketplaceService}
		marketplaceGroup := app.Group("/api/v1/marketplace", middleware.RequireAuth())
		marketplaceGroup.Get("/browse", middleware.AuthorizePermission(constants.ViewMarketplace), marketplaceHandlers.Browse)

		// Portfolio module
		portfolioService := &portfolio.Service{DB: db}
		portfolioHandlers := &portfolio.Handlers{Service: portfolioService}
		portfolioGroup := app.Group("/api/v1/portfolio", middleware.RequireAuth())
		portfolioGroup.Get("/get-portfolio", portfolioHandlers.GetPortfolio)
		portfolioGroup.Get("/get-investment/:investment_id", portfolioHandlers.GetInvestment)

		// Notifications module
		notificationHandlers := &notifications.Handlers{Emitter: emitter}
		notificationGroup := app.Group("/api/v1/notifications", middleware.RequireAuth())
		notificationGroup.Get("/get-my-notifications", notificationHandlers.GetMyNotifications)
		notificationGroup.Post("/mark-read", notificationHandlers.MarkRead)

		// Uploads module
		blobClient := &uploads.HTTPClient{
			BaseURL:   cfg.BlobStoreURL,
			SecretKey: cfg.BlobStoreKey,
		}
		uploadService := &uploads.Service{
			Client:  blobClient,
			BaseURL: cfg.BlobStoreURL,
		}
		uploadHandlers := &uploads.Handlers{Service: uploadService}
		uploadGroup := app.Group("/api/v1/uploads", middleware.RequireAuth())
		uploadGroup.Post("/payment-proof", uploadHandlers.UploadPaymentProof)
		uploadGroup.Post("/agreement-doc", uploadHandlers.UploadAgreementDoc)
		uploadGroup.Post("/property-image", uploadHandlers.UploadPropertyImage)
	}

	return app, nil
}

// dbPinger adapts a gorm DB to the health DBPinger, or nil when no DB is wired.
func dbPinger(db *gorm.DB) health.DBPinger {
	if db == nil {
		return nil
	}
	return gormPinger{db}
}

type gormPinger struct{ db *gorm.DB }

func (p gormPinger) Ping() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Handler returns the Fiber app as a net/http handler.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
