package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/studiocoach/course-api/internal/application/auth"
	"github.com/studiocoach/course-api/internal/application/catalog"
	"github.com/studiocoach/course-api/internal/application/newsletter"
	"github.com/studiocoach/course-api/internal/application/progress"
	"github.com/studiocoach/course-api/internal/config"
	"github.com/studiocoach/course-api/internal/infrastructure/cache"
	"github.com/studiocoach/course-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/studiocoach/course-api/internal/infrastructure/jwt"
	"github.com/studiocoach/course-api/internal/infrastructure/mailerlite"
	s3infra "github.com/studiocoach/course-api/internal/infrastructure/s3"
	"github.com/studiocoach/course-api/internal/infrastructure/smtp"
	"github.com/studiocoach/course-api/internal/transport/http/handler"
	appmiddleware "github.com/studiocoach/course-api/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo     *dynamo.AllowedUserRepo
	OtpRepo      *dynamo.OtpRepo
	ProgressRepo *dynamo.ProgressRepo
	CourseRepo   *dynamo.CourseRepo
	ChapterRepo  *dynamo.ChapterRepo
	Cache        *cache.TagCache
	S3Store      *s3infra.Store
	Mailer       smtp.Mailer
	List         mailerlite.Client
	JWTProvider  *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Fails closed when JWTProvider is nil: gated routes answer 503 rather
	// than running unauthenticated.
	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo: deps.UserRepo,
		OtpRepo:  deps.OtpRepo,
		Mailer:   deps.Mailer,
		Signer:   signerOrNil(deps.JWTProvider),
		BaseURL:  cfg.AppBaseURL,
	})
	progressSvc := progress.NewService(progress.ServiceDeps{
		Repo:         deps.ProgressRepo,
		Cache:        deps.Cache,
		Mailer:       deps.Mailer,
		BaseURL:      cfg.AppBaseURL,
		WriteEnabled: cfg.HasWriteCredentials(),
	})
	catalogSvc := catalog.NewService(catalog.ServiceDeps{
		Courses:   deps.CourseRepo,
		Chapters:  deps.ChapterRepo,
		Cache:     deps.Cache,
		Resources: deps.S3Store,
	})
	newsletterSvc := newsletter.NewService(newsletter.ServiceDeps{
		List:          deps.List,
		Resources:     deps.S3Store,
		GroupID:       cfg.MailerLitePDFGroupID,
		LeadMagnetKey: cfg.LeadMagnetKey,
	})

	healthH := handler.NewHealthHandler(cfg.AppEnv)
	authH := handler.NewAuthHandler(authSvc)
	progressH := handler.NewProgressHandler(progressSvc)
	courseH := handler.NewCourseHandler(catalogSvc)
	newsletterH := handler.NewNewsletterHandler(newsletterSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/ping", healthH.Check)
		r.With(sensitiveRL.Limit).Post("/auth/send-otp", authH.SendOtp)
		r.With(sensitiveRL.Limit).Post("/auth/verify-otp", authH.VerifyOtp)
		r.Get("/courses", courseH.List)
		r.Get("/courses/{slug}", courseH.Get)
		r.With(sensitiveRL.Limit).Post("/newsletter/pdf-download", newsletterH.PDFDownload)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/progress", progressH.GetProgress)
			r.Post("/progress", progressH.RecordCompletion)
			r.Get("/chapters/{id}/resource", courseH.ChapterResource)
		})
	})

	return r
}

// signerOrNil adapts an optional provider to the auth service's signer port.
// A typed-nil *Provider must become an untyped nil interface.
func signerOrNil(p *jwtinfra.Provider) auth.TokenSigner {
	if p == nil {
		return nil
	}
	return p
}
