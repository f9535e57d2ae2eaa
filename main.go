package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"applypilot/config"
	"applypilot/controllers"
	"applypilot/database"
	"applypilot/middleware"
	"applypilot/models"
	"applypilot/parsers"
	"applypilot/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment as-is")
	}

	cfg := config.GetAppConfig()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	heur, err := config.LoadHeuristics(cfg.Run.HeuristicsPath)
	if err != nil {
		log.Fatalf("Loading heuristics failed: %v", err)
	}

	profile, err := loadProfile(cfg.Run.ResumePath)
	if err != nil {
		log.Fatalf("Loading applicant profile failed: %v", err)
	}
	log.Printf("Profile loaded for %s <%s>", profile.FullName, profile.Email)

	leads, err := loadLeads(cfg.Run.LeadsPath)
	if err != nil {
		log.Fatalf("Loading leads failed: %v", err)
	}
	log.Printf("%d leads loaded from %s", len(leads), cfg.Run.LeadsPath)

	engine, err := services.NewBrowserEngine(cfg.Browser)
	if err != nil {
		log.Fatalf("Browser launch failed: %v", err)
	}
	defer engine.Close()

	origin, err := engine.NewSurface()
	if err != nil {
		log.Fatalf("Opening discovery tab failed: %v", err)
	}
	if err := origin.Navigate(cfg.Run.DiscoveryURL); err != nil {
		log.Fatalf("Navigating to discovery surface failed: %v", err)
	}

	session := services.NewSessionManager(engine, origin)
	sink := services.NewResultSink(db)
	screenshots := services.NewScreenshotService()
	answers := services.NewGeminiAnswerProvider(profile, sink)

	prober := services.NewProber(heur)
	filler := services.NewFormFillerService(prober, answers, cfg.Run.ResumePath)
	challenges := services.NewChallengeResolver(nil, cfg.Run.ManualSolveWait)
	checker := services.NewSubmissionCheckerService(heur, prober, filler, cfg.Browser.SettleTimeout)

	dispatcher := services.NewPlatformDispatcher(services.HandlerDeps{
		Prober:      prober,
		Filler:      filler,
		Challenges:  challenges,
		Checker:     checker,
		Session:     session,
		Answers:     answers,
		Credentials: services.NewPostgresCredentialsStore(db),
		Screenshots: screenshots,
		Heuristics:  heur,
	})

	orchestrator := services.NewOrchestrator(cfg.Run, dispatcher, session, sink)

	jwtService := services.NewJWTService(cfg.JWTSecret)
	router := buildRouter(cfg, db, sink, screenshots, jwtService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Monitor API listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})
	g.Go(func() error {
		defer stop()
		stats := orchestrator.Run(ctx, leads, profile)
		log.Printf("Batch complete: %d/%d succeeded", stats.Succeeded, stats.Attempted)
		if err := session.Cleanup(); err != nil {
			log.Printf("Final session cleanup failed: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Run failed: %v", err)
	}
}

func buildRouter(cfg config.AppConfig, db *sql.DB, sink *services.ResultSink, screenshots *services.ScreenshotService, jwtService *services.JWTService) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(middleware.CORS(nil))
	router.Static("/static", "./static")

	authController := controllers.NewAuthController(models.NewOperatorModel(db), jwtService)
	submissionsController := controllers.NewSubmissionsController(sink, screenshots)

	api := router.Group("/api")
	api.POST("/auth/register", authController.Register)
	api.POST("/auth/login", authController.Login)

	protected := api.Group("/")
	protected.Use(middleware.RequireAuth(jwtService))
	protected.GET("/submissions", submissionsController.ListSubmissions)
	protected.GET("/answers", submissionsController.ListAnswers)
	protected.GET("/screenshots", submissionsController.GetScreenshot)

	return router
}

// loadProfile parses the résumé, overlays environment-supplied answers the
// document cannot carry, and validates the result.
func loadProfile(resumePath string) (*models.ApplicantProfile, error) {
	parser := parsers.NewResumeParser()
	profile, err := parser.ParseFile(resumePath)
	if err != nil {
		return nil, err
	}

	overlay := map[string]*string{
		"APPLICANT_EMAIL":              &profile.Email,
		"APPLICANT_PHONE":              &profile.Phone,
		"APPLICANT_CITY":               &profile.City,
		"APPLICANT_STATE":              &profile.State,
		"APPLICANT_ZIP":                &profile.ZipCode,
		"APPLICANT_COUNTRY":            &profile.Country,
		"APPLICANT_WORK_AUTHORIZATION": &profile.WorkAuthorization,
		"APPLICANT_SALARY":             &profile.SalaryExpectation,
		"APPLICANT_GENDER":             &profile.Gender,
		"APPLICANT_ETHNICITY":          &profile.Ethnicity,
		"APPLICANT_VETERAN_STATUS":     &profile.VeteranStatus,
		"APPLICANT_DISABILITY_STATUS":  &profile.DisabilityStatus,
	}
	for key, field := range overlay {
		if value := os.Getenv(key); value != "" {
			*field = value
		}
	}
	if os.Getenv("APPLICANT_REQUIRES_SPONSORSHIP") == "true" {
		profile.RequiresSponsorship = true
	}
	if os.Getenv("APPLICANT_WILLING_TO_RELOCATE") == "true" {
		profile.WillingToRelocate = true
	}

	if err := validator.New().Struct(profile); err != nil {
		return nil, fmt.Errorf("profile incomplete: %w", err)
	}
	return profile, nil
}

func loadLeads(path string) ([]models.JobLead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var leads []models.JobLead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, fmt.Errorf("parsing leads file: %w", err)
	}
	return leads, nil
}
