package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gradebook.org/internal/auth"
	"gradebook.org/internal/config"
	"gradebook.org/internal/grades"
	"gradebook.org/internal/httpapi"
	"gradebook.org/internal/identity"
	"gradebook.org/internal/obs"
	"gradebook.org/internal/registry"
	"gradebook.org/internal/store/pg"
	"gradebook.org/internal/stream"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg := config.Load()
	if cfg.AuthSecret == "" {
		log.Fatal("missing signing secret: set GRADEBOOK_AUTH_SECRET")
	}

	signer, err := auth.NewTokenSigner(cfg.AuthSecret, cfg.AuthIssuer,
		auth.WithTokenTTL(cfg.TokenTTL))
	if err != nil {
		log.Fatalf("token signer: %v", err)
	}

	var (
		scores   grades.Service
		accounts auth.AccountStore
		students registry.StudentDirectory
		teachers registry.TeacherDirectory
		admins   registry.AdminDirectory
		ready    httpapi.ReadyProbe
		pgStore  *pg.Store
	)
	if cfg.PGDSN != "" {
		pgStore, err = pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		scores = pgStore
		accounts = pgStore.Accounts()
		students = pgStore.Students()
		teachers = pgStore.Teachers()
		admins = pgStore.Admins()
		ready = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		// Database-less dev mode.
		log.Print("GRADEBOOK_PG_DSN not set, using in-memory stores")
		reg := registry.NewInMemory()
		mem := auth.NewInMemoryStore()
		scores = grades.NewInMemory(reg.Students, reg.Subjects, reg.Semesters)
		accounts = mem
		students = reg.Students
		teachers = reg.Teachers
		admins = reg.Admins

		// Bootstrap admin so the empty instance is reachable. Same contract
		// as onboarding: password is the institutional id.
		bootstrap := identity.NewProvisioner(mem, nil)
		if _, err := bootstrap.Provision(context.Background(), "admin@localhost", "AD000", auth.RoleAdmin); err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
		log.Print("bootstrap admin: admin@localhost / AD000")
	}

	api := httpapi.New(httpapi.Config{
		Scores:      scores,
		Auth:        auth.NewService(accounts, signer),
		Provisioner: identity.NewProvisioner(accounts, nil),
		Students:    students,
		Teachers:    teachers,
		Admins:      admins,
		Accounts:    accounts,
		Stream:      stream.New(),
		Ready:       ready,
		Version:     version,
	})

	handler := httpapi.RequestID(
		httpapi.LoggingJSON(
			httpapi.SecurityHeaders(
				httpapi.CORS(
					httpapi.MaxBodyBytes(
						httpapi.RateLimit(api.Handler(), cfg.RateLimitBurst, cfg.RateLimitPerSecond),
						cfg.MaxBodyBytes)))))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcSrv, healthSrv := httpapi.NewGRPCServer()
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("grpc listen: %v", err)
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go httpapi.WatchReadiness(watchCtx, ready, healthSrv, 10*time.Second)

	log.Printf("Starting gradebook-api %s on %s (grpc %s)", version, srv.Addr, cfg.GRPCAddr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	go func() {
		if err := grpcSrv.Serve(grpcLis); err != nil {
			log.Printf("grpc serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	grpcSrv.GracefulStop()
	log.Println("Stopped")
}
