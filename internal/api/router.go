package api

import (
	"fmt"
	"log"
	"net/http"

	_ "github.com/uncommondata/server/docs"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/rs/cors"
	"github.com/uncommondata/server/internal/api/handlers"
	"github.com/uncommondata/server/internal/api/middleware"
	"github.com/uncommondata/server/internal/config"
)

func SetupRouter() http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(config.Envs.CorsConfig)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("GET /{$}", handlers.Index)
	mainMux.HandleFunc("GET /index.html", handlers.Index)

	mainMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	// ---------- APPLICATION ROUTES ----------
	appMux := http.NewServeMux()

	appMux.HandleFunc("GET /new/", handlers.NewUserForm)
	appMux.HandleFunc("POST /api/createUser/", handlers.CreateUser)
	appMux.HandleFunc("POST /api/login/", handlers.Login)
	appMux.HandleFunc("POST /api/logout/", handlers.Logout)

	// Guard order is fixed: authentication always before role, so an
	// unauthenticated caller gets 401 even on curator-only routes.
	appMux.Handle("GET /uploads/",
		middleware.RequireHarvester(http.HandlerFunc(handlers.UploadsPage)))
	appMux.Handle("POST /api/upload/",
		middleware.RequireAuth(http.HandlerFunc(handlers.UploadFile)))
	appMux.Handle("GET /api/dump-uploads/",
		middleware.RequireAuth(http.HandlerFunc(handlers.DumpUploads)))
	appMux.Handle("GET /api/uploads-check/",
		middleware.RequireAuth(http.HandlerFunc(handlers.UploadsCheck)))
	appMux.Handle("GET /api/uploads-status/",
		middleware.RequireAuth(http.HandlerFunc(handlers.UploadsStatus)))
	appMux.Handle("GET /api/dump-data/",
		middleware.RequireCurator(http.HandlerFunc(handlers.DumpData)))

	mainMux.Handle("/app/", http.StripPrefix("/app", appMux))

	log.Println("Router initialized")
	handler := c.Handler(mainMux)
	handler = middleware.Logger(handler)
	return handler
}
