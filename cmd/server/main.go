package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/uncommondata/server/internal/api"
	"github.com/uncommondata/server/internal/config"
	"github.com/uncommondata/server/internal/repositories"
)

func main() {
	repositories.ConnectDatabase()
	repositories.InitStorage()

	port := config.Envs.Port

	mux := api.SetupRouter()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: mux,
		// Header timeout only: multipart uploads may legitimately take a
		// while to stream their body.
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Starting Uncommon Data server on port: %s", port)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on port %s: %v", port, err)
	}
}
