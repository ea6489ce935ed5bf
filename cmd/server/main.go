// reclaim - campus lost & found registry service
// Copyright (C) 2026  reclaim contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"google.golang.org/api/option"

	"github.com/reclaim-app/reclaim/config"
	"github.com/reclaim-app/reclaim/internal/auth"
	"github.com/reclaim-app/reclaim/internal/collection"
	"github.com/reclaim-app/reclaim/internal/handlers"
	"github.com/reclaim-app/reclaim/internal/registry"
	"github.com/reclaim-app/reclaim/internal/store"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("reclaim-server %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", buildDate)
		os.Exit(0)
	}

	cfg := config.Load()
	ctx := context.Background()

	if cfg.JWT.SigningKey == "" {
		log.Println("WARNING: JWT_SIGNING_KEY is empty — generating an ephemeral key (tokens will not survive a restart)")
		key, err := auth.GenerateSigningKey()
		if err != nil {
			log.Fatalf("Failed to generate signing key: %v", err)
		}
		cfg.JWT.SigningKey = key
	}

	tokens := auth.NewTokenService(cfg.JWT.SigningKey, cfg.JWT.Issuer)

	// Initialize store and identity provider.
	var itemStore store.Store
	var identity auth.Verifier

	if cfg.Store.InMemory || cfg.Firebase.ProjectID == "" {
		log.Println("WARNING: using in-memory store — all reports are lost on restart")
		itemStore = store.NewMemory()
	} else {
		if cfg.Firebase.UseEmulator {
			os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.Firebase.EmulatorFirestoreHost)
			os.Setenv("FIREBASE_AUTH_EMULATOR_HOST", cfg.Firebase.EmulatorAuthHost)
			log.Printf("Using Firebase emulators (auth: %s, firestore: %s)",
				cfg.Firebase.EmulatorAuthHost, cfg.Firebase.EmulatorFirestoreHost)
		}

		var opts []option.ClientOption
		if cfg.Firebase.CredentialsPath != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsPath))
		}

		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase app: %v", err)
		}
		authClient, err := app.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase auth client: %v", err)
		}
		identity = auth.NewFirebaseVerifier(authClient)

		fsClient, err := firestore.NewClient(ctx, cfg.Firebase.ProjectID, opts...)
		if err != nil {
			log.Fatalf("Failed to initialize Firestore client: %v", err)
		}
		defer fsClient.Close()
		itemStore = store.NewFirestore(fsClient, cfg.Store.Collection)
	}

	reg := registry.New(itemStore)
	col := collection.New(itemStore)
	h := handlers.New(reg, col, tokens, identity)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health check.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes.
		r.Post("/token", h.ExchangeToken)
		r.Get("/items", h.ListItems)
		r.Get("/items/{id}", h.GetItem)

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/items", h.CreateItem)
			r.Get("/items/mine", h.ListOwnedItems)
			r.Post("/items/{id}/active", h.SetActive)
			r.Post("/items/{id}/collect", h.CollectItem)
			r.Get("/items/{id}/receipt", h.Receipt)
		})
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("reclaim-server starting on %s (env: %s)", addr, cfg.Server.Env)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
