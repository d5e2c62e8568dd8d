package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tsunayoshi21/Labeling-app/internal/api"
	apiMiddleware "github.com/tsunayoshi21/Labeling-app/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
// It accepts the application dependencies to create handlers and register routes.
// Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	authHandler := api.NewAuthHandler(app.authService, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.reviewService, app.logger)
	adminHandler := api.NewAdminHandler(
		app.adminService,
		app.allocator,
		app.transferService,
		app.qualityService,
		app.statsService,
		app.reviewService,
		app.taskService,
		app.logger,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/login", authHandler.Login)

		// Reviewer-facing task queue
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/tasks/next", taskHandler.GetNextTask)
			r.Get("/tasks/history", taskHandler.GetHistory)
			r.Get("/tasks/pending", taskHandler.GetPending)
			r.Get("/tasks/{id}", taskHandler.GetTask)
			r.Put("/tasks/{id}", taskHandler.UpdateTask)
			r.Delete("/tasks/{id}", taskHandler.DeleteTask)
		})

		// Administrative surface, restricted to the reference role
		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Use(authMiddleware.RequireReference)

			r.Post("/reviewers", adminHandler.CreateReviewer)
			r.Get("/reviewers", adminHandler.ListReviewers)
			r.Delete("/reviewers/{id}", adminHandler.DeleteReviewer)
			r.Get("/reviewers/{id}/stats", adminHandler.ReviewerStats)
			r.Get("/reviewers/{id}/assignments", adminHandler.ReviewerAssignments)
			r.Delete("/reviewers/{id}/assignments", adminHandler.DeleteReviewerAssignments)

			r.Post("/work-items", adminHandler.CreateWorkItem)
			r.Get("/work-items", adminHandler.ListWorkItems)
			r.Get("/work-items/{id}/assignments", adminHandler.WorkItemAssignments)

			r.Post("/assignments", adminHandler.AssignExplicit)
			r.Post("/assignments/random", adminHandler.AssignRandom)
			r.Post("/assignments/transfer", adminHandler.Transfer)
			r.Post("/assignments/consolidate", adminHandler.Consolidate)
			r.Put("/assignments/{id}", adminHandler.UpdateAssignment)

			r.Get("/quality/discrepancies", adminHandler.Discrepancies)
			r.Get("/stats", adminHandler.SystemStats)
			r.Get("/stats/agreement", adminHandler.AgreementStats)
			r.Get("/activity", adminHandler.RecentActivity)
			r.Get("/export", adminHandler.Export)
		})
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
