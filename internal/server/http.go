// Copyright (c) 2026 DealScholar Inc. All Rights Reserved.
// This is licensed software from DealScholar Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dealscholar/lifecycle-engine/pkg/handler"
)

// HTTPServer manages the API server lifecycle.
type HTTPServer struct {
	server  *http.Server
	port    int
	handler *handler.Handler
}

// NewHTTPServer creates a new API server instance.
func NewHTTPServer(port int, h *handler.Handler) *HTTPServer {
	return &HTTPServer{
		port:    port,
		handler: h,
	}
}

// Setup configures the router and wraps it with OpenTelemetry request
// instrumentation.
func (s *HTTPServer) Setup() error {
	router := mux.NewRouter()
	s.handler.Register(router)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           otelhttp.NewHandler(router, "lifecycle-engine"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return nil
}

// Start begins serving API requests on the configured port.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("API server listening on port %d", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("API server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the API server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down API server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	logrus.Info("API server stopped")
	return nil
}
