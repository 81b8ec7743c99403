// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the local SSE bridge: an HTTP server that runs
// chat turns through the transport and re-serves the normalized event
// stream to local clients.
//
// # Endpoints
//
//   - POST /chat       - run one chat turn, respond as SSE
//   - GET  /health     - health check
//   - GET  /v1/models  - model list passthrough to the backend
//
// # Middleware
//
//   - Panic recovery
//   - Request logging
//   - Per-IP token-bucket rate limiting
//   - Request body size cap
//
// # Usage
//
//	transport := backend.For(baseURL)
//	srv := server.New(cfg.Server, baseURL, transport.Stream)
//	if err := srv.ListenAndServe(ctx); err != nil {
//		log.Fatal(err)
//	}
package server
