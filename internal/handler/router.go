package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/code-companion/backend/internal/handler/catalog"
	"github.com/zhouzirui/code-companion/backend/internal/handler/chat"
	"github.com/zhouzirui/code-companion/backend/internal/handler/stream"
	"github.com/zhouzirui/code-companion/backend/internal/handler/web"
	"github.com/zhouzirui/code-companion/backend/internal/handler/ws"
	"github.com/zhouzirui/code-companion/backend/internal/logging"
	chatService "github.com/zhouzirui/code-companion/backend/internal/service/chat"
)

// NewRouter wires HTTP routes to core services. A nil controller keeps the
// session endpoints up and answers 503 on everything that needs the model.
func NewRouter(chatSvc *chatService.Service, controller *chatService.Controller) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)

	web.New().RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		catalog.New(chatSvc.Models(), chatSvc.Settings()).RegisterRoutes(api)
		chat.New(chatSvc, controller).RegisterRoutes(api)
		stream.New(controller).RegisterRoutes(api)
		ws.New(controller).RegisterRoutes(api)
	})

	return r
}
