// Package http wires the gin router, middleware, and handlers for the
// dashboard API.
package http

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cloudxplorer/StockDash/internal/auth"
	"github.com/cloudxplorer/StockDash/internal/marketdata"
	"github.com/cloudxplorer/StockDash/internal/store"
	"github.com/cloudxplorer/StockDash/internal/trading"
	"github.com/cloudxplorer/StockDash/internal/watchlist"
)

type Server struct {
	R         *gin.Engine
	Auth      *auth.Service
	Trading   *trading.Service
	Watchlist *watchlist.Service
	Market    marketdata.Provider
	Store     store.Store
	Logger    *zap.Logger
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServer wires the router, services, and middleware.
func NewServer(authSvc *auth.Service, tradingSvc *trading.Service, watchSvc *watchlist.Service,
	market marketdata.Provider, st store.Store, logger *zap.Logger, corsOrigin string) *Server {
	g := gin.New()

	// Request logging
	g.Use(func(cn *gin.Context) {
		start := time.Now()
		cn.Next()
		logger.Info("http_request",
			zap.String("method", cn.Request.Method),
			zap.String("path", cn.Request.URL.Path),
			zap.Int("status", cn.Writer.Status()),
			zap.String("ip", cn.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	})

	g.Use(gin.Recovery())

	// CORS
	g.Use(func(cn *gin.Context) {
		origin := cn.GetHeader("Origin")
		cn.Writer.Header().Set("Vary", "Origin")
		cn.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		cn.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		cn.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if corsOrigin == "*" {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && origin == corsOrigin {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", corsOrigin)
		}
		if cn.Request.Method == http.MethodOptions {
			cn.AbortWithStatus(http.StatusNoContent)
			return
		}
		cn.Next()
	})

	s := &Server{
		R:         g,
		Auth:      authSvc,
		Trading:   tradingSvc,
		Watchlist: watchSvc,
		Market:    market,
		Store:     st,
		Logger:    logger,
	}

	g.GET("/health", func(cn *gin.Context) { cn.JSON(http.StatusOK, gin.H{"ok": true}) })

	authGroup := g.Group("/api/auth")
	authGroup.POST("/signup", s.signup)
	authGroup.POST("/login", s.login)
	authGroup.GET("/profile", s.requireAuth, s.profile)
	authGroup.GET("/users", s.requireAuth, s.requireAdmin, s.listUsers)

	stocks := g.Group("/api/stocks", s.requireAuth)
	stocks.GET("/popular", s.popularStocks)
	stocks.GET("/search", s.searchStocks)
	stocks.GET("/quote/:symbol", s.stockQuote)
	stocks.GET("/history/:symbol", s.stockHistory)

	watch := g.Group("/api/watchlist", s.requireAuth)
	watch.GET("", s.getWatchlist)
	watch.POST("", s.addToWatchlist)
	watch.DELETE("/:symbol", s.removeFromWatchlist)

	txns := g.Group("/api/transactions", s.requireAuth)
	txns.POST("", s.submitTransaction)
	txns.GET("/my", s.myTransactions)
	txns.GET("/all", s.requireAdmin, s.allTransactions)
	txns.PUT("/:id/approve", s.requireAdmin, s.approveTransaction)
	txns.PUT("/:id/reject", s.requireAdmin, s.rejectTransaction)

	return s
}

// --- Helpers ---

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: msg})
}

func (s *Server) notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, apiError{Code: "not_found", Message: msg})
}

func (s *Server) internalError(c *gin.Context, where string, err error) {
	s.Logger.Error("internal_error", zap.String("where", where), zap.Error(err))
	c.JSON(http.StatusInternalServerError, apiError{Code: "internal_server_error", Message: "internal server error"})
}
