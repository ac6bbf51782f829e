package http

import (
	"errors"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/cloudxplorer/StockDash/internal/auth"
	"github.com/cloudxplorer/StockDash/internal/domain"
	"github.com/cloudxplorer/StockDash/internal/ledger"
	"github.com/cloudxplorer/StockDash/internal/marketdata"
	"github.com/cloudxplorer/StockDash/internal/models"
	"github.com/cloudxplorer/StockDash/internal/store"
	"github.com/cloudxplorer/StockDash/internal/trading"
)

// --- Auth ---

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse mirrors the dashboard's login/signup payload: identity
// plus the account and watchlist the UI renders immediately.
type authResponse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Email     string                 `json:"email"`
	Role      domain.Role            `json:"role"`
	Balance   decimal.Decimal        `json:"balance"`
	Holdings  []models.Position      `json:"holdings"`
	Watchlist []models.WatchlistItem `json:"watchlist"`
	Token     string                 `json:"token,omitempty"`
}

func (s *Server) userPayload(c *gin.Context, u models.User, token string) (authResponse, error) {
	ctx := c.Request.Context()
	acct, err := s.Store.Account(ctx, u.ID)
	if err != nil {
		return authResponse{}, err
	}
	watch, err := s.Watchlist.Get(ctx, u.ID)
	if err != nil {
		return authResponse{}, err
	}
	if acct.Holdings == nil {
		acct.Holdings = []models.Position{}
	}
	return authResponse{
		ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role,
		Balance: acct.Balance, Holdings: acct.Holdings, Watchlist: watch, Token: token,
	}, nil
}

func (s *Server) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body")
		return
	}
	u, token, err := s.Auth.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmailTaken):
			s.badRequest(c, "user already exists")
		case errors.Is(err, auth.ErrInvalidInput):
			s.badRequest(c, err.Error())
		default:
			s.internalError(c, "Signup", err)
		}
		return
	}
	resp, err := s.userPayload(c, u, token)
	if err != nil {
		s.internalError(c, "Signup", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body")
		return
	}
	u, token, err := s.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.badRequest(c, "invalid credentials")
			return
		}
		s.internalError(c, "Login", err)
		return
	}
	resp, err := s.userPayload(c, u, token)
	if err != nil {
		s.internalError(c, "Login", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) profile(c *gin.Context) {
	resp, err := s.userPayload(c, currentUser(c), "")
	if err != nil {
		s.internalError(c, "Profile", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.Auth.ListUsers(c.Request.Context())
	if err != nil {
		s.internalError(c, "ListUsers", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// --- Stocks ---

func (s *Server) popularStocks(c *gin.Context) {
	rows, err := s.Market.Popular(c.Request.Context())
	if err != nil {
		s.internalError(c, "Popular", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) searchStocks(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		s.badRequest(c, "query is required")
		return
	}
	results, err := s.Market.Search(c.Request.Context(), query)
	if err != nil {
		s.internalError(c, "Search", err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) stockQuote(c *gin.Context) {
	quote, err := s.Market.Quote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			s.notFound(c, "stock data not found")
			return
		}
		s.internalError(c, "Quote", err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

func parseDays(v string, def, min, max int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return def
	}
	return n
}

func (s *Server) stockHistory(c *gin.Context) {
	days := parseDays(c.Query("days"), 30, 1, 365)
	history, err := s.Market.History(c.Request.Context(), c.Param("symbol"), days)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			s.notFound(c, "historical data not found")
			return
		}
		s.internalError(c, "History", err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// --- Watchlist ---

type watchlistRequest struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

func (s *Server) getWatchlist(c *gin.Context) {
	list, err := s.Watchlist.Get(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.internalError(c, "GetWatchlist", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) addToWatchlist(c *gin.Context) {
	var req watchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body")
		return
	}
	list, err := s.Watchlist.Add(c.Request.Context(), currentUser(c).ID, req.Symbol, req.Name)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyWatched) {
			s.badRequest(c, "stock already in watchlist")
			return
		}
		s.badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) removeFromWatchlist(c *gin.Context) {
	list, err := s.Watchlist.Remove(c.Request.Context(), currentUser(c).ID, c.Param("symbol"))
	if err != nil {
		s.internalError(c, "RemoveFromWatchlist", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// --- Transactions ---

type submitTransactionRequest struct {
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (s *Server) submitTransaction(c *gin.Context) {
	var req submitTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid request body")
		return
	}
	side, ok := domain.ParseSide(req.Type)
	if !ok {
		s.badRequest(c, "type must be 'buy' or 'sell'")
		return
	}
	txn, err := s.Trading.Submit(c.Request.Context(), currentUser(c).ID, trading.SubmitRequest{
		Symbol:   req.Symbol,
		Name:     req.Name,
		Side:     side,
		Quantity: req.Quantity,
		Price:    req.Price,
	})
	if err != nil {
		s.tradingError(c, "Submit", err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (s *Server) myTransactions(c *gin.Context) {
	list, err := s.Trading.ListByUser(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.internalError(c, "MyTransactions", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) allTransactions(c *gin.Context) {
	list, err := s.Trading.ListAll(c.Request.Context())
	if err != nil {
		s.internalError(c, "AllTransactions", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) approveTransaction(c *gin.Context) {
	txn, err := s.Trading.Approve(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		s.tradingError(c, "Approve", err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

type rejectRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) rejectTransaction(c *gin.Context) {
	var req rejectRequest
	// body is optional; notes default downstream
	_ = c.ShouldBindJSON(&req)
	txn, err := s.Trading.Reject(c.Request.Context(), currentUser(c).ID, c.Param("id"), req.Notes)
	if err != nil {
		s.tradingError(c, "Reject", err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

// tradingError maps settlement failures onto the API contract: unknown
// transaction is 404, affordability and terminal-state failures are 400
// with the specific reason, anything else is a retryable 500.
func (s *Server) tradingError(c *gin.Context, where string, err error) {
	switch {
	case errors.Is(err, trading.ErrNotFound):
		s.notFound(c, "transaction not found")
	case errors.Is(err, trading.ErrAlreadyProcessed):
		s.badRequest(c, "transaction already processed")
	case errors.Is(err, ledger.ErrInsufficientBalance):
		s.badRequest(c, "insufficient balance")
	case errors.Is(err, ledger.ErrInsufficientHoldings):
		s.badRequest(c, "insufficient holdings")
	case errors.Is(err, ledger.ErrInvalidTrade):
		s.badRequest(c, err.Error())
	default:
		s.internalError(c, where, err)
	}
}
