// Package http exposes the wallet adapter to local tools over HTTP.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/atomic"
	"moff.io/moff-wallet/internal/config"
	"moff.io/moff-wallet/internal/web3"
	"moff.io/moff-wallet/pkg/errors"
	"moff.io/moff-wallet/pkg/log"
	"moff.io/moff-wallet/pkg/log/middleware"
)

const (
	defaultConnectTimeout = 5 * time.Minute
	defaultAddress        = ":8080"
)

type Server struct {
	api     web3.Web3Api
	pairing *Pairing
	// bounds background connects started by POST /wallet/connect
	connectTimeout time.Duration
	connecting     *atomic.Bool

	address string
	router  *gin.Engine
	srv     *http.Server
}

// NewServer routes the wallet endpoints to api. The pending QR code is read
// from pairing, which is cleared once the wallet connects or disconnects.
func NewServer(api web3.Web3Api, pairing *Pairing, connectTimeout time.Duration) *Server {
	if pairing == nil {
		pairing = &Pairing{}
	}
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	s := &Server{
		api:            api,
		pairing:        pairing,
		connectTimeout: connectTimeout,
		connecting:     atomic.NewBool(false),
		address:        defaultAddress,
	}
	api.AddListener(web3.EventWalletConnected, func(...interface{}) { pairing.Clear() })
	api.AddListener(web3.EventWalletDisconnected, func(...interface{}) { pairing.Clear() })

	router := gin.New()
	router.Use(middleware.RecoveredHTTPLog())
	wallet := router.Group("/wallet")
	wallet.GET("/status", middleware.TimeoutHTTP(), s.status)
	wallet.POST("/connect", s.connect)
	wallet.GET("/qrcode", s.qrcode)
	wallet.POST("/disconnect", middleware.TimeoutHTTP(), s.disconnect)
	s.router = router
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Apply takes the listen address from the http section.
func (s *Server) Apply(c *config.Configuration) {
	if c.HTTP.Address != "" {
		s.address = c.HTTP.Address
	}
}

// Start serves in the background until Stop.
func (s *Server) Start(ctx context.Context) {
	s.srv = &http.Server{Addr: s.address, Handler: s.router}
	go func() {
		log.Infof("http server listening on %s", s.address)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(errors.WrapAndReport(err, "http server"))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// curl http://127.0.0.1:8080/wallet/status
func (s *Server) status(ctx *gin.Context) {
	resp := gin.H{
		"name":      s.api.Name(),
		"connected": s.api.IsConnected(),
	}
	if !s.api.IsConnected() {
		resp["connecting"] = s.connecting.Load()
		ctx.JSON(http.StatusOK, resp)
		return
	}
	address, err := s.api.GetAddress(ctx.Request.Context())
	if err != nil {
		log.Warnf("wallet status - address: %v", err)
		resp["error"] = err.Error()
	} else {
		resp["address"] = address
	}
	chainID, err := s.api.GetChainId(ctx.Request.Context())
	if err != nil {
		log.Warnf("wallet status - chain id: %v", err)
		resp["error"] = err.Error()
	} else {
		resp["chain_id"] = chainID
	}
	ctx.JSON(http.StatusOK, resp)
}

// curl -X POST http://127.0.0.1:8080/wallet/connect
func (s *Server) connect(ctx *gin.Context) {
	if s.api.IsConnected() {
		ctx.JSON(http.StatusOK, gin.H{"connected": true})
		return
	}
	if s.connecting.CAS(false, true) {
		go s.connectInBackground()
	}
	ctx.JSON(http.StatusAccepted, gin.H{"connected": false, "connecting": true})
}

func (s *Server) connectInBackground() {
	defer s.connecting.Store(false)
	defer func() {
		if i := recover(); i != nil {
			log.Error(errors.ErrorfAndReport("wallet connect panic: %v", i))
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), s.connectTimeout)
	defer cancel()
	if err := s.api.Connect(ctx); err != nil {
		log.Errorf("wallet connect - %v", err)
		s.pairing.Clear()
	}
}

// curl -o pairing.png http://127.0.0.1:8080/wallet/qrcode
func (s *Server) qrcode(ctx *gin.Context) {
	uri, png, ok := s.pairing.Current()
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"msg": "no pairing in progress"})
		return
	}
	ctx.Header("x-pairing-uri", uri)
	ctx.Data(http.StatusOK, "image/png", png)
}

// curl -X POST http://127.0.0.1:8080/wallet/disconnect
func (s *Server) disconnect(ctx *gin.Context) {
	if err := s.api.Disconnect(ctx.Request.Context()); err != nil {
		log.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"connected": false})
}
