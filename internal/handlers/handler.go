package handlers

import (
	"net/http"

	_ "pump_relay/docs"
	"pump_relay/internal/logger"
	"pump_relay/internal/relay"
	"pump_relay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Boundary defaults.
const (
	DefaultMaxBodyBytes = 2 * 1024
	DefaultGzipMinSize  = 1000
)

// Options tunes the HTTP boundary.
type Options struct {
	MaxBodyBytes       int64
	GzipMinSize        int
	AllowedOrigins     []string
	DeviceStatusOverWS bool // treat device websocket frames as status reports
	WS                 relay.WSOptions
}

func (o Options) withDefaults() Options {
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.GzipMinSize <= 0 {
		o.GzipMinSize = DefaultGzipMinSize
	}
	return o
}

// Handler wires HTTP layer to services, the relay and logging.
type Handler struct {
	services *service.Service
	relay    *relay.Relay
	log      *logger.Logger
	opts     Options
	upgrader websocket.Upgrader
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, rl *relay.Relay, log *logger.Logger, opts Options) *Handler {
	return &Handler{
		services: services,
		relay:    rl,
		log:      log,
		opts:     opts.withDefaults(),
		upgrader: websocket.Upgrader{
			// Devices and UI clients connect from arbitrary origins; CORS is enforced on REST routes.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(h.requestID, h.recovery(), h.accessLog, h.bodyLimit)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	h.registerChannelRoutes(router)
	h.registerPumpRoutes(router)

	return router
}

// HTTPHandler returns the router wrapped with CORS and response compression.
// Websocket upgrades bypass compression because they need the raw connection.
func (h *Handler) HTTPHandler() (http.Handler, error) {
	router := h.InitRoutes()

	gzip, err := gzhttp.NewWrapper(gzhttp.MinSize(h.opts.GzipMinSize))
	if err != nil {
		return nil, err
	}
	compressed := gzip(router)

	dispatch := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			router.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: h.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(dispatch), nil
}

func (h *Handler) registerChannelRoutes(r *gin.Engine) {
	ws := r.Group("/ws")
	{
		ws.GET("/esp", h.wsDevice)
		ws.GET("/client", h.wsClient)
	}
}

func (h *Handler) registerPumpRoutes(r *gin.Engine) {
	pump := r.Group("/pump")
	{
		pump.POST("/toggle", h.toggle)
		pump.POST("/off", h.off)
		// Body example: {"hours":1,"minutes":30}
		pump.POST("/timer", h.setTimer)
		pump.POST("/status", h.reportStatus)
		pump.GET("/status", h.getStatus)
		pump.GET("/events", h.getEvents)
	}
}
