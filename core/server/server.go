package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Daunte502/RNG/internal/broker"
	"github.com/Daunte502/RNG/internal/db"
	"github.com/Daunte502/RNG/internal/domain"
	"github.com/Daunte502/RNG/internal/metrics"
	"github.com/Daunte502/RNG/internal/worker"
)

// newKafkaQueue is swapped in tests.
var newKafkaQueue = broker.NewKafkaQueue

type Server struct {
	config  *ServerConfig
	worker  *worker.Worker
	metrics *metrics.Metrics
	router  *gin.Engine
}

func NewServer(options ...ConfigOption) (*Server, error) {
	config := &ServerConfig{
		WorkerCount: 4,
		Port:        "8080",
		Timeout:     db.DefaultTimeout,
		Logger:      slog.Default(),
	}

	for _, option := range options {
		if err := option(config); err != nil {
			return nil, err
		}
	}

	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
		config.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := metrics.New(config.Registry)

	ownsStore := false
	if config.DataStore == nil {
		if config.Mongo == nil {
			return nil, errors.New("no data store configured")
		}
		client, err := db.NewMongoConnection(context.Background(), *config.Mongo, config.Logger)
		if err != nil {
			return nil, err
		}
		config.DataStore = db.NewUpdateStore(client,
			db.WithLogger(config.Logger),
			db.WithMetrics(m),
			db.WithTimeout(config.Timeout),
		)
		ownsStore = true
	}

	if config.MessageQueue == nil {
		switch {
		case config.Kafka != nil:
			mq, err := newKafkaQueue(*config.Kafka, config.Logger)
			if err != nil {
				if ownsStore {
					config.DataStore.Close()
				}
				return nil, err
			}
			config.MessageQueue = mq
		case config.ChannelCapacity > 0:
			config.MessageQueue = broker.NewChannelQueue(config.ChannelCapacity, config.Logger)
		}
	}

	server := &Server{
		config:  config,
		metrics: m,
		router:  gin.New(),
	}
	if config.MessageQueue != nil {
		server.worker = worker.NewWorker(config.DataStore, config.WorkerCount, config.Logger, m)
	}

	server.router.Use(gin.Recovery(), requestLogger(config.Logger))
	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{})))

	api := s.router.Group("/api")
	{
		api.POST("/update", s.handleUpdate)
		api.GET("/numberfrequency", s.handleFrequency)
		api.POST("/oncount", s.handleOnCountForm)

		api.GET("/frequency", s.handleFrequency)
		api.GET("/on/:led", s.handleOnCount)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{"status": "healthy"}
	if s.worker != nil {
		body["worker"] = s.worker.Stats()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleUpdate(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "error": "failed to read body"})
		return
	}

	update, err := domain.DecodeUpdate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.Timeout)
	defer cancel()

	if s.config.MessageQueue != nil {
		if err := s.config.MessageQueue.Publish(ctx, raw); err != nil {
			s.config.Logger.Error("Failed to publish update", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "failed"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
		return
	}

	if !s.config.DataStore.Record(ctx, update) {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "complete"})
}

func (s *Server) handleFrequency(c *gin.Context) {
	results, err := s.config.DataStore.FrequencyReport(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "found", "data": results})
}

func (s *Server) handleOnCount(c *gin.Context) {
	s.writeOnCount(c, c.Param("led"))
}

// handleOnCountForm reads the field name from the LED_Name form value.
func (s *Server) handleOnCountForm(c *gin.Context) {
	led := c.PostForm("LED_Name")
	if led == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "failed", "error": "LED_Name is required"})
		return
	}
	s.writeOnCount(c, led)
}

func (s *Server) writeOnCount(c *gin.Context, led string) {
	count, err := s.config.DataStore.OnCount(c.Request.Context(), led)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "found", "data": count})
}

func (s *Server) Start(ctx context.Context) error {
	if s.worker != nil {
		go func() {
			if err := s.worker.Start(ctx, s.config.MessageQueue); err != nil {
				s.config.Logger.Error("Update worker error", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.config.Logger.Info("Server starting", "port", s.config.Port)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

func (s *Server) Close() error {
	var errs []error
	if q, ok := s.config.MessageQueue.(interface{ Len() int }); ok {
		if n := q.Len(); n > 0 {
			s.config.Logger.Warn("Dropping buffered updates that were never recorded", "count", n)
		}
	}
	if s.config.MessageQueue != nil {
		errs = append(errs, s.config.MessageQueue.Close())
	}
	if s.config.DataStore != nil {
		errs = append(errs, s.config.DataStore.Close())
	}
	return errors.Join(errs...)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
