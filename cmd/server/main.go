package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"primekg/internal/graph"
	"primekg/internal/ingest"
	"primekg/internal/linker"
	"primekg/internal/snapshot"
	"primekg/internal/tabular"
	"primekg/pkg/config"
	apperrors "primekg/pkg/errors"
	"primekg/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting knowledge graph server...")

	store, buildID, err := loadStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to prepare graph", zap.Error(err))
	}
	log.Info("Graph ready",
		zap.Int("nodes", store.NodeCount()),
		zap.Int("edges", store.EdgeCount()),
		zap.String("build_id", buildID),
	)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(store, buildID, log)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// loadStore restores the graph from the configured snapshot when one
// exists, otherwise builds it from the source tables in the data
// directory. The returned build ID is empty for freshly built stores
func loadStore(cfg *config.Config, log *zap.Logger) (*graph.Store, string, error) {
	if _, err := os.Stat(cfg.SnapshotPath); err == nil {
		store, meta, err := snapshot.Load(cfg.SnapshotPath, log)
		if err != nil {
			return nil, "", err
		}
		return store, meta.BuildID, nil
	}

	log.Info("No snapshot found, building graph from source tables",
		zap.String("dir", cfg.DataDir),
	)

	store := graph.NewStore()
	pipeline := ingest.New(store, log)

	if _, err := pipeline.LoadNodes(filepath.Join(cfg.DataDir, ingest.NodesFile)); err != nil {
		return nil, "", err
	}
	if _, err := pipeline.LoadEdges(filepath.Join(cfg.DataDir, ingest.EdgesFile)); err != nil {
		return nil, "", err
	}

	featureTables := []struct {
		file     string
		nodeType string
	}{
		{ingest.DrugFeaturesFile, "drug"},
		{ingest.DiseaseFeaturesFile, "disease"},
	}
	for _, ft := range featureTables {
		path := filepath.Join(cfg.DataDir, ft.file)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Warn("Feature table missing, skipping", zap.String("file", ft.file))
			continue
		}
		if _, err := pipeline.LoadFeatures(path, ft.nodeType); err != nil {
			return nil, "", err
		}
	}

	clusterPath := filepath.Join(cfg.DataDir, ingest.ClustersFile)
	if _, err := os.Stat(clusterPath); os.IsNotExist(err) {
		log.Warn("Cluster table missing, skipping similarity linking",
			zap.String("file", ingest.ClustersFile),
		)
		return store, "", nil
	}
	rows, _, err := tabular.NewReader(log).ReadClusterTable(clusterPath)
	if err != nil {
		return nil, "", err
	}
	linker.New(store, log).LinkClusters(rows)

	return store, "", nil
}

// newRouter wires the read-only query endpoints around a built store
func newRouter(store *graph.Store, buildID string, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"build_id": buildID,
			"stats":    store.Stats(),
		})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		// Resolve an entity name to its node
		api.GET("/resolve", func(c *gin.Context) {
			name := c.Query("name")
			if name == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
				return
			}

			index, err := store.ResolveName(name)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			node, err := store.Node(index)
			if err != nil {
				log.Error("Failed to read resolved node", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read node"})
				return
			}

			c.JSON(http.StatusOK, node)
		})

		// Node by internal index
		api.GET("/nodes/:index", func(c *gin.Context) {
			index, err := strconv.Atoi(c.Param("index"))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
				return
			}

			node, err := store.Node(index)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}

			c.JSON(http.StatusOK, node)
		})

		// Neighbors of a node by index, optionally filtered by type
		api.GET("/nodes/:index/neighbors", func(c *gin.Context) {
			index, err := strconv.Atoi(c.Param("index"))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
				return
			}
			dir := graph.ParseDirection(c.Query("direction"))
			typeFilter := c.Query("type")

			neighbors, err := store.Neighbors(index, dir)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}

			nodes := make([]*graph.Node, 0, len(neighbors))
			for _, n := range neighbors {
				node, err := store.Node(n)
				if err != nil {
					log.Error("Failed to read neighbor node", zap.Error(err))
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read neighbors"})
					return
				}
				if typeFilter != "" && node.Type != typeFilter {
					continue
				}
				nodes = append(nodes, node)
			}

			c.JSON(http.StatusOK, gin.H{
				"index":     index,
				"direction": dir.String(),
				"count":     len(nodes),
				"neighbors": nodes,
			})
		})

		// Typed neighbor names of a named entity
		api.GET("/neighbors", func(c *gin.Context) {
			name := c.Query("name")
			nodeType := c.Query("type")
			if name == "" || nodeType == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "name and type are required"})
				return
			}

			names, err := store.TypedNeighbors(name, nodeType)
			if err != nil {
				if apperrors.IsErrorType(err, apperrors.ErrorTypeQuery) {
					c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				log.Error("Failed to list typed neighbors", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list neighbors"})
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"entity": name,
				"type":   nodeType,
				"count":  len(names),
				"names":  names,
			})
		})

		// One-hop neighborhood of a named entity as per-edge records
		api.GET("/neighborhood", func(c *gin.Context) {
			name := c.Query("name")
			if name == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
				return
			}

			records, err := store.NeighborhoodRecords(name)
			if err != nil {
				if apperrors.IsErrorType(err, apperrors.ErrorTypeQuery) {
					c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				log.Error("Failed to build neighborhood records", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build neighborhood"})
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"entity":  name,
				"count":   len(records),
				"records": records,
			})
		})

		// Shortest path between two named entities
		api.GET("/path", func(c *gin.Context) {
			from := c.Query("from")
			to := c.Query("to")
			if from == "" || to == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
				return
			}

			result, err := store.ShortestPath(from, to)
			if err != nil {
				if apperrors.IsErrorType(err, apperrors.ErrorTypeQuery) {
					c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				log.Error("Failed to compute shortest path", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute path"})
				return
			}

			c.JSON(http.StatusOK, result)
		})

		// Induced subgraph over a set of entity names
		api.POST("/subgraph", func(c *gin.Context) {
			var req struct {
				Names []string `json:"names" binding:"required"`
			}

			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			c.JSON(http.StatusOK, store.Subgraph(req.Names))
		})

		// Entities sharing a second-order neighbor with a named entity
		api.GET("/shared", func(c *gin.Context) {
			name := c.Query("name")
			bridgeType := c.Query("bridge")
			targetType := c.Query("target")
			if name == "" || bridgeType == "" || targetType == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "name, bridge and target are required"})
				return
			}

			names, err := store.SharedSecondOrder(name, bridgeType, targetType)
			if err != nil {
				if apperrors.IsErrorType(err, apperrors.ErrorTypeQuery) {
					c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
					return
				}
				log.Error("Failed to collect shared neighbors", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect shared neighbors"})
				return
			}

			c.JSON(http.StatusOK, gin.H{
				"entity":      name,
				"bridge_type": bridgeType,
				"target_type": targetType,
				"count":       len(names),
				"names":       names,
			})
		})
	}

	return router
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
