package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/threadline/threadline/internal/api/forumapi"
	"github.com/threadline/threadline/internal/cache"
	"github.com/threadline/threadline/internal/db"
	"github.com/threadline/threadline/internal/forum"
	"github.com/threadline/threadline/internal/identity"
	"github.com/threadline/threadline/internal/loader"
	"github.com/threadline/threadline/pkg/config"
	"github.com/threadline/threadline/pkg/logging"
)

// Router sets up API routes
type Router struct {
	handler  *JSONRPCHandler
	store    forum.Store
	db       *db.DB
	cache    *cache.Cache
	provider *identity.Provider
	logger   *zap.Logger
}

// NewRouter creates a new API router
func NewRouter(database *db.DB, redisCache *cache.Cache, provider *identity.Provider, feedCfg *config.FeedConfig) *Router {
	router := &Router{
		handler:  NewJSONRPCHandler(),
		store:    db.NewStore(database),
		db:       database,
		cache:    redisCache,
		provider: provider,
		logger:   logging.GetLogger().With(zap.String("component", "api-router")),
	}

	// Register all API methods
	router.registerMethods(feedCfg)

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	// JSON-RPC endpoint
	engine.POST("/", r.provider.Middleware(), r.loaderMiddleware(), r.handler.Handle)
}

// registerMethods registers all API methods
func (r *Router) registerMethods(feedCfg *config.FeedConfig) {
	postService := forum.NewPostService(r.store, r.cache)
	voteService := forum.NewVoteService(r.store)
	feedService := forum.NewFeedService(r.store, r.cache, feedCfg.CountCacheTTL)

	posts := forumapi.NewPostsAPI(postService, feedService)
	votes := forumapi.NewVotesAPI(voteService)

	r.handler.RegisterMethod("forum_api.create_post", posts.CreatePost)
	r.handler.RegisterMethod("forum_api.update_post", posts.UpdatePost)
	r.handler.RegisterMethod("forum_api.delete_post", posts.DeletePost)
	r.handler.RegisterMethod("forum_api.get_post", posts.GetPost)
	r.handler.RegisterMethod("forum_api.list_posts", posts.ListPosts)
	r.handler.RegisterMethod("forum_api.cast_vote", votes.CastVote)
}

// loaderMiddleware attaches a fresh set of batch loaders to each request.
// The loaders cache results for exactly one request and are never reused.
func (r *Router) loaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := loader.WithLoaders(c.Request.Context(), loader.NewLoaders(r.store))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	status := "OK"
	code := 200

	if err := r.db.Health(c.Request.Context()); err != nil {
		status = "DEGRADED"
		code = 503
		r.logger.Error("database health check failed", zap.Error(err))
	}

	c.JSON(code, gin.H{
		"status":  status,
		"service": "threadline-api",
	})
}
