package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations and "today"

	"creditmanager/internal/balance"    // Balance aggregation
	"creditmanager/internal/middleware" // Current-user lookup
	"creditmanager/internal/period"     // Period resolution
	"creditmanager/internal/utils"      // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// summaryTTL is how long dashboard summaries stay cached
const summaryTTL = 60 * time.Second

// periodParam reads the ?periodo= selector; an absent value means the
// current month, an unrecognized one means no restriction. The selector is
// canonicalized so every unrecognized value shares the all-time cache key
// instead of minting its own.
func periodParam(c *gin.Context) (string, *period.Range) {
	selector := period.Canonical(c.Query("periodo"))
	return selector, period.Resolve(selector, time.Now())
}

// userSummaryCacheKey is the cache key for one user's dashboard
func userSummaryCacheKey(userID uint, selector string) string {
	return "dashboard:user:" + strconv.Itoa(int(userID)) + ":periodo:" + selector
}

// adminSummaryCacheKey is the cache key for the all-users dashboard
func adminSummaryCacheKey(selector string) string {
	return "dashboard:admin:periodo:" + selector
}

// invalidateSummaries drops the cached dashboards touched by a write against
// one user's cards or expenses: that user's summaries and the admin-wide
// ones, across every period selector
func invalidateSummaries(c *gin.Context, userID uint) {
	rdb, ok := c.MustGet("redisClient").(*redis.Client) // Redis injected by the route group
	if !ok {
		return
	}
	ctx := context.Background() // Context for Redis operations
	for _, selector := range []string{period.CurrentMonth, period.Last30Days, period.AllTime} {
		_ = utils.DeleteCache(ctx, rdb, userSummaryCacheKey(userID, selector))
		_ = utils.DeleteCache(ctx, rdb, adminSummaryCacheKey(selector))
	}
}

// DashboardHandler returns the period-filtered summary: all users for
// admins, the caller's own cards for everyone else
func DashboardHandler(agg *balance.Aggregator, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentUser(c) // Authenticated caller
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		selector, rng := periodParam(c) // Resolve the period once
		ctx := context.Background()     // Context for Redis operations

		if actor.IsAdmin {
			cacheKey := adminSummaryCacheKey(selector)
			var cached balance.AdminSummary
			// Serve from cache when possible
			if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
				c.JSON(http.StatusOK, gin.H{"periodo": selector, "summary": cached, "cached": true})
				return
			}
			summary, err := agg.AdminSummary(rng)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary"})
				return
			}
			_ = utils.SetCache(ctx, rdb, cacheKey, summary, summaryTTL) // Cache for the next reader
			c.JSON(http.StatusOK, gin.H{"periodo": selector, "summary": summary, "cached": false})
			return
		}

		cacheKey := userSummaryCacheKey(actor.ID, selector)
		var cached balance.UserSummary
		// Serve from cache when possible
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"periodo": selector, "summary": cached, "cached": true})
			return
		}
		summary, err := agg.UserSummary(actor.ID, rng)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, summary, summaryTTL) // Cache for the next reader
		c.JSON(http.StatusOK, gin.H{"periodo": selector, "summary": summary, "cached": false})
	}
}
