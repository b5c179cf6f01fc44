package api

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-page/app/database"
	"github.com/lysyi3m/rss-page/app/feed"
	"github.com/lysyi3m/rss-page/app/tasks"
)

const recentRendersLimit = 10

func NewHandler(configCache *feed.ConfigCache, feedRepo database.FeedRepository,
	renderRepo database.RenderRepository, pages PageStore,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		feedRepo:    feedRepo,
		renderRepo:  renderRepo,
		configCache: configCache,
		pages:       pages,
		scheduler:   scheduler,
	}
}

func (h *Handler) GetPage(c *gin.Context) {
	file := c.Param("file")

	data, err := h.pages.Read(file)
	if errors.Is(err, os.ErrNotExist) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to read page", "file", file, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()
	health["enabled_configurations"] = len(h.configCache.GetEnabledConfigs())

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	feeds := make([]map[string]interface{}, 0, len(configs))

	for _, name := range names {
		feedConfig := configs[name]
		feedInfo := map[string]interface{}{
			"name":             feedConfig.Name,
			"url":              feedConfig.URL,
			"title":            feedConfig.Title,
			"file":             feedConfig.File,
			"enabled":          feedConfig.Settings.Enabled,
			"refresh_interval": feedConfig.Settings.GetRefreshInterval().String(),
		}

		if feed, err := h.feedRepo.GetFeed(feedConfig.Name); err == nil && feed != nil {
			feedInfo["last_status"] = feed.LastStatus
			feedInfo["item_count"] = feed.LastItemCount
			feedInfo["last_rendered_at"] = feed.LastRenderedAt
			feedInfo["next_render_at"] = feed.NextRenderAt
		}

		feeds = append(feeds, feedInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) APIGetFeedDetails(c *gin.Context) {
	name := c.Param("name")

	feedConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Feed configuration not found", "feed", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	feed, err := h.feedRepo.GetFeed(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if feed == nil {
		slog.Error("Feed not found in database", "feed", name)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found in database"})
		return
	}

	details := map[string]interface{}{
		"name":              name,
		"url":               feedConfig.URL,
		"title":             feedConfig.Title,
		"file":              feedConfig.File,
		"enabled":           feedConfig.Settings.Enabled,
		"refresh_interval":  feedConfig.Settings.GetRefreshInterval().String(),
		"timeout":           feedConfig.Settings.GetTimeout().String(),
		"linkless_headline": feedConfig.Settings.LinklessHeadline,
	}

	details["database"] = map[string]interface{}{
		"last_status":      feed.LastStatus,
		"last_item_count":  feed.LastItemCount,
		"last_error":       feed.LastError,
		"last_rendered_at": feed.LastRenderedAt,
		"next_render_at":   feed.NextRenderAt,
		"created_at":       feed.CreatedAt,
		"updated_at":       feed.UpdatedAt,
	}

	if renders, err := h.renderRepo.GetRecentRenders(name, recentRendersLimit); err == nil {
		history := make([]gin.H, 0, len(renders))
		for _, render := range renders {
			history = append(history, gin.H{
				"status":     render.Status,
				"items":      render.ItemCount,
				"kind":       render.Kind,
				"error":      render.Error,
				"duration":   render.Duration.String(),
				"created_at": render.CreatedAt,
			})
		}
		details["renders"] = history
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIRenderFeed(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	if err := h.scheduler.EnqueueRender(name); err != nil {
		slog.Error("Error enqueueing render task", "feed", name, "error", err)
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to enqueue render task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Render task enqueued",
		"feed":    name,
	})
}

func (h *Handler) APIReloadFeed(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Feed configuration not found", "feed", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed configuration not found"})
		return
	}

	feedConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncFeedTask := tasks.NewSyncFeedConfigTask(name, feedConfig, h.feedRepo)
	if err := h.scheduler.EnqueueTask(syncFeedTask); err != nil {
		slog.Error("Error enqueueing sync task", "feed", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	response := gin.H{
		"success": true,
		"message": "Configuration reloaded",
		"feed": gin.H{
			"name":    name,
			"title":   feedConfig.Title,
			"url":     feedConfig.URL,
			"enabled": feedConfig.Settings.Enabled,
		},
		"tasks": []gin.H{
			{
				"id":   syncFeedTask.ID,
				"type": syncFeedTask.Type,
			},
		},
	}

	if feedConfig.Settings.Enabled {
		if err := h.scheduler.EnqueueRender(name); err != nil {
			slog.Warn("Error enqueueing render task after reload", "feed", name, "error", err)
		} else {
			response["message"] = "Configuration reloaded and render enqueued"
		}
	}

	c.JSON(http.StatusOK, response)
}
