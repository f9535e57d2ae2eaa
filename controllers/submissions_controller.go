package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"applypilot/services"
	"applypilot/utils"
)

// SubmissionsController exposes the append-only logs to the monitor UI. Read
// only: the automation loop is the sole writer.
type SubmissionsController struct {
	sink        *services.ResultSink
	screenshots *services.ScreenshotService
}

func NewSubmissionsController(sink *services.ResultSink, screenshots *services.ScreenshotService) *SubmissionsController {
	return &SubmissionsController{sink: sink, screenshots: screenshots}
}

func (c *SubmissionsController) ListSubmissions(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))

	records, err := c.sink.ListSubmissions(limit)
	if err != nil {
		utils.InternalError(ctx, "Failed to load submissions", err)
		return
	}
	utils.SuccessResponse(ctx, http.StatusOK, "Submissions loaded", records)
}

func (c *SubmissionsController) ListAnswers(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "100"))

	records, err := c.sink.ListAnswers(limit)
	if err != nil {
		utils.InternalError(ctx, "Failed to load answers", err)
		return
	}
	utils.SuccessResponse(ctx, http.StatusOK, "Answers loaded", records)
}

// GetScreenshot redirects to a presigned URL for a stored screenshot key.
func (c *SubmissionsController) GetScreenshot(ctx *gin.Context) {
	key := ctx.Query("key")
	if key == "" {
		utils.BadRequest(ctx, "key query parameter required", nil)
		return
	}

	url, err := c.screenshots.PresignedURL(key)
	if err != nil {
		utils.InternalError(ctx, "Failed to generate screenshot URL", err)
		return
	}
	ctx.Redirect(http.StatusFound, url)
}
