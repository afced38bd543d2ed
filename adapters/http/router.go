package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth    *AuthHandler
	Capture *CaptureHandler
	Message *MessageHandler
	Gallery *GalleryHandler
	Export  *ExportHandler
	Share   *ShareHandler
}

// RegisterRoutes mounts the guest, host and public routes on router.
func RegisterRoutes(router *gin.Engine, h Handlers, guestAuth, hostAuth gin.HandlerFunc) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })

		guest := api.Group("/guest")
		{
			guest.POST("/session", h.Auth.GuestSession)
			guest.GET("/weddings/:id/guests", h.Auth.ListGuests)

			guestPrivate := guest.Group("/")
			guestPrivate.Use(guestAuth)
			{
				captureGroup := guestPrivate.Group("/capture")
				{
					captureGroup.GET("", h.Capture.GetStatus)
					captureGroup.DELETE("", h.Capture.CloseSession)
					captureGroup.POST("/mode", h.Capture.SwitchMode)
					captureGroup.POST("/acquire", h.Capture.Acquire)
					captureGroup.POST("/snapshot", h.Capture.Snapshot)
					captureGroup.POST("/recording/start", h.Capture.StartRecording)
					captureGroup.POST("/recording/stop", h.Capture.StopRecording)
					captureGroup.POST("/file", h.Capture.SelectFile)
					captureGroup.POST("/discard", h.Capture.Discard)
					captureGroup.POST("/submit", h.Capture.Submit)
					captureGroup.GET("/preview", h.Capture.Preview)
				}
				guestPrivate.POST("/messages", h.Message.CreateMessage)
			}
		}

		host := api.Group("/host")
		{
			host.POST("/session", h.Auth.HostSession)

			hostPrivate := host.Group("/")
			hostPrivate.Use(hostAuth)
			{
				hostPrivate.GET("/gallery", h.Gallery.GetGallery)
				hostPrivate.GET("/export.zip", h.Gallery.ExportZip)

				exports := hostPrivate.Group("/exports")
				{
					exports.POST("", h.Export.RequestExport)
					exports.GET("", h.Export.ListExports)
					exports.GET("/:id", h.Export.GetExport)
				}

				hostPrivate.GET("/share", h.Share.GetLink)
				hostPrivate.GET("/share/qr.png", h.Share.GetQRCode)
			}
		}
	}
}
