package ivr

import "github.com/gin-gonic/gin"

// RegisterWebhooks mounts every voice webhook on r. Paths are absolute so
// they line up with the continuation URLs Links builds.
func (h *Handler) RegisterWebhooks(r gin.IRoutes) {
	r.POST(PathInbound, h.Inbound)
	r.POST(PathMenu, h.Menu)
	r.POST(PathPlayback, h.PendingMessage)
	r.POST(PathConnect, h.Connect)
	r.POST(PathDialResult, h.DialResult)
	r.POST(PathWhisper, h.Whisper)
	r.POST(PathConfirm, h.Confirm)
	r.POST(PathCallStatus, h.CallStatus)
	r.POST(PathCalleeStatus, h.CalleeStatus)
	r.POST(PathNotification, h.Notification)
	r.POST(PathNotificationStatus, h.NotificationStatus)
}
