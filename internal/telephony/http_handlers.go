package telephony

import (
	"net/http"

	"bookstore-ivr/pkg/logger"

	"github.com/gin-gonic/gin"
)

const contentTypeXML = "application/xml; charset=utf-8"

// Write renders r and writes it as the webhook response.
//
// Providers treat any non-2xx or malformed body as an application error and
// drop the call, so a render failure degrades to an empty document.
func Write(c *gin.Context, r *Response) {
	out, err := r.Render()
	if err != nil {
		logger.FromGin(c).Error("markup render failed", "err", err)
		WriteEmpty(c)
		return
	}
	c.Data(http.StatusOK, contentTypeXML, []byte(out))
}

// WriteEmpty acknowledges a callback with an empty document.
func WriteEmpty(c *gin.Context) {
	c.Data(http.StatusOK, contentTypeXML, []byte(EmptyResponse()))
}
