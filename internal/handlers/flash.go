package handlers

import (
	"github.com/gin-gonic/gin"

	"todo-tracker/internal/views"
)

const (
	flashSuccessCookie = "flash_success"
	flashErrorCookie   = "flash_error"
	flashMaxAge        = 60
)

func setFlashSuccess(c *gin.Context, msg string) {
	c.SetCookie(flashSuccessCookie, msg, flashMaxAge, "/", "", false, true)
}

func setFlashError(c *gin.Context, msg string) {
	c.SetCookie(flashErrorCookie, msg, flashMaxAge, "/", "", false, true)
}

// readFlash はフラッシュメッセージを読み出し、同時にCookieを削除します。
func readFlash(c *gin.Context) views.Flash {
	var f views.Flash
	if v, err := c.Cookie(flashSuccessCookie); err == nil && v != "" {
		f.Success = v
		c.SetCookie(flashSuccessCookie, "", -1, "/", "", false, true)
	}
	if v, err := c.Cookie(flashErrorCookie); err == nil && v != "" {
		f.Error = v
		c.SetCookie(flashErrorCookie, "", -1, "/", "", false, true)
	}
	return f
}
