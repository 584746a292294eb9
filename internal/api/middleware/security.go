package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders 安全响应头
//
// 只提供 JSON 与文件下载，不渲染页面；计时状态每秒变化，禁止缓存。
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}
