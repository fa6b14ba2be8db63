package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam создает middleware для извлечения и валидации числового
// параметра URL. paramName — имя параметра маршрута, contextKey — ключ,
// под которым значение кладётся в контекст Gin.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s", paramName)})
			c.Abort()
			return
		}
		c.Set(contextKey, uint(id))
		c.Next()
	}
}

// GetUintParam возвращает значение, сохранённое ExtractUintParam
func GetUintParam(c *gin.Context, contextKey string) uint {
	value, _ := c.Get(contextKey)
	id, _ := value.(uint)
	return id
}
