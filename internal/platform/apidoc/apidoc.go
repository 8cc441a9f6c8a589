package apidoc

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const SpecPath = "/openapi.yaml"

//go:embed openapi.yaml
var spec []byte

// Register: /openapi.yaml と Swagger UI (/swagger/index.html)
func Register(r gin.IRoutes) {
	r.GET(SpecPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", spec)
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(SpecPath)))
}
