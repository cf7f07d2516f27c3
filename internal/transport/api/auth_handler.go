package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService AuthServicer
}

func NewAuthHandler(authService AuthServicer) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type StaffLoginParams struct {
	Username string `binding:"required,max_bytes=64"  json:"username"`
	Password string `binding:"required,max_bytes=255" json:"password"`
}

// Login POST RouteGroup + LoginRoute. Вход сотрудника, токен возвращается в теле и в заголовке Authorization.
func (h *AuthHandler) Login(c *gin.Context) {
	var params StaffLoginParams
	if !bindJSON(c, &params) {
		return
	}

	token, role, err := h.authService.Login(params.Username, params.Password)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.Header("Authorization", "Bearer "+token)
	c.JSON(http.StatusOK, gin.H{"token": token, "role": role})
}
