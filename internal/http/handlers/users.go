package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ahburgess22/expense-tracker/internal/config"
	"github.com/ahburgess22/expense-tracker/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type UserAdminStore interface {
	List(ctx context.Context) ([]user.Summary, error)
	DeleteByEmail(ctx context.Context, email string) error
}

// UsersHandler carries the operator-facing user routes. They skip the bearer
// gate; keep them off public deployments.
type UsersHandler struct {
	users UserAdminStore
}

func NewUsersHandler(users UserAdminStore) *UsersHandler {
	return &UsersHandler{users: users}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	users, err := h.users.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Error fetching users")
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	email := ctx.Param("email")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.users.DeleteByEmail(cctx, email)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, fmt.Sprintf("Email %s not found.", email))
			return
		}

		RespondInternal(ctx, "Error deleting user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Deleted %s from users.", email),
	})
}
