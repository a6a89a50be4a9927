package api

import (
	"net/http"
	"strings"

	"github.com/dmitrymomot/dispatch/handler"
	"github.com/dmitrymomot/dispatch/pkg/notification"
)

// MaxListLimit caps the page size a client may ask for.
const MaxListLimit = 500

type listRequest struct {
	UserID string `path:"userId"`
	Limit  int    `query:"limit"`
}

type listResponse struct {
	Notifications []notification.Notification `json:"notifications"`
	Count         int                         `json:"count"`
}

type markReadRequest struct {
	ID string `path:"id"`
}

func (a *API) create(ctx handler.Context, req notification.CreateInput) handler.Response {
	n, err := a.svc.Create(ctx, req)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(n, handler.WithJSONStatus(http.StatusCreated))
}

func (a *API) list(ctx handler.Context, req listRequest) handler.Response {
	verr := handler.NewValidationError()
	if strings.TrimSpace(req.UserID) == "" {
		verr.Add("userId", "is required")
	}
	if req.Limit < 0 || req.Limit > MaxListLimit {
		verr.Add("limit", "must be between 0 and 500")
	}
	if !verr.IsEmpty() {
		return handler.Error(verr)
	}

	items, err := a.svc.List(ctx, req.UserID, req.Limit)
	if err != nil {
		return handler.Error(err)
	}
	if items == nil {
		items = []notification.Notification{}
	}
	return handler.JSON(listResponse{Notifications: items, Count: len(items)})
}

func (a *API) markRead(ctx handler.Context, req markReadRequest) handler.Response {
	n, err := a.svc.MarkRead(ctx, req.ID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(n)
}
