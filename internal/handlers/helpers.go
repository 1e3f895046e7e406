package handlers

import (
	"log"
	"net/http"

	"github.com/devkrol/sociogram/internal/guard"
	"github.com/devkrol/sociogram/internal/middleware"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// actorID resolves the authenticated actor's id from the request context.
// Guarded routes always have it; its absence means the route was wired
// without the auth middleware.
func actorID(c echo.Context) (primitive.ObjectID, error) {
	hex, _ := c.Get(middleware.ContextUserID).(string)
	if hex == "" {
		return primitive.NilObjectID, guard.ErrUnauthenticated
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, guard.ErrUnauthenticated
	}
	return id, nil
}

// httpError maps a guard-taxonomy error onto an HTTP response with a
// {message} body. Internal detail is logged, never returned to the client.
func httpError(err error) *echo.HTTPError {
	status := guard.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Println("Internal error:", err)
		return echo.NewHTTPError(status, "Internal server error!")
	}
	return echo.NewHTTPError(status, err.Error())
}

// message is the uniform success body
func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"message": msg})
}

// parseObjectID converts a 24-char hex id from a request
func parseObjectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, guard.ErrValidation
	}
	return id, nil
}
