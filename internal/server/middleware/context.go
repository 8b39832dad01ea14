package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/opsgraph/backend/pkg/ai"
	"github.com/opsgraph/backend/pkg/query"
	"github.com/opsgraph/backend/pkg/store"
)

type AppUser struct {
	Subject string
	Role    string
}

type App struct {
	GraphStore  store.GraphStore
	VectorIndex store.VectorIndex
	Queue       *amqp091.Channel
	Key         *keyfunc.Keyfunc
	S3          *s3.Client
	AiClient    ai.GraphAIClient
	Router      *query.Router

	MasterAPIKey   string
	MasterUserRole string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
