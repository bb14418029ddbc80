package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/mallops_backend/appctx"
)

var (
	ContextKeyPropertyId    = appctx.ContextKeyPropertyId
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
)

func GetPropertyIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyPropertyId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetPropertyIdInContext(ctx context.Context, propertyId string) context.Context {
	return appctx.Set(ctx, ContextKeyPropertyId, propertyId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}
