package api

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
)

// HandleAPIGateway serves an API Gateway proxy event through the router.
// It fails only when the event cannot be turned into a request.
func (h *Handler) HandleAPIGateway(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.proxy.ProxyWithContext(ctx, req)
}
